package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
	"github.com/cardscout/service-benefit/internal/domain/promotion"
)

// PromotionModel is the GORM model for the card_promotions table.
type PromotionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Company     string    `gorm:"type:varchar(20);not null;index"`
	Description string    `gorm:"type:varchar(500);not null"`
	ImgURL      string    `gorm:"type:varchar(500)"`
	URL         string    `gorm:"type:varchar(500)"`
	StartsAt    time.Time `gorm:"not null"`
	EndsAt      time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PromotionModel) TableName() string { return "card_promotions" }

// GormPromotionRepository implements promotion.Repository using GORM.
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository.
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// FindActiveByCompanies returns promotions whose window covers `at`.
func (r *GormPromotionRepository) FindActiveByCompanies(ctx context.Context, companies []catalog.CardCompany, at time.Time) ([]*promotion.Promotion, error) {
	if len(companies) == 0 {
		return nil, nil
	}
	names := make([]string, len(companies))
	for i, c := range companies {
		names[i] = string(c)
	}

	var models []PromotionModel
	err := r.db.WithContext(ctx).
		Where("company IN ?", names).
		Where("starts_at <= ? AND ends_at >= ?", at, at).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	promos := make([]*promotion.Promotion, len(models))
	for i, m := range models {
		promos[i] = promotion.Reconstruct(
			m.ID, catalog.CardCompany(m.Company), m.Description,
			m.ImgURL, m.URL, m.StartsAt, m.EndsAt,
		)
	}
	return promos, nil
}
