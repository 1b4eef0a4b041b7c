package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cardscout/service-benefit/internal/domain"
	"github.com/cardscout/service-benefit/internal/domain/catalog"
	"github.com/cardscout/service-benefit/internal/domain/ledger"
)

// CardPerformanceModel is the GORM model for the card_performances table.
type CardPerformanceModel struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CardID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CurrentAmount  int64     `gorm:"not null;default:0"`
	TargetAmount   int64     `gorm:"not null;default:0"`
	TargetAchieved bool      `gorm:"not null;default:false"`
	LastUpdatedAt  time.Time `gorm:"not null"`
	Version        int64     `gorm:"not null;default:1"`
}

// TableName sets the table name.
func (CardPerformanceModel) TableName() string { return "card_performances" }

// UsageRecordModel is the GORM model for the benefit_usages table.
// Rows are insert-only.
type UsageRecordModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_benefit_usages_lookup"`
	CardID         uuid.UUID `gorm:"type:uuid;not null;index:idx_benefit_usages_lookup"`
	SubOfferID     uuid.UUID `gorm:"type:uuid;not null;index:idx_benefit_usages_lookup"`
	Kind           string    `gorm:"type:varchar(10);not null;index:idx_benefit_usages_lookup"`
	UsedAmount     int64     `gorm:"not null"`
	RemainingLimit int64     `gorm:"not null"`
	Place          string    `gorm:"type:varchar(200);not null"`
	UsedAt         time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (UsageRecordModel) TableName() string { return "benefit_usages" }

// GormLedgerRepository implements ledger.Repository using GORM.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository.
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// GetPerformance returns the snapshot for (user, card).
func (r *GormLedgerRepository) GetPerformance(ctx context.Context, userID, cardID uuid.UUID) (*ledger.CardPerformance, error) {
	var model CardPerformanceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("card performance")
		}
		return nil, err
	}
	return ledger.ReconstructCardPerformance(
		model.UserID, model.CardID, model.CurrentAmount, model.TargetAmount,
		model.TargetAchieved, model.LastUpdatedAt, model.Version,
	), nil
}

// SavePerformance upserts the full snapshot with a compare-and-swap on the
// version column. A stale version returns domain.ErrConflict so callers can
// detect a concurrent writer that slipped past an expired lock TTL.
func (r *GormLedgerRepository) SavePerformance(ctx context.Context, p *ledger.CardPerformance) error {
	if p.Version() == 1 {
		model := CardPerformanceModel{
			UserID:         p.UserID(),
			CardID:         p.CardID(),
			CurrentAmount:  p.CurrentAmount(),
			TargetAmount:   p.TargetAmount(),
			TargetAchieved: p.TargetAchieved(),
			LastUpdatedAt:  p.LastUpdatedAt(),
			Version:        1,
		}
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.NewConflictError("card performance already created")
			}
			return err
		}
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&CardPerformanceModel{}).
		Where("user_id = ? AND card_id = ? AND version = ?", p.UserID(), p.CardID(), p.Version()-1).
		Updates(map[string]interface{}{
			"current_amount":  p.CurrentAmount(),
			"target_amount":   p.TargetAmount(),
			"target_achieved": p.TargetAchieved(),
			"last_updated_at": p.LastUpdatedAt(),
			"version":         p.Version(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewConflictError("card performance version conflict")
	}
	return nil
}

// UsageInPeriod sums used amounts for one sub-offer inside [from, to),
// aggregated server-side. The upper bound is exclusive so the query is
// immune to timestamp precision truncation at the month boundary.
func (r *GormLedgerRepository) UsageInPeriod(ctx context.Context, userID, cardID, subOfferID uuid.UUID, kind catalog.Kind, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&UsageRecordModel{}).
		Select("COALESCE(SUM(used_amount), 0)").
		Where("user_id = ? AND card_id = ? AND sub_offer_id = ? AND kind = ?", userID, cardID, subOfferID, string(kind)).
		Where("used_at >= ? AND used_at < ?", from, to).
		Scan(&total).Error
	return total, err
}

// AppendUsage inserts a new ledger entry.
func (r *GormLedgerRepository) AppendUsage(ctx context.Context, rec *ledger.UsageRecord) error {
	model := UsageRecordModel{
		ID:             rec.ID(),
		UserID:         rec.UserID(),
		CardID:         rec.CardID(),
		SubOfferID:     rec.SubOfferID(),
		Kind:           string(rec.Kind()),
		UsedAmount:     rec.UsedAmount(),
		RemainingLimit: rec.RemainingLimit(),
		Place:          rec.Place(),
		UsedAt:         rec.UsedAt(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}
