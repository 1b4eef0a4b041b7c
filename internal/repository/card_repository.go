package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cardscout/service-benefit/internal/domain"
	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// CardModel is the GORM model for the cards table.
type CardModel struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Company     string       `gorm:"type:varchar(20);not null;index"`
	CardType    string       `gorm:"type:varchar(10);not null"`
	Name        string       `gorm:"type:varchar(100);not null"`
	ImgURL      string       `gorm:"type:varchar(500)"`
	SpendTarget int64        `gorm:"not null;default:0"`
	Offers      []OfferModel `gorm:"foreignKey:CardID"`
	CreatedAt   time.Time    `gorm:"not null"`
}

// TableName sets the table name.
func (CardModel) TableName() string { return "cards" }

// OfferModel is the GORM model for the offers table.
type OfferModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CardID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Summary    string          `gorm:"type:varchar(300);not null"`
	Categories []string        `gorm:"type:jsonb;serializer:json"`
	Targets    []string        `gorm:"type:jsonb;serializer:json"`
	SubOffers  []SubOfferModel `gorm:"foreignKey:OfferID"`
}

// TableName sets the table name.
func (OfferModel) TableName() string { return "offers" }

// SubOfferModel is the GORM model for the sub_offers table.
type SubOfferModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfferID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind         string    `gorm:"type:varchar(10);not null"`
	Rate         float64   `gorm:"not null"`
	Amount       int64     `gorm:"not null;default:0"`
	MinimumSpend int64     `gorm:"not null;default:0"`
	MonthlyLimit int64     `gorm:"not null"`
	Channel      string    `gorm:"type:varchar(10);not null"`
}

// TableName sets the table name.
func (SubOfferModel) TableName() string { return "sub_offers" }

// UserCardModel is the GORM model for the user_cards table.
type UserCardModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_user_cards_user_card"`
	CardID       uuid.UUID `gorm:"type:uuid;not null;index:idx_user_cards_user_card"`
	IsActive     bool      `gorm:"not null;default:true"`
	RegisteredAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (UserCardModel) TableName() string { return "user_cards" }

// GormCardRepository implements catalog.CardRepository using GORM.
type GormCardRepository struct {
	db *gorm.DB
}

// NewGormCardRepository creates a new GormCardRepository.
func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// FindByID returns a card with its offers and sub-offers.
func (r *GormCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Card, error) {
	var model CardModel
	err := r.db.WithContext(ctx).
		Preload("Offers.SubOffers").
		Preload("Offers").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("card")
		}
		return nil, err
	}
	return toCardDomain(&model), nil
}

// FindAll returns the whole catalog.
func (r *GormCardRepository) FindAll(ctx context.Context) ([]*catalog.Card, error) {
	var models []CardModel
	err := r.db.WithContext(ctx).
		Preload("Offers.SubOffers").
		Preload("Offers").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	cards := make([]*catalog.Card, len(models))
	for i := range models {
		cards[i] = toCardDomain(&models[i])
	}
	return cards, nil
}

// FindByUserID returns cards actively registered to a user.
func (r *GormCardRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*catalog.Card, error) {
	var models []CardModel
	err := r.db.WithContext(ctx).
		Preload("Offers.SubOffers").
		Preload("Offers").
		Joins("JOIN user_cards ON user_cards.card_id = cards.id").
		Where("user_cards.user_id = ? AND user_cards.is_active = ?", userID, true).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	cards := make([]*catalog.Card, len(models))
	for i := range models {
		cards[i] = toCardDomain(&models[i])
	}
	return cards, nil
}

// GormUserCardRepository implements catalog.UserCardRepository using GORM.
type GormUserCardRepository struct {
	db *gorm.DB
}

// NewGormUserCardRepository creates a new GormUserCardRepository.
func NewGormUserCardRepository(db *gorm.DB) *GormUserCardRepository {
	return &GormUserCardRepository{db: db}
}

// Save persists a new registration.
func (r *GormUserCardRepository) Save(ctx context.Context, uc *catalog.UserCard) error {
	model := toUserCardModel(uc)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update rewrites a registration row.
func (r *GormUserCardRepository) Update(ctx context.Context, uc *catalog.UserCard) error {
	model := toUserCardModel(uc)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindActive returns the active registration for (user, card).
func (r *GormUserCardRepository) FindActive(ctx context.Context, userID, cardID uuid.UUID) (*catalog.UserCard, error) {
	var model UserCardModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND card_id = ? AND is_active = ?", userID, cardID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("card registration")
		}
		return nil, err
	}
	return catalog.ReconstructUserCard(model.ID, model.UserID, model.CardID, model.IsActive, model.RegisteredAt), nil
}

// ExistsActive reports whether the user already registered the card.
func (r *GormUserCardRepository) ExistsActive(ctx context.Context, userID, cardID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&UserCardModel{}).
		Where("user_id = ? AND card_id = ? AND is_active = ?", userID, cardID, true).
		Count(&count).Error
	return count > 0, err
}

func toCardDomain(m *CardModel) *catalog.Card {
	offers := make([]*catalog.Offer, len(m.Offers))
	for i, om := range m.Offers {
		subOffers := make([]*catalog.SubOffer, len(om.SubOffers))
		for j, sm := range om.SubOffers {
			subOffers[j] = catalog.ReconstructSubOffer(
				sm.ID, catalog.Kind(sm.Kind), sm.Rate, sm.Amount,
				sm.MinimumSpend, sm.MonthlyLimit, catalog.Channel(sm.Channel),
			)
		}
		offers[i] = catalog.ReconstructOffer(om.ID, om.Summary, om.Categories, om.Targets, subOffers)
	}
	return catalog.ReconstructCard(
		m.ID, catalog.CardCompany(m.Company), catalog.CardType(m.CardType),
		m.Name, m.ImgURL, m.SpendTarget, offers, m.CreatedAt,
	)
}

func toUserCardModel(uc *catalog.UserCard) UserCardModel {
	return UserCardModel{
		ID:           uc.ID(),
		UserID:       uc.UserID(),
		CardID:       uc.CardID(),
		IsActive:     uc.Active(),
		RegisteredAt: uc.RegisteredAt(),
	}
}
