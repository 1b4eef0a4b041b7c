package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardscout/service-benefit/internal/domain"
	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// CardDTO is the API representation of a catalog card with its offers
// flattened to per-kind entries.
type CardDTO struct {
	CardID   uuid.UUID           `json:"card_id"`
	CardName string              `json:"card_name"`
	Company  catalog.CardCompany `json:"card_company"`
	CardType catalog.CardType    `json:"card_type"`
	ImgURL   string              `json:"img_url,omitempty"`
	Benefits []BenefitDTO        `json:"benefits"`
}

// BenefitDTO is one sub-offer of a catalog card.
type BenefitDTO struct {
	OfferID      uuid.UUID       `json:"offer_id"`
	SubOfferID   uuid.UUID       `json:"sub_offer_id"`
	Kind         catalog.Kind    `json:"kind"`
	Summary      string          `json:"summary"`
	Rate         float64         `json:"rate"`
	Amount       int64           `json:"amount,omitempty"`
	MinimumSpend int64           `json:"minimum_spend"`
	MonthlyLimit int64           `json:"monthly_limit"`
	Channel      catalog.Channel `json:"channel"`
}

// RegistrationService manages card registrations and catalog browsing.
type RegistrationService struct {
	cards     catalog.CardRepository
	userCards catalog.UserCardRepository
	logger    *zap.Logger
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(cards catalog.CardRepository, userCards catalog.UserCardRepository, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{cards: cards, userCards: userCards, logger: logger}
}

// ListCatalog returns every catalog card.
func (s *RegistrationService) ListCatalog(ctx context.Context) ([]CardDTO, error) {
	cards, err := s.cards.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]CardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = toCardDTO(c)
	}
	return dtos, nil
}

// ListUserCards returns the cards actively registered to the user.
func (s *RegistrationService) ListUserCards(ctx context.Context, userID uuid.UUID) ([]CardDTO, error) {
	cards, err := s.cards.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dtos := make([]CardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = toCardDTO(c)
	}
	return dtos, nil
}

// RegisterCard registers a catalog card to a user. The card must exist and
// must not already be actively registered.
func (s *RegistrationService) RegisterCard(ctx context.Context, userID, cardID uuid.UUID) (*CardDTO, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	exists, err := s.userCards.ExistsActive(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewConflictError("card already registered")
	}

	uc := catalog.NewUserCard(userID, cardID)
	if err := s.userCards.Save(ctx, uc); err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}

	s.logger.Info("card registered",
		zap.String("user_id", userID.String()),
		zap.String("card", card.Name()),
	)
	dto := toCardDTO(card)
	return &dto, nil
}

// UnregisterCard deactivates a user's card registration.
func (s *RegistrationService) UnregisterCard(ctx context.Context, userID, cardID uuid.UUID) error {
	uc, err := s.userCards.FindActive(ctx, userID, cardID)
	if err != nil {
		return err
	}
	uc.Deactivate()
	if err := s.userCards.Update(ctx, uc); err != nil {
		return fmt.Errorf("deactivate registration: %w", err)
	}

	s.logger.Info("card unregistered",
		zap.String("user_id", userID.String()),
		zap.String("card_id", cardID.String()),
	)
	return nil
}

func toCardDTO(c *catalog.Card) CardDTO {
	var benefits []BenefitDTO
	for _, offer := range c.Offers() {
		for _, so := range offer.SubOffers() {
			benefits = append(benefits, BenefitDTO{
				OfferID:      offer.ID(),
				SubOfferID:   so.ID(),
				Kind:         so.Kind(),
				Summary:      offer.Summary(),
				Rate:         so.Rate(),
				Amount:       so.Amount(),
				MinimumSpend: so.MinimumSpend(),
				MonthlyLimit: so.MonthlyLimit(),
				Channel:      so.Channel(),
			})
		}
	}
	return CardDTO{
		CardID:   c.ID(),
		CardName: c.Name(),
		Company:  c.Company(),
		CardType: c.CardType(),
		ImgURL:   c.ImgURL(),
		Benefits: benefits,
	}
}
