package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
	"github.com/cardscout/service-benefit/internal/domain/promotion"
)

// PromotionDTO is the API representation of an active promotion.
type PromotionDTO struct {
	ID          uuid.UUID           `json:"id"`
	Company     catalog.CardCompany `json:"card_company"`
	Description string              `json:"description"`
	ImgURL      string              `json:"img_url,omitempty"`
	URL         string              `json:"url,omitempty"`
	StartsAt    time.Time           `json:"starts_at"`
	EndsAt      time.Time           `json:"ends_at"`
}

// PromotionService lists the marketing promotions relevant to a user: those
// run by the issuing companies of the cards the user registered.
type PromotionService struct {
	promotions promotion.Repository
	cards      catalog.CardRepository
	logger     *zap.Logger
}

// NewPromotionService creates a PromotionService.
func NewPromotionService(promotions promotion.Repository, cards catalog.CardRepository, logger *zap.Logger) *PromotionService {
	return &PromotionService{promotions: promotions, cards: cards, logger: logger}
}

// ActivePromotions returns currently running promotions for the companies of
// the user's registered cards. A user with no cards sees no promotions.
func (s *PromotionService) ActivePromotions(ctx context.Context, userID uuid.UUID) ([]PromotionDTO, error) {
	userCards, err := s.cards.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[catalog.CardCompany]struct{}, len(userCards))
	companies := make([]catalog.CardCompany, 0, len(userCards))
	for _, c := range userCards {
		if _, ok := seen[c.Company()]; ok {
			continue
		}
		seen[c.Company()] = struct{}{}
		companies = append(companies, c.Company())
	}

	promos, err := s.promotions.FindActiveByCompanies(ctx, companies, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	dtos := make([]PromotionDTO, len(promos))
	for i, p := range promos {
		dtos[i] = PromotionDTO{
			ID:          p.ID(),
			Company:     p.Company(),
			Description: p.Description(),
			ImgURL:      p.ImgURL(),
			URL:         p.URL(),
			StartsAt:    p.StartsAt(),
			EndsAt:      p.EndsAt(),
		}
	}
	return dtos, nil
}
