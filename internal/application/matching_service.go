package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardscout/service-benefit/internal/domain"
	"github.com/cardscout/service-benefit/internal/domain/benefit"
	"github.com/cardscout/service-benefit/internal/domain/catalog"
	"github.com/cardscout/service-benefit/internal/domain/ledger"
	"github.com/cardscout/service-benefit/internal/places"
)

// PerformanceInfo summarizes a card's spend progress for presentation.
type PerformanceInfo struct {
	CurrentAmount  int64 `json:"current_amount"`
	TargetAmount   int64 `json:"target_amount"`
	TargetAchieved bool  `json:"target_achieved"`
}

// AvailableCard is one card with its usable benefits for a store.
type AvailableCard struct {
	CardID      uuid.UUID             `json:"card_id"`
	CardName    string                `json:"card_name"`
	Company     catalog.CardCompany   `json:"card_company"`
	ImgURL      string                `json:"img_url,omitempty"`
	Benefits    []benefit.UsableOffer `json:"benefits"`
	Performance PerformanceInfo       `json:"performance"`
}

// StoreMatch is one candidate store with the cards usable there.
type StoreMatch struct {
	StoreID        string          `json:"store_id"`
	PlaceName      string          `json:"place_name"`
	Lat            float64         `json:"lat"`
	Lng            float64         `json:"lng"`
	AvailableCards []AvailableCard `json:"available_cards"`
}

// MatchingService answers the read-only "what can I use here" queries. It
// takes no locks; a usage figure read mid-update may be stale by at most one
// expense, which the interactive paths accept.
type MatchingService struct {
	cards    catalog.CardRepository
	ledger   ledger.Repository
	searcher places.Searcher
	logger   *zap.Logger
}

// NewMatchingService creates a MatchingService.
func NewMatchingService(cards catalog.CardRepository, ledgerRepo ledger.Repository, searcher places.Searcher, logger *zap.Logger) *MatchingService {
	return &MatchingService{cards: cards, ledger: ledgerRepo, searcher: searcher, logger: logger}
}

// CardsUsableAtStore resolves a store query through the place-search
// collaborator and returns the user's cards with usable benefits there.
// Zero candidates from the provider yields an empty result, not an error.
// Without a configured searcher the query cannot be answered at all.
func (s *MatchingService) CardsUsableAtStore(ctx context.Context, userID uuid.UUID, storeQuery string) ([]AvailableCard, error) {
	if s.searcher == nil {
		return nil, fmt.Errorf("store search unavailable: no place searcher configured")
	}
	candidates, err := s.searcher.Search(ctx, storeQuery)
	if err != nil {
		return nil, fmt.Errorf("search store %q: %w", storeQuery, err)
	}
	if len(candidates) == 0 {
		s.logger.Info("no place candidates for query", zap.String("query", storeQuery))
		return []AvailableCard{}, nil
	}

	// The first candidate is the authoritative match for the query.
	category := candidates[0].CategoryCode

	userCards, err := s.cards.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.matchCards(ctx, userID, userCards, category, "")
}

// StoresWithUsableCards runs the card matching against each candidate store,
// applying the optional channel restriction. Stores with no matching cards
// are omitted; input order is preserved.
func (s *MatchingService) StoresWithUsableCards(ctx context.Context, userID uuid.UUID, stores []places.Place, channel catalog.Channel) ([]StoreMatch, error) {
	if len(stores) == 0 {
		return []StoreMatch{}, nil
	}

	userCards, err := s.cards.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	matches := make([]StoreMatch, 0, len(stores))
	for _, store := range stores {
		cards, err := s.matchCards(ctx, userID, userCards, store.CategoryCode, channel)
		if err != nil {
			return nil, err
		}
		if len(cards) == 0 {
			continue
		}
		matches = append(matches, StoreMatch{
			StoreID:        store.ID,
			PlaceName:      store.Name,
			Lat:            store.Lat,
			Lng:            store.Lng,
			AvailableCards: cards,
		})
	}
	return matches, nil
}

// matchCards applies the three-stage filter for every (card, offer, sub-offer)
// and collects cards that end up with at least one usable sub-offer.
func (s *MatchingService) matchCards(ctx context.Context, userID uuid.UUID, userCards []*catalog.Card, categoryCode string, channel catalog.Channel) ([]AvailableCard, error) {
	now := time.Now()
	from, to := benefit.MonthWindow(now)

	result := make([]AvailableCard, 0, len(userCards))
	for _, card := range userCards {
		spend, target, achieved, err := s.performanceOrZero(ctx, userID, card.ID())
		if err != nil {
			return nil, err
		}

		var usable []benefit.UsableOffer
		for _, offer := range card.Offers() {
			if !benefit.OfferApplies(offer, categoryCode, channel) {
				continue
			}
			for _, so := range offer.SubOffers() {
				if !so.Channel().Matches(channel) {
					continue
				}
				usage, err := s.ledger.UsageInPeriod(ctx, userID, card.ID(), so.ID(), so.Kind(), from, to)
				if err != nil {
					return nil, fmt.Errorf("usage lookup for sub-offer %s: %w", so.ID(), err)
				}
				if uo, ok := benefit.Evaluate(offer, so, spend, usage); ok {
					usable = append(usable, uo)
				}
			}
		}

		if len(usable) == 0 {
			continue
		}
		result = append(result, AvailableCard{
			CardID:   card.ID(),
			CardName: card.Name(),
			Company:  card.Company(),
			ImgURL:   card.ImgURL(),
			Benefits: usable,
			Performance: PerformanceInfo{
				CurrentAmount:  spend,
				TargetAmount:   target,
				TargetAchieved: achieved,
			},
		})
	}
	return result, nil
}

// performanceOrZero reads the spend snapshot, defaulting to zero spend when
// no record exists. Absence is a defined default, not an error.
func (s *MatchingService) performanceOrZero(ctx context.Context, userID, cardID uuid.UUID) (spend, target int64, achieved bool, err error) {
	p, err := s.ledger.GetPerformance(ctx, userID, cardID)
	if err != nil {
		if domain.IsNotFound(err) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return p.CurrentAmount(), p.TargetAmount(), p.TargetAchieved(), nil
}
