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
	"github.com/cardscout/service-benefit/internal/events"
	"github.com/cardscout/service-benefit/internal/lock"
	"github.com/cardscout/service-benefit/internal/places"
)

// Lock parameters for the two write paths. Spend updates serialize every
// expense for one (user, card); usage updates serialize per benefit kind so
// unrelated kinds on the same card proceed concurrently.
var (
	performanceLockOpts = lock.Options{Retries: 2, RetryInterval: 50 * time.Millisecond, TTL: 10 * time.Second}
	usageLockOpts       = lock.Options{Retries: 1, RetryInterval: 50 * time.Millisecond, TTL: 5 * time.Second}
)

// Expense is one posted cardholder transaction.
type Expense struct {
	UserID   uuid.UUID
	Amount   int64
	Place    string
	PostedAt time.Time
}

// EventPublisher publishes domain events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key, source, eventType string, payload interface{}) error
}

// CalculatorService processes a posted expense for every card the user
// holds: locked spend update, eligibility gate, best-offer selection per
// kind, and locked usage application. A failure on one card never stops the
// others.
type CalculatorService struct {
	cards     catalog.CardRepository
	ledger    ledger.Repository
	locker    lock.Locker
	searcher  places.Searcher
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCalculatorService creates a CalculatorService. searcher and publisher
// may be nil: without a searcher only merchant-target offers match, and
// without a publisher no benefit.applied events are emitted.
func NewCalculatorService(
	cards catalog.CardRepository,
	ledgerRepo ledger.Repository,
	locker lock.Locker,
	searcher places.Searcher,
	publisher EventPublisher,
	logger *zap.Logger,
) *CalculatorService {
	return &CalculatorService{
		cards:     cards,
		ledger:    ledgerRepo,
		locker:    locker,
		searcher:  searcher,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleExpensePosted adapts an expense.posted event into ProcessExpense.
func (s *CalculatorService) HandleExpensePosted(ctx context.Context, evt events.ExpensePostedEvent) error {
	return s.ProcessExpense(ctx, Expense{
		UserID:   evt.UserID,
		Amount:   evt.Amount,
		Place:    evt.Place,
		PostedAt: evt.PostedAt,
	})
}

// ProcessExpense runs the full per-card pipeline for one expense.
func (s *CalculatorService) ProcessExpense(ctx context.Context, exp Expense) error {
	if exp.Amount <= 0 {
		return fmt.Errorf("expense amount must be positive")
	}
	if exp.PostedAt.IsZero() {
		exp.PostedAt = time.Now().UTC()
	}

	userCards, err := s.cards.FindByUserID(ctx, exp.UserID)
	if err != nil {
		return fmt.Errorf("list user cards: %w", err)
	}

	category := s.resolveCategory(ctx, exp.Place)

	for _, card := range userCards {
		if err := s.processCard(ctx, exp, card, category); err != nil {
			// Per-card isolation: log and move on to the next card.
			s.logger.Error("benefit calculation failed for card",
				zap.String("card", card.Name()),
				zap.String("user_id", exp.UserID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// resolveCategory classifies the expense place through the place-search
// collaborator. Resolution failure degrades to target-only offer matching.
func (s *CalculatorService) resolveCategory(ctx context.Context, place string) string {
	if s.searcher == nil || place == "" {
		return ""
	}
	candidates, err := s.searcher.Search(ctx, place)
	if err != nil {
		s.logger.Warn("place classification failed, matching by merchant target only",
			zap.String("place", place),
			zap.Error(err),
		)
		return ""
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0].CategoryCode
}

func (s *CalculatorService) processCard(ctx context.Context, exp Expense, card *catalog.Card, category string) error {
	if err := s.updateSpendPerformance(ctx, exp, card); err != nil {
		return err
	}

	perf, err := s.ledger.GetPerformance(ctx, exp.UserID, card.ID())
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !perf.TargetAchieved() {
		s.logger.Debug("spend target not reached, skipping benefit application",
			zap.String("card", card.Name()),
		)
		return nil
	}

	var matching []*catalog.Offer
	for _, offer := range card.Offers() {
		if benefit.OfferAppliesToPlace(offer, exp.Place, category) {
			matching = append(matching, offer)
		}
	}
	if len(matching) == 0 {
		return nil
	}

	// Each kind is evaluated independently, so one expense can yield up to
	// three usage records on this card.
	for _, kind := range catalog.Kinds() {
		if best := bestSubOffer(matching, kind, exp.Amount); best != nil {
			if err := s.applyBenefitUsage(ctx, exp, card, best); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateSpendPerformance adds the expense to the card's cumulative spend
// inside the performance lock. The snapshot is created lazily with the
// card's spend target on the first expense.
func (s *CalculatorService) updateSpendPerformance(ctx context.Context, exp Expense, card *catalog.Card) error {
	key := lock.PerformanceKey(exp.UserID, card.ID())
	return s.locker.WithLock(ctx, key, performanceLockOpts, func(ctx context.Context) error {
		perf, err := s.ledger.GetPerformance(ctx, exp.UserID, card.ID())
		if err != nil {
			if !domain.IsNotFound(err) {
				return err
			}
			perf = ledger.NewCardPerformance(exp.UserID, card.ID(), card.SpendTarget())
		}
		perf.ApplySpend(exp.Amount)
		if err := s.ledger.SavePerformance(ctx, perf); err != nil {
			return fmt.Errorf("save performance: %w", err)
		}
		s.logger.Info("card performance updated",
			zap.String("card", card.Name()),
			zap.Int64("current_amount", perf.CurrentAmount()),
			zap.Int64("target_amount", perf.TargetAmount()),
			zap.Bool("target_achieved", perf.TargetAchieved()),
		)
		return nil
	})
}

// bestSubOffer selects the sub-offer of the given kind with the highest
// rate-only value for this expense. First seen wins on ties. Returns nil
// when no sub-offer of the kind exists or the best value is not positive.
func bestSubOffer(offers []*catalog.Offer, kind catalog.Kind, expenseAmount int64) *bestOffer {
	var best *bestOffer
	for _, offer := range offers {
		for _, so := range offer.SubOffers() {
			if so.Kind() != kind {
				continue
			}
			value := so.Value(expenseAmount)
			if best == nil || value > best.value {
				best = &bestOffer{parent: offer, sub: so, value: value}
			}
		}
	}
	if best == nil || best.value <= 0 {
		return nil
	}
	return best
}

type bestOffer struct {
	parent *catalog.Offer
	sub    *catalog.SubOffer
	value  int64
}

// applyBenefitUsage re-checks the limit and appends the usage record inside
// the per-kind usage lock. Exceeding the limit is a silent no-op.
func (s *CalculatorService) applyBenefitUsage(ctx context.Context, exp Expense, card *catalog.Card, best *bestOffer) error {
	key := lock.UsageKey(exp.UserID, card.ID(), string(best.sub.Kind()))
	return s.locker.WithLock(ctx, key, usageLockOpts, func(ctx context.Context) error {
		from, to := benefit.MonthWindow(exp.PostedAt)
		current, err := s.ledger.UsageInPeriod(ctx, exp.UserID, card.ID(), best.sub.ID(), best.sub.Kind(), from, to)
		if err != nil {
			return fmt.Errorf("usage lookup: %w", err)
		}

		limit := best.sub.MonthlyLimit()
		if current+best.value > limit {
			s.logger.Info("monthly benefit limit reached, skipping",
				zap.String("card", card.Name()),
				zap.String("sub_offer_id", best.sub.ID().String()),
				zap.String("kind", string(best.sub.Kind())),
			)
			return nil
		}

		rec := ledger.NewUsageRecord(
			exp.UserID, card.ID(), best.sub.ID(), best.sub.Kind(),
			best.value, limit-(current+best.value), exp.Place, exp.PostedAt,
		)
		if err := s.ledger.AppendUsage(ctx, rec); err != nil {
			return fmt.Errorf("append usage: %w", err)
		}

		s.logger.Info("benefit applied",
			zap.String("card", card.Name()),
			zap.String("kind", string(best.sub.Kind())),
			zap.Int64("applied_amount", best.value),
		)
		s.publishApplied(ctx, rec)
		return nil
	})
}

// publishApplied emits benefit.applied; publish failures are logged only,
// the ledger write is already durable.
func (s *CalculatorService) publishApplied(ctx context.Context, rec *ledger.UsageRecord) {
	if s.publisher == nil {
		return
	}
	evt := events.BenefitAppliedEvent{
		UserID:         rec.UserID(),
		CardID:         rec.CardID(),
		SubOfferID:     rec.SubOfferID(),
		Kind:           string(rec.Kind()),
		AppliedAmount:  rec.UsedAmount(),
		RemainingLimit: rec.RemainingLimit(),
		Place:          rec.Place(),
		AppliedAt:      rec.UsedAt(),
	}
	key := rec.UserID().String() + ":" + rec.CardID().String()
	if err := s.publisher.Publish(ctx, events.TopicBenefitEvents, key, "service-benefit", events.BenefitApplied, evt); err != nil {
		s.logger.Warn("failed to publish benefit.applied", zap.Error(err))
	}
}
