package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/service-benefit/internal/domain"
	"github.com/cardscout/service-benefit/internal/domain/catalog"
	"github.com/cardscout/service-benefit/internal/domain/ledger"
	"github.com/cardscout/service-benefit/internal/places"
)

func mustSubOffer(t *testing.T, kind catalog.Kind, rate float64, amount, minSpend, limit int64, channel catalog.Channel) *catalog.SubOffer {
	t.Helper()
	so, err := catalog.NewSubOffer(kind, rate, amount, minSpend, limit, channel)
	require.NoError(t, err)
	return so
}

func mustOffer(t *testing.T, summary string, categories, targets []string, subOffers ...*catalog.SubOffer) *catalog.Offer {
	t.Helper()
	o, err := catalog.NewOffer(summary, categories, targets, subOffers)
	require.NoError(t, err)
	return o
}

func mustCard(t *testing.T, name string, spendTarget int64, offers ...*catalog.Offer) *catalog.Card {
	t.Helper()
	c, err := catalog.NewCard(catalog.CompanyShinhan, catalog.TypeCredit, name, "", spendTarget, offers)
	require.NoError(t, err)
	return c
}

// fakeCardRepo serves a fixed card set per user.
type fakeCardRepo struct {
	byUser map[uuid.UUID][]*catalog.Card
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{byUser: map[uuid.UUID][]*catalog.Card{}}
}

func (f *fakeCardRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Card, error) {
	for _, cards := range f.byUser {
		for _, c := range cards {
			if c.ID() == id {
				return c, nil
			}
		}
	}
	return nil, domain.NewNotFoundError("card")
}

func (f *fakeCardRepo) FindAll(ctx context.Context) ([]*catalog.Card, error) {
	var all []*catalog.Card
	for _, cards := range f.byUser {
		all = append(all, cards...)
	}
	return all, nil
}

func (f *fakeCardRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*catalog.Card, error) {
	return f.byUser[userID], nil
}

type perfKey struct {
	userID uuid.UUID
	cardID uuid.UUID
}

// fakeLedger mirrors the persistence contract in memory: GetPerformance hands
// out copies, SavePerformance inserts at version 1 and otherwise
// compare-and-swaps on the previous version, UsageInPeriod sums server-side.
type fakeLedger struct {
	mu       sync.Mutex
	perfs    map[perfKey]*ledger.CardPerformance
	usages   []*ledger.UsageRecord
	failSave map[uuid.UUID]error // cardID -> error injected on SavePerformance
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		perfs:    map[perfKey]*ledger.CardPerformance{},
		failSave: map[uuid.UUID]error{},
	}
}

func clonePerformance(p *ledger.CardPerformance) *ledger.CardPerformance {
	return ledger.ReconstructCardPerformance(
		p.UserID(), p.CardID(), p.CurrentAmount(), p.TargetAmount(),
		p.TargetAchieved(), p.LastUpdatedAt(), p.Version(),
	)
}

func (f *fakeLedger) GetPerformance(ctx context.Context, userID, cardID uuid.UUID) (*ledger.CardPerformance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.perfs[perfKey{userID, cardID}]
	if !ok {
		return nil, domain.NewNotFoundError("card performance")
	}
	return clonePerformance(p), nil
}

func (f *fakeLedger) SavePerformance(ctx context.Context, p *ledger.CardPerformance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failSave[p.CardID()]; ok {
		return err
	}
	key := perfKey{p.UserID(), p.CardID()}
	existing, ok := f.perfs[key]
	if p.Version() == 1 {
		if ok {
			return domain.NewConflictError("card performance already exists")
		}
	} else {
		if !ok || existing.Version() != p.Version()-1 {
			return domain.NewConflictError("card performance version mismatch")
		}
	}
	f.perfs[key] = clonePerformance(p)
	return nil
}

func (f *fakeLedger) UsageInPeriod(ctx context.Context, userID, cardID, subOfferID uuid.UUID, kind catalog.Kind, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, r := range f.usages {
		if r.UserID() != userID || r.CardID() != cardID || r.SubOfferID() != subOfferID || r.Kind() != kind {
			continue
		}
		if r.UsedAt().Before(from) || !r.UsedAt().Before(to) {
			continue
		}
		sum += r.UsedAmount()
	}
	return sum, nil
}

func (f *fakeLedger) AppendUsage(ctx context.Context, r *ledger.UsageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usages = append(f.usages, r)
	return nil
}

func (f *fakeLedger) usagesForCard(cardID uuid.UUID) []*ledger.UsageRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.UsageRecord
	for _, r := range f.usages {
		if r.CardID() == cardID {
			out = append(out, r)
		}
	}
	return out
}

// fakeSearcher answers queries from a fixed result table.
type fakeSearcher struct {
	results map[string][]places.Place
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]places.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

type publishedEvent struct {
	topic     string
	key       string
	eventType string
	payload   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key, source, eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{topic: topic, key: key, eventType: eventType, payload: payload})
	return nil
}

func (f *fakePublisher) published() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.events...)
}
