package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// UsageRecord is one append-only entry of the benefit usage ledger. The sum
// of UsedAmount per (user, card, sub-offer, period) must never exceed the
// sub-offer's monthly limit; the usage lock protects that invariant.
type UsageRecord struct {
	id             uuid.UUID
	userID         uuid.UUID
	cardID         uuid.UUID
	subOfferID     uuid.UUID
	kind           catalog.Kind
	usedAmount     int64
	remainingLimit int64
	place          string
	usedAt         time.Time
}

// NewUsageRecord creates a ledger entry for an applied benefit.
func NewUsageRecord(userID, cardID, subOfferID uuid.UUID, kind catalog.Kind, usedAmount, remainingLimit int64, place string, usedAt time.Time) *UsageRecord {
	return &UsageRecord{
		id:             uuid.New(),
		userID:         userID,
		cardID:         cardID,
		subOfferID:     subOfferID,
		kind:           kind,
		usedAmount:     usedAmount,
		remainingLimit: remainingLimit,
		place:          place,
		usedAt:         usedAt,
	}
}

// ReconstructUsageRecord rebuilds a ledger entry from persistence.
func ReconstructUsageRecord(id, userID, cardID, subOfferID uuid.UUID, kind catalog.Kind, usedAmount, remainingLimit int64, place string, usedAt time.Time) *UsageRecord {
	return &UsageRecord{
		id: id, userID: userID, cardID: cardID, subOfferID: subOfferID,
		kind: kind, usedAmount: usedAmount, remainingLimit: remainingLimit,
		place: place, usedAt: usedAt,
	}
}

func (r *UsageRecord) ID() uuid.UUID         { return r.id }
func (r *UsageRecord) UserID() uuid.UUID     { return r.userID }
func (r *UsageRecord) CardID() uuid.UUID     { return r.cardID }
func (r *UsageRecord) SubOfferID() uuid.UUID { return r.subOfferID }
func (r *UsageRecord) Kind() catalog.Kind    { return r.kind }
func (r *UsageRecord) UsedAmount() int64     { return r.usedAmount }
func (r *UsageRecord) RemainingLimit() int64 { return r.remainingLimit }
func (r *UsageRecord) Place() string         { return r.place }
func (r *UsageRecord) UsedAt() time.Time     { return r.usedAt }
