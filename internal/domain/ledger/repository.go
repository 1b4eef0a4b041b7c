package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// Repository is the read/write gateway to the usage ledger and the per-card
// spend performance. Implementations must compute UsageInPeriod server-side
// (a single aggregate query) so a read cannot race the lock-protected write.
type Repository interface {
	// GetPerformance returns the snapshot or domain.ErrNotFound.
	GetPerformance(ctx context.Context, userID, cardID uuid.UUID) (*CardPerformance, error)
	// SavePerformance upserts the full snapshot, compare-and-swapping on its
	// version. A version mismatch returns domain.ErrConflict.
	SavePerformance(ctx context.Context, p *CardPerformance) error
	// UsageInPeriod sums UsedAmount for one sub-offer over the half-open
	// window [from, to). Zero records sum to 0.
	UsageInPeriod(ctx context.Context, userID, cardID, subOfferID uuid.UUID, kind catalog.Kind, from, to time.Time) (int64, error)
	// AppendUsage inserts a new ledger entry. Prior entries are never touched.
	AppendUsage(ctx context.Context, r *UsageRecord) error
}
