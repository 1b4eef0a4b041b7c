package promotion

import (
	"context"
	"time"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// Repository defines read access to promotions.
type Repository interface {
	// FindActiveByCompanies returns promotions whose window covers `at`,
	// restricted to the given issuing companies.
	FindActiveByCompanies(ctx context.Context, companies []catalog.CardCompany, at time.Time) ([]*Promotion, error)
}
