package promotion

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// Promotion is a marketing campaign run by an issuing company, shown to users
// who hold one of that company's cards while the campaign window is open.
type Promotion struct {
	id          uuid.UUID
	company     catalog.CardCompany
	description string
	imgURL      string
	url         string
	startsAt    time.Time
	endsAt      time.Time
}

// NewPromotion creates a promotion with a validity window.
func NewPromotion(company catalog.CardCompany, description, imgURL, url string, startsAt, endsAt time.Time) (*Promotion, error) {
	if description == "" {
		return nil, fmt.Errorf("promotion description is required")
	}
	if endsAt.Before(startsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}
	return &Promotion{
		id:          uuid.New(),
		company:     company,
		description: description,
		imgURL:      imgURL,
		url:         url,
		startsAt:    startsAt,
		endsAt:      endsAt,
	}, nil
}

// Reconstruct rebuilds a Promotion from persistence.
func Reconstruct(id uuid.UUID, company catalog.CardCompany, description, imgURL, url string, startsAt, endsAt time.Time) *Promotion {
	return &Promotion{
		id: id, company: company, description: description,
		imgURL: imgURL, url: url, startsAt: startsAt, endsAt: endsAt,
	}
}

func (p *Promotion) ID() uuid.UUID                { return p.id }
func (p *Promotion) Company() catalog.CardCompany { return p.company }
func (p *Promotion) Description() string          { return p.description }
func (p *Promotion) ImgURL() string               { return p.imgURL }
func (p *Promotion) URL() string                  { return p.url }
func (p *Promotion) StartsAt() time.Time          { return p.startsAt }
func (p *Promotion) EndsAt() time.Time            { return p.endsAt }

// ActiveAt reports whether the campaign window covers the given instant.
func (p *Promotion) ActiveAt(at time.Time) bool {
	return !at.Before(p.startsAt) && !at.After(p.endsAt)
}
