package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CardCompany is the issuing company of a catalog card.
type CardCompany string

const (
	CompanyHana    CardCompany = "HANA"
	CompanyHyundai CardCompany = "HYUNDAI"
	CompanyKookmin CardCompany = "KOOKMIN"
	CompanyLotte   CardCompany = "LOTTE"
	CompanySamsung CardCompany = "SAMSUNG"
	CompanyShinhan CardCompany = "SHINHAN"
)

// Companies returns the closed set of issuing companies.
func Companies() []CardCompany {
	return []CardCompany{CompanyHana, CompanyHyundai, CompanyKookmin, CompanyLotte, CompanySamsung, CompanyShinhan}
}

// CardType distinguishes credit from debit products.
type CardType string

const (
	TypeCredit CardType = "CREDIT"
	TypeDebit  CardType = "DEBIT"
)

// Card is the aggregate root of the benefit catalog. A card owns its offers;
// the engine only reads them, catalog ingestion mutates them elsewhere.
type Card struct {
	id          uuid.UUID
	company     CardCompany
	cardType    CardType
	name        string
	imgURL      string
	spendTarget int64
	offers      []*Offer
	createdAt   time.Time
}

// NewCard creates a catalog card. spendTarget is the monthly spend a holder
// must reach before any of the card's offers unlock.
func NewCard(company CardCompany, cardType CardType, name, imgURL string, spendTarget int64, offers []*Offer) (*Card, error) {
	if name == "" {
		return nil, fmt.Errorf("card name is required")
	}
	valid := false
	for _, c := range Companies() {
		if c == company {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid card company: %s", company)
	}
	if cardType != TypeCredit && cardType != TypeDebit {
		return nil, fmt.Errorf("invalid card type: %s", cardType)
	}
	if spendTarget < 0 {
		return nil, fmt.Errorf("spend target cannot be negative")
	}
	return &Card{
		id:          uuid.New(),
		company:     company,
		cardType:    cardType,
		name:        name,
		imgURL:      imgURL,
		spendTarget: spendTarget,
		offers:      offers,
		createdAt:   time.Now().UTC(),
	}, nil
}

// ReconstructCard rebuilds a Card from persistence.
func ReconstructCard(id uuid.UUID, company CardCompany, cardType CardType, name, imgURL string, spendTarget int64, offers []*Offer, createdAt time.Time) *Card {
	return &Card{
		id: id, company: company, cardType: cardType,
		name: name, imgURL: imgURL, spendTarget: spendTarget,
		offers: offers, createdAt: createdAt,
	}
}

func (c *Card) ID() uuid.UUID        { return c.id }
func (c *Card) Company() CardCompany { return c.company }
func (c *Card) CardType() CardType   { return c.cardType }
func (c *Card) Name() string         { return c.name }
func (c *Card) ImgURL() string       { return c.imgURL }
func (c *Card) SpendTarget() int64   { return c.spendTarget }
func (c *Card) Offers() []*Offer     { return c.offers }
func (c *Card) CreatedAt() time.Time { return c.createdAt }

// UserCard links a user to a registered catalog card.
type UserCard struct {
	id           uuid.UUID
	userID       uuid.UUID
	cardID       uuid.UUID
	active       bool
	registeredAt time.Time
}

// NewUserCard registers a catalog card to a user.
func NewUserCard(userID, cardID uuid.UUID) *UserCard {
	return &UserCard{
		id:           uuid.New(),
		userID:       userID,
		cardID:       cardID,
		active:       true,
		registeredAt: time.Now().UTC(),
	}
}

// ReconstructUserCard rebuilds a UserCard from persistence.
func ReconstructUserCard(id, userID, cardID uuid.UUID, active bool, registeredAt time.Time) *UserCard {
	return &UserCard{id: id, userID: userID, cardID: cardID, active: active, registeredAt: registeredAt}
}

func (u *UserCard) ID() uuid.UUID           { return u.id }
func (u *UserCard) UserID() uuid.UUID       { return u.userID }
func (u *UserCard) CardID() uuid.UUID       { return u.cardID }
func (u *UserCard) Active() bool            { return u.active }
func (u *UserCard) RegisteredAt() time.Time { return u.registeredAt }

// Deactivate marks the registration inactive. Deactivated registrations are
// kept for history, never deleted.
func (u *UserCard) Deactivate() { u.active = false }
