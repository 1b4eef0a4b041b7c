package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed discriminant for the sub-offer variants.
type Kind string

const (
	KindDiscount Kind = "DISCOUNT"
	KindPoint    Kind = "POINT"
	KindCashback Kind = "CASHBACK"
)

// Kinds returns every sub-offer kind in a fixed order.
func Kinds() []Kind { return []Kind{KindDiscount, KindPoint, KindCashback} }

// Channel is the transaction medium a sub-offer is restricted to.
// ChannelBoth matches any requested channel.
type Channel string

const (
	ChannelOnline  Channel = "ONLINE"
	ChannelOffline Channel = "OFFLINE"
	ChannelBoth    Channel = "BOTH"
)

// Matches reports whether the sub-offer channel satisfies a requested channel.
// An empty requested channel means no restriction.
func (c Channel) Matches(requested Channel) bool {
	if requested == "" || requested == ChannelBoth {
		return true
	}
	return c == ChannelBoth || c == requested
}

// Offer is a named reward rule grouping sub-offers under shared applicability
// conditions: the store categories and the specific merchants it applies to.
type Offer struct {
	id         uuid.UUID
	summary    string
	categories []string
	targets    []string
	subOffers  []*SubOffer
}

// NewOffer creates an offer. Sub-offer IDs must be unique within the offer.
func NewOffer(summary string, categories, targets []string, subOffers []*SubOffer) (*Offer, error) {
	if summary == "" {
		return nil, fmt.Errorf("offer summary is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(subOffers))
	for _, so := range subOffers {
		if _, dup := seen[so.id]; dup {
			return nil, fmt.Errorf("duplicate sub-offer id %s", so.id)
		}
		seen[so.id] = struct{}{}
	}
	return &Offer{
		id:         uuid.New(),
		summary:    summary,
		categories: categories,
		targets:    targets,
		subOffers:  subOffers,
	}, nil
}

// ReconstructOffer rebuilds an Offer from persistence.
func ReconstructOffer(id uuid.UUID, summary string, categories, targets []string, subOffers []*SubOffer) *Offer {
	return &Offer{id: id, summary: summary, categories: categories, targets: targets, subOffers: subOffers}
}

func (o *Offer) ID() uuid.UUID          { return o.id }
func (o *Offer) Summary() string        { return o.summary }
func (o *Offer) Categories() []string   { return o.categories }
func (o *Offer) Targets() []string      { return o.targets }
func (o *Offer) SubOffers() []*SubOffer { return o.subOffers }

// AppliesToCategory reports whether the offer covers a store category code.
// An offer with no category restriction applies everywhere.
func (o *Offer) AppliesToCategory(categoryCode string) bool {
	if len(o.categories) == 0 {
		return true
	}
	for _, c := range o.categories {
		if c == categoryCode {
			return true
		}
	}
	return false
}

// TargetsMerchant reports whether the offer names a specific merchant.
func (o *Offer) TargetsMerchant(name string) bool {
	for _, t := range o.targets {
		if t == name {
			return true
		}
	}
	return false
}

// HasChannel reports whether any sub-offer declares the requested channel
// (or BOTH). An offer with no matching channel is skipped as a whole.
func (o *Offer) HasChannel(requested Channel) bool {
	if requested == "" {
		return true
	}
	for _, so := range o.subOffers {
		if so.channel.Matches(requested) {
			return true
		}
	}
	return false
}

// SubOffer is a concrete reward rule. Kind is the closed discriminant:
// flat Amount is meaningful for discount and cashback only, and every
// consumer switches exhaustively over Kind.
type SubOffer struct {
	id           uuid.UUID
	kind         Kind
	rate         float64
	amount       int64
	minimumSpend int64
	monthlyLimit int64
	channel      Channel
}

// NewSubOffer creates a sub-offer of the given kind.
func NewSubOffer(kind Kind, rate float64, amount, minimumSpend, monthlyLimit int64, channel Channel) (*SubOffer, error) {
	switch kind {
	case KindDiscount, KindCashback:
	case KindPoint:
		if amount != 0 {
			return nil, fmt.Errorf("point sub-offer cannot carry a flat amount")
		}
	default:
		return nil, fmt.Errorf("invalid sub-offer kind: %s", kind)
	}
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("rate must be within [0, 1]")
	}
	if monthlyLimit <= 0 {
		return nil, fmt.Errorf("monthly limit must be positive")
	}
	switch channel {
	case ChannelOnline, ChannelOffline, ChannelBoth:
	default:
		return nil, fmt.Errorf("invalid channel: %s", channel)
	}
	return &SubOffer{
		id:           uuid.New(),
		kind:         kind,
		rate:         rate,
		amount:       amount,
		minimumSpend: minimumSpend,
		monthlyLimit: monthlyLimit,
		channel:      channel,
	}, nil
}

// ReconstructSubOffer rebuilds a SubOffer from persistence.
func ReconstructSubOffer(id uuid.UUID, kind Kind, rate float64, amount, minimumSpend, monthlyLimit int64, channel Channel) *SubOffer {
	return &SubOffer{
		id: id, kind: kind, rate: rate, amount: amount,
		minimumSpend: minimumSpend, monthlyLimit: monthlyLimit, channel: channel,
	}
}

func (s *SubOffer) ID() uuid.UUID       { return s.id }
func (s *SubOffer) Kind() Kind          { return s.kind }
func (s *SubOffer) Rate() float64       { return s.rate }
func (s *SubOffer) Amount() int64       { return s.amount }
func (s *SubOffer) MinimumSpend() int64 { return s.minimumSpend }
func (s *SubOffer) MonthlyLimit() int64 { return s.monthlyLimit }
func (s *SubOffer) Channel() Channel    { return s.channel }

// Value is the comparison metric for best-offer selection: expense amount
// times rate. The flat amount deliberately does not participate.
func (s *SubOffer) Value(expenseAmount int64) int64 {
	return int64(float64(expenseAmount) * s.rate)
}
