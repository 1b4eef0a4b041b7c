// Package benefit holds the pure eligibility rules that decide whether a
// sub-offer is usable for a transaction. Three filters apply, in order:
// applicability of the parent offer to the store (category, merchant target,
// channel), the holder's spend performance against the sub-offer's minimum,
// and the sub-offer's remaining monthly limit.
package benefit

import (
	"github.com/google/uuid"

	"github.com/cardscout/service-benefit/internal/domain/catalog"
)

// UsableOffer is one sub-offer that passed all three filters, annotated with
// the headroom left on its monthly limit.
type UsableOffer struct {
	OfferID        uuid.UUID    `json:"offer_id"`
	SubOfferID     uuid.UUID    `json:"sub_offer_id"`
	Kind           catalog.Kind `json:"kind"`
	Summary        string       `json:"summary"`
	Rate           float64      `json:"rate"`
	Amount         int64        `json:"amount,omitempty"`
	MinimumSpend   int64        `json:"minimum_spend"`
	MonthlyLimit   int64        `json:"monthly_limit"`
	RemainingLimit int64        `json:"remaining_limit"`
}

// OfferApplies is the first filter, evaluated on the parent offer: the store
// category must be in the offer's category set (offers with no category
// restriction apply everywhere), and when a channel is requested at least one
// sub-offer must declare that channel or BOTH.
func OfferApplies(o *catalog.Offer, categoryCode string, requested catalog.Channel) bool {
	if !o.AppliesToCategory(categoryCode) {
		return false
	}
	return o.HasChannel(requested)
}

// OfferAppliesToPlace is the applicability check used on the expense path,
// where the transaction carries a merchant name and an optionally resolved
// category code. A merchant named in the offer's target set matches even
// when no category could be resolved.
func OfferAppliesToPlace(o *catalog.Offer, merchantName, categoryCode string) bool {
	if o.TargetsMerchant(merchantName) {
		return true
	}
	if categoryCode == "" {
		return false
	}
	if len(o.Categories()) == 0 {
		return false
	}
	return o.AppliesToCategory(categoryCode)
}

// Evaluate applies the performance and limit filters to one sub-offer.
// currentSpend is the holder's cumulative spend this period (0 when no
// performance record exists); currentUsage is the period usage for this exact
// sub-offer. Returns the usable annotation and whether the sub-offer passed.
func Evaluate(parent *catalog.Offer, so *catalog.SubOffer, currentSpend, currentUsage int64) (UsableOffer, bool) {
	if currentSpend < so.MinimumSpend() {
		return UsableOffer{}, false
	}
	if currentUsage >= so.MonthlyLimit() {
		return UsableOffer{}, false
	}
	return UsableOffer{
		OfferID:        parent.ID(),
		SubOfferID:     so.ID(),
		Kind:           so.Kind(),
		Summary:        parent.Summary(),
		Rate:           so.Rate(),
		Amount:         so.Amount(),
		MinimumSpend:   so.MinimumSpend(),
		MonthlyLimit:   so.MonthlyLimit(),
		RemainingLimit: so.MonthlyLimit() - currentUsage,
	}, true
}
