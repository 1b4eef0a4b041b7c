// Package events defines the Kafka topics and payloads the benefit service
// exchanges with the rest of the platform, and the consumer that feeds posted
// expenses into the calculator.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicExpenseEvents = "expense.events"
	TopicBenefitEvents = "benefit.events"
)

// Event types.
const (
	ExpensePosted  = "expense.posted"
	BenefitApplied = "benefit.applied"
)

// ExpensePostedEvent is published by the expense-ingestion service whenever a
// cardholder transaction posts.
type ExpensePostedEvent struct {
	ExpenseID uuid.UUID `json:"expense_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Place     string    `json:"place"`
	PostedAt  time.Time `json:"posted_at"`
}

// BenefitAppliedEvent is published after a usage record is written.
type BenefitAppliedEvent struct {
	UserID         uuid.UUID `json:"user_id"`
	CardID         uuid.UUID `json:"card_id"`
	SubOfferID     uuid.UUID `json:"sub_offer_id"`
	Kind           string    `json:"kind"`
	AppliedAmount  int64     `json:"applied_amount"`
	RemainingLimit int64     `json:"remaining_limit"`
	Place          string    `json:"place"`
	AppliedAt      time.Time `json:"applied_at"`
}
