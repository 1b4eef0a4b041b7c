package ledger

import (
	"time"

	"github.com/google/uuid"
)

// CardPerformance tracks a user's cumulative qualifying spend on one card for
// the current billing period, against the card's spend target. It is created
// lazily on the first relevant expense and mutated only inside the
// performance lock's critical section.
type CardPerformance struct {
	userID         uuid.UUID
	cardID         uuid.UUID
	currentAmount  int64
	targetAmount   int64
	targetAchieved bool
	lastUpdatedAt  time.Time
	version        int64
}

// NewCardPerformance creates a zero-spend performance snapshot. Version 0
// marks a snapshot that has never been persisted; the first ApplySpend bumps
// it to 1 and persistence inserts rather than updates.
func NewCardPerformance(userID, cardID uuid.UUID, targetAmount int64) *CardPerformance {
	return &CardPerformance{
		userID:         userID,
		cardID:         cardID,
		currentAmount:  0,
		targetAmount:   targetAmount,
		targetAchieved: targetAmount <= 0,
		lastUpdatedAt:  time.Now().UTC(),
		version:        0,
	}
}

// ReconstructCardPerformance rebuilds a snapshot from persistence.
func ReconstructCardPerformance(userID, cardID uuid.UUID, currentAmount, targetAmount int64, targetAchieved bool, lastUpdatedAt time.Time, version int64) *CardPerformance {
	return &CardPerformance{
		userID: userID, cardID: cardID,
		currentAmount: currentAmount, targetAmount: targetAmount,
		targetAchieved: targetAchieved, lastUpdatedAt: lastUpdatedAt,
		version: version,
	}
}

func (p *CardPerformance) UserID() uuid.UUID        { return p.userID }
func (p *CardPerformance) CardID() uuid.UUID        { return p.cardID }
func (p *CardPerformance) CurrentAmount() int64     { return p.currentAmount }
func (p *CardPerformance) TargetAmount() int64      { return p.targetAmount }
func (p *CardPerformance) TargetAchieved() bool     { return p.targetAchieved }
func (p *CardPerformance) LastUpdatedAt() time.Time { return p.lastUpdatedAt }
func (p *CardPerformance) Version() int64           { return p.version }

// ApplySpend adds an expense amount to the cumulative spend, recomputes
// target achievement and bumps the version. Persistence writes the full
// snapshot afterwards, compare-and-swapping on the previous version.
func (p *CardPerformance) ApplySpend(amount int64) {
	p.currentAmount += amount
	p.targetAchieved = p.currentAmount >= p.targetAmount
	p.lastUpdatedAt = time.Now().UTC()
	p.version++
}
