//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	benefitEvents "github.com/cardscout/service-benefit/internal/events"
	"github.com/cardscout/service-benefit/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExpensePosted_AppliesBestOfferPerKind verifies the full pipeline: an
// expense.posted event on expense.events updates the spend performance,
// writes one usage row per benefit kind and publishes benefit.applied events.
func TestExpensePosted_AppliesBestOfferPerKind(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBenefitStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	userID := uuid.New()
	cardID := seedRegisteredCard(t, infra.DB, userID, 0,
		subOfferSpec{Kind: "DISCOUNT", Rate: 0.1, MonthlyLimit: 100000},
		subOfferSpec{Kind: "POINT", Rate: 0.2, MonthlyLimit: 100000},
		subOfferSpec{Kind: "CASHBACK", Rate: 0.05, MonthlyLimit: 100000},
	)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := benefitEvents.ExpensePostedEvent{
		ExpenseID: uuid.New(),
		UserID:    userID,
		Amount:    20000,
		Place:     "Starbucks Gangnam",
		PostedAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, benefitEvents.TopicExpenseEvents,
		"service-expense", benefitEvents.ExpensePosted, evt)

	// Assert: one usage row per kind with the rate-derived amount.
	rows := waitForUsageCount(t, infra.DB, cardID, 3, 15*time.Second)
	amounts := map[string]int64{}
	for _, r := range rows {
		amounts[r.Kind] = r.UsedAmount
	}
	assert.Equal(t, int64(2000), amounts["DISCOUNT"])
	assert.Equal(t, int64(4000), amounts["POINT"])
	assert.Equal(t, int64(1000), amounts["CASHBACK"])

	// Assert: performance row carries the spend.
	perf := waitForPerformance(t, infra.DB, userID, cardID, 20000, 15*time.Second)
	assert.True(t, perf.TargetAchieved)
	assert.Equal(t, int64(1), perf.Version)

	// Assert: benefit.applied published on benefit.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, benefitEvents.TopicBenefitEvents,
		benefitEvents.BenefitApplied, 15*time.Second)

	var applied benefitEvents.BenefitAppliedEvent
	require.NoError(t, ce.ParseData(&applied))
	assert.Equal(t, userID, applied.UserID)
	assert.Equal(t, cardID, applied.CardID)
	assert.Equal(t, "Starbucks Gangnam", applied.Place)
}

// TestExpensePosted_TargetNotReached verifies that spend below the card's
// target is tracked but unlocks no benefits.
func TestExpensePosted_TargetNotReached(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBenefitStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	userID := uuid.New()
	cardID := seedRegisteredCard(t, infra.DB, userID, 100000,
		subOfferSpec{Kind: "DISCOUNT", Rate: 0.1, MonthlyLimit: 100000},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	evt := benefitEvents.ExpensePostedEvent{
		ExpenseID: uuid.New(),
		UserID:    userID,
		Amount:    20000,
		Place:     "Cafe Onion",
		PostedAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, benefitEvents.TopicExpenseEvents,
		"service-expense", benefitEvents.ExpensePosted, evt)

	perf := waitForPerformance(t, infra.DB, userID, cardID, 20000, 15*time.Second)
	assert.False(t, perf.TargetAchieved)

	var count int64
	infra.DB.Model(&repository.UsageRecordModel{}).Where("card_id = ?", cardID).Count(&count)
	assert.Equal(t, int64(0), count, "no benefit below the spend target")
}

// TestExpensePosted_MonthlyLimitReached verifies that a benefit whose value
// would exceed the monthly limit is skipped silently while spend still
// accumulates.
func TestExpensePosted_MonthlyLimitReached(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBenefitStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	userID := uuid.New()
	cardID := seedRegisteredCard(t, infra.DB, userID, 0,
		subOfferSpec{Kind: "DISCOUNT", Rate: 0.1, MonthlyLimit: 1500},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	// Value would be 2000 against a limit of 1500.
	evt := benefitEvents.ExpensePostedEvent{
		ExpenseID: uuid.New(),
		UserID:    userID,
		Amount:    20000,
		Place:     "Fritz",
		PostedAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, benefitEvents.TopicExpenseEvents,
		"service-expense", benefitEvents.ExpensePosted, evt)

	perf := waitForPerformance(t, infra.DB, userID, cardID, 20000, 15*time.Second)
	assert.True(t, perf.TargetAchieved)

	// Give the usage path time to run. No row expected.
	time.Sleep(3 * time.Second)
	var count int64
	infra.DB.Model(&repository.UsageRecordModel{}).Where("card_id = ?", cardID).Count(&count)
	assert.Equal(t, int64(0), count, "over-limit benefit must be a silent no-op")
}

// TestExpensePosted_UnknownUser_NoRows verifies that an expense for a user
// with no registered cards is consumed without side effects.
func TestExpensePosted_UnknownUser_NoRows(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBenefitStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	userID := uuid.New()
	evt := benefitEvents.ExpensePostedEvent{
		ExpenseID: uuid.New(),
		UserID:    userID,
		Amount:    20000,
		Place:     "Nowhere",
		PostedAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, benefitEvents.TopicExpenseEvents,
		"service-expense", benefitEvents.ExpensePosted, evt)

	// Give the consumer time to process. No crash expected.
	time.Sleep(5 * time.Second)

	var perfCount, usageCount int64
	infra.DB.Model(&repository.CardPerformanceModel{}).Where("user_id = ?", userID).Count(&perfCount)
	infra.DB.Model(&repository.UsageRecordModel{}).Where("user_id = ?", userID).Count(&usageCount)
	assert.Equal(t, int64(0), perfCount)
	assert.Equal(t, int64(0), usageCount)
}

// TestMatching_CardsUsableAtStore verifies the read path against real
// persistence: a registered card with an achieved target and headroom shows
// its benefits for a resolved store.
func TestMatching_CardsUsableAtStore(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBenefitStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	userID := uuid.New()
	cardID := seedRegisteredCard(t, infra.DB, userID, 0,
		subOfferSpec{Kind: "DISCOUNT", Rate: 0.1, MonthlyLimit: 50000},
	)

	result, err := stack.Matching.CardsUsableAtStore(context.Background(), userID, "Starbucks Gangnam")
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, cardID, result[0].CardID)
	require.Len(t, result[0].Benefits, 1)
	assert.Equal(t, int64(50000), result[0].Benefits[0].RemainingLimit)
}
