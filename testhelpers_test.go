//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/cardscout/service-benefit/internal/application"
	benefitEvents "github.com/cardscout/service-benefit/internal/events"
	"github.com/cardscout/service-benefit/internal/lock"
	"github.com/cardscout/service-benefit/internal/places"
	"github.com/cardscout/service-benefit/internal/platform/kafka"
	"github.com/cardscout/service-benefit/internal/repository"

	"github.com/google/uuid"
	redisclient "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	Redis        *redisclient.Client
	KafkaBrokers []string
	Cleanup      func()
}

// benefitStack holds wired-up benefit service components.
type benefitStack struct {
	Calculator      *application.CalculatorService
	Matching        *application.MatchingService
	Consumer        *benefitEvents.ExpenseEventConsumer
	CleanupProducer func()
}

// staticSearcher classifies every query into one fixed category, standing in
// for the external place-search provider.
type staticSearcher struct {
	category string
}

func (s staticSearcher) Search(ctx context.Context, query string) ([]places.Place, error) {
	return []places.Place{{ID: "test-place", Name: query, CategoryCode: s.category}}, nil
}

// setupContainers starts PostgreSQL, Redis and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start PostgreSQL container with log-based wait strategy.
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_benefit",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_benefit sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.CardModel{},
		&repository.OfferModel{},
		&repository.SubOfferModel{},
		&repository.UserCardModel{},
		&repository.CardPerformanceModel{},
		&repository.UsageRecordModel{},
		&repository.PromotionModel{},
	))

	// Start Redis container for the distributed lock.
	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Redis container")

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redisclient.NewClient(&redisclient.Options{
		Addr: net.JoinHostPort(redisHost, redisPort.Port()),
	})
	require.NoError(t, rdb.Ping(ctx).Err(), "Redis not reachable")

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, benefitEvents.TopicExpenseEvents, benefitEvents.TopicBenefitEvents)

	cleanup := func() {
		_ = rdb.Close()
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		Redis:        rdb,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBenefitStack wires up the full benefit service stack against the
// containers, classifying every place as CAFE.
func setupBenefitStack(t *testing.T, infra *testInfra) *benefitStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	cardRepo := repository.NewGormCardRepository(infra.DB)
	ledgerRepo := repository.NewGormLedgerRepository(infra.DB)
	locker := lock.NewRedisLocker(infra.Redis, logger)
	producer := kafka.NewProducer(infra.KafkaBrokers, logger)
	searcher := staticSearcher{category: "CAFE"}

	calculator := application.NewCalculatorService(cardRepo, ledgerRepo, locker, searcher, producer, logger)
	matching := application.NewMatchingService(cardRepo, ledgerRepo, searcher, logger)

	groupID := fmt.Sprintf("test-benefit-%s", uuid.New().String()[:8])
	consumer := benefitEvents.NewExpenseEventConsumer(infra.KafkaBrokers, groupID, calculator, logger)

	return &benefitStack{
		Calculator:      calculator,
		Matching:        matching,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// subOfferSpec describes one seeded sub-offer.
type subOfferSpec struct {
	Kind         string
	Rate         float64
	MonthlyLimit int64
}

// seedRegisteredCard inserts a catalog card with one CAFE offer carrying the
// given sub-offers, registered to the user. Returns the card ID.
func seedRegisteredCard(t *testing.T, db *gorm.DB, userID uuid.UUID, spendTarget int64, subOffers ...subOfferSpec) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()

	card := repository.CardModel{
		ID:          uuid.New(),
		Company:     "SHINHAN",
		CardType:    "CREDIT",
		Name:        fmt.Sprintf("Test Card %s", uuid.New().String()[:8]),
		SpendTarget: spendTarget,
		CreatedAt:   now,
	}
	require.NoError(t, db.Create(&card).Error, "failed to seed card")

	offer := repository.OfferModel{
		ID:         uuid.New(),
		CardID:     card.ID,
		Summary:    "cafe rewards",
		Categories: []string{"CAFE"},
	}
	require.NoError(t, db.Create(&offer).Error, "failed to seed offer")

	for _, spec := range subOffers {
		model := repository.SubOfferModel{
			ID:           uuid.New(),
			OfferID:      offer.ID,
			Kind:         spec.Kind,
			Rate:         spec.Rate,
			MonthlyLimit: spec.MonthlyLimit,
			Channel:      "BOTH",
		}
		require.NoError(t, db.Create(&model).Error, "failed to seed sub-offer")
	}

	registration := repository.UserCardModel{
		ID:           uuid.New(),
		UserID:       userID,
		CardID:       card.ID,
		IsActive:     true,
		RegisteredAt: now,
	}
	require.NoError(t, db.Create(&registration).Error, "failed to seed registration")

	return card.ID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	err := producer.Publish(context.Background(), topic, uuid.NewString(), source, eventType, data)
	require.NoError(t, err, "failed to publish event")
}

// waitForUsageCount polls benefit_usages until the card has the expected
// number of rows.
func waitForUsageCount(t *testing.T, db *gorm.DB, cardID uuid.UUID, expected int64, timeout time.Duration) []repository.UsageRecordModel {
	t.Helper()
	var result []repository.UsageRecordModel
	require.Eventually(t, func() bool {
		var models []repository.UsageRecordModel
		if err := db.Where("card_id = ?", cardID).Find(&models).Error; err != nil {
			return false
		}
		if int64(len(models)) == expected {
			result = models
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "expected %d usage rows for card %s", expected, cardID)
	return result
}

// waitForPerformance polls card_performances until the row reaches the
// expected cumulative spend.
func waitForPerformance(t *testing.T, db *gorm.DB, userID, cardID uuid.UUID, expectedAmount int64, timeout time.Duration) repository.CardPerformanceModel {
	t.Helper()
	var result repository.CardPerformanceModel
	require.Eventually(t, func() bool {
		var model repository.CardPerformanceModel
		err := db.Where("user_id = ? AND card_id = ?", userID, cardID).First(&model).Error
		if err != nil {
			return false
		}
		if model.CurrentAmount == expectedAmount {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "performance did not reach %d", expectedAmount)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
