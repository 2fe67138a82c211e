package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enterprise/aml-risk-engine/configs"
	"github.com/enterprise/aml-risk-engine/internal/engine"
	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/queue"
	"github.com/enterprise/aml-risk-engine/internal/store"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

// brokersFromEnv splits the comma-separated KAFKA_BROKERS variable, falling
// back to a single local broker for development.
func brokersFromEnv() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	if raw == "" {
		return []string{"localhost:9092"}
	}
	return strings.Split(raw, ",")
}

func main() {
	_ = godotenv.Load()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := configs.Load()

	trustStore := trust.NewMemoryStore()
	aggregatorCfg := engine.AggregatorConfig{
		Alpha:          cfg.Engine.Alpha,
		Beta:           cfg.Engine.Beta,
		TrustBeta:      cfg.Engine.TrustBeta,
		LambdaDecay:    cfg.Engine.LambdaDecay,
		RecentDays:     cfg.Engine.RecentDays,
		HistoricalDays: cfg.Engine.HistoricalDays,
		UseTPSPSystem:  cfg.Engine.UseTPSPSystem,
	}
	aggregator := engine.NewAggregator(aggregatorCfg, trustStore, nil)
	ledger := store.NewMemoryStore(aggregator, cfg.Worker.Concurrency)

	handler := func(ctx context.Context, tx models.Transaction) error {
		if err := ledger.AddTransaction(tx); err != nil {
			return err
		}

		profile, err := ledger.AnalyzeCustomer(ctx, tx.CustomerID)
		if err != nil {
			if errors.Is(err, engine.ErrNoTransactionsInWindow) {
				return nil
			}
			return err
		}

		log.Info().
			Str("customer_id", profile.CustomerID).
			Float64("suspicion_score", profile.SuspicionScore).
			Str("risk_level", string(profile.RiskLevel)).
			Msg("customer risk profile updated")

		return nil
	}

	consumer, err := queue.NewTransactionConsumer(brokersFromEnv(), cfg.Redis.ConsumerGroup, cfg.Redis.StreamName, handler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("kafka transaction ingestor started")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("kafka consumer exited with error")
	}

	log.Info().Msg("kafka transaction ingestor stopped")
}
