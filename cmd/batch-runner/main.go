// Command batch-runner scores a fixed batch of historical transactions
// without any of the ingestion-edge side effects, the way the teacher's
// BacktestWorker scores historical transactions outside the live pipeline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/enterprise/aml-risk-engine/configs"
	"github.com/enterprise/aml-risk-engine/internal/engine"
	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/store"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

// fixtureTransaction is the on-disk shape of a batch-runner input record.
type fixtureTransaction struct {
	CustomerID    string  `json:"customer_id"`
	TransactionID string  `json:"transaction_id"`
	CustomerName  string  `json:"customer_name"`
	Amount        string  `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Type          string  `json:"type"`
	Timestamp     *string `json:"timestamp"`
}

func main() {
	inputPath := flag.String("input", "", "path to a JSON array of fixture transactions")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *inputPath == "" {
		log.Fatal().Msg("missing -input flag")
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *inputPath).Msg("failed to read fixture file")
	}

	var fixtures []fixtureTransaction
	if err := json.Unmarshal(data, &fixtures); err != nil {
		log.Fatal().Err(err).Msg("failed to parse fixture file")
	}

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

	for _, f := range fixtures {
		tx, err := toTransaction(f)
		if err != nil {
			log.Fatal().Err(err).Str("transaction_id", f.TransactionID).Msg("invalid fixture transaction")
		}
		if err := ledger.AddTransaction(tx); err != nil {
			log.Fatal().Err(err).Msg("failed to load fixture transaction")
		}
	}

	profiles, err := ledger.AnalyzeAllCustomers(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("batch scoring failed")
	}

	for _, p := range profiles {
		fmt.Printf("%-20s score=%-8.2f level=%-7s flags=%d\n", p.CustomerID, p.SuspicionScore, p.RiskLevel, len(p.Flags))
	}
}

func toTransaction(f fixtureTransaction) (models.Transaction, error) {
	amount, err := decimal.NewFromString(f.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", f.Amount, err)
	}

	var ts *time.Time
	if f.Timestamp != nil {
		parsed, err := time.Parse(time.RFC3339, *f.Timestamp)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("invalid timestamp %q: %w", *f.Timestamp, err)
		}
		ts = &parsed
	}

	transactionID := f.TransactionID
	if transactionID == "" {
		transactionID = models.NewTransactionID()
	}

	return models.Transaction{
		CustomerID:    f.CustomerID,
		TransactionID: transactionID,
		CustomerName:  f.CustomerName,
		Amount:        amount,
		PaymentMethod: models.PaymentMethod(f.PaymentMethod),
		Type:          models.TransactionType(f.Type),
		Timestamp:     ts,
	}, nil
}
