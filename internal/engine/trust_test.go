package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

func trustTx(t time.Time, amount float64, method models.PaymentMethod) models.Transaction {
	return models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: "tx",
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: method,
		Type:          models.TransactionTypeInvestment,
		Timestamp:     &t,
	}
}

func TestTrustScoreCalculatorStableHistoryScoresHigh(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	tc := NewTrustScoreCalculator(0.7, trust.NewMemoryStore())

	var recent []models.Transaction
	for i := 0; i < 12; i++ {
		recent = append(recent, trustTx(now.Add(-time.Duration(i*7)*24*time.Hour), 500, models.PaymentMethodSEPA))
	}

	analysis := tc.Analyze(context.Background(), "cust-1", recent, nil, nil, fixedClock{now})
	assert.Equal(t, 0.0, analysis.SelfDeviation)
	assert.GreaterOrEqual(t, analysis.CurrentScore, 0.8)
	assert.LessOrEqual(t, analysis.CurrentScore, 1.0)
}

func TestTrustScoreCalculatorDeviationFromOwnHistoryLowersScore(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	tc := NewTrustScoreCalculator(0.7, trust.NewMemoryStore())

	var historical []models.Transaction
	for i := 0; i < 20; i++ {
		historical = append(historical, trustTx(now.Add(-time.Duration(60+i*7)*24*time.Hour), 300, models.PaymentMethodSEPA))
	}
	var recent []models.Transaction
	for i := 0; i < 10; i++ {
		recent = append(recent, trustTx(now.Add(-time.Duration(i)*24*time.Hour), 9000, models.PaymentMethodCash))
	}

	analysis := tc.Analyze(context.Background(), "cust-1", recent, historical, nil, fixedClock{now})
	assert.Greater(t, analysis.SelfDeviation, 0.0)
}

func TestTrustScoreCalculatorPersistsScoreAcrossCalls(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	store := trust.NewMemoryStore()
	tc := NewTrustScoreCalculator(0.7, store)

	recent := []models.Transaction{trustTx(now, 500, models.PaymentMethodSEPA)}
	tc.Analyze(context.Background(), "cust-2", recent, nil, nil, fixedClock{now})

	previous, ok, err := store.PreviousScore(context.Background(), "cust-2")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, previous, 0.0)
}
