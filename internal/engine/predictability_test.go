package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

func predictTx(t time.Time, amount float64, method models.PaymentMethod) models.Transaction {
	return models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: "tx",
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: method,
		Type:          models.TransactionTypeInvestment,
		Timestamp:     &t,
	}
}

func TestPredictabilityDetectorSteadyRoutineIsStable(t *testing.T) {
	pd := NewPredictabilityDetector()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	var recent []models.Transaction
	for i := 0; i < 8; i++ {
		recent = append(recent, predictTx(now.Add(-time.Duration(i*7)*24*time.Hour), 500, models.PaymentMethodSEPA))
	}

	analysis := pd.Analyze(recent, nil)
	assert.True(t, analysis.IsStable)
	assert.Equal(t, 1.0, analysis.ChannelContinuity)
}

func TestPredictabilityDetectorErraticActivityIsNotStable(t *testing.T) {
	pd := NewPredictabilityDetector()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	recent := []models.Transaction{
		predictTx(now, 50, models.PaymentMethodCash),
		predictTx(now.Add(-2*time.Hour), 4000, models.PaymentMethodSEPA),
		predictTx(now.Add(-40*24*time.Hour), 120, models.PaymentMethodCard),
		predictTx(now.Add(-41*24*time.Hour), 9000, models.PaymentMethodCash),
	}

	analysis := pd.Analyze(recent, nil)
	assert.False(t, analysis.IsStable)
}

func TestPredictabilityDetectorEmptyRecentDefaultsToMidpoint(t *testing.T) {
	pd := NewPredictabilityDetector()
	analysis := pd.Analyze(nil, nil)
	assert.Equal(t, 0.5, analysis.TemporalStability)
	assert.Equal(t, 0.5, analysis.AmountConsistency)
	assert.Equal(t, 0.5, analysis.ChannelContinuity)
}
