package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

func cashTx(t time.Time, amount float64) models.Transaction {
	return models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: "tx",
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: models.PaymentMethodCash,
		Type:          models.TransactionTypeInvestment,
		Timestamp:     &t,
	}
}

func TestWeightDetectorNormalSaverIsNotSuspicious(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	wd := NewWeightDetector(0.05, fixedClock{now})

	var recent []models.Transaction
	for i := 0; i < 4; i++ {
		recent = append(recent, cashTx(now.Add(-time.Duration(i*10)*24*time.Hour), 500))
	}

	analysis := wd.Analyze(recent, nil, nil)
	assert.False(t, analysis.IsSuspicious)
}

func TestWeightDetectorClassicSmurfingIsSuspicious(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	wd := NewWeightDetector(0.05, fixedClock{now})

	var recent []models.Transaction
	for i := 0; i < 20; i++ {
		recent = append(recent, cashTx(now.Add(-time.Duration(i)*24*time.Hour), 9500))
	}

	analysis := wd.Analyze(recent, nil, nil)
	assert.True(t, analysis.IsSuspicious)
	assert.Greater(t, analysis.ThresholdAvoidanceRatio, 0.5)
	assert.GreaterOrEqual(t, analysis.CumulativeLargeAmount, 30000.0)
}

func TestWeightDetectorSourceOfFundsExceeded(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	wd := NewWeightDetector(0.05, fixedClock{now})

	cap := decimal.NewFromFloat(5000)
	info := &models.CustomerInfo{CustomerID: "cust-1", SourceOfFundsCap: &cap}

	recent := []models.Transaction{cashTx(now, 10000)}

	analysis := wd.Analyze(recent, nil, info)
	assert.True(t, analysis.SourceOfFundsExceeded)
	assert.True(t, analysis.IsSuspicious)
}

func TestDetectThresholdAvoidanceEmptyInput(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	wd := NewWeightDetector(0.05, fixedClock{now})

	ratio, cumulative := wd.detectThresholdAvoidance(nil)
	assert.Equal(t, 0.0, ratio)
	assert.Equal(t, 0.0, cumulative)
}
