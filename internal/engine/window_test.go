package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func txAt(t time.Time, amount float64) models.Transaction {
	return models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: "tx",
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: models.PaymentMethodSEPA,
		Type:          models.TransactionTypeInvestment,
		Timestamp:     &t,
	}
}

func TestReferenceInstantRecentDataUsesNow(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	clock := fixedClock{now}
	txs := []models.Transaction{txAt(now.Add(-24 * time.Hour), 100)}

	ref := ReferenceInstant(txs, clock)
	assert.True(t, ref.Equal(now))
}

func TestReferenceInstantHistoricalDataUsesLatestTimestamp(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	clock := fixedClock{now}
	latest := now.Add(-120 * 24 * time.Hour)
	txs := []models.Transaction{txAt(latest, 100)}

	ref := ReferenceInstant(txs, clock)
	assert.True(t, ref.Equal(latest))
}

func TestSliceWindowsSplitsByRecency(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	clock := fixedClock{now}

	recentTx := txAt(now.Add(-5*24*time.Hour), 100)
	historicalTx := txAt(now.Add(-200*24*time.Hour), 200)

	recent, historical := SliceWindows([]models.Transaction{recentTx, historicalTx}, 30, 365, now, clock)

	require.Len(t, recent, 1)
	require.Len(t, historical, 1)
	assert.Equal(t, recentTx.TransactionID, recent[0].TransactionID)
	assert.Equal(t, historicalTx.TransactionID, historical[0].TransactionID)
}

func TestSliceWindowsFallsBack5050WhenWindowsOverlap(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	clock := fixedClock{now}

	var txs []models.Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, txAt(now.Add(-time.Duration(i)*24*time.Hour), float64(100+i)))
	}

	recent, historical := SliceWindows(txs, 30, 30, now, clock)

	assert.Len(t, recent, 5)
	assert.Len(t, historical, 5)
}
