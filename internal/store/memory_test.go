package store

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/aml-risk-engine/internal/engine"
	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestStore(now time.Time) *MemoryStore {
	cfg := engine.DefaultAggregatorConfig()
	agg := engine.NewAggregator(cfg, trust.NewMemoryStore(), fixedClock{now})
	return NewMemoryStore(agg, 4)
}

func tx(customerID, id string, ts time.Time, amount float64) models.Transaction {
	return models.Transaction{
		CustomerID:    customerID,
		TransactionID: id,
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: models.PaymentMethodSEPA,
		Type:          models.TransactionTypeInvestment,
		Timestamp:     &ts,
	}
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	s := newTestStore(time.Now())
	invalid := models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: "tx-1",
		Amount:        decimal.NewFromFloat(-1),
		PaymentMethod: models.PaymentMethodSEPA,
		Type:          models.TransactionTypeInvestment,
	}
	err := s.AddTransaction(invalid)
	assert.Error(t, err)
}

func TestAnalyzeCustomerRoundTrip(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	s := newTestStore(now)

	require.NoError(t, s.AddTransaction(tx("cust-1", "tx-1", now.Add(-time.Hour), 250)))
	require.NoError(t, s.AddTransaction(tx("cust-1", "tx-2", now.Add(-48*time.Hour), 300)))

	profile, err := s.AnalyzeCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", profile.CustomerID)
	assert.Equal(t, 2, profile.TotalTransactions)
}

func TestAnalyzeCustomerUnknownReturnsError(t *testing.T) {
	s := newTestStore(time.Now())
	_, err := s.AnalyzeCustomer(context.Background(), "ghost")
	assert.ErrorIs(t, err, engine.ErrUnknownCustomer)
}

func TestAnalyzeAllCustomersSortsDescendingBySuspicion(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	s := newTestStore(now)

	require.NoError(t, s.AddTransaction(tx("cust-calm", "tx-calm-1", now.Add(-time.Hour), 200)))
	require.NoError(t, s.AddTransaction(tx("cust-calm", "tx-calm-2", now.Add(-48*time.Hour), 220)))

	smurfer := models.Transaction{
		CustomerID:    "cust-smurfer",
		TransactionID: "tx-smurfer-1",
		Amount:        decimal.NewFromFloat(9500),
		PaymentMethod: models.PaymentMethodCash,
		Type:          models.TransactionTypeInvestment,
	}
	for i := 0; i < 15; i++ {
		ts := now.Add(-time.Duration(i) * 24 * time.Hour)
		smurfer.Timestamp = &ts
		smurfer.TransactionID = "tx-smurfer-" + strconv.Itoa(i)
		require.NoError(t, s.AddTransaction(smurfer))
	}

	profiles, err := s.AnalyzeAllCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.GreaterOrEqual(t, profiles[0].SuspicionScore, profiles[1].SuspicionScore)
}
