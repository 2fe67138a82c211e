package queue

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventToTransactionValidEvent(t *testing.T) {
	ts := "2026-07-30T12:00:00Z"
	event := TransactionEvent{
		CustomerID:    "cust-1",
		TransactionID: "tx-1",
		CustomerName:  "Jane Doe",
		Amount:        "1250.50",
		PaymentMethod: "sepa",
		Type:          "investment",
		Timestamp:     &ts,
	}

	tx, err := eventToTransaction(event)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", tx.CustomerID)
	assert.True(t, tx.Amount.Equal(decimal.NewFromFloat(1250.50)))
	assert.NotNil(t, tx.Timestamp)
}

func TestEventToTransactionGeneratesIDWhenMissing(t *testing.T) {
	event := TransactionEvent{
		CustomerID:    "cust-1",
		Amount:        "500",
		PaymentMethod: "cash",
		Type:          "investment",
	}

	tx, err := eventToTransaction(event)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TransactionID)
}

func TestEventToTransactionRejectsInvalidAmount(t *testing.T) {
	event := TransactionEvent{
		CustomerID:    "cust-1",
		Amount:        "not-a-number",
		PaymentMethod: "cash",
		Type:          "investment",
	}
	_, err := eventToTransaction(event)
	assert.Error(t, err)
}

func TestEventToTransactionRejectsInvalidTimestamp(t *testing.T) {
	bad := "not-a-timestamp"
	event := TransactionEvent{
		CustomerID:    "cust-1",
		Amount:        "500",
		PaymentMethod: "cash",
		Type:          "investment",
		Timestamp:     &bad,
	}
	_, err := eventToTransaction(event)
	assert.Error(t, err)
}

func TestEventToTransactionRejectsInvalidPaymentMethod(t *testing.T) {
	event := TransactionEvent{
		CustomerID:    "cust-1",
		Amount:        "500",
		PaymentMethod: "bitcoin",
		Type:          "investment",
	}
	_, err := eventToTransaction(event)
	assert.Error(t, err)
}
