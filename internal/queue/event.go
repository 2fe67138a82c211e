package queue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// eventToTransaction converts the wire event into the domain Transaction,
// mirroring the validation the ingestion edge performs before anything
// reaches the scoring engine.
func eventToTransaction(event TransactionEvent) (models.Transaction, error) {
	amount, err := decimal.NewFromString(event.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", event.Amount, err)
	}

	var ts *time.Time
	if event.Timestamp != nil {
		parsed, err := time.Parse(time.RFC3339, *event.Timestamp)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("invalid timestamp %q: %w", *event.Timestamp, err)
		}
		ts = &parsed
	}

	transactionID := event.TransactionID
	if transactionID == "" {
		transactionID = models.NewTransactionID()
	}

	tx := models.Transaction{
		CustomerID:    event.CustomerID,
		TransactionID: transactionID,
		CustomerName:  event.CustomerName,
		Amount:        amount,
		PaymentMethod: models.PaymentMethod(event.PaymentMethod),
		Type:          models.TransactionType(event.Type),
		Timestamp:     ts,
	}

	if err := tx.Validate(); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}
