package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

func entropyTx(id string, t time.Time, amount float64, method models.PaymentMethod) models.Transaction {
	return models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: id,
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: method,
		Type:          models.TransactionTypeInvestment,
		Timestamp:     &t,
	}
}

func TestEntropyDetectorConcentratedChannelIsComplex(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ed := NewEntropyDetector()

	var recent []models.Transaction
	for i := 0; i < 15; i++ {
		ts := now.Add(-time.Duration(i) * 24 * time.Hour)
		ts = time.Date(ts.Year(), ts.Month(), ts.Day(), 3, 0, 0, 0, time.UTC)
		recent = append(recent, entropyTx("tx-c-"+string(rune('a'+i)), ts, 500, models.PaymentMethodCash))
	}

	analysis := ed.Analyze(recent, nil)
	assert.Less(t, analysis.EntropyPaymentMethod, 0.1)
	assert.True(t, analysis.IsComplex)
}

func TestEntropyDetectorDiverseMixIsNotFlagged(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ed := NewEntropyDetector()

	methods := []models.PaymentMethod{models.PaymentMethodSEPA, models.PaymentMethodCash, models.PaymentMethodCard}
	var recent []models.Transaction
	for i := 0; i < 6; i++ {
		ts := now.Add(-time.Duration(i*3) * 24 * time.Hour)
		recent = append(recent, entropyTx("tx-d-"+string(rune('a'+i)), ts, float64(300+i*50), methods[i%len(methods)]))
	}

	analysis := ed.Analyze(recent, nil)
	assert.False(t, analysis.IsComplex)
}

func TestEntropyDetectorEmptyRecentReturnsZeroEntropies(t *testing.T) {
	ed := NewEntropyDetector()
	analysis := ed.Analyze(nil, nil)
	assert.Equal(t, 0.0, analysis.EntropyAmount)
	assert.Equal(t, 0.0, analysis.EntropyPaymentMethod)
}
