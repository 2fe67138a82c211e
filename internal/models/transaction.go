package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates the payment rails a transaction can use.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodSEPA PaymentMethod = "sepa"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodSEPA, PaymentMethodCard:
		return true
	default:
		return false
	}
}

// TransactionType enumerates the direction of money flow for a transaction.
type TransactionType string

const (
	TransactionTypeInvestment TransactionType = "investment"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeInvestment, TransactionTypeWithdrawal:
		return true
	default:
		return false
	}
}

// Transaction is an immutable financial transaction record belonging to a
// customer. Amount is EUR and must be non-negative; TransactionID is unique
// within a customer's sequence.
type Transaction struct {
	CustomerID    string          `json:"customer_id"`
	TransactionID string          `json:"transaction_id"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Type          TransactionType `json:"type"`
	Timestamp     *time.Time      `json:"timestamp,omitempty"` // nil => treated as "now" for density, excluded from time-based entropy
}

// Validate checks the invariants the core assumes are already enforced by
// the boundary (§7 InvalidInput): amount >= 0, enums are well-formed.
func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction %s: amount %s is negative", t.TransactionID, t.Amount.String())
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("transaction %s: invalid payment method %q", t.TransactionID, t.PaymentMethod)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("transaction %s: invalid transaction type %q", t.TransactionID, t.Type)
	}
	return nil
}

// AmountFloat returns the amount as float64 for use in the detectors'
// statistical computations (entropy, CV, z-scores are not exact-decimal
// operations by nature).
func (t Transaction) AmountFloat() float64 {
	f, _ := t.Amount.Float64()
	return f
}

// HasTimestamp reports whether the transaction carries a timestamp.
func (t Transaction) HasTimestamp() bool {
	return t.Timestamp != nil
}

// CustomerInfo holds optional per-customer context created/updated out of
// band (e.g. by a KYC or onboarding system).
type CustomerInfo struct {
	CustomerID       string           `json:"customer_id"`
	SourceOfFundsCap *decimal.Decimal `json:"source_of_funds_cap,omitempty"` // EUR, may be absent
	MonthlyIncome    *decimal.Decimal `json:"monthly_income,omitempty"`      // EUR, may be absent
}

// NewTransactionID generates a fresh, unique transaction identifier. Drivers
// that don't already carry an external id (e.g. an ingestion pipeline
// assigning its own) can use this, mirroring the teacher's use of
// google/uuid for every externally-facing identifier.
func NewTransactionID() string {
	return uuid.New().String()
}
