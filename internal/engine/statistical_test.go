package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

func statTx(id string, t time.Time, amount float64, method models.PaymentMethod, txType models.TransactionType) models.Transaction {
	return models.Transaction{
		CustomerID:    "cust-1",
		TransactionID: id,
		Amount:        decimal.NewFromFloat(amount),
		PaymentMethod: method,
		Type:          txType,
		Timestamp:     &t,
	}
}

func TestBenfordAnalysisFlagsFabricatedRoundNumbers(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	var txns []models.Transaction
	for i := 0; i < 25; i++ {
		txns = append(txns, statTx("tx-"+string(rune('a'+i%20)), now.Add(-time.Duration(i)*24*time.Hour), 9000, models.PaymentMethodCash, models.TransactionTypeInvestment))
	}

	score := sa.benfordAnalysis(txns)
	assert.Greater(t, score, 0.0)
}

func TestBenfordAnalysisNaturalDistributionScoresLow(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	amounts := []float64{102, 115, 134, 156, 187, 198, 210, 234, 256, 289, 312, 345, 389, 423, 456, 489, 512, 589, 634, 689, 712, 789, 845, 912, 989}
	var txns []models.Transaction
	for i, amt := range amounts {
		txns = append(txns, statTx("tx-"+string(rune('a'+i)), now.Add(-time.Duration(i)*24*time.Hour), amt, models.PaymentMethodSEPA, models.TransactionTypeInvestment))
	}

	score := sa.benfordAnalysis(txns)
	assert.Less(t, score, 0.5)
}

func TestBenfordAnalysisRequiresMinimumSample(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	txns := []models.Transaction{statTx("tx-1", now, 500, models.PaymentMethodSEPA, models.TransactionTypeInvestment)}
	assert.Equal(t, 0.0, sa.benfordAnalysis(txns))
}

func TestCashToBankLayeringDetectionFlagsClassicShape(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	var txns []models.Transaction
	for i := 0; i < 6; i++ {
		txns = append(txns, statTx("tx-in-"+string(rune('a'+i)), now.Add(-time.Duration(i*2)*24*time.Hour), 8000, models.PaymentMethodCash, models.TransactionTypeInvestment))
	}
	for i := 0; i < 6; i++ {
		txns = append(txns, statTx("tx-out-"+string(rune('a'+i)), now.Add(-time.Duration(i*2+1)*24*time.Hour), 8000, models.PaymentMethodSEPA, models.TransactionTypeWithdrawal))
	}

	score := sa.cashToBankLayeringDetection(txns)
	assert.Greater(t, score, 0.3)
}

func TestCashToBankLayeringDetectionNoInvestmentsScoresZero(t *testing.T) {
	sa := NewStatisticalAnalyzer()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		statTx("tx-1", now, 500, models.PaymentMethodSEPA, models.TransactionTypeWithdrawal),
		statTx("tx-2", now.Add(-time.Hour), 600, models.PaymentMethodSEPA, models.TransactionTypeWithdrawal),
		statTx("tx-3", now.Add(-2*time.Hour), 700, models.PaymentMethodSEPA, models.TransactionTypeWithdrawal),
	}
	assert.Equal(t, 0.0, sa.cashToBankLayeringDetection(txns))
}
