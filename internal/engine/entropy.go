package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// entropyWeights controls how the four entropy dimensions combine into the
// aggregate complexity score, see spec.md §4.2.
type entropyWeights struct {
	amount, paymentMethod, transactionType, time float64
}

var defaultEntropyWeights = entropyWeights{
	amount:          0.25,
	paymentMethod:   0.30,
	transactionType: 0.20,
	time:            0.25,
}

var defaultAmountBinEdges = []float64{0, 500, 2000, 10000, math.Inf(1)}

// EntropyDetector measures behavioral complexity via Shannon entropy across
// amount, payment method, transaction type, and time-of-activity
// distributions. Both very low entropy (channelling onto one pattern) and
// very high entropy (deliberate scattering) are treated as suspicious.
type EntropyDetector struct {
	amountBinEdges []float64
	weights        entropyWeights
}

func NewEntropyDetector() *EntropyDetector {
	return &EntropyDetector{
		amountBinEdges: defaultAmountBinEdges,
		weights:        defaultEntropyWeights,
	}
}

func binIndex(v float64, edges []float64) int {
	for i := 0; i < len(edges)-2; i++ {
		if v >= edges[i] && v < edges[i+1] {
			return i
		}
	}
	return len(edges) - 2
}

func (ed *EntropyDetector) calculateAmountEntropy(transactions []models.Transaction) float64 {
	if len(transactions) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, tx := range transactions {
		idx := binIndex(tx.AmountFloat(), ed.amountBinEdges)
		counts[strconv.Itoa(idx)]++
	}
	return shannonEntropy(counts, len(transactions))
}

func (ed *EntropyDetector) calculatePaymentMethodEntropy(transactions []models.Transaction) float64 {
	if len(transactions) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, tx := range transactions {
		counts[string(tx.PaymentMethod)]++
	}
	return shannonEntropy(counts, len(transactions))
}

func (ed *EntropyDetector) calculateTransactionTypeEntropy(transactions []models.Transaction) float64 {
	if len(transactions) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, tx := range transactions {
		counts[string(tx.Type)]++
	}
	return shannonEntropy(counts, len(transactions))
}

// calculateTimeEntropy averages weekday entropy and time-of-day-block
// entropy (six 4-hour blocks) across timestamped transactions.
func (ed *EntropyDetector) calculateTimeEntropy(transactions []models.Transaction) float64 {
	var withTime []models.Transaction
	for _, tx := range transactions {
		if tx.HasTimestamp() {
			withTime = append(withTime, tx)
		}
	}
	if len(withTime) == 0 {
		return 0
	}

	weekdayCounts := make(map[string]int)
	hourBlockCounts := make(map[string]int)
	for _, tx := range withTime {
		weekdayCounts[fmt.Sprintf("%d", int(tx.Timestamp.Weekday()))]++
		hourBlockCounts[fmt.Sprintf("%d", tx.Timestamp.Hour()/4)]++
	}

	weekdayEntropy := shannonEntropy(weekdayCounts, len(withTime))
	hourEntropy := shannonEntropy(hourBlockCounts, len(withTime))

	return (weekdayEntropy + hourEntropy) / 2.0
}

func (ed *EntropyDetector) calculateAggregateEntropy(amount, payment, txType, timeE float64) float64 {
	return ed.weights.amount*amount +
		ed.weights.paymentMethod*payment +
		ed.weights.transactionType*txType +
		ed.weights.time*timeE
}

// calculateZScore returns the signed z-score; the caller is responsible for
// taking the absolute value, since both unusually low and unusually high
// entropy can be suspicious.
func (ed *EntropyDetector) calculateZScore(current float64, historical []float64) float64 {
	if len(historical) < 2 {
		return 0
	}
	return zScore(current, mean(historical), stddev(historical))
}

// calculateHistoricalEntropies computes aggregate entropy over rolling
// 30-day windows stepping every 7 days, skipping windows with 5 or fewer
// transactions (too few for a meaningful distribution).
func (ed *EntropyDetector) calculateHistoricalEntropies(historical []models.Transaction) []float64 {
	var txns []models.Transaction
	for _, tx := range historical {
		if tx.HasTimestamp() {
			txns = append(txns, tx)
		}
	}
	if len(txns) == 0 {
		return nil
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].Timestamp.Before(*txns[j].Timestamp) })

	minTime := *txns[0].Timestamp
	maxTime := *txns[len(txns)-1].Timestamp

	const windowSizeDays = 30
	windowDur := windowSizeDays * 24 * time.Hour

	var entropies []float64
	for current := minTime.Add(windowDur); !current.After(maxTime); current = current.Add(7 * 24 * time.Hour) {
		windowStart := current.Add(-windowDur)
		var windowTxns []models.Transaction
		for _, tx := range txns {
			if !tx.Timestamp.Before(windowStart) && tx.Timestamp.Before(current) {
				windowTxns = append(windowTxns, tx)
			}
		}
		if len(windowTxns) > 5 {
			eAmount := ed.calculateAmountEntropy(windowTxns)
			ePayment := ed.calculatePaymentMethodEntropy(windowTxns)
			eType := ed.calculateTransactionTypeEntropy(windowTxns)
			eTime := ed.calculateTimeEntropy(windowTxns)
			entropies = append(entropies, ed.calculateAggregateEntropy(eAmount, ePayment, eType, eTime))
		}
	}
	return entropies
}

// Analyze runs the full entropy analysis for one customer's recent
// transactions against an optional historical baseline.
func (ed *EntropyDetector) Analyze(recent, historical []models.Transaction) models.EntropyAnalysis {
	eAmount := ed.calculateAmountEntropy(recent)
	ePayment := ed.calculatePaymentMethodEntropy(recent)
	eType := ed.calculateTransactionTypeEntropy(recent)
	eTime := ed.calculateTimeEntropy(recent)
	eAgg := ed.calculateAggregateEntropy(eAmount, ePayment, eType, eTime)

	absoluteSuspicious := false
	if eAgg < 0.3 {
		absoluteSuspicious = true
	} else if eAgg > 2.0 {
		absoluteSuspicious = true
	}

	if ePayment < 0.1 && len(recent) > 10 {
		absoluteSuspicious = true
	}

	if len(recent) >= 10 {
		unique := make(map[string]struct{})
		for _, tx := range recent {
			unique[tx.Amount.String()] = struct{}{}
		}
		uniqueRatio := float64(len(unique)) / float64(len(recent))
		if uniqueRatio >= 0.8 {
			absoluteSuspicious = true
		}
		if eAmount >= 1.0 {
			absoluteSuspicious = true
		}
	}

	zScoreValue := 0.0
	relativeSuspicious := false
	if len(historical) > 0 {
		historicalEntropies := ed.calculateHistoricalEntropies(historical)
		zScoreValue = ed.calculateZScore(eAgg, historicalEntropies)
		relativeSuspicious = math.Abs(zScoreValue) >= 2.5
	}

	return models.EntropyAnalysis{
		EntropyAmount:        eAmount,
		EntropyPaymentMethod: ePayment,
		EntropyType:          eType,
		EntropyTime:          eTime,
		EntropyAggregate:     eAgg,
		ZScore:               zScoreValue,
		IsComplex:            absoluteSuspicious || relativeSuspicious,
	}
}
