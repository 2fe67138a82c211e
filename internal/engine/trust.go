package engine

import (
	"context"
	"math"
	"sort"

	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

// TrustScoreCalculator computes a dynamic, smoothed trust score from three
// signals: time-series predictability, deviation from the customer's own
// historical pattern, and deviation from a peer group, see spec.md §4.4.
// The score is deliberately stateful across calls (T(t) = beta*T(t-1) +
// (1-beta)*T_new with a dynamic beta), backed by a pluggable trust.Store so
// a single process or a fleet of workers can share history.
type TrustScoreCalculator struct {
	beta  float64
	store trust.Store
}

func NewTrustScoreCalculator(beta float64, store trust.Store) *TrustScoreCalculator {
	if store == nil {
		store = trust.NewMemoryStore()
	}
	return &TrustScoreCalculator{beta: beta, store: store}
}

// calculatePredictability measures behavioral regularity via daily-amount
// coefficient of variation, interval regularity, and trend stability.
func (tc *TrustScoreCalculator) calculatePredictability(transactions []models.Transaction, clock Clock) float64 {
	if len(transactions) < 5 {
		return 0.5
	}

	var withTime []models.Transaction
	for _, tx := range transactions {
		if tx.HasTimestamp() {
			withTime = append(withTime, tx)
		}
	}
	if len(withTime) == 0 {
		return 0.5
	}
	sort.Slice(withTime, func(i, j int) bool { return withTime[i].Timestamp.Before(*withTime[j].Timestamp) })

	buckets := groupByDay(withTime, clock.Now())
	if len(buckets) < 3 {
		return 0.5
	}

	amountSums := make([]float64, len(buckets))
	for i, b := range buckets {
		amountSums[i] = b.amountSum
	}
	cvAmount := stddev(amountSums) / (mean(amountSums) + epsilon)
	cvScore := 1.0 / (1.0 + cvAmount)

	intervalScore := 0.5
	if len(buckets) > 1 {
		intervals := make([]float64, 0, len(buckets)-1)
		for i := 1; i < len(buckets); i++ {
			intervals = append(intervals, buckets[i].day.Sub(buckets[i-1].day).Hours()/24.0)
		}
		cvIntervals := stddev(intervals) / (mean(intervals) + epsilon)
		intervalScore = 1.0 / (1.0 + cvIntervals)
	}

	trendScore := 0.5
	if len(buckets) > 10 {
		residuals := linearDetrend(amountSums)
		trendVariance := variance(residuals)
		originalVariance := variance(amountSums)
		trendScore = 1.0 - math.Min(trendVariance/(originalVariance+epsilon), 1.0)
	}

	predictability := cvScore*0.4 + intervalScore*0.3 + trendScore*0.3
	return clamp(predictability, 0, 1)
}

func variance(xs []float64) float64 {
	sd := stddev(xs)
	return sd * sd
}

// methodDistributionDivergence computes the KL divergence of the recent
// payment-method distribution from the historical one, base-e (natural
// log), matching the self-deviation formula's own smoothing: a category
// absent from either side defaults to probability 0.01 before the two
// distributions are renormalized to sum to 1.
func methodDistributionDivergence(recentCounts map[string]int, recentTotal int, histCounts map[string]int, histTotal int) float64 {
	categories := make(map[string]struct{}, len(recentCounts)+len(histCounts))
	for k := range recentCounts {
		categories[k] = struct{}{}
	}
	for k := range histCounts {
		categories[k] = struct{}{}
	}
	if len(categories) == 0 {
		return 0
	}

	histRaw := make(map[string]float64, len(categories))
	recentRaw := make(map[string]float64, len(categories))
	var histSum, recentSum float64
	for k := range categories {
		hp := 0.01
		if histTotal > 0 {
			if c, ok := histCounts[k]; ok {
				hp = float64(c) / float64(histTotal)
			}
		}
		rp := 0.01
		if recentTotal > 0 {
			if c, ok := recentCounts[k]; ok {
				rp = float64(c) / float64(recentTotal)
			}
		}
		histRaw[k] = hp
		recentRaw[k] = rp
		histSum += hp
		recentSum += rp
	}

	const smoothing = 1e-10
	var div float64
	for k := range categories {
		hp := histRaw[k] / histSum
		rp := recentRaw[k] / recentSum
		div += rp * math.Log((rp+smoothing)/(hp+smoothing))
	}
	return div
}

// calculateSelfDeviation compares recent behavior to the customer's own
// historical baseline: mean-amount z-score plus KL divergence of the
// payment-method distribution.
func (tc *TrustScoreCalculator) calculateSelfDeviation(recent, historical []models.Transaction) float64 {
	if len(historical) == 0 || len(recent) == 0 {
		return 0
	}

	histAmounts := make([]float64, len(historical))
	for i, tx := range historical {
		histAmounts[i] = tx.AmountFloat()
	}
	recentAmounts := make([]float64, len(recent))
	for i, tx := range recent {
		recentAmounts[i] = tx.AmountFloat()
	}

	histMean := mean(histAmounts)
	histStd := stddev(histAmounts)
	recentMean := mean(recentAmounts)

	amountZ := 0.0
	if histStd > 0 {
		amountZ = math.Abs((recentMean - histMean) / histStd)
	}
	amountDeviation := math.Min(amountZ/2.0, 1.0)

	histMethods := make(map[string]int)
	for _, tx := range historical {
		histMethods[string(tx.PaymentMethod)]++
	}
	recentMethods := make(map[string]int)
	for _, tx := range recent {
		recentMethods[string(tx.PaymentMethod)]++
	}

	klDiv := methodDistributionDivergence(recentMethods, len(recent), histMethods, len(historical))
	methodDeviation := math.Min(klDiv/1.5, 1.0)

	deviation := amountDeviation*0.6 + methodDeviation*0.4
	return clamp(deviation, 0, 1)
}

// calculatePeerDeviation compares the customer's mean amount against a peer
// group's, as a z-score.
func (tc *TrustScoreCalculator) calculatePeerDeviation(customerTransactions, peerTransactions []models.Transaction) float64 {
	if len(peerTransactions) == 0 || len(customerTransactions) == 0 {
		return 0
	}

	peerAmounts := make([]float64, len(peerTransactions))
	for i, tx := range peerTransactions {
		peerAmounts[i] = tx.AmountFloat()
	}
	customerAmounts := make([]float64, len(customerTransactions))
	for i, tx := range customerTransactions {
		customerAmounts[i] = tx.AmountFloat()
	}

	peerMean := mean(peerAmounts)
	peerStd := stddev(peerAmounts)
	customerMean := mean(customerAmounts)

	peerZ := 0.0
	if peerStd > 0 {
		peerZ = math.Abs((customerMean - peerMean) / peerStd)
	}
	return clamp(math.Min(peerZ/2.0, 1.0), 0, 1)
}

// calculateTrustScore applies the non-linear penalty weighting and the
// dynamic-beta smoothing against the customer's previous stored score.
func (tc *TrustScoreCalculator) calculateTrustScore(ctx context.Context, predictability, selfDeviation, peerDeviation float64, customerID string) float64 {
	selfDeviationPenalty := math.Pow(selfDeviation, 2.0)

	var tNew float64
	if peerDeviation > 0.0 {
		peerDeviationPenalty := math.Pow(peerDeviation, 2.0)
		tNew = 0.25*predictability + 0.50*(1.0-selfDeviationPenalty) + 0.25*(1.0-peerDeviationPenalty)
	} else {
		tNew = 0.20*predictability + 0.80*(1.0-selfDeviationPenalty)
	}

	tCurrent := tNew
	if customerID != "" {
		if previous, ok, err := tc.store.PreviousScore(ctx, customerID); err == nil && ok {
			maxDeviation := math.Max(selfDeviation, peerDeviation)

			var betaDynamic float64
			switch {
			case maxDeviation > 0.7 || tNew < 0.3:
				betaDynamic = 0.2
			case maxDeviation > 0.5 || tNew < 0.4:
				betaDynamic = 0.3
			case maxDeviation > 0.3 || tNew < 0.6:
				betaDynamic = 0.5
			default:
				betaDynamic = tc.beta
			}

			tCurrent = betaDynamic*previous + (1-betaDynamic)*tNew
		}
	}

	tCurrent = clamp(tCurrent, 0, 1)
	if customerID != "" {
		_ = tc.store.SetScore(ctx, customerID, tCurrent)
	}
	return tCurrent
}

// Analyze runs the full trust-score analysis for one customer, updating
// their stored history as a side effect.
func (tc *TrustScoreCalculator) Analyze(ctx context.Context, customerID string, recent, historical, peerTransactions []models.Transaction, clock Clock) models.TrustScoreAnalysis {
	if clock == nil {
		clock = SystemClock{}
	}

	combined := make([]models.Transaction, 0, len(historical)+len(recent))
	combined = append(combined, historical...)
	combined = append(combined, recent...)

	predictability := tc.calculatePredictability(combined, clock)
	selfDeviation := tc.calculateSelfDeviation(recent, historical)

	peerDeviation := 0.0
	if len(peerTransactions) > 0 {
		peerDeviation = tc.calculatePeerDeviation(recent, peerTransactions)
	}

	currentScore := tc.calculateTrustScore(ctx, predictability, selfDeviation, peerDeviation, customerID)

	return models.TrustScoreAnalysis{
		CurrentScore:   currentScore,
		Predictability: predictability,
		SelfDeviation:  selfDeviation,
		PeerDeviation:  peerDeviation,
	}
}
