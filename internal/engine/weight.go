package engine

import (
	"math"
	"sort"
	"time"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// Anti-smurfing / structuring detection constants, see spec.md §4.1.
const (
	smallTransactionThreshold = 2000.0
	thresholdAvoidanceMin     = 7000.0
	thresholdAvoidanceMax     = 10000.0
	smurfingCumulativeMin     = 50000.0
	normalSaverDensityWeeks   = 0.25
	smurferDensityWeeks       = 0.5
)

// WeightDetector implements the anti-smurfing Weight variable: combined
// amount/frequency weighting, log transforms for diminishing returns,
// z-score normalization against a rolling historical baseline, and the
// structuring decision tree built on top of it.
type WeightDetector struct {
	lambdaDecay float64
	clock       Clock
}

// NewWeightDetector builds a WeightDetector. lambdaDecay controls how
// strongly recent days are favored over older ones in the weight sum.
func NewWeightDetector(lambdaDecay float64, clock Clock) *WeightDetector {
	if clock == nil {
		clock = SystemClock{}
	}
	return &WeightDetector{lambdaDecay: lambdaDecay, clock: clock}
}

type dayBucket struct {
	day       time.Time
	amountSum float64
	count     int
	txns      []models.Transaction
}

func groupByDay(transactions []models.Transaction, now time.Time) []dayBucket {
	index := make(map[string]*dayBucket)
	var order []string
	for _, tx := range transactions {
		ts := effectiveTimestamp(tx, now)
		key := ts.Format("2006-01-02")
		b, ok := index[key]
		if !ok {
			b = &dayBucket{day: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())}
			index[key] = b
			order = append(order, key)
		}
		b.amountSum += tx.AmountFloat()
		b.count++
		b.txns = append(b.txns, tx)
	}
	sort.Strings(order)

	buckets := make([]dayBucket, 0, len(order))
	for _, k := range order {
		buckets = append(buckets, *index[k])
	}
	return buckets
}

func isCashInvestment(tx models.Transaction) bool {
	return tx.PaymentMethod == models.PaymentMethodCash && tx.Type == models.TransactionTypeInvestment
}

// calculateWeight computes Weight_W = Σ (Ã_day * F̃_day * threshold_avoidance_factor * decay_factor).
func (wd *WeightDetector) calculateWeight(transactions []models.Transaction, _ int) float64 {
	if len(transactions) == 0 {
		return 0
	}
	now := wd.clock.Now()
	buckets := groupByDay(transactions, now)
	if len(buckets) == 0 {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var total float64
	for _, b := range buckets {
		aTilde := math.Log1p(b.amountSum)
		fTilde := math.Log1p(float64(b.count))

		factor := 1.0
		var barInvestments []models.Transaction
		for _, tx := range b.txns {
			if isCashInvestment(tx) {
				barInvestments = append(barInvestments, tx)
			}
		}
		if len(barInvestments) > 0 {
			avoidCount := 0
			for _, tx := range barInvestments {
				amt := tx.AmountFloat()
				if amt >= thresholdAvoidanceMin && amt < thresholdAvoidanceMax {
					avoidCount++
				}
			}
			if avoidCount > 0 {
				ratio := float64(avoidCount) / float64(len(barInvestments))
				factor = 1.0 + ratio*1.5
			}
		}

		weight := aTilde * fTilde * factor
		daysAgo := int(today.Sub(b.day).Hours() / 24)
		decay := math.Exp(-wd.lambdaDecay * float64(daysAgo))
		total += weight * decay
	}
	return total
}

// calculateZScore computes z_W = (Weight_W - mu_baseline) / sigma_baseline
// against a rolling or monthly historical baseline, picking monthly grouping
// when there are too few historical transactions to form stable rolling
// windows.
func (wd *WeightDetector) calculateZScore(currentWeight float64, historical []models.Transaction, windowDays int) float64 {
	if len(historical) == 0 {
		return 0
	}
	now := wd.clock.Now()

	sorted := make([]models.Transaction, len(historical))
	copy(sorted, historical)
	sort.SliceStable(sorted, func(i, j int) bool {
		return effectiveTimestamp(sorted[i], now).Before(effectiveTimestamp(sorted[j], now))
	})

	var historicalWeights []float64

	if len(historical) < 20 {
		groups := make(map[string][]models.Transaction)
		var order []string
		for _, tx := range sorted {
			key := effectiveTimestamp(tx, now).Format("2006-01")
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], tx)
		}
		for _, key := range order {
			group := groups[key]
			if len(group) >= 1 {
				historicalWeights = append(historicalWeights, wd.calculateWeight(group, windowDays))
			}
		}
	} else {
		minTime := effectiveTimestamp(sorted[0], now)
		maxTime := effectiveTimestamp(sorted[len(sorted)-1], now)
		windowDur := time.Duration(windowDays) * 24 * time.Hour

		for current := minTime.Add(windowDur); !current.After(maxTime); current = current.Add(7 * 24 * time.Hour) {
			windowStart := current.Add(-windowDur)
			var windowTxns []models.Transaction
			for _, tx := range sorted {
				ts := effectiveTimestamp(tx, now)
				if !ts.Before(windowStart) && ts.Before(current) {
					windowTxns = append(windowTxns, tx)
				}
			}
			if len(windowTxns) >= 2 {
				historicalWeights = append(historicalWeights, wd.calculateWeight(windowTxns, windowDays))
			}
		}
	}

	if len(historicalWeights) < 2 {
		return 0
	}
	return zScore(currentWeight, mean(historicalWeights), stddev(historicalWeights))
}

func (wd *WeightDetector) calculateSmallTransactionRatio(transactions []models.Transaction) float64 {
	if len(transactions) == 0 {
		return 0
	}
	count := 0
	for _, tx := range transactions {
		if tx.AmountFloat() < smallTransactionThreshold {
			count++
		}
	}
	return float64(count) / float64(len(transactions))
}

// detectThresholdAvoidance reports the fraction of cash investments sitting
// just below the 10,000 EUR cash reporting threshold ([7,000, 10,000) EUR), and
// their cumulative amount.
func (wd *WeightDetector) detectThresholdAvoidance(transactions []models.Transaction) (ratio, cumulative float64) {
	var barInvestments []models.Transaction
	for _, tx := range transactions {
		if isCashInvestment(tx) {
			barInvestments = append(barInvestments, tx)
		}
	}
	if len(barInvestments) == 0 {
		return 0, 0
	}

	var avoidance []models.Transaction
	for _, tx := range barInvestments {
		amt := tx.AmountFloat()
		if amt >= thresholdAvoidanceMin && amt < thresholdAvoidanceMax {
			avoidance = append(avoidance, tx)
		}
	}

	ratio = float64(len(avoidance)) / float64(len(barInvestments))
	for _, tx := range avoidance {
		cumulative += tx.AmountFloat()
	}
	return ratio, cumulative
}

// calculateTemporalDensityWeeks returns transactions per week over the
// actual observed span (not the nominal window), since a smurfer spread
// across three months at two transactions/week is still dense.
func (wd *WeightDetector) calculateTemporalDensityWeeks(transactions []models.Transaction, windowDays int) float64 {
	if len(transactions) == 0 || windowDays <= 0 {
		return 0
	}
	var withTime []models.Transaction
	for _, tx := range transactions {
		if tx.HasTimestamp() {
			withTime = append(withTime, tx)
		}
	}
	if len(withTime) == 0 {
		return 0
	}

	minT, maxT := *withTime[0].Timestamp, *withTime[0].Timestamp
	for _, tx := range withTime[1:] {
		if tx.Timestamp.Before(minT) {
			minT = *tx.Timestamp
		}
		if tx.Timestamp.After(maxT) {
			maxT = *tx.Timestamp
		}
	}

	actualDays := int(maxT.Sub(minT).Hours()/24) + 1
	if actualDays < 1 {
		actualDays = 1
	}
	actualWeeks := float64(actualDays) / 7.0
	return float64(len(withTime)) / actualWeeks
}

func (wd *WeightDetector) checkSourceOfFunds(transactions []models.Transaction, customerInfo *models.CustomerInfo) (exceeded bool, cumulativeInvestments float64) {
	if customerInfo == nil || customerInfo.SourceOfFundsCap == nil {
		return false, 0
	}
	var cumulative float64
	for _, tx := range transactions {
		if tx.Type == models.TransactionTypeInvestment {
			cumulative += tx.AmountFloat()
		}
	}
	capF, _ := customerInfo.SourceOfFundsCap.Float64()
	return cumulative > capF, cumulative
}

// checkEconomicPlausibility flags a customer whose cluster of near-threshold
// cash investments cannot plausibly come from savings out of their declared
// monthly income (more than six months' worth, unexplained).
func (wd *WeightDetector) checkEconomicPlausibility(transactions []models.Transaction, customerInfo *models.CustomerInfo) bool {
	if customerInfo == nil || customerInfo.MonthlyIncome == nil {
		return false
	}

	var thresholdTxns []models.Transaction
	for _, tx := range transactions {
		if !isCashInvestment(tx) {
			continue
		}
		amt := tx.AmountFloat()
		if amt >= thresholdAvoidanceMin && amt < thresholdAvoidanceMax {
			thresholdTxns = append(thresholdTxns, tx)
		}
	}
	if len(thresholdTxns) < 3 {
		return false
	}

	var cumulative float64
	for _, tx := range thresholdTxns {
		cumulative += tx.AmountFloat()
	}

	incomeF, _ := customerInfo.MonthlyIncome.Float64()
	maxPlausibleSavings := incomeF * 6
	return cumulative > maxPlausibleSavings
}

// Analyze runs the full Weight analysis and structuring decision tree for
// one customer's recent transactions against their historical baseline.
func (wd *WeightDetector) Analyze(recent, historical []models.Transaction, customerInfo *models.CustomerInfo) models.WeightAnalysis {
	weight7d := wd.calculateWeight(recent, 7)
	weight30d := wd.calculateWeight(recent, 30)
	weight90d := wd.calculateWeight(recent, 90)

	z7d := wd.calculateZScore(weight7d, historical, 7)
	z30d := wd.calculateZScore(weight30d, historical, 30)
	z90d := wd.calculateZScore(weight90d, historical, 90)

	smallRatio := wd.calculateSmallTransactionRatio(recent)
	thresholdRatio, cumulativeLarge := wd.detectThresholdAvoidance(recent)
	densityWeeks := wd.calculateTemporalDensityWeeks(recent, 90)

	sofExceeded, _ := wd.checkSourceOfFunds(recent, customerInfo)
	economicIssue := wd.checkEconomicPlausibility(recent, customerInfo)

	isSuspicious := false

	hasSoF := customerInfo != nil && customerInfo.SourceOfFundsCap != nil
	if hasSoF {
		isSuspicious = sofExceeded
	}

	if !hasSoF || sofExceeded {
		if thresholdRatio >= 0.3 && cumulativeLarge >= 30000 && densityWeeks > normalSaverDensityWeeks {
			isSuspicious = true
		}

		if thresholdRatio >= 0.5 && densityWeeks > smurferDensityWeeks {
			isSuspicious = true
		}

		if economicIssue {
			isSuspicious = true
		}

		if !hasSoF && len(recent) >= 12 && thresholdRatio >= 0.3 && cumulativeLarge >= 30000 {
			isSuspicious = true
		}

		switch {
		case z30d >= 3.5:
			isSuspicious = true
		case z30d >= 2.5:
			if thresholdRatio >= 0.3 || cumulativeLarge >= smurfingCumulativeMin {
				isSuspicious = true
			}
		}

		if !isSuspicious && densityWeeks < normalSaverDensityWeeks && smallRatio > 0.8 {
			if thresholdRatio < 0.3 && cumulativeLarge < smurfingCumulativeMin {
				isSuspicious = false
			}
		}
	}

	return models.WeightAnalysis{
		Weight7d:                weight7d,
		Weight30d:               weight30d,
		Weight90d:               weight90d,
		ZScore7d:                z7d,
		ZScore30d:               z30d,
		ZScore90d:               z90d,
		SmallTransactionRatio:   smallRatio,
		ThresholdAvoidanceRatio: thresholdRatio,
		CumulativeLargeAmount:   cumulativeLarge,
		TemporalDensityPerWeek:  densityWeeks,
		SourceOfFundsExceeded:   sofExceeded,
		EconomicPlausibilityIssue: economicIssue,
		IsSuspicious:            isSuspicious,
	}
}
