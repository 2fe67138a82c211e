package engine

import (
	"math"
	"strconv"
	"time"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

const defaultClusterCount = 5

var benfordExpected = map[int]float64{
	1: 0.301, 2: 0.176, 3: 0.125, 4: 0.097, 5: 0.079,
	6: 0.067, 7: 0.058, 8: 0.051, 9: 0.046,
}

// StatisticalAnalyzer bundles the five supplementary statistical checks:
// Benford's law on leading digits, transaction velocity, time-of-activity
// anomalies, behavioral clustering against the customer population, and
// cash-to-bank layering, see spec.md §4.5.
type StatisticalAnalyzer struct{}

func NewStatisticalAnalyzer() *StatisticalAnalyzer {
	return &StatisticalAnalyzer{}
}

// benfordAnalysis chi-square-tests leading-digit frequencies against
// Benford's law; fabricated or rounded amounts deviate from the natural
// logarithmic distribution real transaction amounts tend to follow.
func (sa *StatisticalAnalyzer) benfordAnalysis(transactions []models.Transaction) float64 {
	if len(transactions) < 20 {
		return 0
	}

	var firstDigits []int
	for _, tx := range transactions {
		intPart := tx.Amount.IntPart()
		if intPart <= 0 {
			continue
		}
		s := strconv.FormatInt(intPart, 10)
		firstDigits = append(firstDigits, int(s[0]-'0'))
	}
	if len(firstDigits) < 20 {
		return 0
	}

	counts := make(map[int]int)
	for _, d := range firstDigits {
		counts[d]++
	}
	total := len(firstDigits)

	var chiSquared float64
	for digit := 1; digit <= 9; digit++ {
		expected := benfordExpected[digit]
		obs := float64(counts[digit]) / float64(total)
		if expected > 0 {
			chiSquared += (obs - expected) * (obs - expected) / expected
		}
	}

	const criticalChiSquared = 15.5
	return math.Min(chiSquared/criticalChiSquared, 1.0)
}

// velocityAnalysis scores transaction count/amount density over sliding
// 1-hour, 1-day, and 1-week windows against fixed absolute thresholds
// (~10 transactions/day, ~50,000 EUR/day for a retail customer).
func (sa *StatisticalAnalyzer) velocityAnalysis(transactions []models.Transaction) float64 {
	txns := sortedWithTime(transactions)
	if len(txns) < 3 {
		return 0
	}

	timeWindowHours := []int{1, 24, 168}
	var velocityScores []float64

	for _, windowHours := range timeWindowHours {
		windowDur := time.Duration(windowHours) * time.Hour

		maxCount := 0
		maxAmount := 0.0
		for _, txn := range txns {
			windowStart := *txn.Timestamp
			windowEnd := windowStart.Add(windowDur)

			count := 0
			var amount float64
			for _, t := range txns {
				if !t.Timestamp.Before(windowStart) && t.Timestamp.Before(windowEnd) {
					count++
					amount += t.AmountFloat()
				}
			}
			if count > maxCount {
				maxCount = count
			}
			if amount > maxAmount {
				maxAmount = amount
			}
		}

		expectedMaxCount := float64(windowHours) / 2.4
		countScore := math.Min(float64(maxCount)/expectedMaxCount, 1.0)

		expectedMaxAmount := (float64(windowHours) / 24.0) * 50000
		amountScore := math.Min(maxAmount/expectedMaxAmount, 1.0)

		velocityScores = append(velocityScores, (countScore+amountScore)/2.0)
	}

	return mean(velocityScores)
}

// timeAnomalyDetection scores off-hours activity, weekend concentration,
// and burst patterns (3+ transactions within 5 minutes).
func (sa *StatisticalAnalyzer) timeAnomalyDetection(transactions []models.Transaction) float64 {
	txns := sortedWithTime(transactions)
	if len(txns) < 5 {
		return 0
	}

	var anomalyScores []float64

	offHours := 0
	weekend := 0
	for _, t := range txns {
		hour := t.Timestamp.Hour()
		if hour < 6 || hour >= 22 {
			offHours++
		}
		if wd := t.Timestamp.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
	}
	anomalyScores = append(anomalyScores, float64(offHours)/float64(len(txns)))

	weekendRatio := float64(weekend) / float64(len(txns))
	anomalyScores = append(anomalyScores, math.Min(weekendRatio/0.4, 1.0))

	bursts := 0
	for i := 0; i+2 < len(txns); i++ {
		diffMinutes := txns[i+2].Timestamp.Sub(*txns[i].Timestamp).Minutes()
		if diffMinutes < 5 {
			bursts++
		}
	}
	denom := len(txns) - 2
	if denom < 1 {
		denom = 1
	}
	burstRatio := float64(bursts) / float64(denom)
	anomalyScores = append(anomalyScores, math.Min(burstRatio/0.2, 1.0))

	return mean(anomalyScores)
}

// extractFeatures builds the [avg_amount, frequency, cash_ratio,
// investment_ratio] feature vector clustering is run on.
func extractFeatures(transactions []models.Transaction) []float64 {
	if len(transactions) == 0 {
		return []float64{0, 0, 0, 0}
	}

	amounts := make([]float64, len(transactions))
	for i, tx := range transactions {
		amounts[i] = tx.AmountFloat()
	}
	avgAmount := mean(amounts)

	frequency := 0.0
	withTime := sortedWithTime(transactions)
	if len(withTime) > 1 {
		minDate := *withTime[0].Timestamp
		maxDate := minDate
		for _, t := range withTime[1:] {
			if t.Timestamp.Before(minDate) {
				minDate = *t.Timestamp
			}
			if t.Timestamp.After(maxDate) {
				maxDate = *t.Timestamp
			}
		}
		dateRange := int(maxDate.Sub(minDate).Hours()/24) + 1
		if dateRange < 1 {
			dateRange = 1
		}
		frequency = float64(len(transactions)) / float64(dateRange)
	}

	cashCount, investmentCount := 0, 0
	for _, tx := range transactions {
		if tx.PaymentMethod == models.PaymentMethodCash {
			cashCount++
		}
		if tx.Type == models.TransactionTypeInvestment {
			investmentCount++
		}
	}

	return []float64{
		avgAmount,
		frequency,
		float64(cashCount) / float64(len(transactions)),
		float64(investmentCount) / float64(len(transactions)),
	}
}

// clusteringAnalysis groups the full customer population into nClusters
// behavioral clusters and scores how far this customer sits from its
// nearest cluster center; typical distances in the scaled feature space
// are 0-5, so the raw distance is normalized by 5.
func (sa *StatisticalAnalyzer) clusteringAnalysis(customerTransactions, allTransactions []models.Transaction, nClusters int) float64 {
	if len(customerTransactions) == 0 || len(allTransactions) < 50 {
		return 0
	}

	grouped := make(map[string][]models.Transaction)
	for _, tx := range allTransactions {
		grouped[tx.CustomerID] = append(grouped[tx.CustomerID], tx)
	}
	if len(grouped) < nClusters {
		return 0
	}

	allFeatures := make([][]float64, 0, len(grouped))
	for _, txns := range grouped {
		allFeatures = append(allFeatures, extractFeatures(txns))
	}

	scaled, means, stds := standardize(allFeatures)
	result := fitKMeans(scaled, nClusters)

	customerFeatures := extractFeatures(customerTransactions)
	customerScaled := applyScale(customerFeatures, means, stds)

	return math.Min(result.nearestCenterDistance(customerScaled)/5.0, 1.0)
}

// cashToBankLayeringDetection scores the classic cash-in/electronic-out
// laundering shape: cash investments followed by SEPA or card withdrawals
// of a similar volume, within a short time of each other.
func (sa *StatisticalAnalyzer) cashToBankLayeringDetection(transactions []models.Transaction) float64 {
	if len(transactions) < 3 {
		return 0
	}

	var investments, withdrawals []models.Transaction
	for _, tx := range transactions {
		switch tx.Type {
		case models.TransactionTypeInvestment:
			investments = append(investments, tx)
		case models.TransactionTypeWithdrawal:
			withdrawals = append(withdrawals, tx)
		}
	}
	if len(investments) == 0 {
		return 0
	}

	var cashInvestments []models.Transaction
	for _, tx := range investments {
		if tx.PaymentMethod == models.PaymentMethodCash {
			cashInvestments = append(cashInvestments, tx)
		}
	}

	if len(withdrawals) == 0 {
		if len(cashInvestments) >= 5 {
			ratio := float64(len(cashInvestments)) / float64(len(investments))
			return math.Min(0.5, ratio*0.7)
		}
		return 0
	}

	cashInvestmentRatio := float64(len(cashInvestments)) / float64(len(investments))

	var electronicWithdrawals []models.Transaction
	for _, tx := range withdrawals {
		if tx.PaymentMethod == models.PaymentMethodSEPA || tx.PaymentMethod == models.PaymentMethodCard {
			electronicWithdrawals = append(electronicWithdrawals, tx)
		}
	}
	electronicWithdrawalRatio := float64(len(electronicWithdrawals)) / float64(len(withdrawals))

	volumeMatchScore := 0.0
	if len(cashInvestments) > 0 && len(electronicWithdrawals) > 0 {
		var cashInVolume, electronicOutVolume float64
		for _, tx := range cashInvestments {
			cashInVolume += tx.AmountFloat()
		}
		for _, tx := range electronicWithdrawals {
			electronicOutVolume += tx.AmountFloat()
		}
		if cashInVolume > 0 {
			volumeRatio := electronicOutVolume / cashInVolume
			if volumeRatio > 0.5 && volumeRatio < 1.5 {
				volumeMatchScore = 1.0 - math.Abs(1.0-volumeRatio)
			}
		}
	}

	// Fraction of electronic withdrawals preceded by a cash investment
	// within the prior 90 days. The original tool computes this twice (once
	// as the weighted "time proximity" term, again as an absolute-indicator
	// gate) with identical logic; one computation serves both here.
	timeProximityScore := 0.0
	if len(cashInvestments) > 0 && len(electronicWithdrawals) > 0 {
		var matched float64
		for _, withdrawal := range electronicWithdrawals {
			if !withdrawal.HasTimestamp() {
				continue
			}
			for _, inv := range cashInvestments {
				if !inv.HasTimestamp() {
					continue
				}
				days := withdrawal.Timestamp.Sub(*inv.Timestamp).Hours() / 24.0
				if days >= 0 && days <= 90 {
					matched++
					break
				}
			}
		}
		timeProximityScore = matched / float64(len(electronicWithdrawals))
	}

	absoluteIndicators := 0
	if len(cashInvestments) >= 3 && len(electronicWithdrawals) >= 2 {
		absoluteIndicators++
	}
	if cashInvestmentRatio >= 0.5 {
		absoluteIndicators++
	}
	if electronicWithdrawalRatio >= 0.4 {
		absoluteIndicators++
	}
	if len(cashInvestments) > 0 && len(electronicWithdrawals) > 0 {
		var cashInVolume float64
		for _, tx := range cashInvestments {
			cashInVolume += tx.AmountFloat()
		}
		if cashInVolume >= 5000 {
			absoluteIndicators++
		}
		if timeProximityScore >= 0.3 {
			absoluteIndicators++
		}
	}

	baseScore := 0.35*cashInvestmentRatio + 0.35*electronicWithdrawalRatio + 0.15*volumeMatchScore + 0.15*timeProximityScore

	var layeringScore float64
	if absoluteIndicators >= 2 {
		boost := math.Min(0.3, float64(absoluteIndicators)*0.1)
		layeringScore = math.Min(1.0, baseScore+boost)
	} else {
		layeringScore = baseScore * 0.3
	}

	return math.Min(layeringScore, 1.0)
}

// Analyze runs the full statistical analysis for one customer against the
// wider transaction population (used only for clustering).
func (sa *StatisticalAnalyzer) Analyze(customerTransactions, allTransactions []models.Transaction) models.StatisticalAnalysis {
	clusteringScore := 0.0
	if len(allTransactions) > 0 {
		clusteringScore = sa.clusteringAnalysis(customerTransactions, allTransactions, defaultClusterCount)
	}

	return models.StatisticalAnalysis{
		BenfordScore:     sa.benfordAnalysis(customerTransactions),
		VelocityScore:    sa.velocityAnalysis(customerTransactions),
		TimeAnomalyScore: sa.timeAnomalyDetection(customerTransactions),
		ClusteringScore:  clusteringScore,
		LayeringScore:    sa.cashToBankLayeringDetection(customerTransactions),
	}
}
