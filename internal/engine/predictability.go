package engine

import (
	"sort"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// PredictabilityDetector measures behavioral stability: how constant the
// timing, amounts, and channel choice of a customer's transactions are,
// see spec.md §4.3. Higher predictability is the normal, low-risk case;
// a strong negative deviation from a customer's own historical baseline is
// the signal this detector surfaces.
type PredictabilityDetector struct{}

func NewPredictabilityDetector() *PredictabilityDetector {
	return &PredictabilityDetector{}
}

func sortedWithTime(transactions []models.Transaction) []models.Transaction {
	var withTime []models.Transaction
	for _, tx := range transactions {
		if tx.HasTimestamp() {
			withTime = append(withTime, tx)
		}
	}
	sort.Slice(withTime, func(i, j int) bool { return withTime[i].Timestamp.Before(*withTime[j].Timestamp) })
	return withTime
}

// calculateTemporalStability scores the constancy of inter-transaction
// intervals via their coefficient of variation, mapped piecewise onto [0,1].
func (pd *PredictabilityDetector) calculateTemporalStability(recent, _ []models.Transaction) float64 {
	if len(recent) < 2 {
		return 0.5
	}
	sorted := sortedWithTime(recent)
	if len(sorted) < 2 {
		return 0.5
	}

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].Timestamp.Sub(*sorted[i-1].Timestamp)
		intervals = append(intervals, delta.Hours()/24.0)
	}
	if len(intervals) == 0 {
		return 0.5
	}

	meanInterval := mean(intervals)
	if meanInterval == 0 {
		return 0.0
	}

	cv := stddev(intervals) / meanInterval

	switch {
	case cv < 0.3:
		return 0.8 + 0.2*(0.3-cv)/0.3
	case cv < 0.6:
		return 0.5 + 0.3*(0.6-cv)/0.3
	case cv < 1.0:
		return 0.3 + 0.2*(1.0-cv)/0.4
	default:
		return clamp(0.3-0.3*(cv-1.0)/2.0, 0, 1)
	}
}

// calculateAmountConsistency scores how tightly recent amounts cluster
// around their mean, penalized when the current coefficient of variation
// spikes well above the historical baseline's.
func (pd *PredictabilityDetector) calculateAmountConsistency(recent, historical []models.Transaction) float64 {
	if len(recent) == 0 {
		return 0.5
	}
	amounts := make([]float64, len(recent))
	for i, tx := range recent {
		amounts[i] = tx.AmountFloat()
	}
	if len(amounts) < 2 {
		return 0.5
	}

	meanAmount := mean(amounts)
	if meanAmount == 0 {
		return 0.0
	}
	cv := stddev(amounts) / meanAmount

	var consistency float64
	switch {
	case cv < 0.2:
		consistency = 0.9 + 0.1*(0.2-cv)/0.2
	case cv < 0.5:
		consistency = 0.7 + 0.2*(0.5-cv)/0.3
	case cv < 1.0:
		consistency = 0.5 + 0.2*(1.0-cv)/0.5
	case cv < 2.0:
		consistency = 0.3 + 0.2*(2.0-cv)/1.0
	default:
		consistency = clamp(0.3-0.3*(cv-2.0)/3.0, 0, 1)
	}

	if len(historical) >= 5 {
		histAmounts := make([]float64, len(historical))
		for i, tx := range historical {
			histAmounts[i] = tx.AmountFloat()
		}
		histMean := mean(histAmounts)
		histCV := 1.0
		if histMean > 0 {
			histCV = stddev(histAmounts) / histMean
		}
		if cv > histCV*1.5 {
			consistency *= 0.7
		}
	}

	return consistency
}

// calculateChannelContinuity scores how strongly one payment method
// dominates recent activity, with a bonus when that method matches the
// customer's historical dominant channel and a penalty on a clear switch.
func (pd *PredictabilityDetector) calculateChannelContinuity(recent, historical []models.Transaction) float64 {
	if len(recent) == 0 {
		return 0.5
	}

	recentCounts := make(map[models.PaymentMethod]int)
	for _, tx := range recent {
		recentCounts[tx.PaymentMethod]++
	}
	totalRecent := len(recent)

	dominantCount := 0
	for _, c := range recentCounts {
		if c > dominantCount {
			dominantCount = c
		}
	}
	dominantRatio := float64(dominantCount) / float64(totalRecent)

	var continuity float64
	switch {
	case dominantRatio >= 0.9:
		continuity = 1.0
	case dominantRatio >= 0.7:
		continuity = 0.8 + 0.2*(dominantRatio-0.7)/0.2
	case dominantRatio >= 0.5:
		continuity = 0.6 + 0.2*(dominantRatio-0.5)/0.2
	default:
		numMethods := len(recentCounts)
		switch numMethods {
		case 1:
			continuity = 0.6
		case 2:
			continuity = 0.4
		default:
			continuity = clamp(0.4-0.1*float64(numMethods-2), 0, 1)
		}
	}

	if len(historical) >= 5 {
		histCounts := make(map[models.PaymentMethod]int)
		for _, tx := range historical {
			histCounts[tx.PaymentMethod]++
		}
		totalHistorical := len(historical)
		if totalHistorical > 0 {
			histDominant := 0
			var histDominantMethod models.PaymentMethod
			for method, c := range histCounts {
				if c > histDominant {
					histDominant = c
					histDominantMethod = method
				}
			}
			histDominantRatio := float64(histDominant) / float64(totalHistorical)

			if float64(recentCounts[histDominantMethod])/float64(totalRecent) >= 0.5 {
				continuity = clamp(continuity+0.2, 0, 1)
			} else if dominantRatio < histDominantRatio*0.5 {
				continuity *= 0.7
			}
		}
	}

	return continuity
}

func (pd *PredictabilityDetector) calculateOverallPredictability(temporal, amount, channel float64) float64 {
	return 0.40*temporal + 0.35*amount + 0.25*channel
}

// Analyze runs the full predictability analysis for a customer's recent
// transactions against their historical baseline.
func (pd *PredictabilityDetector) Analyze(recent, historical []models.Transaction) models.PredictabilityAnalysis {
	temporal := pd.calculateTemporalStability(recent, historical)
	amount := pd.calculateAmountConsistency(recent, historical)
	channel := pd.calculateChannelContinuity(recent, historical)
	overall := pd.calculateOverallPredictability(temporal, amount, channel)

	zScoreValue := 0.0
	if len(historical) >= 10 {
		var baselineRecent, baselineHistorical []models.Transaction
		if len(historical) >= 30 {
			baselineRecent = historical[len(historical)-30:]
			baselineHistorical = historical[:len(historical)-30]
		} else {
			baselineRecent = historical
			baselineHistorical = nil
		}

		histTemporal := pd.calculateTemporalStability(baselineRecent, baselineHistorical)
		histAmount := pd.calculateAmountConsistency(baselineRecent, baselineHistorical)
		histChannel := pd.calculateChannelContinuity(baselineRecent, baselineHistorical)
		histPredictability := pd.calculateOverallPredictability(histTemporal, histAmount, histChannel)

		if histPredictability > 0 {
			const assumedStdDev = 0.15
			zScoreValue = (overall - histPredictability) / assumedStdDev
		}
	}

	return models.PredictabilityAnalysis{
		TemporalStability:     temporal,
		AmountConsistency:     amount,
		ChannelContinuity:     channel,
		OverallPredictability: overall,
		ZScore:                zScoreValue,
		IsStable:              overall >= 0.7,
	}
}
