package engine

import (
	"math"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// legacySuspicionScore implements the scoring method kept for backward
// compatibility when AggregatorConfig.UseTPSPSystem is false: 70% absolute
// indicators (smurfing, entropy extremes, statistical methods), 30% relative
// z-score contribution. Trust_Score plays no part here; the suspicion score
// itself already reflects whether the customer should be trusted.
func legacySuspicionScore(alpha, beta float64, weight models.WeightAnalysis, entropy models.EntropyAnalysis, statistical models.StatisticalAnalysis) float64 {
	smurfingScore := 0.0
	if weight.IsSuspicious {
		if weight.ThresholdAvoidanceRatio >= 0.5 {
			smurfingScore += 2.0
		}
		if weight.CumulativeLargeAmount >= smurfingCumulativeMin {
			smurfingScore += 1.5
		}
		switch {
		case weight.TemporalDensityPerWeek > 5.0:
			smurfingScore += 4.0
		case weight.TemporalDensityPerWeek > 2.0:
			smurfingScore += 3.0
		case weight.TemporalDensityPerWeek > 1.0:
			smurfingScore += 2.0
		case weight.TemporalDensityPerWeek > 0.5:
			smurfingScore += 1.0
		}
		if weight.EconomicPlausibilityIssue {
			smurfingScore += 1.5
		}
		if weight.SourceOfFundsExceeded {
			smurfingScore += 2.0
		}
	}

	entropyScore := 0.0
	switch {
	case entropy.EntropyAggregate < 0.3:
		entropyScore += 1.5
	case entropy.EntropyAggregate > 2.0:
		entropyScore += 1.5
	}
	if entropy.EntropyPaymentMethod < 0.1 {
		entropyScore += 0.5
	}

	statsScore := 0.10*statistical.BenfordScore*5 +
		0.10*statistical.VelocityScore*5 +
		0.10*statistical.TimeAnomalyScore*5 +
		0.10*statistical.ClusteringScore*5 +
		0.60*statistical.LayeringScore*5

	absoluteScore := (0.40*smurfingScore + 0.30*entropyScore + 0.30*statsScore) * 0.7

	zW := 0.0
	if weight.ZScore30d > 0 {
		zW = clamp(weight.ZScore30d, 0, 5)
	}
	zH := 0.0
	if entropy.ZScore != 0 {
		zH = clamp(math.Abs(entropy.ZScore), 0, 5)
	}

	relativeScore := (alpha*zW + beta*zH) * 0.3

	return absoluteScore + relativeScore
}
