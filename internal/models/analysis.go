package models

// WeightAnalysis is the output of the WeightDetector (anti-smurfing).
type WeightAnalysis struct {
	Weight7d  float64 `json:"weight_7d"`
	Weight30d float64 `json:"weight_30d"`
	Weight90d float64 `json:"weight_90d"`

	ZScore7d  float64 `json:"z_score_7d"`
	ZScore30d float64 `json:"z_score_30d"`
	ZScore90d float64 `json:"z_score_90d"`

	SmallTransactionRatio   float64 `json:"small_transaction_ratio"`   // fraction of recent transactions < 2000 EUR
	ThresholdAvoidanceRatio float64 `json:"threshold_avoidance_ratio"` // cash investments in [7000,10000) / all cash investments
	CumulativeLargeAmount   float64 `json:"cumulative_large_amount"`   // sum of those threshold-avoidance amounts
	TemporalDensityPerWeek  float64 `json:"temporal_density_per_week"` // transactions/week over actual span

	SourceOfFundsExceeded     bool `json:"source_of_funds_exceeded"`
	EconomicPlausibilityIssue bool `json:"economic_plausibility_issue"`

	IsSuspicious bool `json:"is_suspicious"`
}

// EntropyAnalysis is the output of the EntropyDetector.
type EntropyAnalysis struct {
	EntropyAmount        float64 `json:"entropy_amount"`
	EntropyPaymentMethod float64 `json:"entropy_payment_method"`
	EntropyType          float64 `json:"entropy_type"`
	EntropyTime          float64 `json:"entropy_time"`
	EntropyAggregate     float64 `json:"entropy_aggregate"`

	ZScore float64 `json:"z_score"`

	IsComplex bool `json:"is_complex"`
}

// PredictabilityAnalysis is the output of the PredictabilityDetector.
type PredictabilityAnalysis struct {
	TemporalStability     float64 `json:"temporal_stability"`
	AmountConsistency     float64 `json:"amount_consistency"`
	ChannelContinuity     float64 `json:"channel_continuity"`
	OverallPredictability float64 `json:"overall_predictability"`

	ZScore float64 `json:"z_score"`

	IsStable bool `json:"is_stable"`
}

// TrustScoreAnalysis is the output of the TrustScoreCalculator.
type TrustScoreAnalysis struct {
	CurrentScore   float64 `json:"current_score"` // in [0,1]
	Predictability float64 `json:"predictability"`
	SelfDeviation  float64 `json:"self_deviation"`
	PeerDeviation  float64 `json:"peer_deviation"`
}

// StatisticalAnalysis is the output of the StatisticalAnalyzer.
type StatisticalAnalysis struct {
	BenfordScore     float64 `json:"benford_score"`
	VelocityScore    float64 `json:"velocity_score"`
	TimeAnomalyScore float64 `json:"time_anomaly_score"`
	ClusteringScore  float64 `json:"clustering_score"`
	LayeringScore    float64 `json:"layering_score"`
}

// ModulePoints is a module's contribution to the aggregate suspicion score:
// net-for-suspicion = (SuspicionPoints - TrustPoints) * Multiplier.
type ModulePoints struct {
	TrustPoints     float64 `json:"trust_points"`
	SuspicionPoints float64 `json:"suspicion_points"`
	Multiplier      float64 `json:"multiplier"`
}

// NetSuspicion returns (SP - TP) * mu.
func (p ModulePoints) NetSuspicion() float64 {
	return (p.SuspicionPoints - p.TrustPoints) * p.Multiplier
}
