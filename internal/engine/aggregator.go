package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/enterprise/aml-risk-engine/internal/catalog"
	"github.com/enterprise/aml-risk-engine/internal/models"
	"github.com/enterprise/aml-risk-engine/internal/trust"
)

// AggregatorConfig holds the tunables that shape the final suspicion score
// and the window sizes detectors run over, see spec.md §4.6.
type AggregatorConfig struct {
	Alpha          float64 // relative-Z weight for the weight detector
	Beta           float64 // relative-Z weight for the entropy detector
	TrustBeta      float64 // smoothing factor for TrustScoreCalculator, see trust.go
	LambdaDecay    float64 // exponential decay for WeightDetector's daily weighting
	RecentDays     int
	HistoricalDays int
	UseTPSPSystem  bool
}

// DefaultAggregatorConfig returns the tunables the source tool ships with.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Alpha:          0.6,
		Beta:           0.4,
		TrustBeta:      0.7,
		LambdaDecay:    0.05,
		RecentDays:     30,
		HistoricalDays: 365,
		UseTPSPSystem:  true,
	}
}

// Aggregator coordinates every detector and produces the final RiskProfile
// for a customer, mirroring TransactionAnalyzer.analyze_customer.
type Aggregator struct {
	cfg   AggregatorConfig
	clock Clock

	weight         *WeightDetector
	entropy        *EntropyDetector
	predictability *PredictabilityDetector
	trustCalc      *TrustScoreCalculator
	statistical    *StatisticalAnalyzer
}

// NewAggregator wires up the detector set. store backs the trust calculator's
// cross-call history (nil defaults to an in-memory, process-local store).
func NewAggregator(cfg AggregatorConfig, store trust.Store, clock Clock) *Aggregator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Aggregator{
		cfg:            cfg,
		clock:          clock,
		weight:         NewWeightDetector(cfg.LambdaDecay, clock),
		entropy:        NewEntropyDetector(),
		predictability: NewPredictabilityDetector(),
		trustCalc:      NewTrustScoreCalculator(cfg.TrustBeta, store),
		statistical:    NewStatisticalAnalyzer(),
	}
}

var moduleOrder = []string{"weight", "entropy", "predictability", "statistics"}

// calculateModulePoints converts each detector's analysis into Trust Points
// (TP) and Suspicion Points (SP) with a per-module multiplier (mu), see
// spec.md §4.6.
func calculateModulePoints(weight models.WeightAnalysis, entropy models.EntropyAnalysis, predictability models.PredictabilityAnalysis, statistical models.StatisticalAnalysis) map[string]models.ModulePoints {
	points := make(map[string]models.ModulePoints, len(moduleOrder))

	weightSP := 0.0
	switch {
	case weight.TemporalDensityPerWeek > 5.0:
		weightSP += 400
	case weight.TemporalDensityPerWeek > 2.0:
		weightSP += 300
	case weight.TemporalDensityPerWeek > 1.0:
		weightSP += 200
	case weight.TemporalDensityPerWeek > 0.5:
		weightSP += 100
	}
	if weight.IsSuspicious {
		if weight.ThresholdAvoidanceRatio >= 0.5 {
			weightSP += 300
		}
		if weight.CumulativeLargeAmount >= smurfingCumulativeMin {
			weightSP += 150
		}
		if weight.EconomicPlausibilityIssue {
			weightSP += 150
		}
		if weight.SourceOfFundsExceeded {
			weightSP += 200
		}
	}
	points["weight"] = models.ModulePoints{SuspicionPoints: weightSP, Multiplier: 2.0}

	entropySP := 0.0
	switch {
	case entropy.EntropyAggregate < 0.3:
		entropySP += 150
	case entropy.EntropyAggregate > 2.0:
		entropySP += 150
	}
	if entropy.EntropyPaymentMethod < 0.1 {
		entropySP += 50
	}
	points["entropy"] = models.ModulePoints{SuspicionPoints: entropySP, Multiplier: 1.2}

	predictabilityTP, predictabilitySP := 0.0, 0.0
	switch {
	case predictability.OverallPredictability >= 0.8:
		predictabilityTP += 150
	case predictability.OverallPredictability >= 0.6:
		predictabilityTP += 80
	}
	switch {
	case predictability.OverallPredictability < 0.3:
		predictabilitySP += 150
	case predictability.OverallPredictability < 0.5:
		predictabilitySP += 75
	}
	if predictability.ZScore < -2.0 {
		predictabilitySP += 50
	}
	points["predictability"] = models.ModulePoints{TrustPoints: predictabilityTP, SuspicionPoints: predictabilitySP, Multiplier: 1.0}

	statsSP := 0.0
	if statistical.BenfordScore > 0.6 {
		statsSP += 200
	}
	if statistical.VelocityScore > 0.7 {
		statsSP += 150
	}
	if statistical.TimeAnomalyScore > 0.6 {
		statsSP += 100
	}
	switch {
	case statistical.LayeringScore > 0.9:
		statsSP += 500
	case statistical.LayeringScore > 0.7:
		statsSP += 300
	case statistical.LayeringScore > 0.5:
		statsSP += 150
	}
	points["statistics"] = models.ModulePoints{SuspicionPoints: statsSP, Multiplier: 1.5}

	return points
}

// applyAmplificationLogic computes the combinatorial amplification factor:
// a base uplift of 10% per additional suspicious module (capped at 30%),
// plus two synergy boosts: x1.2 when weight and statistics are both
// suspicious with statistics SP > 100, and x1.3 when statistics and entropy
// are both suspicious with statistics SP > 300.
func applyAmplificationLogic(points map[string]models.ModulePoints) float64 {
	var suspicious []string
	for _, name := range moduleOrder {
		if points[name].SuspicionPoints > 0 {
			suspicious = append(suspicious, name)
		}
	}
	has := func(name string) bool {
		for _, n := range suspicious {
			if n == name {
				return true
			}
		}
		return false
	}

	v := 1.0
	if len(suspicious) > 1 {
		v = math.Min(1.0+0.1*float64(len(suspicious)-1), 1.3)
	}

	if has("weight") && has("statistics") && points["statistics"].SuspicionPoints > 100 {
		v *= 1.2
	}
	if has("statistics") && has("entropy") && points["statistics"].SuspicionPoints > 300 {
		v *= 1.3
	}

	return v
}

// applyNonlinearScaling reshapes raw suspicion points: near-linear below
// 150, progressively steeper up to 500, then a flattening damping
// coefficient beyond that so extreme outliers don't dominate the scale.
func applyNonlinearScaling(points float64) float64 {
	absPoints := math.Abs(points)
	sign := 1.0
	if points < 0 {
		sign = -1.0
	}

	var scaled float64
	switch {
	case absPoints <= 150:
		scaled = absPoints
	case absPoints <= 300:
		scaled = 150 + (absPoints-150)*1.2
	case absPoints <= 500:
		scaled = 150 + 150*1.2 + (absPoints-300)*1.5
	default:
		excess := absPoints - 500
		scaled = 150 + 150*1.2 + 200*1.5 + excess*0.8
	}
	return sign * scaled
}

// calculateSuspicionScoreTPSP implements the documented TP/SP scoring
// system: weighted module net-points (40/25/25/10), amplification, a 70/30
// split between absolute and relative (Z-score) components, then nonlinear
// scaling.
func (a *Aggregator) calculateSuspicionScoreTPSP(weight models.WeightAnalysis, entropy models.EntropyAnalysis, modulePoints map[string]models.ModulePoints) float64 {
	moduleWeights := map[string]float64{
		"weight": 0.40, "entropy": 0.25, "predictability": 0.25, "statistics": 0.10,
	}

	weightedPoints := 0.0
	for _, name := range moduleOrder {
		weightedPoints += moduleWeights[name] * modulePoints[name].NetSuspicion()
	}

	amplification := applyAmplificationLogic(modulePoints)
	absoluteScore := weightedPoints * amplification * 0.7

	zW := 0.0
	if weight.ZScore30d > 0 {
		zW = clamp(weight.ZScore30d, 0, 5)
	}
	zH := 0.0
	if entropy.ZScore != 0 {
		zH = clamp(math.Abs(entropy.ZScore), 0, 5)
	}
	relativeScoreSP := a.cfg.Alpha*zW*30.0 + a.cfg.Beta*zH*30.0

	totalPoints := absoluteScore + relativeScoreSP*0.3
	scaledPoints := applyNonlinearScaling(totalPoints)

	return math.Max(0.0, scaledPoints)
}

// trustPenalty directly couples suspicious findings from the other
// detectors into the trust score, so it doesn't drift independently of the
// overall risk assessment.
func trustPenalty(weight models.WeightAnalysis, entropy models.EntropyAnalysis, statistical models.StatisticalAnalysis) float64 {
	penalty := 0.0

	if weight.IsSuspicious {
		switch {
		case weight.ThresholdAvoidanceRatio >= 0.5:
			penalty += 0.3
		case weight.ThresholdAvoidanceRatio >= 0.3:
			penalty += 0.2
		}
		if weight.CumulativeLargeAmount >= smurfingCumulativeMin {
			penalty += 0.2
		}
		if weight.TemporalDensityPerWeek > 1.0 {
			penalty += 0.2
		}
	}

	switch {
	case statistical.LayeringScore > 0.7:
		penalty += 0.4
	case statistical.LayeringScore > 0.5:
		penalty += 0.3
	case statistical.LayeringScore > 0.3:
		penalty += 0.2
	}

	if entropy.IsComplex && (entropy.EntropyAggregate < 0.3 || entropy.EntropyAggregate > 2.0) {
		penalty += 0.2
	}

	return math.Min(penalty, 0.7)
}

// generateFlags renders the catalogue entries triggered by this customer's
// analysis, in the same priority order the source tool evaluates them.
func generateFlags(weight models.WeightAnalysis, entropy models.EntropyAnalysis, predictability models.PredictabilityAnalysis, trustAnalysis models.TrustScoreAnalysis, statistical models.StatisticalAnalysis) []models.Flag {
	var flags []models.Flag
	add := func(key string, args ...interface{}) {
		flags = append(flags, models.Flag{Key: key, Text: catalog.Render(key, args...)})
	}

	if weight.IsSuspicious {
		if weight.ThresholdAvoidanceRatio >= 0.5 {
			add(catalog.KeySmurfingThresholdAvoidance)
			if weight.CumulativeLargeAmount >= 50000.0 {
				add(catalog.KeyLargeCumulativeSum, weight.CumulativeLargeAmount)
			}
		} else {
			add(catalog.KeySmurfingSmallTransactions)
		}
	}
	if weight.ZScore30d >= 3.0 {
		add(catalog.KeyHighActivityZScore)
	}
	if weight.SmallTransactionRatio >= 0.8 {
		add(catalog.KeySmallAmountPattern)
	}
	if weight.ThresholdAvoidanceRatio >= 0.7 {
		add(catalog.KeyThresholdAvoidanceDetail, weight.ThresholdAvoidanceRatio*100)
	}
	if weight.TemporalDensityPerWeek > 0.5 {
		add(catalog.KeyHighTemporalDensity, weight.TemporalDensityPerWeek)
	}
	if weight.SourceOfFundsExceeded {
		add(catalog.KeySourceOfFundsExceeded)
	}
	if weight.EconomicPlausibilityIssue {
		add(catalog.KeyEconomicPlausibility)
	}

	switch {
	case entropy.EntropyAggregate < 0.3:
		add(catalog.KeyEntropyConcentration)
	case entropy.EntropyAggregate > 2.0:
		add(catalog.KeyEntropyDispersion)
	}
	if entropy.IsComplex && entropy.ZScore != 0 {
		switch {
		case entropy.ZScore > 2.0:
			add(catalog.KeyUnusualDispersionVsHistory)
		case entropy.ZScore < -2.0:
			add(catalog.KeyConcentrationVsHistory)
		}
	}

	if !predictability.IsStable {
		switch {
		case predictability.OverallPredictability < 0.3:
			add(catalog.KeyUnstableBehaviorLow)
		case predictability.OverallPredictability < 0.5:
			add(catalog.KeyUnpredictableBehavior)
		}
	}
	if predictability.ZScore < -2.0 {
		add(catalog.KeyPredictabilityDeviation)
	}

	if trustAnalysis.CurrentScore < 0.3 {
		add(catalog.KeyLowTrustScore)
	}
	if trustAnalysis.SelfDeviation > 0.7 {
		add(catalog.KeyBehaviorChange)
	}

	if statistical.BenfordScore > 0.6 {
		add(catalog.KeyBenfordDeviation)
	}
	if statistical.VelocityScore > 0.7 {
		add(catalog.KeyHighVelocity)
	}
	if statistical.TimeAnomalyScore > 0.6 {
		add(catalog.KeyTimeAnomalies)
	}
	if statistical.ClusteringScore > 0.7 {
		add(catalog.KeyPeerDeviation)
	}
	switch {
	case statistical.LayeringScore > 0.5:
		add(catalog.KeyLayeringSuspicion)
	case statistical.LayeringScore > 0.3:
		add(catalog.KeyLayeringPattern)
	}

	return flags
}

func generateRecommendations(riskLevel models.RiskLevel, flags []models.Flag) []string {
	var recs []string

	switch riskLevel {
	case models.RiskLevelGreen:
		recs = append(recs, catalog.RecGreenNoAction)
	case models.RiskLevelYellow:
		recs = append(recs, catalog.RecYellowIntensifyMonitoring, catalog.RecYellowDocumentPattern)
	case models.RiskLevelOrange:
		recs = append(recs, catalog.RecOrangeRequestEvidence, catalog.RecOrangeEDDCheck, catalog.RecOrangeContactCustomer)
	case models.RiskLevelRed:
		recs = append(recs, catalog.RecRedUrgentEvidence, catalog.RecRedEDD, catalog.RecRedNotifyCompliance, catalog.RecRedTemporaryLimits)
	}

	anyFlagContains := func(substr string) bool {
		for _, f := range flags {
			if strings.Contains(f.Text, substr) {
				return true
			}
		}
		return false
	}

	if anyFlagContains("SMURFING") {
		recs = append(recs, catalog.RecSmurfingBusinessRationale)
	}
	if anyFlagContains("BENFORD") {
		recs = append(recs, catalog.RecBenfordCheckInvoices)
	}
	if anyFlagContains("VELOCITY") {
		recs = append(recs, catalog.RecVelocityCheckPlausibility)
	}
	if anyFlagContains("GELDWÄSCHE") || anyFlagContains("LAYERING") {
		recs = append(recs, catalog.RecLayeringSoFCash, catalog.RecLayeringCheckLink, catalog.RecLayeringConsiderSAR)
	}

	return recs
}

// peerTransactions selects other customers' transactions of roughly similar
// size (0.5x-2.0x the customer's own mean amount) to serve as the peer-group
// baseline for TrustScoreCalculator.calculatePeerDeviation. Fewer than 10
// matches is considered too thin a sample to be meaningful.
func peerTransactions(customerID string, customerRecent, allTransactions []models.Transaction) []models.Transaction {
	if len(customerRecent) == 0 {
		return nil
	}
	amounts := make([]float64, len(customerRecent))
	for i, tx := range customerRecent {
		amounts[i] = tx.AmountFloat()
	}
	customerMean := mean(amounts)
	if customerMean <= 0 {
		return nil
	}

	var peers []models.Transaction
	lo, hi := 0.5*customerMean, 2.0*customerMean
	for _, tx := range allTransactions {
		if tx.CustomerID == customerID {
			continue
		}
		amt := tx.AmountFloat()
		if amt >= lo && amt <= hi {
			peers = append(peers, tx)
		}
	}
	if len(peers) < 10 {
		return nil
	}
	return peers
}

// AnalyzeCustomer runs the full detector pipeline for one customer and
// produces their RiskProfile, mirroring TransactionAnalyzer.analyze_customer.
// customerTransactions is that customer's full history; allTransactions is
// the full dataset across all customers, used for peer comparison and
// cross-customer clustering.
func (a *Aggregator) AnalyzeCustomer(ctx context.Context, customerID string, customerTransactions, allTransactions []models.Transaction, customerInfo *models.CustomerInfo) (models.RiskProfile, error) {
	if len(customerTransactions) == 0 {
		return models.RiskProfile{}, fmt.Errorf("%w: customer %s", ErrUnknownCustomer, customerID)
	}

	referenceSet := allTransactions
	if len(referenceSet) == 0 {
		referenceSet = customerTransactions
	}
	reference := ReferenceInstant(referenceSet, a.clock)

	recent, historical := SliceWindows(customerTransactions, a.cfg.RecentDays, a.cfg.HistoricalDays, reference, a.clock)
	if len(recent) == 0 {
		return models.RiskProfile{}, fmt.Errorf("%w: customer %s", ErrNoTransactionsInWindow, customerID)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return effectiveTimestamp(recent[i], a.clock.Now()).Before(effectiveTimestamp(recent[j], a.clock.Now()))
	})

	weightAnalysis := a.weight.Analyze(recent, historical, customerInfo)
	entropyAnalysis := a.entropy.Analyze(recent, historical)
	predictabilityAnalysis := a.predictability.Analyze(recent, historical)

	peers := peerTransactions(customerID, recent, allTransactions)
	trustAnalysis := a.trustCalc.Analyze(ctx, customerID, recent, historical, peers, a.clock)

	statisticalAnalysis := a.statistical.Analyze(recent, allTransactions)

	trustAnalysis.CurrentScore = clamp(trustAnalysis.CurrentScore*(1.0-trustPenalty(weightAnalysis, entropyAnalysis, statisticalAnalysis)), 0, 1)

	var suspicionScore float64
	var modulePoints map[string]models.ModulePoints
	if a.cfg.UseTPSPSystem {
		modulePoints = calculateModulePoints(weightAnalysis, entropyAnalysis, predictabilityAnalysis, statisticalAnalysis)
		suspicionScore = a.calculateSuspicionScoreTPSP(weightAnalysis, entropyAnalysis, modulePoints)
	} else {
		suspicionScore = legacySuspicionScore(a.cfg.Alpha, a.cfg.Beta, weightAnalysis, entropyAnalysis, statisticalAnalysis)
	}

	riskLevel := models.ClassifyRiskLevel(suspicionScore)
	flags := generateFlags(weightAnalysis, entropyAnalysis, predictabilityAnalysis, trustAnalysis, statisticalAnalysis)
	recommendations := generateRecommendations(riskLevel, flags)

	var totalAmount float64
	for _, tx := range recent {
		totalAmount += tx.AmountFloat()
	}

	return models.RiskProfile{
		CustomerID:        customerID,
		CustomerName:      recent[0].CustomerName,
		GeneratedAt:       a.clock.Now(),
		TotalTransactions: len(recent),
		TotalAmount:       totalAmount,
		Weight:            weightAnalysis,
		Entropy:           entropyAnalysis,
		Predictability:    predictabilityAnalysis,
		Trust:             trustAnalysis,
		Statistical:       statisticalAnalysis,
		ModulePoints:      modulePoints,
		SuspicionScore:    suspicionScore,
		RiskLevel:         riskLevel,
		Flags:             flags,
		Recommendations:   recommendations,
	}, nil
}
