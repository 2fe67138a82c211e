// Package catalog renders the flag and recommendation message catalogue.
//
// Per spec.md §9 Open Question (d), generate_flags in the source tool uses
// localized German strings with emoji prefixes. We keep the keys opaque
// (models.Flag.Key) and render the original operator-facing text here, so
// a consumer that wants a different locale can swap this package without
// touching the detectors or the aggregator.
package catalog

import "fmt"

const (
	KeySmurfingThresholdAvoidance = "smurfing_threshold_avoidance"
	KeyLargeCumulativeSum         = "large_cumulative_sum"
	KeySmurfingSmallTransactions  = "smurfing_small_transactions"
	KeyHighActivityZScore         = "high_activity_zscore"
	KeySmallAmountPattern         = "small_amount_pattern"
	KeyThresholdAvoidanceDetail   = "threshold_avoidance_detail"
	KeyHighTemporalDensity        = "high_temporal_density"
	KeySourceOfFundsExceeded      = "source_of_funds_exceeded"
	KeyEconomicPlausibility       = "economic_plausibility"
	KeyEntropyConcentration       = "entropy_concentration"
	KeyEntropyDispersion          = "entropy_dispersion"
	KeyUnusualDispersionVsHistory = "unusual_dispersion_vs_history"
	KeyConcentrationVsHistory     = "concentration_vs_history"
	KeyUnstableBehaviorLow        = "unstable_behavior_low"
	KeyUnpredictableBehavior      = "unpredictable_behavior"
	KeyPredictabilityDeviation    = "predictability_deviation"
	KeyLowTrustScore              = "low_trust_score"
	KeyBehaviorChange             = "behavior_change"
	KeyBenfordDeviation           = "benford_deviation"
	KeyHighVelocity               = "high_velocity"
	KeyTimeAnomalies              = "time_anomalies"
	KeyPeerDeviation              = "peer_deviation"
	KeyLayeringSuspicion          = "layering_suspicion"
	KeyLayeringPattern            = "layering_pattern"
)

// Render returns the display text for a catalogue key, formatted with args
// in the same positions the original tool formats them.
func Render(key string, args ...interface{}) string {
	tmpl, ok := templates[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

var templates = map[string]string{
	KeySmurfingThresholdAvoidance: "🚨 SMURFING-VERDACHT: Bar-Investments nah unter 10.000€ Grenze",
	KeyLargeCumulativeSum:         "💰 GROSSE KUMULATIVE SUMME: %.0f€ nah unter Grenze",
	KeySmurfingSmallTransactions:  "⚠️ SMURFING-VERDACHT: Viele kleine Transaktionen",
	KeyHighActivityZScore:         "🔴 HOHE TRANSAKTIONSAKTIVITÄT: Z-Score >= 3",
	KeySmallAmountPattern:         "💰 KLEINBETRAGS-MUSTER: >80% Transaktionen <2000 EUR",
	KeyThresholdAvoidanceDetail:   "🎯 THRESHOLD-AVOIDANCE: %.0f%% der Bar-Investments nah unter Grenze",
	KeyHighTemporalDensity:        "⏱️ HOHE TEMPORALE DICHTE: %.2f Transaktionen/Woche",
	KeySourceOfFundsExceeded:      "🚨 SOURCE OF FUNDS ÜBERSCHRITTEN: Kumulative Summe > angegebener SoF",
	KeyEconomicPlausibility:       "⚠️ ECONOMIC PLAUSIBILITY: Unrealistisch hohe Beträge im Verhältnis zum Einkommen",
	KeyEntropyConcentration:       "📍 ENTROPIE-KANALISATION: Extreme Konzentration auf wenige Muster",
	KeyEntropyDispersion:          "🔀 ENTROPIE-VERSCHLEIERUNG: Extreme Streuung (jeder Betrag unterschiedlich)",
	KeyUnusualDispersionVsHistory: "🔀 UNGEWÖHNLICHE STREUUNG: Erhöhte Komplexität vs. Historie",
	KeyConcentrationVsHistory:     "📍 KANALISATION: Konzentration auf wenige Muster vs. Historie",
	KeyUnstableBehaviorLow:        "⚠️ INSTABILES VERHALTEN: Sehr niedrige Predictability (< 0.3)",
	KeyUnpredictableBehavior:      "📊 UNVORHERSAGBARES VERHALTEN: Niedrige Predictability (< 0.5)",
	KeyPredictabilityDeviation:    "📉 PREDICTABILITY-ABWEICHUNG: Starke negative Abweichung von historischer Baseline",
	KeyLowTrustScore:              "📉 NIEDRIGER TRUST SCORE: Unvorhersagbares Verhalten",
	KeyBehaviorChange:             "⚡ VERHALTENSÄNDERUNG: Starke Abweichung vom eigenen Profil",
	KeyBenfordDeviation:           "📊 BENFORD-ABWEICHUNG: Unnatürliche Zahlenverteilung",
	KeyHighVelocity:               "⏱️ HOHE VELOCITY: Ungewöhnliche Transaktionsgeschwindigkeit",
	KeyTimeAnomalies:              "🕐 ZEITANOMALIEN: Ungewöhnliche Uhrzeiten/Tage",
	KeyPeerDeviation:              "👥 PEER-ABWEICHUNG: Untypisch für Kundengruppe",
	KeyLayeringSuspicion:          "🚨 GELDWÄSCHE-VERDACHT: Bar-Einzahlung → SEPA-Auszahlung",
	KeyLayeringPattern:            "⚠️ LAYERING-MUSTER: Auffällige Bar/SEPA-Kombination",
}

const (
	RecGreenNoAction             = "✅ Keine Maßnahmen erforderlich"
	RecYellowIntensifyMonitoring = "👁️ Monitoring intensivieren"
	RecYellowDocumentPattern     = "📝 Transaktionsmuster dokumentieren"
	RecOrangeRequestEvidence     = "📄 Nachweise anfordern (z.B. Source of Funds)"
	RecOrangeEDDCheck            = "🔍 Enhanced Due Diligence prüfen"
	RecOrangeContactCustomer     = "📞 Kundenkontakt aufnehmen"
	RecRedUrgentEvidence         = "🚨 DRINGEND: Nachweise erforderlich"
	RecRedEDD                    = "⚠️ Enhanced Due Diligence durchführen"
	RecRedNotifyCompliance       = "📋 Compliance-Team informieren"
	RecRedTemporaryLimits        = "🔒 Ggf. temporäre Limits setzen"
	RecSmurfingBusinessRationale = "💡 Prüfen: Geschäftliche Begründung für Zahlungsstruktur"
	RecBenfordCheckInvoices      = "💡 Prüfen: Belege und Rechnungen auf Authentizität"
	RecVelocityCheckPlausibility = "💡 Prüfen: Plausibilität der Transaktionsfrequenz"
	RecLayeringSoFCash           = "🚨 GELDWÄSCHE-VERDACHT: Source of Funds für Bar-Einzahlungen"
	RecLayeringCheckLink         = "🔍 Prüfen: Zusammenhang zwischen Ein- und Auszahlungen"
	RecLayeringConsiderSAR       = "⚠️ Ggf. SAR (Suspicious Activity Report) erwägen"
)
