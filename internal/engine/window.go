package engine

import (
	"sort"
	"time"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// Clock abstracts "now" so reference-time-dependent computations are
// reproducible in tests, per spec.md §9 Design Notes ("Reference time
// ambiguity ... implementations should inject a clock").
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const historicalDataThreshold = 90 * 24 * time.Hour

// effectiveTimestamp returns a transaction's timestamp, or "now" if absent.
func effectiveTimestamp(tx models.Transaction, now time.Time) time.Time {
	if tx.Timestamp != nil {
		return *tx.Timestamp
	}
	return now
}

// ReferenceInstant determines the reference instant for window slicing.
// If the dataset's latest timestamp is older than 90 days relative to
// wall-clock "now", the dataset is treated as historical and the reference
// becomes that latest timestamp; otherwise the reference is "now".
func ReferenceInstant(transactions []models.Transaction, clock Clock) time.Time {
	now := clock.Now()

	var maxTs time.Time
	found := false
	for _, tx := range transactions {
		if tx.Timestamp == nil {
			continue
		}
		if !found || tx.Timestamp.After(maxTs) {
			maxTs = *tx.Timestamp
			found = true
		}
	}

	if !found {
		return now
	}
	if now.Sub(maxTs) > historicalDataThreshold {
		return maxTs
	}
	return now
}

// SliceWindows splits a customer's transactions (any order) into recent and
// historical sequences, both sorted ascending by effective timestamp.
//
// Recent: within recentDays of the reference instant, counted backward.
// Historical: within historicalDays of the reference instant, ending before
// the recent window.
//
// When recentDays >= historicalDays the two windows would otherwise overlap
// entirely, so the customer's full (sorted) sequence is split 50/50 into
// historical/recent halves instead (spec.md §3).
func SliceWindows(transactions []models.Transaction, recentDays, historicalDays int, reference time.Time, clock Clock) (recent, historical []models.Transaction) {
	now := clock.Now()

	sorted := make([]models.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return effectiveTimestamp(sorted[i], now).Before(effectiveTimestamp(sorted[j], now))
	})

	if recentDays >= historicalDays {
		mid := len(sorted) / 2
		return append([]models.Transaction{}, sorted[mid:]...), append([]models.Transaction{}, sorted[:mid]...)
	}

	recentStart := reference.Add(-time.Duration(recentDays) * 24 * time.Hour)
	historicalStart := reference.Add(-time.Duration(historicalDays) * 24 * time.Hour)

	for _, tx := range sorted {
		ts := effectiveTimestamp(tx, now)
		switch {
		case !ts.Before(recentStart) && !ts.After(reference):
			recent = append(recent, tx)
		case !ts.Before(historicalStart) && ts.Before(recentStart):
			historical = append(historical, tx)
		}
	}

	return recent, historical
}
