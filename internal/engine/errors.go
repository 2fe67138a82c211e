package engine

import "errors"

// ErrNoTransactionsInWindow is returned by Aggregator.AnalyzeCustomer when a
// customer has no transactions inside the requested recent-days window,
// mirroring the original tool's "Keine Transaktionen für Kunde" guard.
var ErrNoTransactionsInWindow = errors.New("engine: no transactions in requested window")

// ErrUnknownCustomer is returned when a customer id has never had a
// transaction recorded against it.
var ErrUnknownCustomer = errors.New("engine: unknown customer")
