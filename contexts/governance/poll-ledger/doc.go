// Package pollledger implements the poll ledger inside the governance context.
//
// The module owns the poll/candidate state machine: poll creation inside a
// time window, candidate registration scoped to a poll, single-admission
// voting guarded by vote receipts, and read-only tally reconciliation. Every
// record lives at an address derived from its identifying key, and each
// mutating operation commits its writes as one compare-and-swap change set
// against the record store port.
package pollledger
