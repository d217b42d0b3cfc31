package domain

import "github.com/shopspring/decimal"

// Identity is an authenticated principal acting on the ledger. Authentication
// itself happens in an external signing layer; by the time an Identity
// reaches this package it is already trusted.
type Identity string

// Reputation is the number of tasks an identity has completed as freelancer.
// Identities never seen as freelancer implicitly hold a zero count.
type Reputation struct {
	Identity       Identity
	CompletedCount int
}

// Account holds the payout balance accumulated by an identity through
// escrow releases.
type Account struct {
	Identity Identity
	Balance  decimal.Decimal
}
