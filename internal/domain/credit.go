package domain

import "time"

// ─── Credit Journal Types ───────────────────────────────────────────────────
// Every ledger mutation yields one LedgerEntry. Entries are numbered by the
// ledger under its lock, so Seq order is the order mutations took effect.

// EntryType represents the accounting side of a ledger entry.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// TransactionType represents the business reason for a credit operation.
type TransactionType string

const (
	TxSignup   TransactionType = "SIGNUP"
	TxPurchase TransactionType = "PURCHASE"
	TxSpend    TransactionType = "SPEND"
	TxReferral TransactionType = "REFERRAL"
)

// LedgerEntry is a single row in the credit journal.
type LedgerEntry struct {
	Seq         int64           `json:"seq"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        TransactionType `json:"type"`
	EntryType   EntryType       `json:"entry_type"`
	Account     string          `json:"account"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description,omitempty"`
	Balance     int64           `json:"balance"` // balance after the entry
}
