package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Journal durably records ledger mutations.
type Journal interface {
	// Record persists the entry together with the account state it produced.
	// Calls may arrive out of Seq order; implementations must keep the
	// highest-Seq account snapshot.
	Record(entry LedgerEntry, acct Account) error
}

// AccountLoader returns persisted state for restoring the ledger at boot.
type AccountLoader interface {
	LoadAccounts() ([]Account, error)
	MaxSeq() (int64, error)                 // highest journaled sequence number
	Referees() (map[string][]string, error) // referrer → referee identifiers
}
