// Credit journal schema and operations.
// Persistence for account snapshots and the append-only ledger entry log.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/scryptex/scryptex/internal/domain"
)

// Entry listing bounds.
const (
	DefaultEntryLimit = 50
	MaxEntryLimit     = 500
)

// ─── Journal Schema ─────────────────────────────────────────────────────────

// JournalMigrations returns the journal schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func JournalMigrations() []string {
	return []string{
		// Latest state of every account, keyed by user id
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id        TEXT PRIMARY KEY,
			username       TEXT NOT NULL DEFAULT '',
			balance        INTEGER NOT NULL DEFAULT 0 CHECK(balance >= 0),
			referral_code  TEXT NOT NULL DEFAULT '',
			invite_count   INTEGER NOT NULL DEFAULT 0,
			earned_credits INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL,
			seq            INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_code ON accounts(referral_code)`,

		// Append-only ledger entries
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			seq         INTEGER PRIMARY KEY,
			timestamp   TEXT NOT NULL,
			type        TEXT NOT NULL,
			entry_type  TEXT NOT NULL,
			account     TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			balance     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_account ON ledger_entries(account, seq)`,
	}
}

// ─── Journal Operations ─────────────────────────────────────────────────────

// Record appends the entry and upserts the account snapshot in one
// transaction. A snapshot only replaces a stored one with a lower seq, so
// out-of-order calls converge on the latest state.
func (db *DB) Record(entry domain.LedgerEntry, acct domain.Account) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR IGNORE INTO ledger_entries (seq, timestamp, type, entry_type, account, amount, description, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Seq, entry.Timestamp.UTC().Format(time.RFC3339Nano), string(entry.Type), string(entry.EntryType),
		entry.Account, entry.Amount, entry.Description, entry.Balance)
	if err != nil {
		return fmt.Errorf("insert entry %d: %w", entry.Seq, err)
	}

	_, err = tx.Exec(`
		INSERT INTO accounts (user_id, username, balance, referral_code, invite_count, earned_credits, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username       = excluded.username,
			balance        = excluded.balance,
			referral_code  = excluded.referral_code,
			invite_count   = excluded.invite_count,
			earned_credits = excluded.earned_credits,
			seq            = excluded.seq
		WHERE excluded.seq > accounts.seq
	`, acct.UserID, acct.Username, acct.Balance, acct.ReferralCode, acct.InviteCount, acct.EarnedCredits,
		acct.CreatedAt.UTC().Format(time.RFC3339Nano), acct.Seq)
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", acct.UserID, err)
	}

	return tx.Commit()
}

// LoadAccounts returns every persisted account.
func (db *DB) LoadAccounts() ([]domain.Account, error) {
	rows, err := db.db.Query(`
		SELECT user_id, username, balance, referral_code, invite_count, earned_credits, created_at, seq
		FROM accounts ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		var a domain.Account
		var createdStr string
		if err := rows.Scan(&a.UserID, &a.Username, &a.Balance, &a.ReferralCode,
			&a.InviteCount, &a.EarnedCredits, &createdStr, &a.Seq); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("account %s created_at: %w", a.UserID, err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// GetAccount retrieves one persisted account.
func (db *DB) GetAccount(userID string) (*domain.Account, error) {
	var a domain.Account
	var createdStr string
	err := db.db.QueryRow(`
		SELECT user_id, username, balance, referral_code, invite_count, earned_credits, created_at, seq
		FROM accounts WHERE user_id = ?
	`, userID).Scan(&a.UserID, &a.Username, &a.Balance, &a.ReferralCode,
		&a.InviteCount, &a.EarnedCredits, &createdStr, &a.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
		return nil, fmt.Errorf("account %s created_at: %w", a.UserID, err)
	}
	return &a, nil
}

// ListEntries returns the most recent entries for an account, newest first.
// limit <= 0 means DefaultEntryLimit; larger values are capped at MaxEntryLimit.
func (db *DB) ListEntries(account string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultEntryLimit
	}
	limit = min(limit, MaxEntryLimit)
	rows, err := db.db.Query(`
		SELECT seq, timestamp, type, entry_type, account, amount, description, balance
		FROM ledger_entries WHERE account = ?
		ORDER BY seq DESC LIMIT ?
	`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		var tsStr, txType, side string
		if err := rows.Scan(&e.Seq, &tsStr, &txType, &side, &e.Account, &e.Amount, &e.Description, &e.Balance); err != nil {
			return nil, err
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr); err != nil {
			return nil, fmt.Errorf("entry %d timestamp: %w", e.Seq, err)
		}
		e.Type = domain.TransactionType(txType)
		e.EntryType = domain.EntryType(side)
		result = append(result, e)
	}
	return result, rows.Err()
}

// EntryCount returns the number of journaled entries.
func (db *DB) EntryCount() (int64, error) {
	var n int64
	err := db.db.QueryRow(`SELECT COUNT(*) FROM ledger_entries`).Scan(&n)
	return n, err
}

// MaxSeq returns the highest journaled sequence number, 0 when empty.
func (db *DB) MaxSeq() (int64, error) {
	var n sql.NullInt64
	if err := db.db.QueryRow(`SELECT MAX(seq) FROM ledger_entries`).Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

// Referees returns, per referrer, the referee identifiers of every
// journaled referral entry.
func (db *DB) Referees() (map[string][]string, error) {
	rows, err := db.db.Query(`
		SELECT account, description FROM ledger_entries
		WHERE type = ? ORDER BY seq
	`, string(domain.TxReferral))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var referrer, referee string
		if err := rows.Scan(&referrer, &referee); err != nil {
			return nil, err
		}
		result[referrer] = append(result[referrer], referee)
	}
	return result, rows.Err()
}
