package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/scryptex/scryptex/internal/app/ledger"
	"github.com/scryptex/scryptex/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Credit Journal Tests
// ═══════════════════════════════════════════════════════════════════════════

func entryFor(a domain.Account, tx domain.TransactionType, side domain.EntryType, amount int64, desc string) domain.LedgerEntry {
	return domain.LedgerEntry{
		Seq:         a.Seq,
		Timestamp:   time.Now(),
		Type:        tx,
		EntryType:   side,
		Account:     a.UserID,
		Amount:      amount,
		Description: desc,
		Balance:     a.Balance,
	}
}

// ─── Record / Load ──────────────────────────────────────────────────────────

func TestRecord_PersistsAccountAndEntry(t *testing.T) {
	db := newTestDB(t)
	acct := domain.Account{
		UserID: "user_1", Username: "alice", Balance: 20,
		ReferralCode: "alice1234", CreatedAt: time.Now(), Seq: 1,
	}

	if err := db.Record(entryFor(acct, domain.TxSignup, domain.EntryCredit, 20, "signup grant"), acct); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	got, err := db.GetAccount("user_1")
	if err != nil {
		t.Fatalf("GetAccount() error: %v", err)
	}
	if got.Balance != 20 {
		t.Errorf("Balance = %d, want 20", got.Balance)
	}
	if got.ReferralCode != "alice1234" {
		t.Errorf("ReferralCode = %q, want alice1234", got.ReferralCode)
	}

	n, err := db.EntryCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("EntryCount() = %d, want 1", n)
	}
}

func TestRecord_OutOfOrderKeepsLatestSnapshot(t *testing.T) {
	db := newTestDB(t)
	base := domain.Account{UserID: "u", ReferralCode: "u1000", CreatedAt: time.Now()}

	newer := base
	newer.Balance, newer.Seq = 5, 3
	older := base
	older.Balance, older.Seq = 15, 2

	if err := db.Record(entryFor(newer, domain.TxSpend, domain.EntryDebit, 10, "analyze"), newer); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(entryFor(older, domain.TxSpend, domain.EntryDebit, 5, "farming"), older); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetAccount("u")
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 5 || got.Seq != 3 {
		t.Errorf("snapshot = (balance %d, seq %d), want (5, 3)", got.Balance, got.Seq)
	}
}

func TestRecord_DuplicateSeqIgnored(t *testing.T) {
	db := newTestDB(t)
	acct := domain.Account{UserID: "u", CreatedAt: time.Now(), Balance: 3, Seq: 7}
	e := entryFor(acct, domain.TxPurchase, domain.EntryCredit, 3, "offchain")

	if err := db.Record(e, acct); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(e, acct); err != nil {
		t.Fatalf("second Record() error: %v", err)
	}
	n, _ := db.EntryCount()
	if n != 1 {
		t.Errorf("EntryCount() = %d, want 1", n)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetAccount("ghost")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("GetAccount(ghost) error = %v, want ErrAccountNotFound", err)
	}
}

func TestLoadAccounts(t *testing.T) {
	db := newTestDB(t)
	for i, id := range []string{"b", "a", "c"} {
		acct := domain.Account{UserID: id, Balance: int64(i), CreatedAt: time.Now(), Seq: int64(i + 1)}
		if err := db.Record(entryFor(acct, domain.TxPurchase, domain.EntryCredit, 1, ""), acct); err != nil {
			t.Fatal(err)
		}
	}

	accounts, err := db.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts() error: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("LoadAccounts() returned %d, want 3", len(accounts))
	}
	if accounts[0].UserID != "a" {
		t.Errorf("first account = %q, want a (ordered by id)", accounts[0].UserID)
	}
	if accounts[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should round-trip")
	}
}

// ─── Entries ────────────────────────────────────────────────────────────────

func TestListEntries_NewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)
	acct := domain.Account{UserID: "u", CreatedAt: time.Now()}
	for seq := int64(1); seq <= 5; seq++ {
		acct.Seq = seq
		acct.Balance = seq * 10
		if err := db.Record(entryFor(acct, domain.TxPurchase, domain.EntryCredit, 10, "onchain"), acct); err != nil {
			t.Fatal(err)
		}
	}
	other := domain.Account{UserID: "other", CreatedAt: time.Now(), Seq: 6, Balance: 1}
	db.Record(entryFor(other, domain.TxPurchase, domain.EntryCredit, 1, "onchain"), other)

	entries, err := db.ListEntries("u", 3)
	if err != nil {
		t.Fatalf("ListEntries() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListEntries() returned %d, want 3", len(entries))
	}
	if entries[0].Seq != 5 || entries[2].Seq != 3 {
		t.Errorf("seqs = %d..%d, want 5..3", entries[0].Seq, entries[2].Seq)
	}
	if entries[0].Type != domain.TxPurchase || entries[0].EntryType != domain.EntryCredit {
		t.Errorf("entry kind = %s/%s", entries[0].Type, entries[0].EntryType)
	}
}

func TestListEntries_Empty(t *testing.T) {
	db := newTestDB(t)
	entries, err := db.ListEntries("nobody", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("ListEntries(nobody) returned %d, want 0", len(entries))
	}
}

func TestMaxSeq(t *testing.T) {
	db := newTestDB(t)
	if n, err := db.MaxSeq(); err != nil || n != 0 {
		t.Fatalf("MaxSeq() on empty = (%d, %v), want (0, nil)", n, err)
	}

	acct := domain.Account{UserID: "u", CreatedAt: time.Now(), Seq: 42}
	db.Record(entryFor(acct, domain.TxPurchase, domain.EntryCredit, 1, ""), acct)

	if n, _ := db.MaxSeq(); n != 42 {
		t.Errorf("MaxSeq() = %d, want 42", n)
	}
}

func TestReferees(t *testing.T) {
	db := newTestDB(t)
	acct := domain.Account{UserID: "r", ReferralCode: "r1000", CreatedAt: time.Now()}
	for i, email := range []string{"a@b.com", "c@d.com"} {
		acct.Seq = int64(i + 1)
		db.Record(entryFor(acct, domain.TxReferral, domain.EntryCredit, 10, email), acct)
	}
	acct.Seq = 3
	db.Record(entryFor(acct, domain.TxSpend, domain.EntryDebit, 1, "analyze"), acct)

	refs, err := db.Referees()
	if err != nil {
		t.Fatalf("Referees() error: %v", err)
	}
	if len(refs["r"]) != 2 || refs["r"][0] != "a@b.com" {
		t.Errorf("Referees()[r] = %v, want [a@b.com c@d.com]", refs["r"])
	}
}

// ─── Ledger Round Trip ──────────────────────────────────────────────────────

func TestJournal_LedgerRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	policy := domain.DefaultReferralPolicy()
	policy.DedupReferrals = true
	l := ledger.New(policy, ledger.WithJournal(db))
	if _, err := l.Register("u1", "alice"); err != nil {
		t.Fatal(err)
	}
	l.Debit("u1", 5, "analyze")
	l.CompleteReferral("u1", "friend@example.com")
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	restored := ledger.New(policy, ledger.WithJournal(db))
	if err := restored.RestoreFrom(db); err != nil {
		t.Fatalf("RestoreFrom() error: %v", err)
	}
	if got := restored.GetBalance("u1"); got != 25 {
		t.Errorf("restored balance = %d, want 25", got)
	}
	if _, err := restored.CompleteReferral("u1", "FRIEND@example.com"); !errors.Is(err, domain.ErrDuplicateReferral) {
		t.Errorf("dedup after restart error = %v, want ErrDuplicateReferral", err)
	}

	restored.Grant("u1", 1, "onchain")
	entries, _ := db.ListEntries("u1", 1)
	if len(entries) != 1 || entries[0].Seq != 4 {
		t.Errorf("latest entry = %+v, want seq 4", entries)
	}
}

func TestListEntries_LimitCapped(t *testing.T) {
	db := newTestDB(t)
	acct := domain.Account{UserID: "u", CreatedAt: time.Now()}
	for seq := int64(1); seq <= MaxEntryLimit+10; seq++ {
		acct.Seq = seq
		acct.Balance = seq
		if err := db.Record(entryFor(acct, domain.TxPurchase, domain.EntryCredit, 1, "offchain"), acct); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultEntryLimit},
		{"negative", -7, DefaultEntryLimit},
		{"max int", int(^uint(0) >> 1), MaxEntryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := db.ListEntries("u", tt.limit)
			if err != nil {
				t.Fatalf("ListEntries(%d) error: %v", tt.limit, err)
			}
			if len(entries) != tt.want {
				t.Errorf("ListEntries(%d) returned %d, want %d", tt.limit, len(entries), tt.want)
			}
		})
	}
}

// ─── Corrupt Rows ───────────────────────────────────────────────────────────

func TestLoadAccounts_CorruptTimestamp(t *testing.T) {
	db := newTestDB(t)
	_, err := db.db.Exec(`INSERT INTO accounts (user_id, created_at, seq) VALUES ('bad', 'yesterday', 1)`)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.LoadAccounts(); err == nil {
		t.Error("LoadAccounts() should fail on a corrupt created_at")
	}
	if _, err := db.GetAccount("bad"); err == nil || errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("GetAccount(bad) error = %v, want a parse error", err)
	}
}

func TestListEntries_CorruptTimestamp(t *testing.T) {
	db := newTestDB(t)
	_, err := db.db.Exec(`INSERT INTO ledger_entries (seq, timestamp, type, entry_type, account, amount, balance)
		VALUES (1, 'not-a-time', 'PURCHASE', 'CREDIT', 'u', 1, 1)`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ListEntries("u", 10); err == nil {
		t.Error("ListEntries() should fail on a corrupt timestamp")
	}
}
