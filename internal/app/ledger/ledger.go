// Package ledger owns per-user credit balances and referral state.
//
// The ledger is the single writer of account state. Every operation is a
// short critical section under one RWMutex:
//  1. Mutations (register, grant, debit, referral) take the write lock
//  2. Reads (balance, stats, account snapshot) take the read lock
//  3. Each mutation is numbered (Seq) and handed to the Journal after unlock
//
// Insufficient funds on Debit is a normal outcome, reported as ok=false.
package ledger

import (
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/scryptex/scryptex/internal/domain"
	"github.com/scryptex/scryptex/internal/infra/observability"
)

// maxCodeAttempts bounds referral-code regeneration on collision before
// falling back to a longer suffix.
const maxCodeAttempts = 16

// Ledger maintains consistent credit and referral state under concurrent access.
type Ledger struct {
	mu       sync.RWMutex
	policy   domain.ReferralPolicy
	journal  domain.Journal
	accounts map[string]*domain.Account
	codes    map[string]string              // referral code → user id
	referees map[string]map[string]struct{} // referrer → normalized referee emails
	seq      int64
	now      func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithJournal sets the durable journal that receives every mutation.
func WithJournal(j domain.Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an empty ledger with the given policy.
func New(policy domain.ReferralPolicy, opts ...Option) *Ledger {
	l := &Ledger{
		policy:   policy,
		accounts: make(map[string]*domain.Account),
		codes:    make(map[string]string),
		referees: make(map[string]map[string]struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the referral policy in force.
func (l *Ledger) Policy() domain.ReferralPolicy { return l.policy }

// ─── Registration ───────────────────────────────────────────────────────────

// Register creates an account with the signup grant and a fresh referral code.
func (l *Ledger) Register(userID, username string) (domain.Account, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Account{}, domain.ErrInvalidUser
	}

	l.mu.Lock()
	if _, exists := l.accounts[userID]; exists {
		l.mu.Unlock()
		return domain.Account{}, fmt.Errorf("register %s: %w", userID, domain.ErrAccountExists)
	}

	now := l.now()
	acct := &domain.Account{
		UserID:       userID,
		Username:     username,
		Balance:      l.policy.SignupGrant,
		ReferralCode: l.newCodeLocked(username),
		CreatedAt:    now,
	}
	l.accounts[userID] = acct
	l.codes[acct.ReferralCode] = userID
	entry := l.entryLocked(acct, domain.TxSignup, domain.EntryCredit, l.policy.SignupGrant, "signup grant")
	snap := *acct
	total := len(l.accounts)
	l.mu.Unlock()

	observability.AccountsTotal.Set(float64(total))
	observability.CreditsGranted.WithLabelValues(string(domain.TxSignup)).Add(float64(l.policy.SignupGrant))
	l.record(entry, snap)
	log.Printf("[ledger] registered %s code=%s", userID, snap.ReferralCode)
	return snap, nil
}

// ─── Balance Operations ─────────────────────────────────────────────────────

// GetBalance returns the current balance, or 0 for unknown users.
// It never creates an account.
func (l *Ledger) GetBalance(userID string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if acct, ok := l.accounts[userID]; ok {
		return acct.Balance
	}
	return 0
}

// Grant adds credits and returns the new balance. An unknown user gets a
// bare ledger entry initialized to zero before the grant applies.
func (l *Ledger) Grant(userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrInvalidUser
	}

	l.mu.Lock()
	acct, ok := l.accounts[userID]
	if ok && !fits(acct.Balance, amount) {
		l.mu.Unlock()
		return 0, fmt.Errorf("grant %d to %s: %w", amount, userID, domain.ErrBalanceOverflow)
	}
	if !ok {
		acct = &domain.Account{UserID: userID, CreatedAt: l.now()}
		l.accounts[userID] = acct
	}
	acct.Balance += amount
	entry := l.entryLocked(acct, domain.TxPurchase, domain.EntryCredit, amount, reason)
	snap := *acct
	total := len(l.accounts)
	l.mu.Unlock()

	observability.AccountsTotal.Set(float64(total))
	observability.CreditsGranted.WithLabelValues(string(domain.TxPurchase)).Add(float64(amount))
	l.record(entry, snap)
	return snap.Balance, nil
}

// Debit removes credits if the balance covers the amount. On insufficient
// funds it returns ok=false and leaves state untouched. The returned balance
// is the balance after the attempt in both cases.
func (l *Ledger) Debit(userID string, amount int64, reason string) (balance int64, ok bool, err error) {
	if amount <= 0 {
		return 0, false, domain.ErrInvalidAmount
	}

	l.mu.Lock()
	acct, exists := l.accounts[userID]
	if !exists || acct.Balance < amount {
		if exists {
			balance = acct.Balance
		}
		l.mu.Unlock()
		observability.DebitRejections.WithLabelValues(reason).Inc()
		return balance, false, nil
	}
	acct.Balance -= amount
	entry := l.entryLocked(acct, domain.TxSpend, domain.EntryDebit, amount, reason)
	snap := *acct
	l.mu.Unlock()

	observability.CreditsDebited.WithLabelValues(reason).Add(float64(amount))
	l.record(entry, snap)
	return snap.Balance, true, nil
}

// ─── Referral Operations ────────────────────────────────────────────────────

// CompleteReferral rewards referrerID for inviting referee. The invite count,
// balance and earned credits change together or not at all.
func (l *Ledger) CompleteReferral(referrerID, referee string) (domain.ReferralStats, error) {
	reward := l.policy.Reward
	key := domain.NormalizeEmail(referee)

	l.mu.Lock()
	acct, ok := l.accounts[referrerID]
	if !ok || !acct.Registered() {
		l.mu.Unlock()
		return domain.ReferralStats{}, fmt.Errorf("referral by %s: %w", referrerID, domain.ErrUnregisteredReferrer)
	}
	if !fits(acct.Balance, reward) || !fits(acct.EarnedCredits, reward) {
		l.mu.Unlock()
		return domain.ReferralStats{}, fmt.Errorf("referral by %s: %w", referrerID, domain.ErrBalanceOverflow)
	}
	if l.policy.DedupReferrals {
		if _, seen := l.referees[referrerID][key]; seen {
			l.mu.Unlock()
			return domain.ReferralStats{}, fmt.Errorf("referral of %s by %s: %w", key, referrerID, domain.ErrDuplicateReferral)
		}
		if l.referees[referrerID] == nil {
			l.referees[referrerID] = make(map[string]struct{})
		}
		l.referees[referrerID][key] = struct{}{}
	}

	acct.InviteCount++
	acct.Balance += reward
	acct.EarnedCredits += reward
	entry := l.entryLocked(acct, domain.TxReferral, domain.EntryCredit, reward, key)
	snap := *acct
	l.mu.Unlock()

	observability.ReferralsCompleted.Inc()
	observability.CreditsGranted.WithLabelValues(string(domain.TxReferral)).Add(float64(reward))
	l.record(entry, snap)
	return l.statsOf(snap), nil
}

// ReferralStats returns the referral view of an account; zero value if absent.
func (l *Ledger) ReferralStats(userID string) domain.ReferralStats {
	l.mu.RLock()
	acct, ok := l.accounts[userID]
	var snap domain.Account
	if ok {
		snap = *acct
	}
	l.mu.RUnlock()

	if !ok {
		return domain.ReferralStats{}
	}
	return l.statsOf(snap)
}

// Account returns a copy of the account for userID.
func (l *Ledger) Account(userID string) (domain.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[userID]
	if !ok {
		return domain.Account{}, false
	}
	return *acct, true
}

// AccountCount returns the number of ledger entries (registered or not).
func (l *Ledger) AccountCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

// ─── Restore ────────────────────────────────────────────────────────────────

// Restore loads persisted accounts, replacing any in-memory account with the
// same id, and resumes numbering after lastSeq. It is meant to run once at
// boot before requests are served. referees feeds duplicate-referral
// detection; it is ignored when dedup is off and may be nil.
func (l *Ledger) Restore(accounts []domain.Account, lastSeq int64, referees map[string][]string) {
	l.mu.Lock()
	for i := range accounts {
		a := accounts[i]
		if a.UserID == "" {
			continue
		}
		l.accounts[a.UserID] = &a
		if a.ReferralCode != "" {
			l.codes[a.ReferralCode] = a.UserID
		}
		if a.Seq > l.seq {
			l.seq = a.Seq
		}
	}
	if lastSeq > l.seq {
		l.seq = lastSeq
	}
	if !l.policy.DedupReferrals {
		referees = nil
	}
	for referrer, list := range referees {
		if l.referees[referrer] == nil {
			l.referees[referrer] = make(map[string]struct{}, len(list))
		}
		for _, e := range list {
			l.referees[referrer][domain.NormalizeEmail(e)] = struct{}{}
		}
	}
	seq := l.seq
	total := len(l.accounts)
	l.mu.Unlock()

	observability.AccountsTotal.Set(float64(total))
	log.Printf("[ledger] restored %d accounts, seq=%d", len(accounts), seq)
}

// RestoreFrom restores the ledger from a persisted loader.
func (l *Ledger) RestoreFrom(src domain.AccountLoader) error {
	accounts, err := src.LoadAccounts()
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	lastSeq, err := src.MaxSeq()
	if err != nil {
		return fmt.Errorf("load seq: %w", err)
	}
	referees, err := src.Referees()
	if err != nil {
		return fmt.Errorf("load referees: %w", err)
	}
	l.Restore(accounts, lastSeq, referees)
	return nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

// entryLocked stamps the next sequence number on acct and builds its entry.
// Caller must hold the write lock.
func (l *Ledger) entryLocked(acct *domain.Account, tx domain.TransactionType, side domain.EntryType, amount int64, desc string) domain.LedgerEntry {
	l.seq++
	acct.Seq = l.seq
	return domain.LedgerEntry{
		Seq:         l.seq,
		Timestamp:   l.now(),
		Type:        tx,
		EntryType:   side,
		Account:     acct.UserID,
		Amount:      amount,
		Description: desc,
		Balance:     acct.Balance,
	}
}

// record forwards an entry to the journal. Journal failures never undo the
// in-memory mutation.
func (l *Ledger) record(entry domain.LedgerEntry, acct domain.Account) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Record(entry, acct); err != nil {
		observability.JournalErrors.Inc()
		log.Printf("[ledger] journal seq=%d account=%s: %v", entry.Seq, entry.Account, err)
	}
}

// fits reports whether balance+amount stays within int64.
func fits(balance, amount int64) bool {
	return amount <= math.MaxInt64-balance
}

func (l *Ledger) statsOf(a domain.Account) domain.ReferralStats {
	return domain.ReferralStats{
		Code:          a.ReferralCode,
		Link:          l.policy.Link(a.ReferralCode),
		Invites:       a.InviteCount,
		EarnedCredits: a.EarnedCredits,
	}
}

// newCodeLocked generates a unique code: lowercased username plus four digits.
// Caller must hold the write lock.
func (l *Ledger) newCodeLocked(username string) string {
	base := codeBase(username)
	for i := 0; i < maxCodeAttempts; i++ {
		code := fmt.Sprintf("%s%d", base, 1000+rand.IntN(9000))
		if _, taken := l.codes[code]; !taken {
			return code
		}
	}
	// Four digits exhausted for this base; widen until free.
	for {
		code := fmt.Sprintf("%s%d", base, 10000+rand.IntN(90000000))
		if _, taken := l.codes[code]; !taken {
			return code
		}
	}
}

func codeBase(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
