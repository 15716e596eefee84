// Package domain holds the credit service's business types.
// It imports nothing outside the standard library.
package domain

import (
	"strings"
	"time"
)

// ─── Account Types ──────────────────────────────────────────────────────────

// Account is one user's economic state: credit balance plus referral counters.
// Values handed out by the ledger are copies; mutating them has no effect.
type Account struct {
	UserID        string    `json:"user_id"`
	Username      string    `json:"username,omitempty"`
	Balance       int64     `json:"balance"`
	ReferralCode  string    `json:"referral_code"`
	InviteCount   int64     `json:"invite_count"`
	EarnedCredits int64     `json:"earned_credits"`
	CreatedAt     time.Time `json:"created_at"`
	Seq           int64     `json:"seq"` // ledger sequence of the last mutation
}

// Registered reports whether the account went through signup (has a referral code).
func (a Account) Registered() bool {
	return a.ReferralCode != ""
}

// ─── Feature & Payment Enums ────────────────────────────────────────────────

// FeatureType is a paid product feature that consumes credits.
type FeatureType string

const (
	FeatureAnalyze FeatureType = "analyze"
	FeatureFarming FeatureType = "farming"
	FeatureTwitter FeatureType = "twitter"
	FeatureAirdrop FeatureType = "airdrop"
)

// Valid reports whether f is a known feature.
func (f FeatureType) Valid() bool {
	switch f {
	case FeatureAnalyze, FeatureFarming, FeatureTwitter, FeatureAirdrop:
		return true
	}
	return false
}

// PaymentMethod is how a credit purchase was settled.
type PaymentMethod string

const (
	PaymentOnchain  PaymentMethod = "onchain"
	PaymentOffchain PaymentMethod = "offchain"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnchain || m == PaymentOffchain
}

// ─── Utilities ──────────────────────────────────────────────────────────────

// NormalizeEmail lowercases and trims an email so that referee comparisons
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
