package domain

// ─── Referral Types ─────────────────────────────────────────────────────────
// A referral completion rewards the referrer: one more invite, a fixed credit
// grant, and the same amount added to earned_credits, all in one step.

// ReferralStats is the public view of an account's referral state.
// Unknown users read as the zero value.
type ReferralStats struct {
	Code          string `json:"code"`
	Link          string `json:"link"`
	Invites       int64  `json:"invites"`
	EarnedCredits int64  `json:"earned_credits"`
}

// ReferralPolicy defines signup and referral economics.
type ReferralPolicy struct {
	SignupGrant    int64  `json:"signup_grant"`    // credits on registration
	Reward         int64  `json:"reward"`          // credits per completed referral
	LinkBase       string `json:"link_base"`       // prefix for shareable links
	DedupReferrals bool   `json:"dedup_referrals"` // reject a repeat referee per referrer
}

// DefaultReferralPolicy returns the sample-data policy.
func DefaultReferralPolicy() ReferralPolicy {
	return ReferralPolicy{
		SignupGrant: 20,
		Reward:      10,
		LinkBase:    "https://scryptex.io/refer?code=",
	}
}

// Link builds the shareable referral link for a code.
func (p ReferralPolicy) Link(code string) string {
	if code == "" {
		return ""
	}
	return p.LinkBase + code
}
