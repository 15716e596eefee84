package api

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/scryptex/scryptex/internal/app/ledger"
	"github.com/scryptex/scryptex/internal/app/notify"
	"github.com/scryptex/scryptex/internal/domain"
)

// ─── Referral API ───────────────────────────────────────────────────────────
//
// GET  /api/referral — code, link, invites, earned credits
// POST /api/referral — complete a referral for referee_email

// ReferralAPI exposes referral operations.
type ReferralAPI struct {
	Ledger      *ledger.Ledger
	Notify      *notify.Service
	DefaultUser string
}

type referralRequest struct {
	RefereeEmail string `json:"referee_email"`
}

// HandleStats returns the caller's referral stats (zero value if unknown).
// GET /api/referral
func (a *ReferralAPI) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := a.Ledger.ReferralStats(requestUser(r, a.DefaultUser))
	writeOK(w, "Referral stats retrieved successfully", stats)
}

// HandleComplete credits the caller for referring referee_email.
// POST /api/referral
func (a *ReferralAPI) HandleComplete(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r, a.DefaultUser)

	var req referralRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	addr, err := mail.ParseAddress(req.RefereeEmail)
	if err != nil {
		writeError(w, http.StatusBadRequest, "referee_email must be a valid email address")
		return
	}

	stats, err := a.Ledger.CompleteReferral(userID, addr.Address)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a.Notify.Add(userID,
		"Referral successful!",
		fmt.Sprintf("You earned %d credits for referring %s", a.Ledger.Policy().Reward, addr.Address),
		domain.NotifySuccess)

	writeOK(w, "Referral processed successfully", stats)
}
