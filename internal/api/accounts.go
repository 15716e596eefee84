package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/scryptex/scryptex/internal/app/ledger"
	"github.com/scryptex/scryptex/internal/app/notify"
	"github.com/scryptex/scryptex/internal/domain"
)

// ─── Account API ────────────────────────────────────────────────────────────
//
// POST /api/accounts — register an account with the signup grant

// AccountAPI exposes registration.
type AccountAPI struct {
	Ledger *ledger.Ledger
	Notify *notify.Service
}

type registerRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// HandleRegister creates an account. When user_id is omitted an id of the
// form user_<8 hex> is generated.
// POST /api/accounts
func (a *AccountAPI) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		writeError(w, http.StatusBadRequest, "username must be 3 to 50 characters")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}

	acct, err := a.Ledger.Register(userID, username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a.Notify.Add(userID,
		"Welcome to Scryptex!",
		"Thank you for joining. Start by exploring the dashboard.",
		domain.NotifySuccess)

	writeOK(w, "Account registered successfully", map[string]any{
		"account":  acct,
		"referral": a.Ledger.ReferralStats(userID),
	})
}
