package api

import (
	"fmt"
	"net/http"

	"github.com/scryptex/scryptex/internal/app/ledger"
	"github.com/scryptex/scryptex/internal/app/notify"
	"github.com/scryptex/scryptex/internal/domain"
)

// ─── Credit API ─────────────────────────────────────────────────────────────
//
// GET  /api/credit          — current balance
// POST /api/credit/buy      — grant purchased credits
// POST /api/credit/consume  — debit credits for a feature
// GET  /api/credit/history  — journaled entries, newest first

// CreditAPI exposes balance operations.
type CreditAPI struct {
	Ledger      *ledger.Ledger
	Notify      *notify.Service
	History     HistoryStore
	DefaultUser string
}

type buyRequest struct {
	Method string `json:"method"`
	Amount int64  `json:"amount"`
}

type consumeRequest struct {
	FeatureType string `json:"feature_type"`
	Amount      *int64 `json:"amount"`
}

// HandleBalance returns the caller's balance.
// GET /api/credit
func (c *CreditAPI) HandleBalance(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r, c.DefaultUser)
	writeOK(w, "Credit balance retrieved successfully", map[string]any{
		"user_id": userID,
		"balance": c.Ledger.GetBalance(userID),
	})
}

// HandleBuy grants purchased credits.
// POST /api/credit/buy
func (c *CreditAPI) HandleBuy(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r, c.DefaultUser)

	var req buyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	method := domain.PaymentMethod(req.Method)
	if !method.Valid() {
		writeError(w, http.StatusBadRequest, "method must be onchain or offchain")
		return
	}

	balance, err := c.Ledger.Grant(userID, req.Amount, string(method))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	c.Notify.Add(userID,
		fmt.Sprintf("Credits purchased: %d", req.Amount),
		fmt.Sprintf("Payment method: %s. New balance: %d", method, balance),
		domain.NotifySuccess)

	writeOK(w, fmt.Sprintf("Successfully purchased %d credits", req.Amount), map[string]any{
		"user_id":                userID,
		"purchased":              req.Amount,
		"balance":                balance,
		"transaction_successful": true,
		"payment_method":         method,
	})
}

// HandleConsume debits credits for a feature. Insufficient funds is a
// normal 200 response with success=false.
// POST /api/credit/consume
func (c *CreditAPI) HandleConsume(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r, c.DefaultUser)

	var req consumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	feature := domain.FeatureType(req.FeatureType)
	if !feature.Valid() {
		writeError(w, http.StatusBadRequest, "feature_type must be one of analyze, farming, twitter, airdrop")
		return
	}
	amount := int64(1)
	if req.Amount != nil {
		amount = *req.Amount
	}

	balance, ok, err := c.Ledger.Debit(userID, amount, string(feature))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeEnvelope(w, http.StatusOK, false, "Insufficient credits", map[string]any{
			"user_id":                userID,
			"balance":                balance,
			"transaction_successful": false,
		})
		return
	}

	c.Notify.Add(userID,
		fmt.Sprintf("Credits used: %d", amount),
		fmt.Sprintf("Feature: %s. Remaining balance: %d", feature, balance),
		domain.NotifyInfo)

	writeOK(w, fmt.Sprintf("Successfully consumed %d credits for %s", amount, feature), map[string]any{
		"user_id":                userID,
		"consumed":               amount,
		"balance":                balance,
		"feature_used":           feature,
		"transaction_successful": true,
	})
}

// HandleHistory lists journaled entries for the caller.
// GET /api/credit/history?limit=N
func (c *CreditAPI) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if c.History == nil {
		writeError(w, http.StatusServiceUnavailable, "credit history not available")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := c.History.ListEntries(requestUser(r, c.DefaultUser), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, "Credit history retrieved successfully", entries)
}
