// Package api provides the HTTP server for Scryptex.
// Every response uses one envelope: {success, message, data, timestamp}.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scryptex/scryptex/internal/app/ledger"
	"github.com/scryptex/scryptex/internal/app/notify"
	"github.com/scryptex/scryptex/internal/domain"
	"github.com/scryptex/scryptex/internal/infra/observability"
)

// DefaultUserID is used when a request carries no user_id query parameter.
const DefaultUserID = "user_1"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// HistoryStore serves journaled ledger entries.
type HistoryStore interface {
	ListEntries(account string, limit int) ([]domain.LedgerEntry, error)
}

// Server is the Scryptex HTTP API server.
type Server struct {
	ledger         *ledger.Ledger
	notes          *notify.Service
	history        HistoryStore // nil disables /api/credit/history
	rateLimit      int          // requests per minute per IP; 0 disables
	defaultUser    string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(l *ledger.Ledger, n *notify.Service) *Server {
	return &Server{ledger: l, notes: n, defaultUser: DefaultUserID}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHistory sets the journal used for credit history queries.
func (s *Server) SetHistory(h HistoryStore) { s.history = h }

// SetRateLimit enables per-IP rate limiting on /api routes, in requests
// per minute. Zero or less disables it.
func (s *Server) SetRateLimit(perMinute int) { s.rateLimit = perMinute }

// SetDefaultUser overrides the user id assumed when user_id is absent.
func (s *Server) SetDefaultUser(id string) {
	if id != "" {
		s.defaultUser = id
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observability.Instrument)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", handleStatus)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	credit := &CreditAPI{Ledger: s.ledger, Notify: s.notes, History: s.history, DefaultUser: s.defaultUser}
	referral := &ReferralAPI{Ledger: s.ledger, Notify: s.notes, DefaultUser: s.defaultUser}
	accounts := &AccountAPI{Ledger: s.ledger, Notify: s.notes}
	notes := &NotificationAPI{Notify: s.notes, DefaultUser: s.defaultUser}

	r.Route("/api", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(rateLimit(s.rateLimit, time.Minute))
		}
		r.Get("/ping", handleStatus)

		r.Route("/credit", func(r chi.Router) {
			r.Get("/", credit.HandleBalance)
			r.Post("/buy", credit.HandleBuy)
			r.Post("/consume", credit.HandleConsume)
			r.Get("/history", credit.HandleHistory)
		})

		r.Route("/referral", func(r chi.Router) {
			r.Get("/", referral.HandleStats)
			r.Post("/", referral.HandleComplete)
		})

		r.Post("/accounts", accounts.HandleRegister)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notes.HandleList)
			r.Post("/", notes.HandleCreate)
			r.Post("/mark-read", notes.HandleMarkRead)
			r.Delete("/{id}", notes.HandleDelete)
		})
	})

	return r
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "Scryptex is running", map[string]string{"status": "ok"})
}

// ─── Envelope ───────────────────────────────────────────────────────────────

// Envelope is the uniform response body.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, msg string, data any) {
	writeJSON(w, status, Envelope{
		Success:   success,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeOK(w http.ResponseWriter, msg string, data any) {
	writeEnvelope(w, http.StatusOK, true, msg, data)
}

// writeError writes a failed envelope with no data.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, false, msg, nil)
}

// writeDomainError maps sentinel errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[api] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Request Helpers ────────────────────────────────────────────────────────

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// requestUser returns the user_id query parameter or def.
func requestUser(r *http.Request, def string) string {
	if id := strings.TrimSpace(r.URL.Query().Get("user_id")); id != "" {
		return id
	}
	return def
}

// queryLimit parses the limit query parameter. Absent means 0 (service
// default); malformed or negative is an error.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

// corsMiddleware adds permissive CORS headers for the web dashboard.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
