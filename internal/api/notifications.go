package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scryptex/scryptex/internal/app/notify"
	"github.com/scryptex/scryptex/internal/domain"
)

// ─── Notification API ───────────────────────────────────────────────────────
//
// GET    /api/notifications            — newest first, ?limit=N
// POST   /api/notifications            — create
// POST   /api/notifications/mark-read  — ?notification_id=ID or ?all=true
// DELETE /api/notifications/{id}       — delete

// NotificationAPI exposes the notification feed.
type NotificationAPI struct {
	Notify      *notify.Service
	DefaultUser string
}

type createNotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// HandleList returns the caller's notifications.
// GET /api/notifications
func (n *NotificationAPI) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := n.Notify.List(requestUser(r, n.DefaultUser), limit)
	writeOK(w, "Notifications retrieved successfully", items)
}

// HandleCreate adds a notification to the caller's feed.
// POST /api/notifications
func (n *NotificationAPI) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	typ := domain.NotificationType(req.Type)
	if req.Type != "" && !typ.Valid() {
		writeError(w, http.StatusBadRequest, "type must be one of info, success, warning, error")
		return
	}

	item := n.Notify.Add(requestUser(r, n.DefaultUser), req.Title, req.Message, typ)
	writeOK(w, "Notification created successfully", item)
}

// HandleMarkRead marks one or all notifications as read.
// POST /api/notifications/mark-read
func (n *NotificationAPI) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r, n.DefaultUser)
	q := r.URL.Query()

	if all, _ := strconv.ParseBool(q.Get("all")); all {
		count := n.Notify.MarkAllRead(userID)
		writeOK(w, "All notifications marked as read", map[string]int{"marked_count": count})
		return
	}

	id := q.Get("notification_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Notification ID required")
		return
	}
	item, err := n.Notify.MarkRead(userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, "Notification marked as read", item)
}

// HandleDelete removes a notification.
// DELETE /api/notifications/{id}
func (n *NotificationAPI) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := n.Notify.Delete(requestUser(r, n.DefaultUser), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeOK(w, "Notification deleted successfully", map[string]string{"id": id})
}
