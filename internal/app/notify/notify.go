// Package notify keeps a bounded in-memory notification feed per user.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scryptex/scryptex/internal/domain"
)

const (
	DefaultMaxPerUser = 100
	DefaultLimit      = 5
)

// Service stores notifications. Feeds are append-only slices, oldest first;
// when a feed exceeds maxPerUser the oldest entries are dropped.
type Service struct {
	mu           sync.Mutex
	feeds        map[string][]*domain.Notification
	maxPerUser   int
	defaultLimit int
	now          func() time.Time
}

// NewService creates a notification service. Non-positive values fall back
// to DefaultMaxPerUser and DefaultLimit.
func NewService(maxPerUser, defaultLimit int) *Service {
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxPerUser
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Service{
		feeds:        make(map[string][]*domain.Notification),
		maxPerUser:   maxPerUser,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// Add appends a notification to userID's feed. An unknown type becomes info.
func (s *Service) Add(userID, title, message string, typ domain.NotificationType) domain.Notification {
	if !typ.Valid() {
		typ = domain.NotifyInfo
	}
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	feed := append(s.feeds[userID], n)
	if over := len(feed) - s.maxPerUser; over > 0 {
		feed = append([]*domain.Notification(nil), feed[over:]...)
	}
	s.feeds[userID] = feed
	return *n
}

// List returns up to limit notifications, newest first. limit <= 0 uses the
// service default.
func (s *Service) List(userID string, limit int) []domain.Notification {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.feeds[userID]
	result := make([]domain.Notification, 0, min(limit, len(feed)))
	for i := len(feed) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, *feed[i])
	}
	return result
}

// MarkRead marks one notification as read and returns it.
func (s *Service) MarkRead(userID, id string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.feeds[userID] {
		if item.ID == id {
			item.Read = true
			return *item, nil
		}
	}
	return domain.Notification{}, fmt.Errorf("notification %s: %w", id, domain.ErrNotificationNotFound)
}

// MarkAllRead marks every unread notification as read and returns how many
// changed.
func (s *Service) MarkAllRead(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.feeds[userID] {
		if !item.Read {
			item.Read = true
			n++
		}
	}
	return n
}

// Delete removes one notification.
func (s *Service) Delete(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.feeds[userID]
	for i, item := range feed {
		if item.ID == id {
			s.feeds[userID] = append(feed[:i], feed[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, domain.ErrNotificationNotFound)
}
