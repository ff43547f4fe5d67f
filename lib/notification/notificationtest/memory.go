// Package notificationtest provides an in-memory notification store for tests.
package notificationtest

import (
	"sort"
	"sync"
	"time"

	notificationstore "org-portal-backend/lib/notification/store"
	dbmodels "org-portal-backend/models/db"

	"github.com/google/uuid"
)

// Store mirrors the dedup index of the notifications table
type Store struct {
	mu   sync.Mutex
	Rows []*dbmodels.Notification
}

var _ notificationstore.Provider = (*Store)(nil)

func (s *Store) Create(rec dbmodels.Notification) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.DedupKey != "" {
		for _, row := range s.Rows {
			if row.RelatedEntityID == rec.RelatedEntityID &&
				row.NotificationType == rec.NotificationType &&
				row.DedupKey == rec.DedupKey {
				return "", false, nil
			}
		}
	}
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now()
	s.Rows = append(s.Rows, &rec)
	return rec.ID, true, nil
}

func (s *Store) GetByID(id string) (*dbmodels.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.Rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *Store) List(userID string, unreadOnly bool) ([]dbmodels.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []dbmodels.Notification{}
	for _, row := range s.Rows {
		if row.UserID == userID && (!unreadOnly || !row.IsRead) {
			list = append(list, *row)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *Store) ListNotPushed(userID string) ([]dbmodels.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []dbmodels.Notification{}
	for _, row := range s.Rows {
		if row.UserID == userID && !row.IsPushed && !row.IsRead {
			list = append(list, *row)
		}
	}
	return list, nil
}

func (s *Store) MarkRead(userID string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, row := range s.Rows {
		if row.UserID == userID && contains(ids, row.ID) {
			row.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkPushed(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.Rows {
		if contains(ids, row.ID) {
			row.IsPushed = true
		}
	}
	return nil
}

func (s *Store) UpdateFlags(id string, updMap map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.Rows {
		if row.ID != id {
			continue
		}
		if v, ok := updMap["sent_whats_app"].(bool); ok {
			row.SentWhatsApp = v
		}
		if v, ok := updMap["sent_email"].(bool); ok {
			row.SentEmail = v
		}
		if v, ok := updMap["sent_sms"].(bool); ok {
			row.SentSms = v
		}
	}
	return nil
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Rows)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
