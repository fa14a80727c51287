// Package session keeps the server-side editing sessions that hold a draft
// controller between requests.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"sitecheck-backend/internal/inspection"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrBusy is returned when a save or submit is already running on the session
	ErrBusy = errors.New("save or submit already in progress")
)

// Session wraps one controller. All access goes through Do or Exclusive.
type Session struct {
	ID       string
	OwnerID  string
	OpenedAt time.Time

	controller *inspection.Controller
	mu         sync.Mutex
	inFlight   sync.Mutex
}

// Do runs fn while holding the session lock
func (s *Session) Do(fn func(c *inspection.Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.controller)
}

// Exclusive runs a save or submit. A second call while one is running
// returns ErrBusy instead of queueing.
func (s *Session) Exclusive(fn func(c *inspection.Controller) error) error {
	if !s.inFlight.TryLock() {
		return ErrBusy
	}
	defer s.inFlight.Unlock()
	return s.Do(fn)
}

// Manager is the session registry. Idle sessions expire after ttl.
type Manager struct {
	cache *cache.Cache
}

func NewManager(ttl time.Duration) *Manager {
	c := cache.New(ttl, ttl*2)
	c.OnEvicted(func(id string, _ interface{}) {
		log.Printf("⌛ Editing session %s closed", id)
	})
	return &Manager{cache: c}
}

// Open registers a controller for ownerID and returns the new session
func (m *Manager) Open(ownerID string, c *inspection.Controller) *Session {
	s := &Session{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		OpenedAt:   time.Now(),
		controller: c,
	}
	m.cache.Set(s.ID, s, cache.DefaultExpiration)
	log.Printf("📝 Opened %s session %s for user %s", c.Kind(), s.ID, ownerID)
	return s
}

// Get returns the owner's session and extends its lifetime. Sessions of
// other users are reported as not found.
func (m *Manager) Get(id, ownerID string) (*Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	if s.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	m.cache.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Close discards the session without touching its draft
func (m *Manager) Close(id, ownerID string) error {
	if _, err := m.Get(id, ownerID); err != nil {
		return err
	}
	m.cache.Delete(id)
	return nil
}

// Count reports open sessions, including expired ones not yet purged
func (m *Manager) Count() int {
	return m.cache.ItemCount()
}
