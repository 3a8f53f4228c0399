package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store keeps one active order session per user in memory. Different
// users may hit the store concurrently; mutations of the same session
// are serialized by the caller, which dispatches one action at a time
// per user.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*OrderSession
	logger   *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	logger.Info("Session store initialized")
	return &Store{
		sessions: make(map[int64]*OrderSession),
		logger:   logger,
	}
}

// Create starts a fresh session for the user, overwriting any prior one.
func (st *Store) Create(userID int64) *OrderSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &OrderSession{
		UserID:         userID,
		Step:           StepStart,
		Specifications: make(map[string]string),
		CreatedAt:      time.Now(),
	}
	st.sessions[userID] = s

	st.logger.Info("Created new session", zap.Int64("user_id", userID))
	return s
}

// Get returns the user's active session, if any.
func (st *Store) Get(userID int64) (*OrderSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[userID]
	return s, ok
}

// FieldChanges is a typed partial update: only non-nil fields are
// applied. CustomerPhone pointing at an empty string records an
// explicit skip.
type FieldChanges struct {
	Step            *OrderStep
	ServiceID       *int64
	ServiceName     *string
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	DeliveryNeeded  *bool
	DeliveryDetails *string
}

// Update applies the given changes to the user's session. Returns
// false when no session exists.
func (st *Store) Update(userID int64, ch FieldChanges) (*OrderSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[userID]
	if !ok {
		st.logger.Warn("Update for unknown session", zap.Int64("user_id", userID))
		return nil, false
	}

	if ch.Step != nil {
		s.Step = *ch.Step
	}
	if ch.ServiceID != nil {
		s.ServiceID = ch.ServiceID
	}
	if ch.ServiceName != nil {
		s.ServiceName = *ch.ServiceName
	}
	if ch.CustomerName != nil {
		s.CustomerName = *ch.CustomerName
	}
	if ch.CustomerEmail != nil {
		s.CustomerEmail = *ch.CustomerEmail
	}
	if ch.CustomerPhone != nil {
		s.CustomerPhone = ch.CustomerPhone
	}
	if ch.DeliveryNeeded != nil {
		s.DeliveryNeeded = ch.DeliveryNeeded
	}
	if ch.DeliveryDetails != nil {
		s.DeliveryDetails = *ch.DeliveryDetails
	}

	return s, true
}

// Clear drops the user's session. Returns true iff one existed.
func (st *Store) Clear(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[userID]; !ok {
		return false
	}
	delete(st.sessions, userID)
	st.logger.Info("Cleared session", zap.Int64("user_id", userID))
	return true
}

// Count returns the number of active sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep deletes every session older than maxAge and returns how many
// were removed. Safe to run concurrently with request handling: it
// only touches entries already past the threshold.
func (st *Store) Sweep(maxAge time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	now := time.Now()
	for userID, s := range st.sessions {
		if now.Sub(s.CreatedAt) > maxAge {
			delete(st.sessions, userID)
			removed++
		}
	}

	if removed > 0 {
		st.logger.Info("Swept old sessions", zap.Int("removed", removed))
	}
	return removed
}

// RunSweeper runs the periodic sweep until ctx is cancelled. A crash
// between order submission and session clear can leave an orphaned
// session behind; this loop is the recovery path for those.
func (st *Store) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			st.Sweep(maxAge)
		}
	}
}
