// Package session tracks per-call conversation context across webhook turns.
// The telephony provider keeps no server-side state between turns, so this
// store is the only memory a live call has.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

// Store is the injectable session dependency. Get auto-creates: a session is
// never read before creation. Update is the per-key read-modify-write path;
// overlapping turns for one call identifier must not lose writes, so all
// mutation goes through it rather than Get-then-Put across suspension points.
type Store interface {
	Get(ctx context.Context, callSID string) (*models.Session, error)
	Put(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, callSID string, mutate func(*models.Session)) (*models.Session, error)
	Delete(ctx context.Context, callSID string) error
	Sweep(ctx context.Context, ttl time.Duration, chunkSize int) (int, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is the in-process map implementation, the stand-in for an
// external store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewMemoryStore(logger *logrus.Logger, m *metrics.Metrics) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		logger:   logger,
		metrics:  m,
	}
}

// Get returns a snapshot of the session, creating it with defaults on first
// access.
func (s *MemoryStore) Get(ctx context.Context, callSID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.getOrCreateLocked(callSID)), nil
}

// Put stores a session wholesale, stamping LastUpdated.
func (s *MemoryStore) Put(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.CallSID]; !exists {
		s.metrics.ActiveSessions.Inc()
	}
	stored := cloneSession(session)
	stored.LastUpdated = time.Now()
	s.sessions[session.CallSID] = stored
	return nil
}

// Update runs the mutator under the store lock so overlapping turns for the
// same call cannot interleave read-then-write. The mutator must not block.
func (s *MemoryStore) Update(ctx context.Context, callSID string, mutate func(*models.Session)) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateLocked(callSID)
	mutate(session)
	session.LastUpdated = time.Now()
	return cloneSession(session), nil
}

func (s *MemoryStore) Delete(ctx context.Context, callSID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[callSID]; exists {
		delete(s.sessions, callSID)
		s.metrics.ActiveSessions.Dec()
		s.metrics.SessionsEvicted.Inc()
	}
	return nil
}

// Sweep evicts sessions idle past the TTL, examining chunkSize entries per
// lock acquisition so a long pass never blocks a concurrent turn handler.
func (s *MemoryStore) Sweep(ctx context.Context, ttl time.Duration, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = 100
	}

	s.mu.Lock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	evicted := 0
	now := time.Now()

	for start := 0; start < len(keys); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}

		end := start + chunkSize
		if end > len(keys) {
			end = len(keys)
		}

		s.mu.Lock()
		for _, k := range keys[start:end] {
			session, exists := s.sessions[k]
			if !exists {
				continue
			}
			if now.Sub(session.LastUpdated) > ttl {
				delete(s.sessions, k)
				s.metrics.ActiveSessions.Dec()
				s.metrics.SessionsEvicted.Inc()
				evicted++
			}
		}
		s.mu.Unlock()
	}

	if evicted > 0 {
		s.logger.WithField("evicted", evicted).Info("Swept expired call sessions")
	}
	return evicted, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}

func (s *MemoryStore) getOrCreateLocked(callSID string) *models.Session {
	if session, exists := s.sessions[callSID]; exists {
		return session
	}
	session := models.NewSession(callSID)
	s.sessions[callSID] = session
	s.metrics.ActiveSessions.Inc()
	return session
}

// cloneSession copies a session so callers never share the stored instance
// across the lock boundary.
func cloneSession(in *models.Session) *models.Session {
	out := *in
	out.SpeechHistory = append([]models.SpeechTurn(nil), in.SpeechHistory...)
	out.Intents = append([]models.Intent(nil), in.Intents...)
	out.GenerativeHistory = append([]models.GenerativeExchange(nil), in.GenerativeHistory...)
	out.GenerativeCache = make(map[string]string, len(in.GenerativeCache))
	for k, v := range in.GenerativeCache {
		out.GenerativeCache[k] = v
	}
	return &out
}
