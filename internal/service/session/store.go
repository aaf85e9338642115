package session

import (
	"sort"
	"sync"
	"time"

	"CryptoInsight/internal/domain/models"
	applogger "CryptoInsight/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultTimeout       = time.Hour
	DefaultSweepInterval = 15 * time.Minute
)

type handle struct {
	token        string
	lastActivity time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTimeout sets the inactivity timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSweepInterval sets how often idle sessions are collected. Zero disables the loop.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepInterval = d }
}

// WithLogger sets the store logger.
func WithLogger(l *applogger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithExpireHook is called with the token of every removed session, outside the lock.
func WithExpireHook(fn func(token string)) Option {
	return func(s *Store) { s.onRemove = fn }
}

// WithTokenFunc overrides token generation.
func WithTokenFunc(fn func(userID string) string) Option {
	return func(s *Store) { s.newToken = fn }
}

// Store maps user ids to opaque conversation tokens with inactivity expiry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*handle

	now           func() time.Time
	timeout       time.Duration
	sweepInterval time.Duration
	logger        *applogger.Logger
	onRemove      func(token string)
	newToken      func(userID string) string

	stop     chan struct{}
	done     chan struct{}
	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
}

// New builds a store. Call Start to run the background sweep.
func New(opts ...Option) *Store {
	s := &Store{
		sessions:      make(map[string]*handle),
		now:           time.Now,
		timeout:       DefaultTimeout,
		sweepInterval: DefaultSweepInterval,
		logger:        applogger.NewNop(),
		newToken:      func(string) string { return "session-" + uuid.NewString() },
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the live token for userID, creating one if needed,
// and refreshes its last-activity time.
func (s *Store) GetOrCreate(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if h, ok := s.sessions[userID]; ok {
		h.lastActivity = now
		s.logger.Debug("session reused", applogger.String("user_id", userID), applogger.String("token", h.token))
		return h.token
	}

	h := &handle{token: s.newToken(userID), lastActivity: now}
	s.sessions[userID] = h
	s.logger.Info("session created", applogger.String("user_id", userID), applogger.String("token", h.token))
	return h.token
}

// Clear removes the session for userID. Missing users are ignored.
func (s *Store) Clear(userID string) bool {
	s.mu.Lock()
	h, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	if ok {
		s.logger.Info("session cleared", applogger.String("user_id", userID))
		s.notify(h.token)
	}
	return ok
}

// ClearAll drops every session and returns how many were removed.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	removed := s.sessions
	s.sessions = make(map[string]*handle)
	s.mu.Unlock()

	for _, h := range removed {
		s.notify(h.token)
	}
	s.logger.Info("sessions cleared", applogger.Int("count", len(removed)))
	return len(removed)
}

// Stats lists live sessions. Users are sorted for stable output.
func (s *Store) Stats() models.SessionStats {
	s.mu.Lock()
	users := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		users = append(users, id)
	}
	s.mu.Unlock()

	sort.Strings(users)
	return models.SessionStats{ActiveSessions: len(users), Users: users}
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the timeout.
func (s *Store) Sweep() int {
	s.mu.Lock()
	now := s.now()
	var expired []string
	for id, h := range s.sessions {
		if now.Sub(h.lastActivity) > s.timeout {
			expired = append(expired, h.token)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, token := range expired {
		s.notify(token)
	}
	if len(expired) > 0 {
		s.logger.Info("expired sessions cleaned", applogger.Int("count", len(expired)))
	}
	return len(expired)
}

func (s *Store) notify(token string) {
	if s.onRemove != nil {
		s.onRemove(token)
	}
}

// Start launches the sweep loop. Safe to call more than once.
func (s *Store) Start() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true
	if s.sweepInterval <= 0 {
		close(s.done)
		return
	}
	go s.loop()
}

func (s *Store) loop() {
	defer close(s.done)
	t := time.NewTicker(s.sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.Sweep()
			s.logger.Info("session stats", applogger.Int("active", s.Count()))
		}
	}
}

// Stop ends the sweep loop and waits for it.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.startMu.Lock()
	started := s.started
	s.startMu.Unlock()
	if started {
		<-s.done
	}
}
