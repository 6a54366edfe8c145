// Package session keeps the in-process view of who is signed in and for how
// much longer. It owns every write to the persisted token record.
package session

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/careerlink/session-gate/credentials"
	"github.com/careerlink/session-gate/internal/errors"
	"github.com/careerlink/session-gate/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is a snapshot of the signed-in state. Role and SubjectID are nil
// whenever Authenticated is false.
type Session struct {
	Authenticated    bool    `json:"isAuthenticated"`
	Role             *string `json:"role,omitempty"`
	SubjectID        *string `json:"subjectId,omitempty"`
	RemainingSeconds int     `json:"remainingSeconds"`
}

// Manager is the single writer of the persisted token record.
type Manager struct {
	store   credentials.Store
	nowFunc func() time.Time
	logger  zerolog.Logger

	mu    sync.RWMutex
	state Session

	initOnce sync.Once
	initErr  error
	ready    chan struct{}
}

type Option func(*Manager)

func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func New(store credentials.Store, options ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: log.Logger,
		ready:  make(chan struct{}),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	m.logger = m.logger.With().Str("component", "session").Logger()

	return m
}

// Initialize loads the persisted record once. Later calls return the first
// result without touching the store. Ready is closed when it completes,
// whatever the outcome.
func (m *Manager) Initialize() error {
	m.initOnce.Do(func() {
		m.initErr = m.initialize()
		close(m.ready)
	})
	return m.initErr
}

func (m *Manager) initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Session{}

	rawToken, err := m.store.Get(credentials.KeyAccessToken)
	if errors.Is(err, errors.ErrNotFound) || (err == nil && strings.TrimSpace(rawToken) == "") {
		// an expiry without its token is cleared with it
		return m.clearLocked()
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("stored record is unreadable, signing out")
		if clearErr := m.clearLocked(); clearErr != nil {
			return errors.Join(errors.Wrapf(err, "[Initialize] read %s", credentials.KeyAccessToken), clearErr)
		}
		return nil
	}

	expiresAt, err := m.readExpiresAt()
	if err != nil {
		m.logger.Warn().Err(err).Msg("stored token has no usable expiry, signing out")
		return m.clearLocked()
	}

	remaining := remainingSeconds(expiresAt, m.nowFunc())
	if remaining == 0 {
		m.logger.Info().Msg("stored token has expired, signing out")
		return m.clearLocked()
	}

	claims := token.Decode(rawToken)
	m.state = Session{
		Authenticated:    true,
		Role:             claims.Role,
		SubjectID:        claims.SubjectID,
		RemainingSeconds: remaining,
	}
	m.logger.Debug().Int("remaining_seconds", remaining).Bool("claims_decoded", claims.Valid()).Msg("session restored")
	return nil
}

// Ready is closed once Initialize has run. Protected content must not be
// rendered before then.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Initialized reports whether Initialize has completed.
func (m *Manager) Initialized() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// SignIn persists rawToken with an expiry of now+ttl and marks the session
// authenticated. A token whose claims cannot be decoded still signs in, with
// an unknown role. An empty token is refused with ErrEmptyToken, since the
// record could not tell it apart from no token at all.
func (m *Manager) SignIn(rawToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.ErrInvalidTTL
	}
	if strings.TrimSpace(rawToken) == "" {
		return errors.ErrEmptyToken
	}

	now := m.nowFunc()
	expiresAt := now.Add(ttl).UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(credentials.KeyAccessToken, rawToken); err != nil {
		return errors.Wrapf(err, "[SignIn] write %s", credentials.KeyAccessToken)
	}
	if err := m.store.Set(credentials.KeyAccessTokenExpiresAt, strconv.FormatInt(expiresAt, 10)); err != nil {
		// never leave a token behind without its expiry
		clearErr := m.clearLocked()
		return errors.Join(errors.Wrapf(err, "[SignIn] write %s", credentials.KeyAccessTokenExpiresAt), clearErr)
	}

	claims := token.Decode(rawToken)
	if !claims.Valid() {
		m.logger.Warn().Msg("signed in with a token whose claims could not be decoded")
	}

	m.state = Session{
		Authenticated:    true,
		Role:             claims.Role,
		SubjectID:        claims.SubjectID,
		RemainingSeconds: remainingSeconds(expiresAt, now),
	}
	m.logger.Info().
		Str("role", derefOr(claims.Role, "unknown")).
		Int("remaining_seconds", m.state.RemainingSeconds).
		Msg("signed in")
	return nil
}

// SignOut clears the persisted record and resets the session. Signing out
// twice is harmless.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasAuthenticated := m.state.Authenticated
	if err := m.clearLocked(); err != nil {
		return err
	}
	if wasAuthenticated {
		m.logger.Info().Msg("signed out")
	}
	return nil
}

// clearLocked must be called with mu held.
func (m *Manager) clearLocked() error {
	m.state = Session{}
	return errors.Join(
		errors.Wrapf(m.store.Remove(credentials.KeyAccessToken), "remove %s", credentials.KeyAccessToken),
		errors.Wrapf(m.store.Remove(credentials.KeyAccessTokenExpiresAt), "remove %s", credentials.KeyAccessTokenExpiresAt),
	)
}

// Session returns a copy of the current state.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) RemainingSeconds() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.RemainingSeconds
}

// SetRemainingSeconds lets a countdown tick the value down. Negative values
// clamp to zero; an unauthenticated session always stays at zero.
func (m *Manager) SetRemainingSeconds(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Authenticated {
		return
	}
	m.state.RemainingSeconds = max(0, seconds)
}

// countDown removes one second and signs out when none remain, all under a
// single lock so a concurrent SignIn is never overwritten. active is false
// when there was no session to count down.
func (m *Manager) countDown() (remaining int, active bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Authenticated {
		return 0, false, nil
	}
	m.state.RemainingSeconds = max(0, m.state.RemainingSeconds-1)
	if m.state.RemainingSeconds > 0 {
		return m.state.RemainingSeconds, true, nil
	}
	return 0, true, m.clearLocked()
}

// Token returns the persisted bearer token, if any.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rawToken, err := m.store.Get(credentials.KeyAccessToken)
	if err != nil || rawToken == "" {
		return "", false
	}
	return rawToken, true
}

// ExpiresAt returns the persisted absolute expiry.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	millis, err := m.readExpiresAt()
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// Record returns the token and its expiry as one consistent pair.
func (m *Manager) Record() (string, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rawToken, err := m.store.Get(credentials.KeyAccessToken)
	if err != nil || rawToken == "" {
		return "", time.Time{}, false
	}
	millis, err := m.readExpiresAt()
	if err != nil {
		return "", time.Time{}, false
	}
	return rawToken, time.UnixMilli(millis), true
}

// Reader exposes the record without its write methods.
func (m *Manager) Reader() credentials.Reader {
	return readOnly{manager: m}
}

// IsExpiringSoon applies token.ExpiringSoon to the persisted token. No token
// counts as expiring.
func (m *Manager) IsExpiringSoon(threshold time.Duration) bool {
	rawToken, ok := m.Token()
	if !ok {
		return true
	}
	return token.ExpiringSoon(token.Decode(rawToken), m.nowFunc(), threshold)
}

func (m *Manager) readExpiresAt() (int64, error) {
	raw, err := m.store.Get(credentials.KeyAccessTokenExpiresAt)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", credentials.KeyAccessTokenExpiresAt)
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidExpiresAt, "parse %q", raw)
	}
	return millis, nil
}

func remainingSeconds(expiresAtMillis int64, now time.Time) int {
	diff := expiresAtMillis - now.UnixMilli()
	if diff <= 0 {
		return 0
	}
	return int(diff / 1000)
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

type readOnly struct {
	manager *Manager
}

func (r readOnly) Get(key string) (string, error) {
	r.manager.mu.RLock()
	defer r.manager.mu.RUnlock()
	return r.manager.store.Get(key)
}
