package token

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/skylens/go-api-client/internal/apierrors"
	"github.com/skylens/go-api-client/sessions"
	"github.com/skylens/go-api-client/users"
)

const (
	// refreshMargin is how long before expiry a proactive refresh fires.
	refreshMargin = 2 * time.Minute
	// minRefreshDelay is the floor for the proactive refresh delay.
	minRefreshDelay = 30 * time.Second
	// fallbackRefreshDelay is used when the token's expiry cannot be read.
	fallbackRefreshDelay = 5 * time.Minute

	defaultRefreshTimeout = 30 * time.Second
)

// Refresher exchanges the ambient refresh credential (a same-site cookie held
// by the HTTP client's jar) for a new access token. Implemented by the API
// client.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Manager is the single authority for the access-token lifecycle:
// acquisition, proactive renewal, single-flight refresh, and logout
// tombstoning. It owns the session store writes and the short-TTL profile
// cache; no other component writes the access token.
//
// Construct one per application at the composition root and pass it by
// reference to the HTTP client and auth use-cases.
type Manager struct {
	store     *sessions.Store
	refresher Refresher
	expiry    ExpiryExtractor
	userCache *UserCache
	log       zerolog.Logger

	group          singleflight.Group
	nowFunc        func() time.Time
	timerFunc      func(d time.Duration, f func()) *time.Timer
	refreshTimeout time.Duration

	mu           sync.Mutex
	loggedOut    bool
	pendingTimer *time.Timer
	language     string
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithTimerFunc sets the one-shot timer constructor (primarily for testing)
func WithTimerFunc(timerFunc func(d time.Duration, f func()) *time.Timer) ManagerOption {
	return func(m *Manager) {
		m.timerFunc = timerFunc
	}
}

// WithExpiryExtractor replaces the default JWT expiry extractor.
func WithExpiryExtractor(extractor ExpiryExtractor) ManagerOption {
	return func(m *Manager) {
		m.expiry = extractor
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithRefreshTimeout bounds the network call made by a scheduled refresh.
func WithRefreshTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshTimeout = timeout
	}
}

// WithLanguage sets the locale tag used to localize error messages.
func WithLanguage(lang string) ManagerOption {
	return func(m *Manager) {
		m.language = lang
	}
}

// NewManager initializes a new Manager with required dependencies.
// Optional configuration can be provided via options (e.g. WithNowFunc for
// testing).
func NewManager(store *sessions.Store, refresher Refresher, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewManager] refresher is required")
	}

	m := &Manager{
		store:          store,
		refresher:      refresher,
		expiry:         NewJWTExpiry(),
		log:            zerolog.Nop(),
		nowFunc:        time.Now,
		timerFunc:      time.AfterFunc,
		refreshTimeout: defaultRefreshTimeout,
	}

	for _, opt := range options {
		opt(m)
	}

	m.userCache = &UserCache{ttl: UserDataTTL, nowFunc: m.nowFunc}

	return m, nil
}

// SetAccessToken writes a newly issued token into the session store and
// (re)schedules its proactive refresh. After a logout the write is silently
// dropped until ResetLogoutState is called.
//
// The store write happens under the manager lock so it is ordered against
// ClearTokens: a logout can never be trailed by a stale token write.
func (m *Manager) SetAccessToken(accessToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loggedOut {
		m.log.Debug().Msg("dropping access token write after logout")
		return
	}
	m.stopTimerLocked()
	if accessToken != "" {
		m.scheduleRefreshLocked(accessToken)
	}
	m.store.Write(accessToken)
}

// RefreshAccessToken obtains a fresh access token. Concurrent callers share a
// single in-flight refresh and observe the same outcome; at most one network
// call is made at a time.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	if m.isLoggedOut() {
		return "", apierrors.SessionExpired(m.Language())
	}

	// Duplicate callers join the first caller's flight, context included.
	v, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		return m.performRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// performRefresh runs inside the single-flight group. The tombstone is
// re-checked after the network call: a logout issued while the request was
// outstanding wins over its result, so a completed refresh can never
// resurrect a logged-out session.
func (m *Manager) performRefresh(ctx context.Context) (string, error) {
	if m.isLoggedOut() {
		return "", apierrors.SessionExpired(m.Language())
	}

	accessToken, err := m.refresher.Refresh(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("token refresh failed")
		return "", err
	}

	if m.isLoggedOut() {
		m.log.Debug().Msg("discarding refresh result, logged out while request was in flight")
		return "", apierrors.SessionExpired(m.Language())
	}

	m.SetAccessToken(accessToken)
	return accessToken, nil
}

// InitializeToken silently restores a session at application start from the
// ambient refresh credential, with no prior access token in memory.
func (m *Manager) InitializeToken(ctx context.Context) (string, error) {
	return m.RefreshAccessToken(ctx)
}

// ClearTokens is the terminal operation of a logout: it sets the tombstone,
// cancels any pending proactive refresh, drops the cached profile, and resets
// the session. Effective even while a refresh is in flight.
func (m *Manager) ClearTokens() {
	m.mu.Lock()
	m.loggedOut = true
	m.stopTimerLocked()
	m.store.Clear()
	m.mu.Unlock()

	// A future refresh starts a new flight rather than joining a stale one.
	m.group.Forget("refresh")

	m.userCache.Clear()
	m.log.Debug().Msg("cleared tokens and session state")
}

// ResetLogoutState lifts the logout tombstone so a fresh login can set tokens
// again.
func (m *Manager) ResetLogoutState() {
	m.mu.Lock()
	m.loggedOut = false
	m.mu.Unlock()
}

// Close releases the manager's timer resources. Call on session teardown.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.mu.Unlock()
}

// SetCachedUserData stores the profile in the short-TTL cache.
func (m *Manager) SetCachedUserData(data *users.User) {
	m.userCache.Set(data)
}

// GetCachedUserData returns the cached profile, or nil when absent or expired.
func (m *Manager) GetCachedUserData() *users.User {
	return m.userCache.Get()
}

// ClearCache drops the cached profile without touching the session.
func (m *Manager) ClearCache() {
	m.userCache.Clear()
}

// SetLanguage sets the locale tag used to localize error messages.
func (m *Manager) SetLanguage(lang string) {
	m.mu.Lock()
	m.language = lang
	m.mu.Unlock()
}

// Language returns the current locale tag.
func (m *Manager) Language() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.language
}

func (m *Manager) isLoggedOut() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loggedOut
}

// scheduleRefreshLocked arms the proactive refresh timer for the given token.
// Callers must hold m.mu and have stopped any previous timer.
func (m *Manager) scheduleRefreshLocked(accessToken string) {
	delay := m.refreshDelay(accessToken)
	m.pendingTimer = m.timerFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
		defer cancel()
		if _, err := m.RefreshAccessToken(ctx); err != nil {
			m.log.Warn().Err(err).Msg("scheduled token refresh failed")
		}
	})
	m.log.Debug().Dur("delay", delay).Msg("scheduled proactive token refresh")
}

// refreshDelay computes how long to wait before proactively refreshing:
// refreshMargin before expiry, never sooner than minRefreshDelay. A token
// whose expiry cannot be read gets the fallback delay instead of an error.
func (m *Manager) refreshDelay(accessToken string) time.Duration {
	expiresAt, err := m.expiry.ExpiresAt(accessToken)
	if err != nil {
		m.log.Debug().Err(err).Msg("could not read token expiry, using fallback refresh delay")
		return fallbackRefreshDelay
	}
	delay := expiresAt.Sub(m.nowFunc()) - refreshMargin
	if delay < minRefreshDelay {
		delay = minRefreshDelay
	}
	return delay
}

// stopTimerLocked cancels the pending proactive refresh, if armed. Callers
// must hold m.mu.
func (m *Manager) stopTimerLocked() {
	if m.pendingTimer != nil {
		m.pendingTimer.Stop()
		m.pendingTimer = nil
	}
}
