// Package session owns the access/refresh token pair and answers "is the user
// logged in, and as whom". A Manager is created once per process and passed
// to whatever needs it.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/apiclient"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"github.com/DiegoxdGarcia2/smart-condominium/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const clearTimeout = 5 * time.Second

// ErrDisposed is returned by Initialize after Dispose.
var ErrDisposed = errors.New("session manager disposed")

type Credentials struct {
	Email    string
	Password string
}

// bootstrap is the single shared Initialize run.
type bootstrap struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

type Manager struct {
	client *apiclient.Client
	store  token.Store
	logger zerolog.Logger

	keepTokensOnUnavailable bool

	lock       sync.RWMutex
	status     Status
	pair       token.Pair
	user       *users.Profile
	generation uint64 // bumped by Login and Logout; stale results are dropped
	boot       *bootstrap
	disposed   bool
}

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithKeepTokensOnUnavailable keeps the persisted pair when the bootstrap
// profile call fails because the backend is unreachable or answering 5xx.
// The session still ends Unauthenticated for this run.
func WithKeepTokensOnUnavailable(keep bool) Option {
	return func(m *Manager) {
		m.keepTokensOnUnavailable = keep
	}
}

// New builds the Manager and installs it as the client's refresher.
func New(client *apiclient.Client, store token.Store, opts ...Option) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("[session.New] api client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[session.New] token store is required")
	}

	m := &Manager{
		client: client,
		store:  store,
		logger: log.Logger,
		status: Uninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}

	client.SetRefresher(m)
	return m, nil
}

// Initialize validates the persisted tokens against the profile endpoint. Every
// caller shares one run; once it has finished, later calls return the current
// status without touching the network. The returned error explains why a
// session with stored tokens ended Unauthenticated. ctx only bounds the wait.
func (m *Manager) Initialize(ctx context.Context) (Status, error) {
	m.lock.Lock()
	if m.disposed {
		m.lock.Unlock()
		return m.Status(), ErrDisposed
	}
	if m.boot == nil && m.status.Terminal() {
		status := m.status
		m.lock.Unlock()
		return status, nil
	}
	if m.boot == nil {
		bootCtx, cancel := context.WithCancel(context.Background())
		m.boot = &bootstrap{done: make(chan struct{}), cancel: cancel}
		m.status = Initializing
		go m.runBootstrap(bootCtx, m.boot, m.generation)
	}
	boot := m.boot
	m.lock.Unlock()

	select {
	case <-boot.done:
		return m.Status(), boot.err
	case <-ctx.Done():
		return m.Status(), ctx.Err()
	}
}

func (m *Manager) runBootstrap(ctx context.Context, boot *bootstrap, gen uint64) {
	defer close(boot.done)
	defer boot.cancel()

	pair, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Err(err).Msg("loading persisted tokens")
		boot.err = err
		m.endBootstrap(ctx, gen, true)
		return
	}
	if pair.IsEmpty() {
		m.endBootstrap(ctx, gen, false)
		return
	}

	if !m.apply(ctx, gen, func() { m.pair = pair }) {
		return
	}

	profile, err := m.fetchProfile(ctx)
	if ctx.Err() != nil {
		boot.err = ctx.Err()
		return
	}
	if err != nil {
		boot.err = err
		if m.keepTokensOnUnavailable && isUnavailable(err) {
			m.logger.Warn().Err(err).Msg("backend unavailable, keeping stored session")
			m.endBootstrap(ctx, gen, false)
			return
		}
		m.logger.Info().Err(err).Msg("stored session rejected")
		m.endBootstrap(ctx, gen, true)
		return
	}

	// The profile call may have refreshed the pair; take what is stored now.
	current, err := m.store.Load(ctx)
	if err != nil {
		current = m.Pair()
	}
	m.apply(ctx, gen, func() {
		m.pair = current
		m.user = profile
		m.status = Authenticated
	})
}

// endBootstrap settles an unsuccessful or empty bootstrap on Unauthenticated.
func (m *Manager) endBootstrap(ctx context.Context, gen uint64, logout bool) {
	if logout && ctx.Err() == nil && m.current(gen) {
		m.Logout()
		return
	}
	m.apply(ctx, gen, func() {
		m.user = nil
		m.status = Unauthenticated
	})
}

// apply runs mutate under the lock unless the manager was disposed, the run
// was cancelled, or a Login/Logout superseded it.
func (m *Manager) apply(ctx context.Context, gen uint64, mutate func()) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.disposed || ctx.Err() != nil || gen != m.generation {
		return false
	}
	mutate()
	return true
}

func (m *Manager) current(gen uint64) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return !m.disposed && gen == m.generation
}

// Dispose cancels a running bootstrap. Its results are discarded.
func (m *Manager) Dispose() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.disposed = true
	if m.boot != nil {
		m.boot.cancel()
	}
}

// Login exchanges credentials for a token pair, persists it and loads the
// profile. If the profile cannot be loaded the session is logged out and the
// profile error returned, so a failed login never leaves tokens behind.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*users.Profile, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", errors.ErrAuth)
	}

	pair, err := m.client.ObtainPair(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}

	// A pair without a refresh token must not inherit the previous session's.
	if pair.Refresh == "" {
		if err := m.store.Clear(ctx); err != nil {
			return nil, errors.Wrapf(err, "clear previous session")
		}
	}
	if err := m.store.Save(ctx, pair); err != nil {
		return nil, errors.Wrapf(err, "persist tokens")
	}

	m.lock.Lock()
	m.generation++
	gen := m.generation
	m.pair = pair
	m.user = nil
	m.lock.Unlock()

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		m.Logout()
		return nil, err
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if gen != m.generation {
		return nil, fmt.Errorf("%w: session changed during login", errors.ErrAuth)
	}
	m.user = profile
	m.status = Authenticated
	return profile.Clone(), nil
}

// Logout clears the in-memory session and the persisted pair. It is safe from
// any state and never fails; storage errors are only logged. After Dispose
// only the persisted pair is cleared.
func (m *Manager) Logout() {
	m.lock.Lock()
	if !m.disposed {
		m.generation++
		m.pair = token.Pair{}
		m.user = nil
		m.status = Unauthenticated
	}
	m.lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
	defer cancel()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Err(err).Msg("clearing persisted tokens")
	}
}

// RefreshAccessToken exchanges refreshToken for a new access token and
// persists the pair. Any failure logs the session out and returns an error
// matching errors.ErrSessionInvalid, so callers have one "no new token" case.
func (m *Manager) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	pair, err := m.client.RefreshPair(ctx, refreshToken)
	if err == nil {
		err = m.store.Save(ctx, pair)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("refresh failed, logging out")
		m.Logout()
		if errors.Is(err, errors.ErrSessionInvalid) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", errors.ErrSessionInvalid, err)
	}

	m.lock.Lock()
	if !m.disposed {
		m.pair = m.pair.Merge(pair)
	}
	m.lock.Unlock()

	m.logger.Debug().Bool("rotated", pair.Refresh != refreshToken).Msg("access token refreshed")
	return pair.Access, nil
}

var _ apiclient.Refresher = (*Manager)(nil)

func (m *Manager) fetchProfile(ctx context.Context) (*users.Profile, error) {
	var profile users.Profile
	if err := m.client.Get(ctx, apiclient.ProfilePath, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Manager) Status() Status {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.status
}

// CurrentUser returns a copy of the profile, or nil when not authenticated.
func (m *Manager) CurrentUser() *users.Profile {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.user.Clone()
}

// Pair returns the in-memory token pair.
func (m *Manager) Pair() token.Pair {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.pair
}

// Token returns the access token as an oauth2.Token, or nil when there is none.
func (m *Manager) Token() *oauth2.Token {
	return m.Pair().OAuth2()
}

// RequireAuthenticated fails fast for callers about to make authenticated calls.
func (m *Manager) RequireAuthenticated() error {
	if status := m.Status(); status != Authenticated {
		return fmt.Errorf("%w: session is %s", errors.ErrNotAuthenticated, status)
	}
	return nil
}

// isUnavailable separates "backend unreachable" from "credentials rejected".
func isUnavailable(err error) bool {
	if errors.Is(err, errors.ErrSessionInvalid) || errors.Is(err, errors.ErrUnauthorized) {
		return false
	}
	return errors.Is(err, errors.ErrNetwork) || errors.StatusCode(err) >= http.StatusInternalServerError
}
