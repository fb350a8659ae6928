// Package session tracks who is signed in for one browser session: the bearer
// token, the user profile, and whether a restore attempt is still running.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

var (
	// ErrAuth matches credentials or registration data the backend refused.
	ErrAuth = errors.New("session: authentication failed")
	// ErrSignedOut is returned by calls that need a token when there is none.
	ErrSignedOut = errors.New("session: not signed in")
)

// AuthError carries the backend's reason for refusing a sign-in or registration.
type AuthError struct {
	Detail string
	err    error
}

func (e *AuthError) Error() string        { return "session: " + e.Detail }
func (e *AuthError) Is(target error) bool { return target == ErrAuth }
func (e *AuthError) Unwrap() error        { return e.err }

// Backend is the slice of the REST API the session needs. Tokens are passed
// explicitly: a candidate token is checked before it becomes the session's.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, reg shop.Registration) (string, error)
	Me(ctx context.Context, token string) (shop.User, error)
	UpdateMe(ctx context.Context, token string, upd shop.ProfileUpdate) (shop.User, error)
}

type State struct {
	Authenticated bool       `json:"authenticated"`
	Loading       bool       `json:"loading"`
	User          *shop.User `json:"user,omitempty"`
}

// Listener is told about every change of the authenticated flag.
type Listener func(ctx context.Context, authenticated bool)

type Manager struct {
	backend Backend
	store   TokenStore
	key     string
	log     logrus.FieldLogger
	now     func() time.Time

	mu      sync.RWMutex
	token   string
	user    *shop.User
	loading bool
	epoch   uint64 // bumped by sign-in and sign-out

	subMu     sync.Mutex
	listeners []Listener
}

type Option func(*Manager)

func WithLogger(l logrus.FieldLogger) Option { return func(m *Manager) { m.log = l } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// New returns a manager for the browser session identified by key. It starts in
// the loading state; call Restore to resolve it.
func New(b Backend, store TokenStore, key string, opts ...Option) *Manager {
	m := &Manager{
		backend: b,
		store:   store,
		key:     key,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		loading: true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Subscribe(l Listener) {
	m.subMu.Lock()
	m.listeners = append(m.listeners, l)
	m.subMu.Unlock()
}

func (m *Manager) notify(ctx context.Context, authenticated bool) {
	m.subMu.Lock()
	ls := append([]Listener(nil), m.listeners...)
	m.subMu.Unlock()
	for _, l := range ls {
		l(ctx, authenticated)
	}
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) IsAuthenticated() bool { return m.Token() != "" }

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) User() (shop.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return shop.User{}, false
	}
	return *m.user, true
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := State{Authenticated: m.token != "", Loading: m.loading}
	if m.user != nil {
		u := *m.user
		st.User = &u
	}
	return st
}

// Restore resumes a persisted session. The manager reports Loading until the
// attempt resolves. A stored token is discarded when it is expired or when the
// profile fetch fails for any reason, a transport failure included.
// A sign-in or sign-out that lands while Restore runs wins over it. Only a
// failing token store is returned as an error.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	epoch := m.epoch
	wasAuthenticated := m.token != ""
	m.mu.Unlock()

	token, err := m.store.Load(ctx, m.key)
	if err != nil {
		m.finishRestore(ctx, epoch, "", nil, wasAuthenticated, false)
		return errors.Wrap(err, "load session token")
	}
	if token == "" {
		m.finishRestore(ctx, epoch, "", nil, wasAuthenticated, false)
		return nil
	}
	if expired(token, m.now()) {
		m.log.WithField("session", m.key).Info("stored token expired, discarding")
		m.finishRestore(ctx, epoch, "", nil, wasAuthenticated, true)
		return nil
	}

	m.mu.Lock()
	if m.epoch == epoch {
		m.token = token
	}
	m.mu.Unlock()

	u, err := m.backend.Me(ctx, token)
	if err != nil {
		m.log.WithError(err).WithField("session", m.key).Warn("restore: profile fetch failed, signing out")
		m.finishRestore(ctx, epoch, "", nil, wasAuthenticated, true)
		return nil
	}
	m.finishRestore(ctx, epoch, token, &u, wasAuthenticated, false)
	return nil
}

func (m *Manager) finishRestore(ctx context.Context, epoch uint64, token string, u *shop.User, wasAuthenticated, discard bool) {
	m.mu.Lock()
	m.loading = false
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.token = token
	m.user = u
	m.mu.Unlock()

	if discard {
		m.forget(ctx)
	}
	if now := token != ""; now || wasAuthenticated {
		m.notify(ctx, now)
	}
}

// SignIn authenticates with the backend and, only once both the login and the
// profile fetch succeed, replaces the session's token and user.
func (m *Manager) SignIn(ctx context.Context, email, password string) (shop.User, error) {
	token, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return shop.User{}, classify(err, "sign in")
	}
	return m.adopt(ctx, token)
}

// Register creates the account, then signs it in the same way as SignIn.
func (m *Manager) Register(ctx context.Context, reg shop.Registration) (shop.User, error) {
	token, err := m.backend.Register(ctx, reg)
	if err != nil {
		return shop.User{}, classify(err, "register")
	}
	return m.adopt(ctx, token)
}

func (m *Manager) adopt(ctx context.Context, token string) (shop.User, error) {
	u, err := m.backend.Me(ctx, token)
	if err != nil {
		return shop.User{}, errors.Wrap(err, "fetch profile")
	}

	m.mu.Lock()
	m.token = token
	m.user = &u
	m.loading = false
	m.epoch++
	m.mu.Unlock()

	if err := m.store.Save(ctx, m.key, token); err != nil {
		m.log.WithError(err).WithField("session", m.key).Warn("persist token")
	}
	m.notify(ctx, true)
	return u, nil
}

// SignOut forgets the token and user. It never calls the backend. The returned
// flag is false when nobody was signed in; the user is whoever was.
func (m *Manager) SignOut(ctx context.Context) (shop.User, bool) {
	m.mu.Lock()
	had := m.token != ""
	var prev shop.User
	if m.user != nil {
		prev = *m.user
	}
	m.token = ""
	m.user = nil
	m.epoch++
	m.mu.Unlock()

	m.forget(ctx)
	if had {
		m.notify(ctx, false)
	}
	return prev, had
}

func (m *Manager) forget(ctx context.Context) {
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.log.WithError(err).WithField("session", m.key).Warn("delete stored token")
	}
}

// UpdateProfile saves profile changes and replaces the cached user with the
// backend's copy.
func (m *Manager) UpdateProfile(ctx context.Context, upd shop.ProfileUpdate) (shop.User, error) {
	token := m.Token()
	if token == "" {
		return shop.User{}, ErrSignedOut
	}
	u, err := m.backend.UpdateMe(ctx, token, upd)
	if err != nil {
		return shop.User{}, errors.Wrap(err, "update profile")
	}
	m.mu.Lock()
	if m.token == token {
		m.user = &u
	}
	m.mu.Unlock()
	return u, nil
}

// classify turns a refusal (4xx) into an *AuthError and wraps anything else.
func classify(err error, op string) error {
	if status := api.StatusOf(err); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return &AuthError{Detail: api.Message(err), err: err}
	}
	return errors.Wrap(err, op)
}

// expired peeks at the exp claim of a JWT without verifying it. Opaque tokens
// and tokens without exp are left to the backend.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
