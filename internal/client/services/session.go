package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// State is the lifecycle state of a session.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Snapshot is a consistent view of the session. User is nil unless State
// is StateAuthenticated.
type Snapshot struct {
	State State
	User  *models.User
}

// Initializing reports whether the stored session has not been resolved yet.
func (s Snapshot) Initializing() bool {
	return s.State == StateUninitialized || s.State == StateRestoring
}

// Authenticated reports whether an identity is present.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// CredentialStore persists the active credential between runs.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SessionManager owns the credential and the identity behind it. It is the
// only component that sets or clears the transport credential.
//
// Every change goes through a single commit that updates memory, the
// transport and the credential store, then notifies subscribers. Commits
// are serialized, so subscribers observe them in order.
type SessionManager struct {
	api    client.AuthAPI
	store  CredentialStore
	logger logging.Logger
	now    func() time.Time

	restoreOnce sync.Once

	// commitMu serializes commits and their notifications.
	commitMu sync.Mutex

	mu    sync.RWMutex
	state State
	user  *models.User
	token string
	gen   uint64

	subMu   sync.Mutex
	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

// NewSessionManager binds a session to api and store and registers itself
// as the transport's unauthorized handler.
func NewSessionManager(api client.AuthAPI, store CredentialStore, logger logging.Logger) *SessionManager {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &SessionManager{
		api:    api,
		store:  store,
		logger: logger.With("component", "session"),
		now:    time.Now,
		subs:   make(map[uint64]func(Snapshot)),
	}
	api.OnUnauthorized(m.handleUnauthorized)
	return m
}

// Snapshot returns the current state and identity.
func (m *SessionManager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Current returns the current identity, or nil when anonymous.
func (m *SessionManager) Current() *models.User {
	return m.Snapshot().User
}

func (m *SessionManager) snapshotLocked() Snapshot {
	s := Snapshot{State: m.state}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// Subscribe registers fn to receive a Snapshot after every identity change.
// fn runs synchronously inside the commit and must not call Login, Register,
// Logout or RestoreSession. The returned func removes the subscription.
func (m *SessionManager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

func (m *SessionManager) notify(s Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// RestoreSession resolves the stored credential into an identity. Only the
// first call does any work; later calls return the current snapshot.
// Failures are not returned: they end in StateAnonymous with the stored
// credential removed.
func (m *SessionManager) RestoreSession(ctx context.Context) Snapshot {
	m.restoreOnce.Do(func() { m.restore(ctx) })
	return m.Snapshot()
}

func (m *SessionManager) restore(ctx context.Context) {
	m.commitMu.Lock()
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		m.commitMu.Unlock()
		return
	}
	m.state = StateRestoring
	gen := m.gen
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
	m.commitMu.Unlock()

	token, err := m.store.Load(ctx)
	switch {
	case err != nil:
		m.logger.Warn(ctx, "stored credential unreadable", "error", err)
		m.commitIfCurrent(ctx, gen, "", nil)
		return
	case token == "":
		m.commitIfCurrent(ctx, gen, "", nil)
		return
	case m.expired(token):
		m.logger.Info(ctx, "stored credential expired")
		m.commitIfCurrent(ctx, gen, "", nil)
		return
	}

	m.api.SetToken(token)
	user, err := m.api.Me(ctx)
	if err != nil {
		m.logger.Warn(ctx, "session restore failed", "error", err)
		m.commitIfCurrent(ctx, gen, "", nil)
		return
	}

	m.logger.Info(ctx, "session restored", "user", user.Username)
	m.commitIfCurrent(ctx, gen, token, user)
}

// expired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens and tokens without exp are left to the server.
func (m *SessionManager) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(m.now())
}

// Login authenticates and makes the returned credential the active one.
// On failure nothing changes.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateRequest(models.LoginRequest{Username: username, Password: password}, "invalid credentials"); err != nil {
		return nil, err
	}

	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	m.commitLocked(ctx, resp.Token, &resp.User)
	m.logger.Info(ctx, "logged in", "user", resp.User.Username)
	return &resp.User, nil
}

// Register creates an account and logs into it.
func (m *SessionManager) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	req := models.RegisterRequest{Username: username, Email: email, Password: password}
	if err := validateRequest(req, "invalid registration"); err != nil {
		return nil, err
	}

	resp, err := m.api.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}

	m.commitLocked(ctx, resp.Token, &resp.User)
	m.logger.Info(ctx, "registered", "user", resp.User.Username)
	return &resp.User, nil
}

// Logout tells the server to drop the credential and clears it locally.
// The local session ends even if the server call fails; that error is
// returned for information only.
func (m *SessionManager) Logout(ctx context.Context) error {
	var err error
	if m.api.Token() != "" {
		if err = m.api.Logout(ctx); err != nil {
			m.logger.Warn(ctx, "server logout failed", "error", err)
		}
	}

	m.commitLocked(ctx, "", nil)
	m.logger.Info(ctx, "logged out")
	return err
}

// handleUnauthorized ends the session when the rejected credential is the
// active one. Rejections of an already replaced credential are ignored.
func (m *SessionManager) handleUnauthorized(token string) {
	ctx := context.Background()

	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.RLock()
	active := m.token
	m.mu.RUnlock()

	if token == "" || token != active {
		return
	}
	m.logger.Info(ctx, "credential rejected by server, ending session")
	m.commit(ctx, "", nil)
}

func (m *SessionManager) commitLocked(ctx context.Context, token string, user *models.User) {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()
	m.commit(ctx, token, user)
}

// commitIfCurrent commits a restore result unless another commit happened
// after the restore started.
func (m *SessionManager) commitIfCurrent(ctx context.Context, gen uint64, token string, user *models.User) {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.RLock()
	stale := m.gen != gen
	active := m.token
	m.mu.RUnlock()
	if stale {
		// Restore may have put its own credential on the transport.
		if active != "" {
			m.api.SetToken(active)
		} else {
			m.api.ClearToken()
		}
		m.logger.Debug(ctx, "discarding stale restore result")
		return
	}
	m.commit(ctx, token, user)
}

// commit must be called with commitMu held.
func (m *SessionManager) commit(ctx context.Context, token string, user *models.User) {
	// Local cleanup must finish even when the caller gave up.
	storeCtx := context.WithoutCancel(ctx)

	if token == "" {
		m.api.ClearToken()
		if err := m.store.Clear(storeCtx); err != nil {
			m.logger.Error(ctx, "clear stored credential", "error", err)
		}
	} else {
		m.api.SetToken(token)
		if err := m.store.Save(storeCtx, token); err != nil {
			m.logger.Error(ctx, "save credential", "error", err)
		}
	}

	m.mu.Lock()
	prev := m.snapshotLocked()
	m.token = token
	if user != nil {
		u := *user
		m.user = &u
		m.state = StateAuthenticated
	} else {
		m.user = nil
		m.state = StateAnonymous
	}
	m.gen++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if prev.State == snap.State && sameUser(prev.User, snap.User) {
		return
	}
	m.notify(snap)
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

