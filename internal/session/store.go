// Package session holds the authenticated identity and its derived
// profile. One Store instance is created at startup, injected into
// every consumer, and lives for the life of the process.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/internal/policy"
	"github.com/tasjeel-app/tasjeel/pkg/config"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
	"github.com/tasjeel-app/tasjeel/pkg/kv"
)

const sessionKey = "session"

// authAPI is the slice of the remote auth service the store consumes.
type authAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (models.Session, error)
	SignUp(ctx context.Context, email, password string, fields models.ProfileFields) (models.Identity, error)
	SignOutGlobal(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (models.Identity, error)
}

// ProfileLoader resolves the Profile behind an identity. Wired after
// construction because the row client authenticates through this store.
type ProfileLoader interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// Listener observes session state transitions. Listeners run on the
// transition's goroutine and must not call back into mutating store
// operations.
type Listener func(event models.AuthEvent, identity *models.Identity)

// ResetFunc clears one dependent cache. Every registered reset fires on
// any session change so no stale per-identity data survives.
type ResetFunc func()

// Store is the session store.
type Store struct {
	cfg      config.AuthConfig
	auth     authAPI
	kv       kv.Store
	logger   *zap.Logger
	profiles ProfileLoader

	mu      sync.RWMutex
	sess    *models.Session
	profile *models.Profile
	loading bool

	listenerMu sync.Mutex
	listeners  []Listener
	resets     []ResetFunc
}

// New constructs a Store. The profile loader is attached separately via
// AttachProfiles once the row client exists.
func New(cfg config.AuthConfig, auth authAPI, store kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 6
	}
	return &Store{cfg: cfg, auth: auth, kv: store, logger: logger, loading: true}
}

// AttachProfiles wires the profile loader.
func (s *Store) AttachProfiles(loader ProfileLoader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = loader
}

// OnChange registers a session transition listener.
func (s *Store) OnChange(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// OnReset registers a cache reset hook.
func (s *Store) OnReset(fn ResetFunc) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.resets = append(s.resets, fn)
}

// Bootstrap recovers a previously persisted session without blocking
// the caller. The returned channel closes once the store has resolved
// to either an authenticated or an unauthenticated state; Loading
// reports true until then.
func (s *Store) Bootstrap(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.setLoading(false)

		raw, err := s.kv.Get(ctx, s.cfg.Namespace+sessionKey)
		if err != nil {
			if !errors.Is(err, kv.ErrKeyNotFound) {
				s.logger.Warn("session restore failed", zap.Error(err))
			}
			return
		}

		var sess models.Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			s.logger.Warn("discarding unreadable persisted session", zap.Error(err))
			_ = s.kv.DeleteByPrefix(ctx, s.cfg.Namespace)
			return
		}
		if sess.Expired() {
			_ = s.kv.DeleteByPrefix(ctx, s.cfg.Namespace)
			return
		}

		// Confirm the token is still honoured before trusting it.
		identity, err := s.auth.CurrentUser(ctx, sess.AccessToken)
		if err != nil {
			s.logger.Info("persisted session rejected remotely", zap.Error(err))
			_ = s.kv.DeleteByPrefix(ctx, s.cfg.Namespace)
			return
		}
		sess.Identity = identity

		s.mu.Lock()
		s.sess = &sess
		s.mu.Unlock()

		s.handleAuthChange(models.EventSignedIn, &identity)
	}()
	return done
}

// SignIn authenticates with email and password. Local auth artifacts
// are swept first and other sessions revoked best-effort, so a stale
// token from a different identity can never leak into the new session.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	s.cleanupAuthState(ctx)

	if token := s.AccessToken(); token != "" {
		if err := s.auth.SignOutGlobal(ctx, token); err != nil {
			s.logger.Debug("global sign-out before sign-in failed, continuing", zap.Error(err))
		}
	}

	sess, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.persistSession(ctx, sess); err != nil {
		s.logger.Warn("session persist failed", zap.Error(err))
	}

	s.mu.Lock()
	s.sess = &sess
	s.profile = nil
	s.mu.Unlock()

	s.handleAuthChange(models.EventSignedIn, &sess.Identity)
	s.fireResets()
	return nil
}

// SignUp registers a new Identity plus its Profile. Unless self-serve
// roles are enabled, every new account starts as a student regardless
// of the requested role; promotion happens out of band.
func (s *Store) SignUp(ctx context.Context, email, password string, fields models.ProfileFields) (models.Identity, error) {
	if len(password) < s.cfg.MinPasswordLength {
		return models.Identity{}, appErrors.Clone(appErrors.ErrWeakCredentials, "password is too short")
	}
	if !s.cfg.AllowSelfServeRoles || !fields.Role.Valid() {
		fields.Role = models.RoleStudent
	}

	s.cleanupAuthState(ctx)

	identity, err := s.auth.SignUp(ctx, email, password, fields)
	if err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// SignOut clears local artifacts, revokes remote sessions best-effort
// and resets every dependent cache.
func (s *Store) SignOut(ctx context.Context) {
	token := s.AccessToken()
	s.cleanupAuthState(ctx)

	if token != "" {
		if err := s.auth.SignOutGlobal(ctx, token); err != nil {
			s.logger.Debug("global sign-out failed, continuing", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.sess = nil
	s.profile = nil
	s.mu.Unlock()

	s.handleAuthChange(models.EventSignedOut, nil)
	s.fireResets()
}

// handleAuthChange notifies listeners and, on sign-in, schedules the
// profile load on a fresh goroutine. Deferring keeps a profile fetch
// that inspects auth state from re-entering this transition's stack.
func (s *Store) handleAuthChange(event models.AuthEvent, identity *models.Identity) {
	s.listenerMu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()

	for _, l := range listeners {
		l(event, identity)
	}

	if event == models.EventSignedIn && identity != nil {
		id := identity.ID
		go s.loadProfile(id)
	}
}

// loadProfile fetches the Profile for the identity. A missing row is
// tolerated: right after sign-up the profile may not exist yet.
func (s *Store) loadProfile(identityID string) {
	s.mu.RLock()
	loader := s.profiles
	s.mu.RUnlock()
	if loader == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	profile, err := loader.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			s.logger.Debug("profile not yet available", zap.String("identity", identityID))
			return
		}
		s.logger.Warn("profile load failed", zap.String("identity", identityID), zap.Error(err))
		return
	}

	s.mu.Lock()
	// The session may have changed while the fetch was in flight.
	if s.sess != nil && s.sess.Identity.ID == identityID {
		s.profile = profile
	}
	s.mu.Unlock()
}

// cleanupAuthState sweeps every key under the auth namespace, not just
// the ones this schema version knows about.
func (s *Store) cleanupAuthState(ctx context.Context) {
	if err := s.kv.DeleteByPrefix(ctx, s.cfg.Namespace); err != nil {
		s.logger.Warn("auth namespace sweep failed", zap.Error(err))
	}
}

func (s *Store) persistSession(ctx context.Context, sess models.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.cfg.Namespace+sessionKey, string(payload))
}

func (s *Store) fireResets() {
	s.listenerMu.Lock()
	resets := make([]ResetFunc, len(s.resets))
	copy(resets, s.resets)
	s.listenerMu.Unlock()
	for _, reset := range resets {
		reset()
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Loading reports whether bootstrap or a sign-in is still resolving.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Authenticated reports whether a session is present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess != nil
}

// Identity returns the current identity, or nil when unauthenticated.
func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil
	}
	identity := s.sess.Identity
	return &identity
}

// Profile returns the cached profile, or nil while it is absent.
func (s *Store) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	profile := *s.profile
	return &profile
}

// Role returns the profile role, or the empty role when no profile is
// loaded. The empty role holds no capabilities.
func (s *Store) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.Role
}

// IsAdmin reports whether the current profile carries admin rights.
func (s *Store) IsAdmin() bool {
	return policy.IsAdmin(s.Role())
}

// IsTeacher reports whether the current profile carries teacher rights;
// admin implies teacher.
func (s *Store) IsTeacher() bool {
	return policy.IsTeacher(s.Role())
}

// AccessToken implements remote.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return ""
	}
	return s.sess.AccessToken
}
