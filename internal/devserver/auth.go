package devserver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasjeel-app/tasjeel/internal/devserver/store"
	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/pkg/config"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

const minPasswordLength = 6

var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Claims is the token payload. Version ties the token to the identity's
// session generation so a global sign-out invalidates older tokens.
type Claims struct {
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Version int         `json:"ver"`
	jwt.RegisteredClaims
}

// AuthService implements the remote auth contract for development:
// password sign-in, sign-up with profile creation, global revocation.
type AuthService struct {
	store  *store.Store
	cfg    config.DevServerConfig
	logger *zap.Logger

	mu       sync.Mutex
	versions map[string]int
}

// NewAuthService constructs the service.
func NewAuthService(st *store.Store, cfg config.DevServerConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JWTExpiration <= 0 {
		cfg.JWTExpiration = 24 * time.Hour
	}
	return &AuthService{store: st, cfg: cfg, logger: logger, versions: make(map[string]int)}
}

// SignUp registers a user and creates the matching profile row in the
// same breath, mirroring the production trigger that keeps Identity and
// Profile one-to-one.
func (s *AuthService) SignUp(ctx context.Context, email, password string, fields models.ProfileFields) (models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailShape.MatchString(email) {
		return models.Identity{}, appErrors.Clone(appErrors.ErrValidation, "invalid email address")
	}
	if len(password) < minPasswordLength {
		return models.Identity{}, appErrors.Clone(appErrors.ErrWeakCredentials, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.store.Users.FindByEmail(ctx, email); err == nil {
		return models.Identity{}, appErrors.Clone(appErrors.ErrEmailInUse, "email is already registered")
	} else if !errors.Is(err, store.ErrRowNotFound) {
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &store.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	role := fields.Role
	if !role.Valid() {
		role = models.RoleStudent
	}
	profile := &models.Profile{ID: user.ID, FirstName: fields.FirstName, LastName: fields.LastName, Role: role}
	if err := s.store.Profiles.Create(ctx, profile); err != nil {
		// The identity exists without a profile; clients tolerate the
		// missing row and a later read may still succeed.
		s.logger.Warn("profile creation failed after sign-up", zap.String("user", user.ID), zap.Error(err))
	}

	return models.Identity{ID: user.ID, Email: user.Email}, nil
}

// SignIn verifies credentials and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return models.Session{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return models.Session{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.Session{}, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	role := models.Role("")
	if profile, err := s.store.Profiles.FindByID(ctx, user.ID); err == nil {
		role = profile.Role
	}

	expiresAt := time.Now().UTC().Add(s.cfg.JWTExpiration)
	claims := Claims{
		Email:   user.Email,
		Role:    role,
		Version: s.currentVersion(user.ID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return models.Session{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return models.Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Identity:    models.Identity{ID: user.ID, Email: user.Email},
	}, nil
}

// SignOutGlobal bumps the identity's session version, invalidating
// every token issued before this call.
func (s *AuthService) SignOutGlobal(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[userID]++
}

func (s *AuthService) currentVersion(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[userID]
}

// ValidateToken parses and verifies a bearer token.
func (s *AuthService) ValidateToken(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Version != s.currentVersion(claims.Subject) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session has been revoked")
	}
	return claims, nil
}

// SeedAdmin creates the configured admin account if it does not exist
// yet. Role promotion beyond sign-up happens through this path only.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if s.cfg.SeedAdminEmail == "" || s.cfg.SeedAdminPass == "" {
		return nil
	}
	if _, err := s.store.Users.FindByEmail(ctx, s.cfg.SeedAdminEmail); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.SeedAdminPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &store.User{ID: uuid.NewString(), Email: strings.ToLower(s.cfg.SeedAdminEmail), PasswordHash: string(hash)}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return err
	}
	return s.store.Profiles.Create(ctx, &models.Profile{ID: user.ID, FirstName: "Seed", LastName: "Admin", Role: models.RoleAdmin})
}
