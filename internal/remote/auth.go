package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/pkg/config"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

// AuthClient talks to the remote auth service.
type AuthClient struct {
	client
}

// NewAuthClient constructs an AuthClient.
func NewAuthClient(cfg config.RemoteConfig, logger *zap.Logger) *AuthClient {
	return &AuthClient{client: newClient(cfg, logger)}
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string               `json:"email"`
	Password string               `json:"password"`
	Data     models.ProfileFields `json:"data"`
}

// SignInWithPassword performs the password grant and returns the issued
// session. Credential rejection surfaces as InvalidCredentials; anything
// else unexpected as UnexpectedAuthError.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "",
		passwordGrantRequest{Email: email, Password: password}, appErrors.ErrUnexpectedAuth)
	if err != nil {
		return models.Session{}, err
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return models.Session{}, appErrors.Wrap(err, appErrors.ErrUnexpectedAuth.Code, appErrors.ErrUnexpectedAuth.Status, "decode session")
	}
	return sess, nil
}

// SignUp registers a new Identity and asks the service to create the
// matching Profile from the supplied fields.
func (c *AuthClient) SignUp(ctx context.Context, email, password string, fields models.ProfileFields) (models.Identity, error) {
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "",
		signUpRequest{Email: email, Password: password, Data: fields}, appErrors.ErrUnexpectedAuth)
	if err != nil {
		return models.Identity{}, err
	}
	var identity models.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrUnexpectedAuth.Code, appErrors.ErrUnexpectedAuth.Status, "decode identity")
	}
	return identity, nil
}

// SignOutGlobal revokes every session belonging to the token's identity.
func (c *AuthClient) SignOutGlobal(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/logout?scope=global", token, nil, appErrors.ErrUnexpectedAuth)
	return err
}

// CurrentUser resolves the identity behind a token. Used during
// bootstrap to confirm a persisted session is still honoured remotely.
func (c *AuthClient) CurrentUser(ctx context.Context, token string) (models.Identity, error) {
	data, err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, appErrors.ErrUnexpectedAuth)
	if err != nil {
		return models.Identity{}, err
	}
	var identity models.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrUnexpectedAuth.Code, appErrors.ErrUnexpectedAuth.Status, "decode identity")
	}
	return identity, nil
}
