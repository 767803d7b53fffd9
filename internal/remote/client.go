// Package remote binds the client core to the remote auth and row
// services over HTTP. Both services answer with a {data, error}
// envelope; the error half is decoded into the shared typed errors so
// callers never see raw transport failures.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/pkg/config"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

// TokenSource supplies the bearer token for authenticated requests. An
// empty string means the request goes out unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a fixed TokenSource, used by tests and the auth client
// itself when revoking a specific session.
type StaticToken string

// AccessToken returns the fixed token.
func (t StaticToken) AccessToken() string { return string(t) }

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

func newClient(cfg config.RemoteConfig, logger *zap.Logger) client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

// do issues one request and decodes the envelope. A transport failure
// maps to fallback (FetchError or UnexpectedAuthError depending on the
// caller); a service-reported error keeps its original code.
func (c client) do(ctx context.Context, method, path, token string, body interface{}, fallback *appErrors.Error) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, fallback.Code, fallback.Status, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, fallback.Code, fallback.Status, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, appErrors.Wrap(err, fallback.Code, fallback.Status, fallback.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, fallback.Code, fallback.Status, "read response body")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, appErrors.Wrap(fmt.Errorf("decode envelope: %w", err), fallback.Code, fallback.Status, fallback.Message)
	}
	if env.Error != nil {
		return nil, mapServiceError(env.Error, fallback)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, appErrors.Clone(fallback, fmt.Sprintf("remote returned status %d", resp.StatusCode))
	}
	return env.Data, nil
}

// mapServiceError pins a service-reported code onto one of the
// predefined errors so errors.Is works across the wire.
func mapServiceError(remote *appErrors.Error, fallback *appErrors.Error) error {
	known := []*appErrors.Error{
		appErrors.ErrValidation,
		appErrors.ErrPermissionDenied,
		appErrors.ErrNotFound,
		appErrors.ErrInvalidCredentials,
		appErrors.ErrEmailInUse,
		appErrors.ErrWeakCredentials,
		appErrors.ErrUnauthorized,
		appErrors.ErrConflict,
	}
	for _, candidate := range known {
		if remote.Code == candidate.Code {
			return appErrors.Clone(candidate, remote.Message)
		}
	}
	return appErrors.Clone(fallback, remote.Message)
}
