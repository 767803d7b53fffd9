package repository

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/internal/remote"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

const profilesCollection = "profiles"

// Profiles reads the profile collection. Profiles are created by the
// auth service at sign-up; the client only ever reads them.
type Profiles struct {
	rows   rowStore
	logger *zap.Logger
}

// NewProfiles constructs the repository.
func NewProfiles(rows rowStore, logger *zap.Logger) *Profiles {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiles{rows: rows, logger: logger}
}

// Get returns the profile for an identity, or NotFound. Callers must
// tolerate NotFound shortly after sign-up.
func (r *Profiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	raw, err := r.rows.SelectOne(ctx, profilesCollection, remote.Eq("id", id))
	if err != nil {
		return nil, err
	}
	var profile models.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "decode profile")
	}
	return &profile, nil
}
