package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/common"
)

// StoreOptions are the optional values persisted next to a token.
type StoreOptions struct {
	Role      models.Role
	ExpiresAt *time.Time
}

// TokenStore persists the bearer token, its role and its expiry under the
// auth.* keys. It performs no validation and no expiry checks.
type TokenStore struct {
	st storage.Storage
}

func NewTokenStore(st storage.Storage) *TokenStore {
	return &TokenStore{st: st}
}

// Store overwrites all three values in one write. Absent options remove any
// previously stored role or expiry.
func (s *TokenStore) Store(ctx context.Context, token string, opts StoreOptions) error {
	values := map[string][]byte{common.KeyAuthToken: []byte(token)}
	var stale []string

	if opts.Role != "" {
		values[common.KeyAuthRole] = []byte(opts.Role)
	} else {
		stale = append(stale, common.KeyAuthRole)
	}
	if opts.ExpiresAt != nil {
		values[common.KeyAuthExpiresAt] = []byte(opts.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		stale = append(stale, common.KeyAuthExpiresAt)
	}

	if err := s.st.Delete(ctx, stale...); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.st.SetMany(ctx, values); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Read returns the stored token, or ok=false when there is none.
func (s *TokenStore) Read(ctx context.Context) (token string, ok bool, err error) {
	v, err := s.st.Get(ctx, common.KeyAuthToken)
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	if len(v) == 0 {
		return "", false, nil
	}
	return string(v), true, nil
}

// Role returns the cached role, or "" when none is stored.
func (s *TokenStore) Role(ctx context.Context) (models.Role, error) {
	v, err := s.st.Get(ctx, common.KeyAuthRole)
	if err != nil {
		return "", fmt.Errorf("read role: %w", err)
	}
	if len(v) == 0 {
		return "", nil
	}
	return models.NormalizeRole(string(v)), nil
}

// ExpiresAt returns the cached expiry. An unparsable value reads as absent.
func (s *TokenStore) ExpiresAt(ctx context.Context) (*time.Time, error) {
	v, err := s.st.Get(ctx, common.KeyAuthExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("read expiry: %w", err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

// Clear removes token, role and expiry in one delete.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.st.Delete(ctx, common.KeyAuthToken, common.KeyAuthRole, common.KeyAuthExpiresAt); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
