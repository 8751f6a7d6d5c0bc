package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/common"
)

var ErrCorruptIdentity = errors.New("cached identity is corrupt")

// identityCache stores the last resolved Identity as JSON under auth.user.
type identityCache struct {
	st storage.Storage
}

// Load returns (nil, nil) when nothing is cached and ErrCorruptIdentity when
// the cached value does not decode into a consistent Identity.
func (c *identityCache) Load(ctx context.Context) (*models.Identity, error) {
	raw, err := c.st.Get(ctx, common.KeyAuthUser)
	if err != nil {
		return nil, fmt.Errorf("read cached identity: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var id models.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	if !id.Valid() {
		return nil, ErrCorruptIdentity
	}
	return &id, nil
}

func (c *identityCache) Save(ctx context.Context, id models.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := c.st.Set(ctx, common.KeyAuthUser, raw); err != nil {
		return fmt.Errorf("save cached identity: %w", err)
	}
	return nil
}
