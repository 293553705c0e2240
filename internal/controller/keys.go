package controller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OBress/CanvAI/internal/shared/types"
)

// LoadKeys merges the backend's credential fields over the cached set and
// persists the result. Remote failure keeps the cache.
func (c *Controller) LoadKeys(ctx context.Context) types.APIKeys {
	cached := c.store.Keys()

	remoteKeys, err := c.remote.FetchKeys(ctx)
	if err != nil {
		c.log.Warn("key fetch failed; using cached keys", zap.Error(err))
		return cached
	}

	merged := cached.Merge(remoteKeys)
	if err := c.store.SetKeys(merged); err != nil {
		c.log.Error("failed to persist keys", zap.Error(err))
	}
	return merged
}

// SaveKey stores one credential field locally and fire-and-forgets the
// backend write.
func (c *Controller) SaveKey(ctx context.Context, field, value string) error {
	if !types.ValidKeyField(field) {
		return fmt.Errorf("unknown credential field %q", field)
	}

	keys := c.store.Keys()
	keys[field] = value
	if err := c.store.SetKeys(keys); err != nil {
		return fmt.Errorf("failed to persist %s: %w", field, err)
	}

	saveCtx := context.WithoutCancel(ctx)
	c.spawn(func() {
		if err := c.remote.SetKey(saveCtx, field, value); err != nil {
			c.log.Warn("remote key write failed", zap.String("field", field), zap.Error(err))
		}
	})
	return nil
}
