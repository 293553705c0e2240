// Package canvai assembles the session-sync layer: a durable local store,
// an HTTP backend client, and the reconciliation controller that keeps the
// two converging. The local copy is authoritative for responsiveness; the
// backend catches up in the background.
package canvai

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/OBress/CanvAI/internal/controller"
	"github.com/OBress/CanvAI/internal/infrastructure/config"
	"github.com/OBress/CanvAI/internal/infrastructure/logging"
	"github.com/OBress/CanvAI/internal/infrastructure/monitoring"
	"github.com/OBress/CanvAI/internal/remote"
	"github.com/OBress/CanvAI/internal/store"
)

// Client is the assembled sync layer. Controller carries the session
// operations; Store is exposed for subscriptions and direct key access.
type Client struct {
	Controller *controller.Controller
	Store      *store.Store

	log *logging.Logger
}

// Options configures Open. Zero values fall back to environment-driven
// config, a production logger, and a private metrics registry.
type Options struct {
	Config   *config.Config
	Logger   *logging.Logger
	Registry prometheus.Registerer
}

// Open builds the sync layer. The store is seeded with defaults on first
// run. Call Controller.Hydrate to load cached sessions and start backend
// reconciliation.
func Open(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.LoadOrDefault()
	}

	log := opts.Logger
	if log == nil {
		if cfg.Logging.Development {
			log = logging.NewDevelopment()
		} else if built, err := logging.New(logging.Config{Level: cfg.Logging.Level}); err == nil {
			log = built
		} else {
			log = logging.NewDefault()
			log.Warn("invalid log level; using default logger",
				zap.String("level", cfg.Logging.Level))
		}
	}

	metrics := monitoring.New(opts.Registry)

	st, err := store.New(cfg.Storage.Path(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if err := st.EnsureInitialized(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to seed local store: %w", err)
	}

	backend := remote.New(cfg.Backend, log, metrics)
	ctrl := controller.New(st, backend, cfg.Backend.UserID, log, metrics)

	return &Client{
		Controller: ctrl,
		Store:      st,
		log:        log,
	}, nil
}

// Close waits for in-flight background syncs and releases the store.
func (c *Client) Close() error {
	c.Controller.Wait()
	err := c.Store.Close()
	_ = c.log.Sync()
	return err
}
