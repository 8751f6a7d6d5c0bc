// Package app builds the storefront client from a Config: storage, change
// bus, session resolver, cart and wishlist stores, the API client and the
// services on top. Both binaries start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/api"
	"github.com/dmitrijs2005/storefront/internal/client/auth"
	"github.com/dmitrijs2005/storefront/internal/client/cart"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/client/wishlist"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/google/uuid"
)

type App struct {
	Config     *config.Config
	Log        logging.Logger
	InstanceID string

	Storage  storage.Storage
	Bus      notify.Bus
	Notifier *notify.Emitter

	API      *api.Client
	Session  *auth.Resolver
	Cart     *cart.Store
	Wishlist *wishlist.Store

	Checkout services.CheckoutService
	Catalog  services.CatalogService

	closers []io.Closer
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*App)

// WithStorage uses st instead of opening the configured backend. The caller
// keeps ownership of st.
func WithStorage(st storage.Storage) Option {
	return func(a *App) { a.Storage = st }
}

// WithBus uses bus instead of opening the configured one. The caller keeps
// ownership of bus.
func WithBus(bus notify.Bus) Option {
	return func(a *App) { a.Bus = bus }
}

func WithInstanceID(id string) Option {
	return func(a *App) { a.InstanceID = id }
}

func New(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (_ *App, err error) {
	a := &App{Config: cfg, Log: log, InstanceID: uuid.NewString()}
	for _, o := range opts {
		o(a)
	}
	a.Log = log.With("instance", a.InstanceID)

	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.Storage == nil {
		st, closer, err := storage.Open(ctx, storage.Options{
			Driver:    cfg.StorageDriver,
			DSN:       cfg.StorageDSN,
			RedisAddr: cfg.RedisAddr,
			Origin:    cfg.Origin,
		})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.Storage = st
		a.closers = append(a.closers, closer)
	}

	if a.Bus == nil {
		bus, err := notify.Open(ctx, notify.Options{
			Driver:       cfg.BusDriver,
			RedisAddr:    cfg.RedisAddr,
			KafkaBrokers: cfg.KafkaBrokers,
			KafkaTopic:   cfg.KafkaTopic,
			InstanceID:   a.InstanceID,
		}, a.Log)
		if err != nil {
			return nil, fmt.Errorf("open change bus: %w", err)
		}
		a.Bus = bus
		a.closers = append(a.closers, bus)
	}
	a.Notifier = notify.NewEmitter(a.Bus, a.Storage.Origin(), a.InstanceID)

	tokens := auth.NewTokenStore(a.Storage)
	a.API, err = api.New(cfg.APIBaseURL, cfg.RequestTimeout, a.Log, api.WithTokens(tokens))
	if err != nil {
		return nil, err
	}

	a.Session = auth.NewResolver(a.Storage, a.API, a.Notifier, a.Log)
	if a.Cart, err = cart.New(ctx, a.Storage, a.Notifier, a.Log); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if a.Wishlist, err = wishlist.New(ctx, a.Storage, a.Notifier, a.Log); err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}

	a.Checkout = services.NewCheckoutService(a.Session, a.Cart, a.API, a.Log)
	a.Catalog = services.NewCatalogService(a.API, a.Cart, a.Wishlist)
	return a, nil
}

// Start resolves the session once and keeps the session, cart and wishlist
// in sync with other instances until ctx is done or Close is called.
func (a *App) Start(ctx context.Context) error {
	ctx, a.stop = context.WithCancel(ctx)

	if _, err := a.Session.Resolve(ctx); err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	watchers := map[string]func(context.Context) error{
		"session":  a.Session.Watch,
		"cart":     func(ctx context.Context) error { return a.Cart.Watch(ctx, nil) },
		"wishlist": func(ctx context.Context) error { return a.Wishlist.Watch(ctx, nil) },
	}
	for name, watch := range watchers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := watch(ctx); err != nil {
				a.Log.Error(ctx, "watcher stopped", "watcher", name, "error", err)
			}
		}()
	}
	return nil
}

// Close stops the watchers started by Start, then releases what New opened.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	a.wg.Wait()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
