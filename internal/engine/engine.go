package engine

import (
	"context"
	"sync"

	"github.com/kalakriti/commerce-engine/internal/address"
	"github.com/kalakriti/commerce-engine/internal/cart"
	"github.com/kalakriti/commerce-engine/internal/checkout"
	"github.com/kalakriti/commerce-engine/internal/pricing"
	"github.com/kalakriti/commerce-engine/internal/session"
	"github.com/kalakriti/commerce-engine/internal/storage"
	"github.com/kalakriti/commerce-engine/internal/wishlist"
	"github.com/kalakriti/commerce-engine/pkg/config"
	"github.com/kalakriti/commerce-engine/pkg/db"
	pkgerrors "github.com/kalakriti/commerce-engine/pkg/errors"
	"github.com/kalakriti/commerce-engine/pkg/logger"
	"github.com/kalakriti/commerce-engine/pkg/metrics"
	"github.com/kalakriti/commerce-engine/pkg/migrate"
	"github.com/kalakriti/commerce-engine/pkg/redis"
)

// legacySuffixes are the unnamespaced keys older releases wrote directly.
var legacySuffixes = []string{
	cart.StoreSuffix,
	wishlist.StoreSuffix,
	address.StoreSuffix,
	session.StoreSuffix,
}

// Params groups the explicit dependencies of the engine. Every store is
// constructed here and injected downward; nothing is created at import time.
type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics

	// DB is required when the storage driver is "database".
	DB *db.Client
	// Redis is required when the storage driver is "redis".
	Redis *redis.Client

	// Gateway is the order collaborator; without one the checkout service
	// is not constructed.
	Gateway checkout.Gateway

	// OnError receives non-fatal store failures (corrupt payloads, listener
	// panics). Optional.
	OnError func(error)
}

// Engine is the composition root: one backend, the domain models built on
// it, and the pricing/checkout services.
type Engine struct {
	cfg     *config.Config
	logg    *logger.Logger
	backend storage.Backend
	dbc     *db.Client

	Cart      *cart.Model
	Wishlist  *wishlist.Model
	Addresses *address.Book
	Session   *session.Model
	Pricing   *pricing.Engine
	Checkout  *checkout.Service

	mu          sync.Mutex
	initialized bool
}

func New(params Params) (*Engine, error) {
	if params.Config == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "config is required")
	}

	backend, err := backendFor(params)
	if err != nil {
		return nil, err
	}

	ns := params.Config.Storage.Namespace
	eng := &Engine{
		cfg:     params.Config,
		logg:    params.Logger,
		backend: backend,
		dbc:     params.DB,
		Pricing: pricing.NewEngine(params.Config.Pricing),
	}

	eng.Cart, err = cart.NewModel(cart.ModelParams{
		Backend:   backend,
		Namespace: ns,
		Logger:    params.Logger,
		Metrics:   params.Metrics,
		OnError:   params.OnError,
		Debounce:  params.Config.Storage.DebounceWindow,
	})
	if err != nil {
		return nil, err
	}
	eng.Wishlist, err = wishlist.NewModel(wishlist.ModelParams{
		Backend:   backend,
		Namespace: ns,
		Logger:    params.Logger,
		Metrics:   params.Metrics,
		OnError:   params.OnError,
	})
	if err != nil {
		return nil, err
	}
	eng.Addresses, err = address.NewBook(address.BookParams{
		Backend:   backend,
		Namespace: ns,
		Logger:    params.Logger,
		Metrics:   params.Metrics,
		OnError:   params.OnError,
	})
	if err != nil {
		return nil, err
	}
	eng.Session, err = session.NewModel(session.ModelParams{
		Backend:   backend,
		Namespace: ns,
		Logger:    params.Logger,
		Metrics:   params.Metrics,
		OnError:   params.OnError,
	})
	if err != nil {
		return nil, err
	}

	if params.Gateway != nil {
		eng.Checkout, err = checkout.NewService(checkout.ServiceParams{
			Cart:    eng.Cart,
			Pricing: eng.Pricing,
			Book:    eng.Addresses,
			Gateway: params.Gateway,
			Logger:  params.Logger,
		})
		if err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func backendFor(params Params) (storage.Backend, error) {
	switch params.Config.Storage.Driver {
	case config.StorageDriverMemory:
		return storage.NewMemory(), nil
	case config.StorageDriverDatabase:
		if params.DB == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "database driver requires a db client")
		}
		return storage.NewDatabase(params.DB)
	case config.StorageDriverRedis:
		if params.Redis == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "redis driver requires a redis client")
		}
		return storage.NewRedis(params.Redis)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown storage driver "+params.Config.Storage.Driver)
	}
}

// Initialize prepares the durable medium: dev schema migrations when
// configured, then the legacy-key migration. Safe to call more than once;
// repeat calls are no-ops.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}

	if e.cfg.Storage.Driver == config.StorageDriverDatabase {
		if err := migrate.MaybeRunDev(ctx, e.cfg, e.logg, e.dbc); err != nil {
			return err
		}
	}
	if err := e.migrateLegacyKeys(ctx); err != nil {
		return err
	}

	e.initialized = true
	if e.logg != nil {
		e.logg.Info(ctx, "commerce engine initialized")
	}
	return nil
}

// migrateLegacyKeys renames unnamespaced keys written by older releases and
// wraps a bare legacy auth token into the session shape. Every step is
// idempotent, so a crash mid-migration is recovered on the next run.
func (e *Engine) migrateLegacyKeys(ctx context.Context) error {
	ns := e.cfg.Storage.Namespace
	for _, suffix := range legacySuffixes {
		if err := storage.Rename(ctx, e.backend, suffix, ns+":"+suffix); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "legacy key migration failed for "+suffix)
		}
	}
	return session.MigrateLegacyToken(ctx, e.backend, ns)
}

// Backend exposes the durable medium for diagnostics and tooling.
func (e *Engine) Backend() storage.Backend {
	return e.backend
}

// Flush forces any debounced cart write to disk; called on shutdown.
func (e *Engine) Flush(ctx context.Context) error {
	return e.Cart.Flush(ctx)
}
