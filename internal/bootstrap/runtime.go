// Package bootstrap opens the document store, Redis and the auth backend
// selected by the configuration. The server, the seeder and hbctl share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"heartbridge/internal/auth"
	"heartbridge/internal/cache"
	"heartbridge/internal/config"
	"heartbridge/internal/database"
	"heartbridge/internal/docstore"
	fsstore "heartbridge/internal/docstore/firestore"
	"heartbridge/internal/docstore/mongostore"
	"heartbridge/internal/docstore/sqlstore"

	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis runs without cache, events or a shared revocation list.
	SkipRedis bool
	// StoreDriver overrides cfg.StoreDriver when set.
	StoreDriver string
}

// Runtime holds the shared infrastructure of a process.
type Runtime struct {
	Config *config.Config
	Store  docstore.Store
	// DB is set only for the sql store.
	DB    *gorm.DB
	Redis *redis.Client
	Auth  auth.Backend

	firebase *firebase.App
	tokens   *auth.TokenIssuer
}

// InitRuntime connects the store, Redis and the auth backend.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	driver := cfg.StoreDriver
	if opts.StoreDriver != "" {
		driver = opts.StoreDriver
	}
	if driver == "" {
		driver = config.StoreMemory
	}
	store, err := rt.openStore(ctx, driver)
	if err != nil {
		return nil, err
	}
	rt.Store = docstore.Instrument(store, driver)

	if !opts.SkipRedis {
		// May result in a nil client if unreachable
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	if err := rt.openAuth(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context, driver string) (docstore.Store, error) {
	cfg := rt.Config
	switch driver {
	case config.StoreMemory:
		log.Println("Using in-memory document store (data is lost on exit)")
		return docstore.NewMemory(), nil

	case config.StoreSQL:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
		return sqlstore.Open(db), nil

	case config.StoreFirestore:
		app, err := rt.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}
		return fsstore.New(ctx, app)

	case config.StoreMongo:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
}

func (rt *Runtime) firebaseApp(ctx context.Context) (*firebase.App, error) {
	if rt.firebase != nil {
		return rt.firebase, nil
	}
	app, err := fsstore.NewApp(ctx, fsstore.Config{
		ProjectID:       rt.Config.FirebaseProjectID,
		CredentialsFile: rt.Config.FirebaseCredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	rt.firebase = app
	return app, nil
}

func (rt *Runtime) openAuth(ctx context.Context) error {
	switch rt.Config.AuthBackend {
	case "", config.AuthLocal:
		rt.Auth = auth.NewLocalBackend(rt.Store, rt.Config.IDPSecretMap())
		return nil
	case config.AuthFirebase:
		app, err := rt.firebaseApp(ctx)
		if err != nil {
			return err
		}
		backend, err := auth.NewFirebaseBackend(ctx, app, rt.Config.FirebaseAPIKey)
		if err != nil {
			return err
		}
		rt.Auth = backend
		return nil
	}
	return fmt.Errorf("unsupported AUTH_BACKEND %q", rt.Config.AuthBackend)
}

// TokenIssuer returns an issuer sharing the runtime's revocation list.
func (rt *Runtime) TokenIssuer() *auth.TokenIssuer {
	if rt.tokens == nil {
		rt.tokens = auth.NewTokenIssuer(rt.Config.JWTSecret, rt.Redis)
	}
	return rt.tokens
}

// Ping checks the store and, when configured, Redis.
func (rt *Runtime) Ping(ctx context.Context) (storeErr, redisErr error) {
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err != nil {
			storeErr = err
		} else {
			storeErr = sqlDB.PingContext(ctx)
		}
	} else {
		_, err := rt.Store.Get(ctx, "health", "ping")
		if !errors.Is(err, docstore.ErrNotFound) {
			storeErr = err
		}
	}
	if rt.Redis != nil {
		redisErr = rt.Redis.Ping(ctx).Err()
	}
	return storeErr, redisErr
}

// Close releases the store and Redis.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	if rt.Redis != nil {
		errs = append(errs, cache.Close())
	}
	return errors.Join(errs...)
}
