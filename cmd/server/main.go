package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/repositories"
	"github.com/anonto42/snapgram/backend/internal/router"
	"github.com/anonto42/snapgram/backend/internal/services"
	"github.com/anonto42/snapgram/backend/internal/session"
	"github.com/anonto42/snapgram/backend/pkg/config"
	"github.com/anonto42/snapgram/backend/pkg/firebase"
	"github.com/anonto42/snapgram/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	drivers, err := initDrivers(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal("failed to initialize backend drivers", zap.Error(err))
	}
	defer drivers.close()

	sessions := session.NewManager(cfg.JWTSecret, cfg.SessionTTL, drivers.revocations)

	var opts []backend.Option
	if drivers.index != nil {
		opts = append(opts, backend.WithPostIndex(drivers.index))
	}
	b := backend.New(backend.Config{
		UsersCollectionID: cfg.UsersCollection,
		PostsCollectionID: cfg.PostsCollection,
		SavesCollectionID: cfg.SavesCollection,
		BucketID:          cfg.StorageBucket,
		PublicURL:         cfg.PublicURL,
		SessionTTL:        cfg.SessionTTL,
	}, drivers.accounts, drivers.database, drivers.storage, sessions, drivers.users, logger, opts...)

	validator := validators.NewValidator()
	forms := services.NewPostFormService(b, drivers.guard, validator, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validator

	// Setup global middleware
	config.SetupMiddleware(e, logger)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Backend:  b,
		Sessions: sessions,
		Forms:    forms,
		Logger:   logger,
	})

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// drivers are the port implementations selected by configuration
type drivers struct {
	accounts    backend.Accounts
	database    backend.Database
	storage     backend.Storage
	users       backend.UserCache
	index       backend.PostIndex
	revocations session.RevocationStore
	guard       services.MutationGuard
	closers     []func() error
}

func (d *drivers) close() {
	for _, c := range d.closers {
		_ = c()
	}
}

func initDrivers(ctx context.Context, cfg *config.Config, db *config.DB, logger *zap.Logger) (*drivers, error) {
	d := &drivers{}

	fbOpts := firebase.Options{
		CredentialsPath: cfg.FirebaseCredentialsPath,
		ProjectID:       cfg.FirebaseProjectID,
		APIKey:          cfg.FirebaseAPIKey,
		StorageBucket:   cfg.StorageBucket,
		DatabaseID:      cfg.DatabaseID,
	}
	var app *firebase.App
	needsFirebase := cfg.AccountsDriver == config.DriverFirebase ||
		cfg.StorageDriver == config.DriverFirebase ||
		cfg.DatabaseDriver == config.DriverFirestore
	if needsFirebase {
		var err error
		if app, err = firebase.InitFirebase(ctx, fbOpts); err != nil {
			return nil, err
		}
		logger.Info("firebase initialized", zap.String("project_id", cfg.FirebaseProjectID))
	}

	switch cfg.AccountsDriver {
	case config.DriverFirebase:
		d.accounts = repositories.NewFirebaseAccounts(app.AuthClient, app.Identity)
	case config.DriverMemory:
		d.accounts = repositories.NewMemoryAccounts()
	default:
		return nil, fmt.Errorf("unknown ACCOUNTS_DRIVER %q", cfg.AccountsDriver)
	}

	switch cfg.DatabaseDriver {
	case config.DriverFirestore:
		client, err := app.Firestore(ctx, fbOpts)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, client.Close)
		d.database = repositories.NewFirestoreDatabase(client)
	case config.DriverMongo:
		mongoDB := repositories.NewMongoDatabase(db.Mongo.Database(cfg.DatabaseID))
		if err := mongoDB.EnsureIndexes(ctx, cfg.UsersCollection, cfg.PostsCollection); err != nil {
			return nil, err
		}
		d.database = mongoDB
	case config.DriverMemory:
		d.database = repositories.NewMemoryDatabase()
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	switch cfg.StorageDriver {
	case config.DriverFirebase:
		client, err := app.Storage(ctx)
		if err != nil {
			return nil, err
		}
		d.storage = repositories.NewFirebaseStorage(client)
	case config.DriverMemory:
		d.storage = repositories.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if db.Redis != nil {
		d.users = repositories.NewRedisUserCache(db.Redis)
		d.revocations = repositories.NewRedisRevocations(db.Redis)
		d.guard = repositories.NewRedisMutationGuard(db.Redis)
	} else {
		logger.Warn("REDIS_ADDR not set, sessions and pending posts are tracked in process")
		d.users = repositories.NewMemoryUserCache()
		d.revocations = repositories.NewMemoryRevocations()
		d.guard = repositories.NewMemoryMutationGuard()
	}

	if db.Postgres != nil {
		index := repositories.NewPostgresPostIndex(db.Postgres)
		if err := index.Migrate(ctx); err != nil {
			return nil, err
		}
		d.index = index
	} else {
		logger.Warn("POSTGRES_URL not set, post search is disabled")
	}

	return d, nil
}
