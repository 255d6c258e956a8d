package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/api"
	"github.com/99minutos/authgate/internal/api/handler"
	"github.com/99minutos/authgate/internal/core/ports"
	"github.com/99minutos/authgate/internal/core/service"
	"github.com/99minutos/authgate/internal/infrastructure/crypto"
	"github.com/99minutos/authgate/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/authgate/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/authgate/internal/infrastructure/db/redis"
	"github.com/99minutos/authgate/internal/infrastructure/queue"
	"github.com/99minutos/authgate/internal/infrastructure/token"
	"github.com/99minutos/authgate/internal/pkg/config"
	"github.com/99minutos/authgate/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("authgate stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	checks := make(map[string]handler.Check)

	// --- Directory and audit sink ---
	var (
		dir  ports.Directory
		sink ports.AuditSink
	)
	switch cfg.DirectoryBackend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			if err := mongostore.Disconnect(context.Background(), client); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}()

		users := mongostore.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		dir = users
		sink = mongostore.NewAuditRepository(db)
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("directory backend: mongo")
	default:
		dir = memory.NewDirectory()
		sink = queue.NewLogSink(logger.Component(logger.ComponentAudit))
		log.Info().Msg("directory backend: memory")
	}

	// --- Session store ---
	var store ports.SessionStore
	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()

		store = redisstore.NewSessionStore(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session backend: redis")
	default:
		mem := memory.NewSessionStore()
		go mem.RunSweeper(ctx, sweepInterval)
		store = mem
		log.Info().Msg("session backend: memory")
	}

	// --- Core services ---
	hasher := crypto.NewBcryptHasher(cfg.BcryptCost)
	authService := service.NewAuthService(dir, hasher, logger.Component(logger.ComponentAuth))
	if cfg.SeedUsers {
		n, err := authService.Seed(ctx, service.DemoUsers)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		log.Info().Int("created", n).Msg("seed users applied")
	}
	sessions := service.NewSessionService(store, dir, cfg.SessionTTL, logger.Component(logger.ComponentSession))

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, sink, logger.Component(logger.ComponentAudit))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// --- HTTP ---
	sessionSecret, err := secretOrRandom(cfg.SessionSecret, "SESSION_SECRET", log)
	if err != nil {
		return err
	}
	jwtSecret, err := secretOrRandom(cfg.JWTSecret, "JWT_SECRET", log)
	if err != nil {
		return err
	}

	e, err := api.NewRouter(api.Dependencies{
		Auth:          authService,
		Sessions:      sessions,
		Audit:         dispatcher,
		Tokens:        token.NewJWT(jwtSecret, cfg.TokenTTL),
		SessionSecret: []byte(sessionSecret),
		CookieSecure:  cfg.CookieSecure,
		Checks:        checks,
		Log:           logger.Component(logger.ComponentHTTP),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("shutdown complete")
	return nil
}

// secretOrRandom returns value, or a random secret when it is empty. Random
// secrets do not survive a restart, so every session and token is dropped.
func secretOrRandom(value, name string, log zerolog.Logger) (string, error) {
	if value != "" {
		return value, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate %s: %w", name, err)
	}
	log.Warn().Str("variable", name).Msg("not set, using a random secret for this process")
	return hex.EncodeToString(b), nil
}
