// Package app wires the authd runtime: config, logging, stores, the session
// and verification services, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"authd/cmd/identity"
	authapi "authd/cmd/internal/auth/api"
	"authd/cmd/internal/auth/session"
	"authd/cmd/internal/auth/verify"
	"authd/cmd/internal/mail"
	"authd/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// App is the authd server runtime. It owns the pool and Redis client lifecycles.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool
	redis  *redis.Client

	registry *prometheus.Registry
	auth     *authapi.Handler
	sweeper  *session.Sweeper
}

// stores is the persistence pair chosen at startup.
type stores struct {
	users    identity.Store
	sessions session.Store
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	ctx := context.Background()

	codec, err := ValidateSecurityConfig(cfg)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	verifyCfg, err := verify.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	authCfg, err := authapi.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	mailCfg, err := mail.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	sessMetrics, err := session.NewMetrics(a.registry)
	if err != nil {
		a.close()
		return nil, err
	}
	verifyMetrics, err := verify.NewMetrics(a.registry)
	if err != nil {
		a.close()
		return nil, err
	}

	sessions, err := session.NewService(st.sessions, sessCfg,
		session.WithCodec(codec),
		session.WithMetrics(sessMetrics),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	mailer, err := mail.New(mailCfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	verifier, err := verify.NewManager(st.users, verifyCfg,
		verify.WithMailer(mailer),
		verify.WithMetrics(verifyMetrics),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	hasher, err := password.NewHasher(pwCfg)
	if err != nil {
		a.close()
		return nil, err
	}

	a.auth, err = authapi.NewHandler(log, authapi.Deps{
		Users:     st.users,
		Sessions:  sessions,
		Verifier:  verifier,
		Passwords: hasher,
	}, authCfg)
	if err != nil {
		a.close()
		return nil, err
	}

	if sessCfg.SweepInterval > 0 {
		if a.sweeper, err = a.newSweeper(st.sessions, sessCfg, sessMetrics); err != nil {
			a.close()
			return nil, err
		}
	}

	log.Info("app.ready",
		"db_enabled", a.dbPool != nil,
		"token_hmac", codec.Keyed(),
		"mail_provider", mailCfg.Provider,
		"require_email_verified", authCfg.RequireEmailVerified,
		"sweep_interval", sessCfg.SweepInterval.String(),
	)
	return a, nil
}

// openStores decides between Postgres-backed persistence and in-memory dev stores.
func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_store")
		users := identity.NewMemoryStore()
		return stores{users: users, sessions: session.NewMemoryStore(users)}, nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return stores{}, fmt.Errorf("db: %w", err)
	}
	a.dbPool = pool

	if a.cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			a.close()
			return stores{}, err
		}
		a.log.Info("db.migrate.done")
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		a.close()
		return stores{}, err
	}
	sessions, err := session.NewPostgresStore(pool)
	if err != nil {
		a.close()
		return stores{}, err
	}

	a.log.Info("db.enabled.postgres_store")
	return stores{users: users, sessions: sessions}, nil
}

func (a *App) newSweeper(st session.Store, cfg session.Config, m *session.Metrics) (*session.Sweeper, error) {
	opts := []session.SweeperOption{session.WithSweepMetrics(m)}

	if a.cfg.RedisURL != "" {
		ropts, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = redis.NewClient(ropts)

		locker, err := session.NewRedisLocker(a.redis, session.DefaultSweepLockKey, cfg.SweepLockTTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithLocker(locker))
	}

	return session.NewSweeper(st, a.log, cfg.SweepInterval, opts...), nil
}

// Handler returns the full HTTP stack: routes plus middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	var rdb redis.UniversalClient
	if a.redis != nil {
		rdb = a.redis
	}
	registerHTTP(mux, a.log, a.cfg, a.dbPool, rdb, a.registry, a.auth)

	return WithRequestID(WithRequestLogging(WithSecurityHeaders(mux), a.log))
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.sweeper.Run(sweepCtx)
	}()

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbPool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		runErr = err
	}

	stopSweep()
	<-sweepDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			runErr = err
		}
	}

	a.close()
	a.log.Info("server.stopped")
	return runErr
}

// close releases the pool and Redis client. Safe to call more than once.
func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
