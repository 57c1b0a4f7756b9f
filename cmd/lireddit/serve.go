// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lireddit/lireddit/internal/api"
	"github.com/lireddit/lireddit/internal/auth"
	"github.com/lireddit/lireddit/internal/auth/memory"
	"github.com/lireddit/lireddit/internal/auth/mongo"
	"github.com/lireddit/lireddit/internal/auth/postgres"
	"github.com/lireddit/lireddit/internal/config"
	"github.com/lireddit/lireddit/internal/logging"
	"github.com/lireddit/lireddit/internal/observability"
	"github.com/lireddit/lireddit/internal/session"
	sessionredis "github.com/lireddit/lireddit/internal/session/redis"
	"github.com/lireddit/lireddit/internal/store"
)

const shutdownTimeout = 10 * time.Second

// closer releases a backend at shutdown.
type closer func(ctx context.Context) error

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their default implementations.
type ServeDeps struct {
	// OpenAccounts opens the configured account repository.
	// Default: openAccounts
	OpenAccounts func(ctx context.Context, cfg *config.Config) (auth.AccountRepository, closer, error)

	// OpenSessions opens the configured session store.
	// Default: openSessions
	OpenSessions func(ctx context.Context, cfg *config.Config) (session.Store, closer, error)

	// OnReady is called with the bound API address once requests are served.
	OnReady func(apiAddr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the account API and, unless --metrics-addr is empty, the
metrics and health server. Connection strings come from DATABASE_URL,
MONGODB_URI and REDIS_URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe wires the service and blocks until ctx is done or a server fails.
func runServe(ctx context.Context, cfg *config.Config, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.OpenAccounts == nil {
		deps.OpenAccounts = openAccounts
	}
	if deps.OpenSessions == nil {
		deps.OpenSessions = openSessions
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.SetDefault("lireddit", version, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}
	logger.Info("starting lireddit",
		"http_addr", cfg.HTTP.Addr,
		"accounts_driver", cfg.Accounts.Driver,
		"sessions_driver", cfg.Sessions.Driver,
	)

	var closers []closer
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](closeCtx); err != nil {
				logger.Warn("error closing backend", "error", err)
			}
		}
	}()

	accounts, closeAccounts, err := deps.OpenAccounts(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open account repository").Wrap(err)
	}
	closers = append(closers, closeAccounts)

	sessions, closeSessions, err := deps.OpenSessions(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open session store").Wrap(err)
	}
	closers = append(closers, closeSessions)

	hasher, err := auth.NewArgon2idHasherWithParams(cfg.Argon2Params())
	if err != nil {
		return err
	}

	var ready atomic.Bool
	var obsServer *observability.Server
	var obsErrCh <-chan error
	opts := []auth.ServiceOption{auth.WithLogger(logger)}
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, ready.Load)
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		closers = append(closers, obsServer.Stop)
		opts = append(opts, auth.WithRecorder(obsServer.Metrics()))
	}

	svc, err := auth.NewService(accounts, hasher, opts...)
	if err != nil {
		return err
	}
	manager, err := session.NewManager(sessions, cfg.SessionOptions())
	if err != nil {
		return err
	}

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTP.Addr
	apiServer := api.NewServer(api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Accounts: svc,
		Sessions: manager,
	}), serverCfg, logger)

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return err
	}
	closers = append(closers, apiServer.Shutdown)

	ready.Store(true)
	logger.Info("lireddit ready", "api_addr", apiServer.Addr())
	if deps.OnReady != nil {
		deps.OnReady(apiServer.Addr())
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-apiErrCh:
		if err != nil {
			return err
		}
	case err := <-obsErrCh:
		if err != nil {
			return oops.With("component", "observability").Wrap(err)
		}
	}
	ready.Store(false)
	return nil
}

func openAccounts(ctx context.Context, cfg *config.Config) (auth.AccountRepository, closer, error) {
	switch cfg.Accounts.Driver {
	case config.DriverPostgres:
		pool, err := store.Connect(ctx, cfg.Accounts.DatabaseURL, store.DefaultRetryConfig())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAccountRepository(pool), func(context.Context) error {
			pool.Close()
			return nil
		}, nil
	case config.DriverMongo:
		repo, client, err := mongo.Open(ctx, cfg.Accounts.MongoURI, cfg.Accounts.MongoDatabase, store.DefaultRetryConfig())
		if err != nil {
			return nil, nil, err
		}
		return repo, client.Disconnect, nil
	case config.DriverMemory:
		slog.Warn("using in-memory account repository; accounts are lost on restart")
		return memory.NewAccountRepository(), noopClose, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("key", "accounts.driver").
			Errorf("unknown accounts driver %q", cfg.Accounts.Driver)
	}
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, closer, error) {
	switch cfg.Sessions.Driver {
	case config.SessionDriverRedis:
		redisCfg := sessionredis.DefaultConfig()
		redisCfg.URL = cfg.Sessions.RedisURL
		st, err := sessionredis.New(ctx, redisCfg, store.DefaultRetryConfig())
		if err != nil {
			return nil, nil, err
		}
		return st, func(context.Context) error { return st.Close() }, nil
	case config.SessionDriverMemory:
		return session.NewMemoryStore(), noopClose, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("key", "sessions.driver").
			Errorf("unknown sessions driver %q", cfg.Sessions.Driver)
	}
}

func noopClose(context.Context) error { return nil }
