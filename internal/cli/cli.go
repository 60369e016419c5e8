// Package cli wires configuration, credentials, logging, the remote store
// and the cascade outbox together and exposes them as cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/nhle/workpad/internal/credential"
	"github.com/nhle/workpad/internal/logger"
	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/outbox"
	"github.com/nhle/workpad/internal/postgrest"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/store"
	appsync "github.com/nhle/workpad/internal/sync"
)

// Options control how Bootstrap builds the dependencies.
type Options struct {
	ConfigPath string
	EnvFile    string

	// Console mirrors log output to stderr. The TUI turns it off.
	Console bool
}

// Deps is everything a command needs. Outbox and Drainer are nil when the
// local queue could not be opened.
type Deps struct {
	Config  *model.AppConfig
	Logger  *slog.Logger
	Service *service.Service
	Outbox  *outbox.Outbox
	Drainer *appsync.Drainer

	closers []io.Closer
}

// Close releases the outbox and the log file.
func (d *Deps) Close() error {
	if d.Drainer != nil {
		d.Drainer.Stop()
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bootstrapper builds Deps. Tests substitute one backed by a fake store.
type Bootstrapper func(ctx context.Context, opts Options) (*Deps, error)

// Bootstrap loads .env and the config file, resolves the API key, and
// builds the service stack on top of the remote store.
func Bootstrap(ctx context.Context, opts Options) (*Deps, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := model.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	key, err := credential.ResolveAPIKey(cfg.Store.APIKey)
	if err != nil {
		return nil, fmt.Errorf("reading API key from keyring: %w", err)
	}
	cfg.Store.APIKey = key
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig(cfg.Log.Dir)
	logCfg.Level = logger.ParseLevel(cfg.Log.Level)
	logCfg.Console = opts.Console || cfg.Log.Console
	log, logCloser, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	deps := &Deps{Config: cfg, Logger: log, closers: []io.Closer{logCloser}}

	client := postgrest.NewClient(
		cfg.Store.URL,
		cfg.Store.APIKey,
		time.Duration(cfg.Store.TimeoutSec)*time.Second,
	)
	remote := store.NewRemoteStore(client, cfg.Store.Tables, cfg.Storage.Bucket)

	svcOpts := []service.Option{service.WithLogger(log)}
	ob, err := outbox.Open(cfg.Outbox.Path)
	if err != nil {
		log.Warn("cascade outbox unavailable, failed cascades will not be retried",
			"path", cfg.Outbox.Path, "error", err)
	} else {
		deps.Outbox = ob
		deps.closers = append(deps.closers, ob)
		deps.Drainer = appsync.New(ob, remote,
			time.Duration(cfg.Outbox.IntervalSec)*time.Second, log)
		svcOpts = append(svcOpts, service.WithCascadeQueue(ob))
	}

	deps.Service = service.New(remote, svcOpts...)

	log.Debug("bootstrapped", "store", cfg.Store.URL, "outbox", deps.Outbox != nil)
	return deps, nil
}

// loadEnvFile loads path into the environment without overriding
// variables that are already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
