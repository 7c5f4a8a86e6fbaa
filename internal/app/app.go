// Package app wires the configured store, identity gate, sync engine,
// mutation gateway and notification sinks into one unit the CLI drives.
package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/finora-dev/finora/internal/config"
	"github.com/finora-dev/finora/internal/identity"
	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/mutation"
	"github.com/finora-dev/finora/internal/notify"
	"github.com/finora-dev/finora/internal/replica"
	"github.com/finora-dev/finora/internal/store"
	"github.com/finora-dev/finora/internal/store/pgstore"
	"github.com/finora-dev/finora/internal/store/sqlstore"
)

// Options tune Open.
type Options struct {
	// Owner overrides the configured owner uid when non-empty.
	Owner string
	// Verbose also sends notifications to the logger.
	Verbose bool
	Logger  *log.Logger
}

// App is a running ledger session.
type App struct {
	Config   *config.Config
	Dir      string
	Logger   *log.Logger
	Store    store.Store
	Gate     *identity.Gate
	Engine   *replica.Engine
	Gateway  *mutation.Gateway
	Feed     *notify.FeedFile
	Notifier notify.Emitter

	discord *notify.Discord
	cancel  context.CancelFunc
	done    chan struct{}
}

// Open loads the config at cfgPath, opens its store and starts following
// the configured owner.
func Open(cfgPath string, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	dir := filepath.Dir(cfgPath)

	if err := config.LoadEnv(dir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if opts.Owner != "" {
		cfg.Owner = config.OwnerConfig{UID: opts.Owner, DisplayName: opts.Owner}
	}

	st, err := OpenStore(cfg, dir, opts.Logger)
	if err != nil {
		return nil, err
	}

	var discord *notify.Discord
	if cfg.Notifications.Enabled && cfg.Notifications.DiscordChannel != "" {
		token := config.DiscordToken()
		if token == "" {
			opts.Logger.Printf("notifications.discord_channel is set but %s is empty; Discord notifications disabled", config.DiscordTokenEnv)
		} else {
			discord, err = notify.NewDiscord(token, cfg.Notifications.DiscordChannel, opts.Logger)
			if err != nil {
				_ = st.Close()
				return nil, err
			}
		}
	}

	return New(cfg, dir, st, opts.Logger, discord, opts.Verbose), nil
}

// OpenStore opens the store selected by cfg.Store.Driver.
func OpenStore(cfg *config.Config, dir string, logger *log.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err := sqlstore.Open(config.Resolve(dir, cfg.Store.Path))
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		pgcfg, err := pgstore.ParseConfig(nil)
		if err != nil {
			return nil, err
		}
		st, err := pgstore.Open(pgcfg, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// New assembles an App over an open store. discord may be nil.
func New(cfg *config.Config, dir string, st store.Store, logger *log.Logger, discord *notify.Discord, verbose bool) *App {
	var initial *model.Identity
	if cfg.Owner.UID != "" {
		initial = &model.Identity{UID: cfg.Owner.UID, DisplayName: cfg.Owner.DisplayName}
	}

	a := &App{
		Config:  cfg,
		Dir:     dir,
		Logger:  logger,
		Store:   st,
		Gate:    identity.NewGate(initial),
		Engine:  replica.NewEngine(st, logger),
		discord: discord,
		done:    make(chan struct{}),
	}

	var sinks notify.Multi
	if cfg.Notifications.LogFile != "" {
		a.Feed = notify.NewFeedFile(config.Resolve(dir, cfg.Notifications.LogFile), logger)
		sinks = append(sinks, a.Feed)
	}
	if discord != nil {
		sinks = append(sinks, discord)
	}
	if verbose {
		sinks = append(sinks, notify.LogEmitter{Logger: logger})
	}
	a.Notifier = notify.Toggle{Emitter: sinks, Enabled: cfg.Notifications.Enabled}

	a.Gateway = mutation.NewGateway(st, a.Gate, a.Notifier, mutation.Options{
		Currency: cfg.Currency,
		Logger:   logger,
		Lookup:   a.Lookup,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		defer close(a.done)
		a.Engine.Follow(ctx, a.Gate)
	}()
	return a
}

// Ledger waits until the replica reflects the current identity and returns it.
func (a *App) Ledger(ctx context.Context) (replica.View, error) {
	return a.Engine.WaitFor(ctx, func(v replica.View) bool {
		return v.Loaded && model.SameIdentity(v.Owner, a.Gate.Current())
	})
}

// Lookup finds id in the current replica.
func (a *App) Lookup(id string) (model.Transaction, bool) {
	for _, t := range a.Engine.View().Entries {
		if t.ID == id {
			return t, true
		}
	}
	return model.Transaction{}, false
}

// Close stops following the identity, delivers pending notifications and
// closes the store.
func (a *App) Close() error {
	a.cancel()
	<-a.done
	if a.discord != nil {
		a.discord.Flush()
	}
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
