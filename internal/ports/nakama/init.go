package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"callbreak/internal/app"
	"callbreak/internal/bot"
	"callbreak/internal/config"
	"callbreak/internal/lock"
	"callbreak/internal/scheduler"
	"callbreak/internal/store"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/redis/go-redis/v9"
)

// InitModule wires the table service, RPCs and session hooks for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg, err := loadConfig(logger, configPath, env)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}

	brain, err := bot.NewBrain(bot.Level(cfg.AutoPlayBrain))
	if err != nil {
		logger.Warn("InitModule: %v, using fallback auto-play", err)
		brain = bot.FallbackBrain{}
	}

	tables := store.New(rdb, cfg.Redis.KeyPrefix)
	locks := lock.New(rdb, lock.Options{
		Prefix:     cfg.Redis.KeyPrefix,
		RetryDelay: cfg.Lock.RetryDelay,
		MaxRetries: cfg.Lock.MaxRetries,
		TTL:        cfg.Lock.LeaseTTL,
	})
	sched := scheduler.New(tables, logger, scheduler.Options{
		RetryDelay:      cfg.Timeouts.TimerRetryDelay,
		MaxRetries:      cfg.Timeouts.TimerMaxRetries,
		CallbackTimeout: cfg.Timeouts.CallbackTimeout,
	})

	svc := app.NewService(app.Deps{
		Store:    tables,
		Locks:    locks,
		Timers:   sched,
		Economy:  NewNakamaEconomyAdapter(nk),
		Profiles: NewNakamaProfileAdapter(nk),
		History:  NewNakamaHistoryAdapter(nk),
		Notifier: NewNakamaNotifier(nk),
		Brain:    brain,
		Config:   cfg,
		Logger:   logger,
	})
	sched.Bind(svc.HandleTimeout)

	tableService = svc
	adminAuth = app.NewAdminAuth(cfg.Admin.JWTSecret)
	adminStuckAfter = cfg.Admin.StuckAfter

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}
	if err := initializer.RegisterEventSessionEnd(OnSessionEnd); err != nil {
		return err
	}

	if cfg.Admin.SweepInterval > 0 {
		go svc.RunStuckSweeper(context.Background(), cfg.Admin.SweepInterval, cfg.Admin.StuckAfter)
	}

	logger.Info("Call Break Go module loaded (%d table types, brain %s).", len(cfg.TableTypes), cfg.AutoPlayBrain)
	return nil
}

// loadConfig reads the game config file. Only a missing file falls back to
// the built-in defaults; a file that exists but does not load fails startup.
func loadConfig(logger runtime.Logger, path string, env map[string]string) (*config.GameConfig, error) {
	cfg, err := config.Load(path, env)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, config.ErrFileNotFound) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Warn("InitModule: %s not found, using defaults", path)
	if cfg, err = config.Load("", env); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}
	return cfg, nil
}
