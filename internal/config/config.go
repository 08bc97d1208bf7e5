package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"callbreak/internal/domain"

	"github.com/spf13/viper"
)

// ErrFileNotFound is returned by Load when the config file does not exist.
var ErrFileNotFound = errors.New("config file not found")

// EnvPrefix marks Nakama runtime env entries that override file settings.
const EnvPrefix = "callbreak_"

// Timeouts groups every scheduler delay used by the table state machine.
type Timeouts struct {
	StartDelay      time.Duration `mapstructure:"start_delay"`
	BidTimeout      time.Duration `mapstructure:"bid_timeout"`
	PlayTimeout     time.Duration `mapstructure:"play_timeout"`
	AutoPlayDelay   time.Duration `mapstructure:"auto_play_delay"`
	RoundEndDelay   time.Duration `mapstructure:"round_end_delay"`
	WaitingTimeout  time.Duration `mapstructure:"waiting_timeout"`
	TimerRetryDelay time.Duration `mapstructure:"timer_retry_delay"`
	TimerMaxRetries int           `mapstructure:"timer_max_retries"`
	CallbackTimeout time.Duration `mapstructure:"callback_timeout"`
}

// LockConfig tunes the lease manager.
type LockConfig struct {
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	MaxRetries int           `mapstructure:"max_retries"`

	// LeaseTTL of zero keeps a lease until it is released.
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

// RedisConfig locates the Redis instance backing locks and table state.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AdminConfig configures the administrative RPC surface.
type AdminConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	StuckAfter    time.Duration `mapstructure:"stuck_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// GameConfig is the complete module configuration.
type GameConfig struct {
	TableTypes []domain.TableType `mapstructure:"table_types"`
	Timeouts   Timeouts           `mapstructure:"timeouts"`
	Lock       LockConfig         `mapstructure:"lock"`
	Redis      RedisConfig        `mapstructure:"redis"`
	Admin      AdminConfig        `mapstructure:"admin"`

	// AutoPlayBrain names the strategy used for timed-out and absent seats.
	AutoPlayBrain string `mapstructure:"auto_play_brain"`
}

// envKeys maps runtime env names (without EnvPrefix) to configuration keys.
var envKeys = map[string]string{
	"redis_addr":           "redis.addr",
	"redis_password":       "redis.password",
	"redis_db":             "redis.db",
	"redis_key_prefix":     "redis.key_prefix",
	"lock_retry_delay":     "lock.retry_delay",
	"lock_max_retries":     "lock.max_retries",
	"lock_lease_ttl":       "lock.lease_ttl",
	"start_delay":          "timeouts.start_delay",
	"bid_timeout":          "timeouts.bid_timeout",
	"play_timeout":         "timeouts.play_timeout",
	"auto_play_delay":      "timeouts.auto_play_delay",
	"round_end_delay":      "timeouts.round_end_delay",
	"waiting_timeout":      "timeouts.waiting_timeout",
	"timer_retry_delay":    "timeouts.timer_retry_delay",
	"timer_max_retries":    "timeouts.timer_max_retries",
	"callback_timeout":     "timeouts.callback_timeout",
	"admin_jwt_secret":     "admin.jwt_secret",
	"admin_stuck_after":    "admin.stuck_after",
	"admin_sweep_interval": "admin.sweep_interval",
	"auto_play_brain":      "auto_play_brain",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("table_types", []map[string]interface{}{
		{"id": "classic", "stake": 100, "prize": 360, "deals": 5},
	})
	v.SetDefault("timeouts.start_delay", 3*time.Second)
	v.SetDefault("timeouts.bid_timeout", 15*time.Second)
	v.SetDefault("timeouts.play_timeout", 15*time.Second)
	v.SetDefault("timeouts.auto_play_delay", time.Second)
	v.SetDefault("timeouts.round_end_delay", 5*time.Second)
	v.SetDefault("timeouts.waiting_timeout", 2*time.Minute)
	v.SetDefault("timeouts.timer_retry_delay", 250*time.Millisecond)
	v.SetDefault("timeouts.timer_max_retries", 5)
	v.SetDefault("timeouts.callback_timeout", 10*time.Second)
	v.SetDefault("lock.retry_delay", 50*time.Millisecond)
	v.SetDefault("lock.max_retries", 20)
	v.SetDefault("lock.lease_ttl", time.Duration(0))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "cb")
	v.SetDefault("admin.stuck_after", 30*time.Minute)
	v.SetDefault("admin.sweep_interval", time.Duration(0))
	v.SetDefault("auto_play_brain", "fallback")
}

// Load reads the configuration file at path (skipped when empty), applies
// defaults and overlays runtime env entries prefixed with EnvPrefix.
func Load(path string, env map[string]string) (*GameConfig, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read game config: %w", err)
		}
	}

	for name, value := range env {
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if key, ok := envKeys[strings.TrimPrefix(name, EnvPrefix)]; ok {
			v.Set(key, value)
		}
	}

	var cfg GameConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the state machine relies on.
func (c *GameConfig) Validate() error {
	if len(c.TableTypes) == 0 {
		return errors.New("config: at least one table type is required")
	}
	seen := make(map[string]bool, len(c.TableTypes))
	for _, tt := range c.TableTypes {
		if tt.ID == "" {
			return errors.New("config: table type id is required")
		}
		if seen[tt.ID] {
			return fmt.Errorf("config: duplicate table type %q", tt.ID)
		}
		seen[tt.ID] = true
		if tt.Deals < 1 {
			return fmt.Errorf("config: table type %q needs at least one deal", tt.ID)
		}
		if tt.Stake < 0 || tt.Prize < 0 {
			return fmt.Errorf("config: table type %q has a negative amount", tt.ID)
		}
	}
	t := c.Timeouts
	for name, d := range map[string]time.Duration{
		"start_delay":     t.StartDelay,
		"bid_timeout":     t.BidTimeout,
		"play_timeout":    t.PlayTimeout,
		"auto_play_delay": t.AutoPlayDelay,
		"round_end_delay": t.RoundEndDelay,
		"waiting_timeout": t.WaitingTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: timeouts.%s must be positive", name)
		}
	}
	if c.Lock.MaxRetries < 1 {
		return errors.New("config: lock.max_retries must be at least 1")
	}
	return nil
}

// TableType returns the table type with the given id.
func (c *GameConfig) TableType(id string) (domain.TableType, bool) {
	for _, tt := range c.TableTypes {
		if tt.ID == id {
			return tt, true
		}
	}
	return domain.TableType{}, false
}
