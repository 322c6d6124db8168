package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Payment   PaymentConfig   `mapstructure:"payment"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     string        `mapstructure:"cors_origins"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WebSocketConfig holds socket pump settings
type WebSocketConfig struct {
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// PingInterval is derived from the pong timeout so pings always land before the read deadline
func (c WebSocketConfig) PingInterval() time.Duration {
	return (c.PongTimeout * 9) / 10
}

// GameConfig holds the rules of the call-and-tap game
type GameConfig struct {
	CallWindow          time.Duration `mapstructure:"call_window"`
	InitialPoints       int           `mapstructure:"initial_points"`
	SwapCost            int           `mapstructure:"swap_cost"`
	BoostPoints         int           `mapstructure:"boost_points"`
	MinPlayers          int           `mapstructure:"min_players"`
	MaxPlayers          int           `mapstructure:"max_players"`
	MaxNameLength       int           `mapstructure:"max_name_length"`
	DefaultTimerSeconds int           `mapstructure:"default_timer_seconds"`
	MaxTimerSeconds     int           `mapstructure:"max_timer_seconds"`
	CreatorAnimal       string        `mapstructure:"creator_animal"`
	Animals             []string      `mapstructure:"animals"`
	RejoinGrace         time.Duration `mapstructure:"rejoin_grace"`
	IdleTimeout         time.Duration `mapstructure:"idle_timeout"`
	EndedRetention      time.Duration `mapstructure:"ended_retention"`
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig holds rotation settings for file output
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// RedisConfig holds the snapshot/leaderboard cache connection
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MongoConfig holds the match archive connection
type MongoConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds session token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// PaymentConfig holds Stripe checkout settings
type PaymentConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	SecretKey           string `mapstructure:"secret_key"`
	WebhookSecret       string `mapstructure:"webhook_secret"`
	PriceID             string `mapstructure:"price_id"`
	SuccessURL          string `mapstructure:"success_url"`
	CancelURL           string `mapstructure:"cancel_url"`
	RequireConfirmation bool   `mapstructure:"require_confirmation"`
}

// Loader reads configuration from file and environment and can watch the file for changes
type Loader struct {
	v   *viper.Viper
	mu  sync.RWMutex
	cfg *Config
}

// NewLoader creates a loader for the given config file path.
// An empty path searches ./config.yaml and ./config/config.yaml.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SURVIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return &Loader{v: v}
}

// Load reads the config file (missing file is fine) and unmarshals it
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Get returns the most recently loaded config
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Watch reloads the config when the file changes and hands the new value to callback.
// A reload that fails validation keeps the previous config.
func (l *Loader) Watch(callback func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := l.v.Unmarshal(next); err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		if err := next.Validate(); err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		l.mu.Lock()
		l.cfg = next
		l.mu.Unlock()

		if callback != nil {
			callback(next)
		}
	})
	l.v.WatchConfig()
}

// Validate checks the values the game rules depend on
func (c *Config) Validate() error {
	g := c.Game
	switch {
	case g.CallWindow <= 0:
		return fmt.Errorf("game.call_window must be positive")
	case g.MinPlayers < 2:
		return fmt.Errorf("game.min_players must be at least 2")
	case g.MaxPlayers < g.MinPlayers:
		return fmt.Errorf("game.max_players must be >= game.min_players")
	case g.SwapCost < 0:
		return fmt.Errorf("game.swap_cost must not be negative")
	case g.MaxNameLength <= 0:
		return fmt.Errorf("game.max_name_length must be positive")
	case g.DefaultTimerSeconds <= 0 || g.MaxTimerSeconds < g.DefaultTimerSeconds:
		return fmt.Errorf("game timer bounds are invalid")
	case g.CreatorAnimal == "":
		return fmt.Errorf("game.creator_animal is required")
	}
	ws := c.WebSocket
	switch {
	case ws.PongTimeout <= 0 || ws.PingInterval() <= 0:
		return fmt.Errorf("websocket.pong_timeout must be positive")
	case ws.WriteTimeout <= 0:
		return fmt.Errorf("websocket.write_timeout must be positive")
	case ws.SendBuffer <= 0:
		return fmt.Errorf("websocket.send_buffer must be positive")
	case ws.MaxMessageSize <= 0:
		return fmt.Errorf("websocket.max_message_size must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Payment.Enabled && (c.Payment.SecretKey == "" || c.Payment.PriceID == "") {
		return fmt.Errorf("payment.secret_key and payment.price_id are required when payments are enabled")
	}
	return nil
}

// Default returns the built-in configuration without reading files or env
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults are static and always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", "*")

	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")

	v.SetDefault("game.call_window", "10s")
	v.SetDefault("game.initial_points", 20)
	v.SetDefault("game.swap_cost", 2)
	v.SetDefault("game.boost_points", 10)
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.max_players", 12)
	v.SetDefault("game.max_name_length", 24)
	v.SetDefault("game.default_timer_seconds", 600)
	v.SetDefault("game.max_timer_seconds", 3600)
	v.SetDefault("game.creator_animal", "Aardvark")
	v.SetDefault("game.animals", []string{
		"Badger", "Cheetah", "Dolphin", "Elephant", "Flamingo", "Gorilla",
		"Hedgehog", "Iguana", "Jaguar", "Koala", "Lemur", "Meerkat",
	})
	v.SetDefault("game.rejoin_grace", "60s")
	v.SetDefault("game.idle_timeout", "2h")
	v.SetDefault("game.ended_retention", "15m")
	v.SetDefault("game.sweep_interval", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "survive.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "24h")

	v.SetDefault("mongo.enabled", false)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "survive")
	v.SetDefault("mongo.timeout", "5s")

	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("payment.enabled", false)
	v.SetDefault("payment.success_url", "http://localhost:3000/boost/success")
	v.SetDefault("payment.cancel_url", "http://localhost:3000/boost/cancel")
	v.SetDefault("payment.require_confirmation", false)
}
