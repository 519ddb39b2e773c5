package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// MinStorageInitTimeout is the lower bound for the embedded storage startup check.
const MinStorageInitTimeout = 3 * time.Second

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Remote  RemoteConfig
	Sync    SyncConfig
	Log     LogConfig
	CORS    CORSConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Host  string
	Port  string
	Debug bool
}

type StorageConfig struct {
	DataDir         string
	EmbeddedEnabled bool
	InitTimeout     time.Duration
}

// KVPath is the bbolt file used by the key-value backend, the delete queue
// and the session cache.
func (c *StorageConfig) KVPath() string {
	return filepath.Join(c.DataDir, "local.kv")
}

// SQLitePath is the database file used by the embedded relational backend.
func (c *StorageConfig) SQLitePath() string {
	return filepath.Join(c.DataDir, "local.db")
}

type RemoteConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type SyncConfig struct {
	SettleDelay      time.Duration
	ReconcileOnRead  bool
	ReconcileTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "posyncd")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_HOST", "127.0.0.1")
	viper.SetDefault("APP_PORT", "8787")
	viper.SetDefault("APP_DEBUG", false)
	viper.SetDefault("STORAGE_DATA_DIR", "./data")
	viper.SetDefault("STORAGE_EMBEDDED_ENABLED", true)
	viper.SetDefault("STORAGE_INIT_TIMEOUT", "5s")
	viper.SetDefault("REMOTE_BASE_URL", "")
	viper.SetDefault("REMOTE_TIMEOUT", "30s")
	viper.SetDefault("REMOTE_REQUESTS_PER_SECOND", 5)
	viper.SetDefault("REMOTE_BURST", 10)
	viper.SetDefault("SYNC_SETTLE_DELAY", "500ms")
	viper.SetDefault("SYNC_RECONCILE_ON_READ", true)
	viper.SetDefault("SYNC_RECONCILE_TIMEOUT", "3s")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})

	initTimeout := viper.GetDuration("STORAGE_INIT_TIMEOUT")
	if initTimeout < MinStorageInitTimeout {
		log.Printf("Warning: STORAGE_INIT_TIMEOUT %s below minimum, using %s", initTimeout, MinStorageInitTimeout)
		initTimeout = MinStorageInitTimeout
	}

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Host:  viper.GetString("APP_HOST"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Storage: StorageConfig{
			DataDir:         viper.GetString("STORAGE_DATA_DIR"),
			EmbeddedEnabled: viper.GetBool("STORAGE_EMBEDDED_ENABLED"),
			InitTimeout:     initTimeout,
		},
		Remote: RemoteConfig{
			BaseURL:           viper.GetString("REMOTE_BASE_URL"),
			Timeout:           viper.GetDuration("REMOTE_TIMEOUT"),
			RequestsPerSecond: viper.GetFloat64("REMOTE_REQUESTS_PER_SECOND"),
			Burst:             viper.GetInt("REMOTE_BURST"),
		},
		Sync: SyncConfig{
			SettleDelay:      viper.GetDuration("SYNC_SETTLE_DELAY"),
			ReconcileOnRead:  viper.GetBool("SYNC_RECONCILE_ON_READ"),
			ReconcileTimeout: viper.GetDuration("SYNC_RECONCILE_TIMEOUT"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
	}
}

// Addr is the listen address of the local daemon
func (c *AppConfig) Addr() string {
	return c.Host + ":" + c.Port
}
