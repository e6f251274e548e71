package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sellerbridge/marketsync/internal/db"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// ImportConfig bounds the ingestion pipeline and names the artifact areas.
// Directories are passed into the artifact store at construction; nothing in
// the pipeline reads them from package state.
type ImportConfig struct {
	MaxRows      int
	MaxFileSize  int64
	ChunkSize    int
	Workers      int
	RunTimeout   time.Duration
	IncomingDir  string
	ProcessedDir string
	ErrorDir     string
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Import   ImportConfig
	Logging  LoggingConfig
}

// Addr returns the server listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads config.yaml from configPath, applying defaults and environment
// overrides (prefix MARKETSYNC, e.g. MARKETSYNC_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("MARKETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; defaults plus env overrides apply.
	}

	cfg := Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			AllowedOrigins:  v.GetStringSlice("server.allowed_origins"),
		},
		Database: db.Config{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
			MaxConns: int32(v.GetInt("database.max_conns")),
			MinConns: int32(v.GetInt("database.min_conns")),
		},
		Import: ImportConfig{
			MaxRows:      v.GetInt("import.max_rows"),
			MaxFileSize:  v.GetInt64("import.max_file_size"),
			ChunkSize:    v.GetInt("import.chunk_size"),
			Workers:      v.GetInt("import.workers"),
			RunTimeout:   v.GetDuration("import.run_timeout"),
			IncomingDir:  v.GetString("import.incoming_dir"),
			ProcessedDir: v.GetString("import.processed_dir"),
			ErrorDir:     v.GetString("import.error_dir"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if cfg.Import.ChunkSize <= 0 {
		return Config{}, fmt.Errorf("import.chunk_size must be positive, got %d", cfg.Import.ChunkSize)
	}
	if cfg.Import.MaxRows <= 0 {
		return Config{}, fmt.Errorf("import.max_rows must be positive, got %d", cfg.Import.MaxRows)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	defaults := db.DefaultConfig()
	v.SetDefault("database.host", defaults.Host)
	v.SetDefault("database.port", defaults.Port)
	v.SetDefault("database.user", defaults.User)
	v.SetDefault("database.password", defaults.Password)
	v.SetDefault("database.dbname", defaults.DBName)
	v.SetDefault("database.sslmode", defaults.SSLMode)
	v.SetDefault("database.max_conns", int(defaults.MaxConns))
	v.SetDefault("database.min_conns", int(defaults.MinConns))

	v.SetDefault("import.max_rows", 50000)
	v.SetDefault("import.max_file_size", int64(100*1024*1024))
	v.SetDefault("import.chunk_size", 1000)
	v.SetDefault("import.workers", 4)
	v.SetDefault("import.run_timeout", "10m")
	v.SetDefault("import.incoming_dir", "./data/incoming")
	v.SetDefault("import.processed_dir", "./data/processed")
	v.SetDefault("import.error_dir", "./data/error")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
