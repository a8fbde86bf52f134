// Package config loads application settings from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment override, e.g. TIMECARD_OCR_LANGUAGE.
const EnvPrefix = "TIMECARD"

// Allowlist sources.
const (
	AllowlistSourceFile     = "file"
	AllowlistSourceDatabase = "database"
	AllowlistSourceNone     = "none"
)

// Config holds all application configuration
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Allowlist AllowlistConfig `mapstructure:"allowlist"`
	Output    OutputConfig    `mapstructure:"output"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// OCRConfig controls rasterization and recognition.
type OCRConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Language     string  `mapstructure:"language"`
	RenderScale  float64 `mapstructure:"render_scale"`
	Contrast     float64 `mapstructure:"contrast"`
	MinWidth     int     `mapstructure:"min_width"`
	Whitelist    string  `mapstructure:"whitelist"`
	PageSegMode  int     `mapstructure:"page_seg_mode"`
	MinTextChars int     `mapstructure:"min_text_chars"`
	MaxPages     int     `mapstructure:"max_pages"`
}

// PipelineConfig controls batch execution.
type PipelineConfig struct {
	Workers              int           `mapstructure:"workers"`
	DocumentTimeout      time.Duration `mapstructure:"document_timeout"`
	SanityCeilingMinutes int           `mapstructure:"sanity_ceiling_minutes"`
}

// AllowlistConfig selects where canonical employee names come from.
type AllowlistConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// OutputConfig holds report destinations.
type OutputConfig struct {
	CSVPath string `mapstructure:"csv_path"`
	XLSX    bool   `mapstructure:"xlsx"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	UploadDir     string        `mapstructure:"upload_dir"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; existing variables are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := gotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configPath when it is set and exists, then applies environment
// overrides and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")

	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.render_scale", 4.0)
	v.SetDefault("ocr.contrast", 3.0)
	v.SetDefault("ocr.min_width", 2000)
	v.SetDefault("ocr.whitelist", "")
	v.SetDefault("ocr.page_seg_mode", 6)
	v.SetDefault("ocr.min_text_chars", 100)
	v.SetDefault("ocr.max_pages", 0)

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.document_timeout", 5*time.Minute)
	v.SetDefault("pipeline.sanity_ceiling_minutes", 31*24*60)

	v.SetDefault("allowlist.source", AllowlistSourceFile)
	v.SetDefault("allowlist.path", "")

	v.SetDefault("output.csv_path", "resultado_pontos.csv")
	v.SetDefault("output.xlsx", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.path", "data/timecard.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_size", 50<<20)
}

// bindEnvVars binds the short variable names used by deployments.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("allowlist.path", "TIMECARD_ALLOWLIST", "COLABORADORES_FILE")
	_ = v.BindEnv("database.path", "TIMECARD_DB_PATH", "DATABASE_PATH")
	_ = v.BindEnv("ocr.language", "TIMECARD_OCR_LANGUAGE", "TESSERACT_LANG")
	_ = v.BindEnv("logger.level", "TIMECARD_LOG_LEVEL", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OCR.RenderScale < 4 {
		return fmt.Errorf("ocr.render_scale must be at least 4, got %v", c.OCR.RenderScale)
	}
	if c.OCR.MinTextChars < 1 {
		return fmt.Errorf("ocr.min_text_chars must be positive")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.SanityCeilingMinutes <= 0 {
		return fmt.Errorf("pipeline.sanity_ceiling_minutes must be positive")
	}
	if c.Pipeline.DocumentTimeout < 0 {
		return fmt.Errorf("pipeline.document_timeout must not be negative")
	}
	switch c.Allowlist.Source {
	case AllowlistSourceFile, AllowlistSourceDatabase, AllowlistSourceNone:
	default:
		return fmt.Errorf("allowlist.source must be file, database or none, got %q", c.Allowlist.Source)
	}
	if c.Allowlist.Source == AllowlistSourceDatabase && c.Database.Path == "" {
		return fmt.Errorf("database.path is required when allowlist.source is database")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}
	return nil
}
