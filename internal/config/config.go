// Package config loads settings from confere.yaml, a .env file and
// CONFERE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const envPrefix = "CONFERE_"

type Config struct {
	// Database
	DBDriver string `yaml:"DB_DRIVER"`
	DBDSN    string `yaml:"DB_DSN"`

	// Logging
	LogLevel string `yaml:"LOG_LEVEL"`
	LogFile  string `yaml:"LOG_FILE"`

	// Display
	Currency string `yaml:"CURRENCY"`

	// Images: "local" or "s3". Local images live under IMAGE_DIR.
	ImageBackend string `yaml:"IMAGE_BACKEND"`
	ImageDir     string `yaml:"IMAGE_DIR"`
	S3Bucket     string `yaml:"S3_BUCKET"`
	S3Region     string `yaml:"S3_REGION"`
	S3AccessKey  string `yaml:"S3_ACCESS_KEY"`
	S3SecretKey  string `yaml:"S3_SECRET_KEY"`
	S3Endpoint   string `yaml:"S3_ENDPOINT"`

	// Premium status endpoint; empty unlocks everything
	PremiumURL string `yaml:"PREMIUM_URL"`
	DeviceID   string `yaml:"DEVICE_ID"`

	// HTTP API
	HTTPAddr  string `yaml:"HTTP_ADDR"`
	RateLimit int    `yaml:"RATE_LIMIT"`
}

// Dir is where confere keeps its files by default.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".confere"
	}
	return filepath.Join(home, ".confere")
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DBDriver:     "sqlite",
		DBDSN:        filepath.Join(Dir(), "confere.db"),
		LogLevel:     "warn",
		Currency:     "AOA",
		ImageBackend: "local",
		ImageDir:     filepath.Join(Dir(), "images"),
		HTTPAddr:     ":8080",
		RateLimit:    20,
	}
}

// Load reads path (or CONFERE_CONFIG, or ~/.confere/confere.yaml), then .env,
// then the environment. Only an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(envPrefix + "CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join(Dir(), "confere.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DB_DRIVER":     &c.DBDriver,
		"DB_DSN":        &c.DBDSN,
		"LOG_LEVEL":     &c.LogLevel,
		"LOG_FILE":      &c.LogFile,
		"CURRENCY":      &c.Currency,
		"IMAGE_BACKEND": &c.ImageBackend,
		"IMAGE_DIR":     &c.ImageDir,
		"S3_BUCKET":     &c.S3Bucket,
		"S3_REGION":     &c.S3Region,
		"S3_ACCESS_KEY": &c.S3AccessKey,
		"S3_SECRET_KEY": &c.S3SecretKey,
		"S3_ENDPOINT":   &c.S3Endpoint,
		"PREMIUM_URL":   &c.PremiumURL,
		"DEVICE_ID":     &c.DeviceID,
		"HTTP_ADDR":     &c.HTTPAddr,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		c.RateLimit = n
	}
	return nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is empty")
	}
	if c.ImageDir == "" {
		return errors.New("IMAGE_DIR is empty")
	}
	switch c.ImageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("IMAGE_BACKEND is s3 but S3_BUCKET is empty")
		}
	default:
		return fmt.Errorf("unknown IMAGE_BACKEND %q (want local or s3)", c.ImageBackend)
	}
	if money.GetCurrency(strings.ToUpper(c.Currency)) == nil {
		return fmt.Errorf("unknown CURRENCY %q", c.Currency)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to the logger's level.
func ParseLevel(name string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "", "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return log.LevelWarn, fmt.Errorf("unknown LOG_LEVEL %q", name)
	}
}

// SetupLogging points the app logger at LOG_FILE (stderr when empty) and
// sets its level. The returned closer releases the file.
func SetupLogging(c Config) (io.Closer, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	if c.LogFile == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(c.LogFile), os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}
