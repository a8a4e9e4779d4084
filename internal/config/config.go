package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultLogLevel          = "info"
	defaultEnvironment       = "production"
	defaultMaxSamples        = 100000
	defaultMaxElbowSamples   = 10000
	defaultDeltaR            = 0.1
)

type Config struct {
	HTTPAddr          string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	LogLevel          string
	Environment       string
	// MaxSamples caps the length of every sequence accepted over HTTP.
	MaxSamples int
	// MaxElbowSamples caps doubleline elbow requests, whose cost grows with
	// the square of the sequence length.
	MaxElbowSamples int
	// DefaultDeltaR is used by isolation requests that omit delta_r.
	DefaultDeltaR float64
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		HTTPAddr:          defaultHTTPAddr,
		ShutdownTimeout:   defaultShutdownTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		LogLevel:          defaultLogLevel,
		Environment:       defaultEnvironment,
		MaxSamples:        defaultMaxSamples,
		MaxElbowSamples:   defaultMaxElbowSamples,
		DefaultDeltaR:     defaultDeltaR,
	}
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := Default()

	if v := strings.TrimSpace(os.Getenv("OLANALYTICS_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"OLANALYTICS_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
		{"OLANALYTICS_READ_HEADER_TIMEOUT", &cfg.ReadHeaderTimeout},
		{"OLANALYTICS_WRITE_TIMEOUT", &cfg.WriteTimeout},
		{"OLANALYTICS_IDLE_TIMEOUT", &cfg.IdleTimeout},
	}
	for _, d := range durations {
		v, ok, err := readDurationEnv(d.key)
		if err != nil {
			return Config{}, err
		}
		if ok {
			*d.target = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("OLANALYTICS_LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v := strings.TrimSpace(os.Getenv("OLANALYTICS_ENV")); v != "" {
		cfg.Environment = strings.ToLower(v)
	}

	switch cfg.Environment {
	case "production", "development", "test":
	default:
		return Config{}, fmt.Errorf("OLANALYTICS_ENV must be one of: production, development, test")
	}

	if n, ok, err := readPositiveIntEnv("OLANALYTICS_MAX_SAMPLES"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.MaxSamples = n
	}

	if n, ok, err := readPositiveIntEnv("OLANALYTICS_MAX_ELBOW_SAMPLES"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.MaxElbowSamples = n
	}

	if f, ok, err := readPositiveFloatEnv("OLANALYTICS_DEFAULT_DELTA_R"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.DefaultDeltaR = f
	}

	return cfg, nil
}

func readDurationEnv(key string) (time.Duration, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, false, fmt.Errorf("%s must be positive", key)
	}

	return d, true, nil
}

func readPositiveIntEnv(key string) (int, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	if n <= 0 {
		return 0, false, fmt.Errorf("%s must be positive", key)
	}

	return n, true, nil
}

func readPositiveFloatEnv(key string) (float64, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	if f <= 0 || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%s must be a positive finite number", key)
	}

	return f, true, nil
}
