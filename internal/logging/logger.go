package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "olanalytics"

// New builds the process logger. Every entry carries the service name.
func New(environment, level string) (*zap.Logger, error) {
	cfg, err := zapConfig(environment)
	if err != nil {
		return nil, err
	}

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{"service": serviceName}

	return cfg.Build()
}

func zapConfig(environment string) (zap.Config, error) {
	switch environment {
	case "production", "test":
		return zap.NewProductionConfig(), nil
	case "development":
		return zap.NewDevelopmentConfig(), nil
	default:
		return zap.Config{}, fmt.Errorf("unsupported environment: %s", environment)
	}
}

// Sequence summarizes an input sequence without logging its values.
func Sequence(key string, values []float64) zap.Field {
	return zap.Object(key, sequenceSummary(values))
}

type sequenceSummary []float64

func (s sequenceSummary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("len", len(s))
	if len(s) > 0 {
		enc.AddFloat64("first", s[0])
		enc.AddFloat64("last", s[len(s)-1])
	}
	return nil
}
