package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewAcceptsSupportedEnvironments(t *testing.T) {
	environments := []string{"production", "development", "test"}
	for _, env := range environments {
		logger, err := New(env, "info")
		if err != nil {
			t.Fatalf("expected no error for environment %q, got %v", env, err)
		}
		_ = logger.Sync()
	}
}

func TestNewRejectsInvalidLogLevel(t *testing.T) {
	_, err := New("production", "invalid")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	_, err := New("staging", "info")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestSequenceSummarizesValues(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	logger.Info("detect", Sequence("y", []float64{3, 1, 4, 1, 5}))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	summary, ok := entries[0].ContextMap()["y"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object field, got %#v", entries[0].ContextMap()["y"])
	}
	if summary["len"] != 5 {
		t.Fatalf("expected len 5, got %#v", summary["len"])
	}
	if summary["first"] != float64(3) || summary["last"] != float64(5) {
		t.Fatalf("unexpected summary %#v", summary)
	}
}
