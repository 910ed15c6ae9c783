package main

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"pneumonet/internal/classify"
	"pneumonet/internal/config"
	"pneumonet/internal/logging"
)

func TestLoadEngineMock(t *testing.T) {
	logging.Logger = zap.NewNop()

	engine := loadEngine(&config.Config{UseMockInference: true})
	if engine == nil {
		t.Fatal("Expected a mock engine, got nil")
	}
	defer engine.Close()
}

func TestLoadEngineMissingModelDegrades(t *testing.T) {
	logging.Logger = zap.NewNop()

	cfg := &config.Config{Model: filepath.Join(t.TempDir(), "missing.onnx")}
	engine := loadEngine(cfg)
	if engine != nil {
		t.Fatal("Expected nil engine for a missing model file")
	}

	// The server wires the nil engine into the pipeline and keeps
	// serving; only readiness and predict routes are affected.
	threshold, err := classify.NewThreshold(0.5)
	if err != nil {
		t.Fatalf("failed to create threshold: %v", err)
	}
	pipeline := classify.NewPipeline(engine, threshold, classify.Options{
		ImageSize:    224,
		MinImageSize: 50,
	})
	if pipeline.Ready() {
		t.Error("Expected pipeline not ready without a model")
	}
}
