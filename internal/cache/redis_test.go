package cache

import (
	"context"
	"strings"
	"testing"

	"pneumonet/internal/classify"
)

func TestKeyDeterministic(t *testing.T) {
	data := []byte("image bytes")

	first := Key(data, 0.5)
	second := Key(data, 0.5)
	if first != second {
		t.Errorf("Expected identical keys for identical inputs, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "prediction:") {
		t.Errorf("Unexpected key format: %q", first)
	}
}

func TestKeyVariesWithThreshold(t *testing.T) {
	// The threshold changes the classification outcome for the same
	// probability, so a prediction must be stored under the threshold
	// it was actually made with.
	data := []byte("image bytes")

	if Key(data, 0.5) == Key(data, 0.7) {
		t.Error("Expected different keys for different thresholds")
	}
}

func TestKeyVariesWithContent(t *testing.T) {
	if Key([]byte("first"), 0.5) == Key([]byte("second"), 0.5) {
		t.Error("Expected different keys for different image content")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	pred, err := c.GetPrediction(ctx, "any")
	if pred != nil || err != nil {
		t.Errorf("Expected nil cache lookup to be a miss, got %v, %v", pred, err)
	}
	if err := c.SetPrediction(ctx, "any", classify.Prediction{}); err != nil {
		t.Errorf("Expected nil cache store to be a no-op, got: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil cache close to be a no-op, got: %v", err)
	}
}
