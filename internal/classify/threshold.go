package classify

import (
	"fmt"
	"sync"
)

// DefaultThreshold is the classification cutoff used when none is configured.
const DefaultThreshold = 0.5

// Threshold is the shared classification cutoff in [0, 1]. Every
// classification reads it and the administrative endpoint updates it,
// so access is guarded by a read-write lock.
type Threshold struct {
	mu    sync.RWMutex
	value float64
}

// NewThreshold creates a Threshold with the given initial value.
func NewThreshold(value float64) (*Threshold, error) {
	t := &Threshold{}
	if err := t.Set(value); err != nil {
		return nil, err
	}
	return t, nil
}

// Value returns the current threshold.
func (t *Threshold) Value() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set updates the threshold. Values outside [0, 1] are rejected.
func (t *Threshold) Set(value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("%w: threshold must be between 0 and 1, got %v", ErrValidation, value)
	}
	t.mu.Lock()
	t.value = value
	t.mu.Unlock()
	return nil
}
