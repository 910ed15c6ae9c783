package inference

import (
	"fmt"
)

// Mock is an Engine that returns a fixed probability without requiring
// the ONNX shared library. Used in tests and for running the service
// without a model file.
type Mock struct {
	// Probability is the value returned for every prediction.
	Probability float32
	// ShouldError if true, Predict will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times Predict was called
	CallCount int
}

// NewMock creates a Mock that always predicts probability 0.82.
func NewMock() *Mock {
	return &Mock{Probability: 0.82}
}

// NewMockWithProbability creates a Mock returning the given probability.
func NewMockWithProbability(p float32) *Mock {
	return &Mock{Probability: p}
}

// Predict validates the input dimensions and returns the configured
// probability.
func (m *Mock) Predict(pixels []float32, height, width, channels int64) (float32, error) {
	m.CallCount++

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return 0, fmt.Errorf("%s", m.ErrorMessage)
		}
		return 0, fmt.Errorf("mock inference error")
	}

	expected := height * width * channels
	if int64(len(pixels)) != expected {
		return 0, fmt.Errorf("input has wrong size: got %d, expected %d", len(pixels), expected)
	}

	return m.Probability, nil
}

// Close is a no-op for the mock implementation
func (m *Mock) Close() error {
	return nil
}

// SetError configures the mock to return an error on the next Predict call
func (m *Mock) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *Mock) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure Mock implements Engine at compile time
var _ Engine = (*Mock)(nil)
