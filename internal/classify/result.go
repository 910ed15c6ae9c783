// Package classify turns raw model probabilities into structured
// classification results and orchestrates the per-image pipeline.
package classify

import "errors"

// Output class labels.
const (
	ClassNormal    = "NORMAL"
	ClassPneumonia = "PNEUMONIA"
)

var (
	// ErrValidation indicates rejected input: an image below the minimum
	// size, a disallowed file extension, or a threshold outside [0, 1].
	ErrValidation = errors.New("validation failed")

	// ErrEngineUnavailable indicates the model is not loaded. Callers must
	// surface this as a service-unavailable condition, never substitute a
	// fake prediction.
	ErrEngineUnavailable = errors.New("inference engine not available")
)

// Prediction is the structured result of classifying one image.
type Prediction struct {
	Filename             string  `json:"filename"`
	PneumoniaProbability float64 `json:"pneumonia_probability"`
	NormalProbability    float64 `json:"normal_probability"`
	PredictedClass       string  `json:"predicted_class"`
	Confidence           float64 `json:"confidence"`
	ThresholdUsed        float64 `json:"threshold_used"`
}

// ItemError describes a single failed item within a batch. Index refers
// to the item's position in the input sequence.
type ItemError struct {
	Index    int    `json:"index"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"error"`
}

// BatchResult aggregates per-item outcomes of a batch classification.
// Predictions and Errors each preserve input order.
type BatchResult struct {
	Total       int          `json:"total_images"`
	Successful  int          `json:"successful_predictions"`
	Failed      int          `json:"failed_predictions"`
	Predictions []Prediction `json:"predictions"`
	Errors      []ItemError  `json:"errors"`
}
