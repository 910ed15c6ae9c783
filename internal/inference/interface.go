// Package inference wraps the loaded classification model behind a small
// interface so the serving code never touches the runtime directly.
package inference

// Engine runs the pneumonia classifier on a single-item batch of pixels.
// Implementations must be deterministic in inference mode and must not
// mutate the input slice.
type Engine interface {
	// Predict takes a flattened NHWC pixel batch of length height*width*channels
	// and returns the predicted probability of the positive (PNEUMONIA) class
	// in [0, 1].
	Predict(pixels []float32, height, width, channels int64) (float32, error)

	// Close releases any resources held by the engine.
	Close() error
}
