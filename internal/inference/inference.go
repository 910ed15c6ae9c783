package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX is an Engine backed by an ONNX runtime session. The loaded model
// takes a (1, H, W, 3) float32 input and emits a single sigmoid probability.
// The session is not reentrant, so calls are serialized with a mutex.
type ONNX struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// New loads the ONNX model from modelPath and prepares a session for
// inference.
func New(modelPath string) (*ONNX, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"output"},
		nil, // default session options
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{session: session}, nil
}

// Predict runs a single-item batch through the model and returns the
// positive-class probability.
func (o *ONNX) Predict(pixels []float32, height, width, channels int64) (float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return 0, fmt.Errorf("inference session is nil")
	}

	expected := height * width * channels
	if int64(len(pixels)) != expected {
		return 0, fmt.Errorf("input has wrong size: got %d, expected %d", len(pixels), expected)
	}

	inputShape := ort.NewShape(1, height, width, channels)
	inputTensor, err := ort.NewTensor(inputShape, pixels)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputShape := ort.NewShape(1, 1)
	outputTensor, err := ort.NewTensor(outputShape, make([]float32, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = o.session.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	return outputTensor.GetData()[0], nil
}

// Close releases the ONNX session resources.
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		err := o.session.Destroy()
		o.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
