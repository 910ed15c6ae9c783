package classify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pneumonet/internal/imaging"
	"pneumonet/internal/inference"
	"pneumonet/internal/metrics"
)

// DefaultExtensions are the file extensions accepted for upload inputs.
var DefaultExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp"}

// Options configures a Pipeline.
type Options struct {
	// ImageSize is the square model input size in pixels.
	ImageSize int
	// MinImageSize is the minimum accepted width/height of an input image.
	MinImageSize int
	// Extensions are the allowed file extensions, without the dot.
	// Defaults to DefaultExtensions when empty.
	Extensions []string
}

// Pipeline applies load -> preprocess -> predict -> format to image
// sources. Items are processed strictly sequentially: the engine owns a
// single model session and is not assumed reentrant-safe.
type Pipeline struct {
	engine    inference.Engine
	threshold *Threshold
	imageSize int
	minSize   int
	exts      map[string]bool
	extList   []string
	tracer    trace.Tracer
}

// BatchItem is one entry of a batch classification request. Err marks
// an item that already failed before classification (e.g. the upload
// could not be read); it is reported as that item's error without
// aborting the rest of the batch.
type BatchItem struct {
	Filename string
	Source   imaging.Source
	Err      error
}

// NewPipeline creates a Pipeline. A nil engine is allowed; every
// classification then fails with ErrEngineUnavailable.
func NewPipeline(engine inference.Engine, threshold *Threshold, opts Options) *Pipeline {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	extList := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !allowed[e] {
			extList = append(extList, e)
		}
		allowed[e] = true
	}

	return &Pipeline{
		engine:    engine,
		threshold: threshold,
		imageSize: opts.ImageSize,
		minSize:   opts.MinImageSize,
		exts:      allowed,
		extList:   extList,
		tracer:    otel.Tracer("pneumonet/classify"),
	}
}

// Ready reports whether a model is loaded and predictions can be served.
func (p *Pipeline) Ready() bool {
	return p.engine != nil
}

// Threshold returns the shared threshold store.
func (p *Pipeline) Threshold() *Threshold {
	return p.threshold
}

// ImageSize returns the configured model input size.
func (p *Pipeline) ImageSize() int {
	return p.imageSize
}

// Extensions returns the allowed file extensions in declaration order.
func (p *Pipeline) Extensions() []string {
	return p.extList
}

// AllowedFile reports whether the filename carries an accepted extension.
func (p *Pipeline) AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	return p.exts[ext]
}

// Classify runs the full pipeline on one image source. An empty filename
// marks an unnamed payload (e.g. a base64 body): the extension check is
// skipped and the result is reported as "unknown".
func (p *Pipeline) Classify(ctx context.Context, src imaging.Source, filename string) (Prediction, error) {
	if p.engine == nil {
		return Prediction{}, ErrEngineUnavailable
	}

	if filename != "" && !p.AllowedFile(filename) {
		return Prediction{}, fmt.Errorf("%w: invalid file type %q, allowed: %s",
			ErrValidation, filepath.Ext(filename), strings.Join(p.Extensions(), ", "))
	}

	img, err := imaging.Load(src)
	if err != nil {
		return Prediction{}, err
	}

	if ok, msg := imaging.Validate(img, p.minSize); !ok {
		return Prediction{}, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	tensor := imaging.Preprocess(img, p.imageSize)

	_, span := p.tracer.Start(ctx, "predict",
		trace.WithAttributes(attribute.String("filename", filename)))
	defer span.End()

	start := time.Now()
	probability, err := p.engine.Predict(
		tensor.Data,
		int64(tensor.Height), int64(tensor.Width), int64(tensor.Channels),
	)
	metrics.RecordInferenceLatency(time.Since(start).Seconds())
	if err != nil {
		return Prediction{}, fmt.Errorf("prediction failed: %w", err)
	}

	name := filename
	if name == "" {
		name = "unknown"
	}

	pred := Format(float64(probability), p.threshold.Value(), filepath.Base(name))
	metrics.RecordPrediction(pred.PredictedClass)
	return pred, nil
}

// ClassifyBatch processes items strictly in input order. A failure in
// one item never aborts the remaining items; each outcome is recorded
// against the item's index.
func (p *Pipeline) ClassifyBatch(ctx context.Context, items []BatchItem) BatchResult {
	ctx, span := p.tracer.Start(ctx, "predict-batch",
		trace.WithAttributes(attribute.Int("batch_size", len(items))))
	defer span.End()

	metrics.RecordInferenceBatch(len(items))

	result := BatchResult{Total: len(items), Predictions: []Prediction{}}
	for i, item := range items {
		if item.Filename == "" {
			result.Errors = append(result.Errors, ItemError{
				Index:   i,
				Message: "no filename provided",
			})
			result.Failed++
			continue
		}

		if item.Err != nil {
			result.Errors = append(result.Errors, ItemError{
				Index:    i,
				Filename: item.Filename,
				Message:  item.Err.Error(),
			})
			result.Failed++
			continue
		}

		pred, err := p.Classify(ctx, item.Source, item.Filename)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{
				Index:    i,
				Filename: item.Filename,
				Message:  err.Error(),
			})
			result.Failed++
			continue
		}

		result.Predictions = append(result.Predictions, pred)
		result.Successful++
	}

	return result
}
