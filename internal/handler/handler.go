// Package handler exposes the prediction pipeline over HTTP.
package handler

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pneumonet/internal/cache"
	"pneumonet/internal/classify"
	"pneumonet/internal/config"
	"pneumonet/internal/imaging"
	"pneumonet/internal/logging"
	"pneumonet/internal/middleware"
)

// Handler wires the HTTP routes to the classification pipeline.
type Handler struct {
	cfg      *config.Config
	pipeline *classify.Pipeline
	cache    *cache.Cache
}

// New creates a Handler. cache may be nil when caching is disabled.
func New(cfg *config.Config, pipeline *classify.Pipeline, cache *cache.Cache) *Handler {
	return &Handler{
		cfg:      cfg,
		pipeline: pipeline,
		cache:    cache,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.GET("/info", h.Info)
	r.POST("/predict", h.Predict)
	r.POST("/predict-batch", h.PredictBatch)
	r.GET("/threshold", h.GetThreshold)
	r.POST("/threshold", h.SetThreshold)
	r.GET("/api/test-images", h.TestImages)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
}

// Index returns API self-documentation.
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "PneumoNet - Pneumonia Detection API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"GET /":                "this help message",
			"GET /health":          "health check",
			"GET /info":            "model information",
			"POST /predict":        "single image prediction (multipart form or base64 JSON)",
			"POST /predict-batch":  "batch image prediction",
			"GET /threshold":       "get current classification threshold",
			"POST /threshold":      "update classification threshold",
			"GET /api/test-images": "list available test images",
		},
		"usage": gin.H{
			"single_prediction_curl": "curl -X POST -F \"image=@image.jpg\" http://localhost:8080/predict",
			"batch_prediction_curl":  "curl -X POST -F \"images=@image1.jpg\" -F \"images=@image2.jpg\" http://localhost:8080/predict-batch",
			"base64_prediction":      "POST /predict with JSON body: {\"image\": \"base64_encoded_image_string\"}",
		},
	})
}

// Health reports service liveness and whether the model is loaded.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().Format(time.RFC3339),
		"model_loaded": h.pipeline.Ready(),
	})
}

// Info returns model metadata.
func (h *Handler) Info(c *gin.Context) {
	if !h.pipeline.Ready() {
		modelUnavailable(c)
		return
	}

	size := h.pipeline.ImageSize()
	c.JSON(http.StatusOK, gin.H{
		"model_name":               "PneumoNet",
		"model_type":               "MobileNetV2 (transfer learning)",
		"input_shape":              []int{size, size, 3},
		"output_classes":           []string{classify.ClassNormal, classify.ClassPneumonia},
		"classification_threshold": h.pipeline.Threshold().Value(),
		"supported_formats":        h.pipeline.Extensions(),
		"status":                   "ready",
	})
}

// Predict classifies a single image sent either as a multipart upload
// (field "image") or as a JSON body {"image": "<base64>"}.
func (h *Handler) Predict(c *gin.Context) {
	if !h.pipeline.Ready() {
		modelUnavailable(c)
		return
	}

	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		h.predictUpload(c)
	case contentType == "application/json":
		h.predictBase64(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file or JSON data provided"})
	}
}

func (h *Handler) predictUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, fmt.Errorf("no image file provided, use 'image' as the form field name: %w", err))
		return
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.respondPrediction(c, data, fileHeader.Filename)
}

func (h *Handler) predictBase64(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image provided in JSON"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 image: " + err.Error()})
		return
	}

	// No filename for base64 payloads; the extension check does not apply.
	h.respondPrediction(c, data, "")
}

// respondPrediction runs the pipeline for one image, consulting and
// filling the prediction cache keyed by content hash and threshold.
func (h *Handler) respondPrediction(c *gin.Context, data []byte, filename string) {
	ctx := c.Request.Context()
	requestID := middleware.GetRequestID(c)

	key := cache.Key(data, h.pipeline.Threshold().Value())
	cached, err := h.cache.GetPrediction(ctx, key)
	if err != nil {
		logging.Logger.Warn("cache lookup failed", zap.Error(err), zap.String("request_id", requestID))
	}
	if cached != nil {
		logging.Logger.Info("cache hit", zap.String("request_id", requestID))
		h.writePrediction(c, *cached)
		return
	}

	pred, err := h.pipeline.Classify(ctx, imaging.Bytes(data), filename)
	if err != nil {
		logging.Logger.Error("prediction failed",
			zap.String("filename", filename),
			zap.String("request_id", requestID),
			zap.Error(err))
		abortWithError(c, err)
		return
	}

	// Key off the threshold the prediction was actually made with: a
	// concurrent threshold update between the lookup and Classify would
	// otherwise store a result under a stale key.
	if err := h.cache.SetPrediction(ctx, cache.Key(data, pred.ThresholdUsed), pred); err != nil {
		logging.Logger.Warn("cache store failed", zap.Error(err), zap.String("request_id", requestID))
	}

	logging.Logger.Info("prediction made",
		zap.String("filename", pred.Filename),
		zap.String("class", pred.PredictedClass),
		zap.Float64("confidence", pred.Confidence),
		zap.String("request_id", requestID))

	h.writePrediction(c, pred)
}

func (h *Handler) writePrediction(c *gin.Context, pred classify.Prediction) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":  time.Now().Format(time.RFC3339),
		"filename":   pred.Filename,
		"prediction": pred,
		"status":     "success",
	})
}

// PredictBatch classifies multiple uploads (repeated field "images").
// Item failures are isolated; the response correlates them by index.
func (h *Handler) PredictBatch(c *gin.Context) {
	if !h.pipeline.Ready() {
		modelUnavailable(c)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		abortWithError(c, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no images provided"})
		return
	}

	items := make([]classify.BatchItem, 0, len(files))
	for _, f := range files {
		data, err := readUpload(f)
		if err != nil {
			// A part that cannot be read fails that item only.
			items = append(items, classify.BatchItem{Filename: f.Filename, Err: err})
			continue
		}
		items = append(items, classify.BatchItem{
			Filename: f.Filename,
			Source:   imaging.Bytes(data),
		})
	}

	result := h.pipeline.ClassifyBatch(c.Request.Context(), items)

	status := "success"
	if result.Failed > 0 {
		status = "partial_success"
	}

	logging.Logger.Info("batch prediction",
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.String("request_id", middleware.GetRequestID(c)))

	c.JSON(http.StatusOK, gin.H{
		"timestamp":              time.Now().Format(time.RFC3339),
		"total_images":           result.Total,
		"successful_predictions": result.Successful,
		"failed_predictions":     result.Failed,
		"predictions":            result.Predictions,
		"errors":                 result.Errors,
		"status":                 status,
	})
}

// GetThreshold returns the current classification threshold.
func (h *Handler) GetThreshold(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current_threshold": h.pipeline.Threshold().Value(),
		"description":       "probability threshold for pneumonia classification",
	})
}

// SetThreshold updates the classification threshold.
func (h *Handler) SetThreshold(c *gin.Context) {
	var req struct {
		Threshold *float64 `json:"threshold"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.Threshold == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold parameter required"})
		return
	}

	if err := h.pipeline.Threshold().Set(*req.Threshold); err != nil {
		abortWithError(c, err)
		return
	}

	logging.Logger.Info("threshold updated", zap.Float64("threshold", *req.Threshold))

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"new_threshold": *req.Threshold,
		"message":       "classification threshold updated",
	})
}

// TestImages lists image files available in the configured test directory.
func (h *Handler) TestImages(c *gin.Context) {
	entries, err := os.ReadDir(h.cfg.TestImagesDir)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"images": []string{}})
		return
	}

	images := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if h.pipeline.AllowedFile(e.Name()) {
			images = append(images, e.Name())
		}
	}
	sort.Strings(images)

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}
