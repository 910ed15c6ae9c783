// Package client is an HTTP client library for the PneumoNet API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Prediction mirrors the prediction object returned by the API.
type Prediction struct {
	Filename             string  `json:"filename"`
	PneumoniaProbability float64 `json:"pneumonia_probability"`
	NormalProbability    float64 `json:"normal_probability"`
	PredictedClass       string  `json:"predicted_class"`
	Confidence           float64 `json:"confidence"`
	ThresholdUsed        float64 `json:"threshold_used"`
}

// PredictResponse is the envelope of a single prediction.
type PredictResponse struct {
	Timestamp  string     `json:"timestamp"`
	Filename   string     `json:"filename"`
	Prediction Prediction `json:"prediction"`
	Status     string     `json:"status"`
}

// ItemError is a per-item failure in a batch response.
type ItemError struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Message  string `json:"error"`
}

// BatchResponse is the envelope of a batch prediction.
type BatchResponse struct {
	Timestamp             string       `json:"timestamp"`
	TotalImages           int          `json:"total_images"`
	SuccessfulPredictions int          `json:"successful_predictions"`
	FailedPredictions     int          `json:"failed_predictions"`
	Predictions           []Prediction `json:"predictions"`
	Errors                []ItemError  `json:"errors"`
	Status                string       `json:"status"`
}

// Health is the health check response.
type Health struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Info is the model metadata response.
type Info struct {
	ModelName               string   `json:"model_name"`
	ModelType               string   `json:"model_type"`
	InputShape              []int    `json:"input_shape"`
	OutputClasses           []string `json:"output_classes"`
	ClassificationThreshold float64  `json:"classification_threshold"`
	SupportedFormats        []string `json:"supported_formats"`
	Status                  string   `json:"status"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to a PneumoNet server. Transient network failures are
// retried with exponential backoff; HTTP error responses are not retried.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries sets the number of retries for transient network failures.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		retries: 2,
		backoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HealthCheck reports whether the API is healthy and responsive.
func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	var out Health
	err := c.getJSON(ctx, "/health", &out)
	return out, err
}

// ModelInfo returns metadata about the loaded model.
func (c *Client) ModelInfo(ctx context.Context) (Info, error) {
	var out Info
	err := c.getJSON(ctx, "/info", &out)
	return out, err
}

// PredictFile uploads the image at path as multipart form data.
func (c *Client) PredictFile(ctx context.Context, path string) (PredictResponse, error) {
	var out PredictResponse

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return out, err
	}
	if _, err := part.Write(data); err != nil {
		return out, err
	}
	if err := w.Close(); err != nil {
		return out, err
	}

	err = c.postJSON(ctx, "/predict", body.Bytes(), w.FormDataContentType(), &out)
	return out, err
}

// PredictBase64 sends the image at path as a base64 JSON body.
func (c *Client) PredictBase64(ctx context.Context, path string) (PredictResponse, error) {
	var out PredictResponse

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	payload, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return out, err
	}

	err = c.postJSON(ctx, "/predict", payload, "application/json", &out)
	return out, err
}

// PredictBatch uploads multiple images in a single request.
func (c *Client) PredictBatch(ctx context.Context, paths []string) (BatchResponse, error) {
	var out BatchResponse

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return out, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		part, err := w.CreateFormFile("images", filepath.Base(path))
		if err != nil {
			return out, err
		}
		if _, err := part.Write(data); err != nil {
			return out, err
		}
	}
	if err := w.Close(); err != nil {
		return out, err
	}

	err := c.postJSON(ctx, "/predict-batch", body.Bytes(), w.FormDataContentType(), &out)
	return out, err
}

// Threshold returns the current classification threshold.
func (c *Client) Threshold(ctx context.Context) (float64, error) {
	var out struct {
		CurrentThreshold float64 `json:"current_threshold"`
	}
	err := c.getJSON(ctx, "/threshold", &out)
	return out.CurrentThreshold, err
}

// SetThreshold updates the classification threshold.
func (c *Client) SetThreshold(ctx context.Context, threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
	}

	payload, err := json.Marshal(map[string]float64{"threshold": threshold})
	if err != nil {
		return err
	}

	var out struct {
		Status string `json:"status"`
	}
	return c.postJSON(ctx, "/threshold", payload, "application/json", &out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, contentType string, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, contentType, out)
}

// do sends the request, retrying transport-level failures with
// exponential backoff. Error status codes are returned immediately.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out interface{}) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		return decodeResponse(resp, out)
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.retries+1, lastErr)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
