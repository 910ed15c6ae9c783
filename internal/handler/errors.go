package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pneumonet/internal/classify"
	"pneumonet/internal/imaging"
)

// statusFromError maps known pipeline errors to HTTP status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, classify.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, imaging.ErrDecode):
		return http.StatusBadRequest

	case errors.Is(err, imaging.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, classify.ErrEngineUnavailable):
		return http.StatusServiceUnavailable

	case strings.Contains(err.Error(), "http: request body too large"):
		return http.StatusRequestEntityTooLarge

	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes a JSON error body with the mapped status code
func abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusServiceUnavailable {
		modelUnavailable(c)
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// modelUnavailable writes the service-unavailable body returned whenever
// predictions are requested without a loaded model. A fake prediction is
// never substituted.
func modelUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
		"error":  "model not loaded",
		"reason": "the pneumonia detection model could not be loaded",
	})
}
