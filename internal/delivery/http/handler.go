package http

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// FrameService is the pipeline surface the HTTP layer depends on
type FrameService interface {
	ProcessFrame(ctx context.Context, imageBytes []byte, meta domain.SessionMetadata) (*domain.FrameResponse, error)
	RecordProductClick(ctx context.Context, click domain.ProductClick)
	TrackEvent(ctx context.Context, eventName, userID string, props map[string]any)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline       FrameService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(pipeline FrameService, maxUploadBytes int64, logger zerolog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 * 1024 * 1024
	}
	return &Handler{
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopframe-backend",
		"version": "1.0.0",
	})
}

// ShopFrame handles a captured frame: multipart "frame" field plus optional
// videoId/timestampSec form fields.
func (h *Handler) ShopFrame(c *gin.Context) {
	fileHeader, err := c.FormFile("frame")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No image file provided"})
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Image file too large"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Only image files are allowed"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read image file"})
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil || int64(len(imageBytes)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read image file"})
		return
	}

	timestampSec, _ := strconv.ParseFloat(c.PostForm("timestampSec"), 64)
	meta := domain.SessionMetadata{
		UserID:       userIDFromHeaders(c),
		VideoID:      c.PostForm("videoId"),
		TimestampSec: timestampSec,
		MimeType:     mimeType,
	}

	resp, err := h.pipeline.ProcessFrame(c.Request.Context(), imageBytes, meta)
	if err != nil {
		h.logger.Error().Err(err).Msg("frame processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to analyze image"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// trackRequest is the JSON body of POST /track
type trackRequest struct {
	EventName  string         `json:"eventName" binding:"required"`
	UserID     string         `json:"userId"`
	EventProps map[string]any `json:"eventProps"`
}

// Track accepts server-side analytics events; product clicks additionally
// feed the engagement log. Forwarding is detached, the response never waits
// on sink retries.
func (h *Handler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "eventName is required"})
		return
	}

	if req.EventName == "product_clicked" {
		h.pipeline.RecordProductClick(c.Request.Context(), domain.ProductClick{
			UserID:     req.UserID,
			RequestID:  stringProp(req.EventProps, "requestId"),
			Category:   stringProp(req.EventProps, "category"),
			Query:      stringProp(req.EventProps, "query"),
			ProductID:  stringProp(req.EventProps, "productId"),
			ProductURL: stringProp(req.EventProps, "productUrl"),
		})
	} else {
		h.pipeline.TrackEvent(c.Request.Context(), req.EventName, req.UserID, req.EventProps)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func userIDFromHeaders(c *gin.Context) string {
	if id := c.GetHeader("X-Anonymous-Id"); id != "" {
		return id
	}
	if id := c.GetHeader("X-User-Id"); id != "" {
		return id
	}
	return "anonymous"
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
