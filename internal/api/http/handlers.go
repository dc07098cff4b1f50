package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isooko/gateway/internal/assistant"
	"github.com/isooko/gateway/internal/infrastructure/logging"
	"github.com/isooko/gateway/internal/shared/id"
)

// Service is the upstream surface the HTTP API depends on.
type Service interface {
	Complete(ctx context.Context, message string) (*assistant.TurnResult, error)
	RetrieveAssistant(ctx context.Context) (*assistant.Assistant, error)
	AssistantID() string
}

// ChatRequest is the /chat request body. Message is a pointer so that a
// present-but-empty message passes validation while a missing field fails.
type ChatRequest struct {
	Message *string `json:"message" binding:"required"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	service Service
	logger  *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(service Service, logger *logging.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// Root describes the service and its endpoints
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Isooko Gateway",
		"version": "0.1.0",
		"endpoints": gin.H{
			"health":         "/health",
			"chat":           "/chat (POST)",
			"assistant_info": "/assistant/info",
			"websocket":      "/ws/chat/{client_id}",
			"metrics":        "/metrics",
		},
	})
}

// Health verifies the upstream assistant is reachable
func (h *Handlers) Health(c *gin.Context) {
	info, err := h.service.RetrieveAssistant(c.Request.Context())
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": fmt.Sprintf("Health check failed: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"assistant_id":   h.service.AssistantID(),
		"assistant_name": info.Name,
		"timestamp":      unixSeconds(time.Now()),
	})
}

// AssistantInfo returns the configured assistant's metadata
func (h *Handlers) AssistantInfo(c *gin.Context) {
	info, err := h.service.RetrieveAssistant(c.Request.Context())
	if err != nil {
		h.logger.Error("assistant info lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": fmt.Sprintf("Error retrieving assistant info: %v", err),
		})
		return
	}

	tools := info.Tools
	if tools == nil {
		tools = []assistant.Tool{}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          info.ID,
		"name":        info.Name,
		"description": info.Description,
		"model":       info.Model,
		"tools":       tools,
		"created_at":  info.CreatedAt,
	})
}

// Chat runs one blocking conversation turn
func (h *Handlers) Chat(c *gin.Context) {
	requestTimestamp := unixSeconds(time.Now())

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	message := *req.Message

	log := h.logger.With(zap.String("request_id", id.NewRequestID().String()))
	log.Info("chat request", zap.Int("message_length", len(message)))

	result, err := h.service.Complete(c.Request.Context(), message)
	if err != nil {
		var runErr *assistant.RunFailedError
		if errors.As(err, &runErr) {
			log.Error("assistant run failed", zap.String("run_status", runErr.Status))
			c.JSON(http.StatusInternalServerError, gin.H{
				"detail": fmt.Sprintf("Assistant run failed: %s", runErr.Status),
			})
			return
		}
		log.Error("chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": fmt.Sprintf("Chat error: %v", err),
		})
		return
	}

	log.Info("chat response",
		zap.String("thread_id", result.ThreadID),
		zap.String("run_id", result.RunID),
		zap.Int("response_length", len(result.Reply)))

	c.JSON(http.StatusOK, gin.H{
		"response": result.Reply,
		"debug_info": gin.H{
			"request_timestamp": requestTimestamp,
			"assistant_id":      h.service.AssistantID(),
			"message_length":    len(message),
			"thread_id":         result.ThreadID,
			"run_id":            result.RunID,
			"run_status":        result.RunStatus,
		},
	})
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
