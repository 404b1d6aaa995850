// Package api provides HTTP handlers for the sqlbroker server REST API.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coregx/sqlbroker"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Broker is the part of *sqlbroker.Broker the API uses.
type Broker interface {
	Send(ctx context.Context, channel string, payload []byte) error
	Subscribe(channels ...string) error
	Unsubscribe(channels ...string) error
	Channels() []string
	Enabled() bool
	Watermark() int64
	InstanceID() string
	TableName() string
	PollInterval() time.Duration
}

// Handler holds dependencies for API handlers.
type Handler struct {
	broker Broker
	logger sqlbroker.Logger
}

// NewHandler creates a new API handler.
func NewHandler(broker Broker, logger sqlbroker.Logger) *Handler {
	return &Handler{
		broker: broker,
		logger: logger,
	}
}

// Routes registers the API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/publish", h.HandlePublish)
	mux.HandleFunc("POST /api/v1/subscribe", h.HandleSubscribe)
	mux.HandleFunc("GET /api/v1/subscriptions", h.HandleListSubscriptions)
	mux.HandleFunc("DELETE /api/v1/subscriptions/{channel}", h.HandleUnsubscribe)
	mux.HandleFunc("GET /api/v1/health", h.HandleHealth)
	mux.HandleFunc("GET /api/v1/status", h.HandleStatus)
}

// PublishRequest represents a publish message request.
// Payload is any JSON value and is sent as its raw bytes.
type PublishRequest struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribeRequest represents a subscription request.
type SubscribeRequest struct {
	Channels []string `json:"channels"`
}

// StatusResponse describes the broker state.
type StatusResponse struct {
	InstanceID   string   `json:"instanceID"`
	Enabled      bool     `json:"enabled"`
	Watermark    int64    `json:"watermark"`
	Table        string   `json:"table"`
	PollInterval string   `json:"pollInterval"`
	Channels     []string `json:"channels"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HandlePublish handles POST /api/v1/publish
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if req.Channel == "" {
		h.respondError(w, http.StatusBadRequest, "channel is required", sqlbroker.ErrCodeValidation)
		return
	}
	if !h.broker.Enabled() {
		h.respondError(w, http.StatusServiceUnavailable, "Broker is not running", "UNAVAILABLE")
		return
	}

	if err := h.broker.Send(r.Context(), req.Channel, req.Payload); err != nil {
		if sqlbroker.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error(), sqlbroker.ErrCodeValidation)
			return
		}
		h.logger.Errorf("Failed to publish message: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to publish message", "PUBLISH_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusAccepted, map[string]string{"channel": req.Channel}, "Message published successfully")
}

// HandleSubscribe handles POST /api/v1/subscribe
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if len(req.Channels) == 0 {
		h.respondError(w, http.StatusBadRequest, "channels are required", sqlbroker.ErrCodeValidation)
		return
	}

	if err := h.broker.Subscribe(req.Channels...); err != nil {
		if sqlbroker.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error(), sqlbroker.ErrCodeValidation)
			return
		}
		h.logger.Errorf("Failed to subscribe: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to subscribe", "SUBSCRIBE_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusCreated, h.broker.Channels(), "Subscribed successfully")
}

// HandleListSubscriptions handles GET /api/v1/subscriptions
func (h *Handler) HandleListSubscriptions(w http.ResponseWriter, _ *http.Request) {
	channels := h.broker.Channels()
	if channels == nil {
		channels = []string{}
	}
	h.respondSuccess(w, http.StatusOK, channels, "")
}

// HandleUnsubscribe handles DELETE /api/v1/subscriptions/{channel}
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	if channel == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid channel", "INVALID_CHANNEL")
		return
	}

	if err := h.broker.Unsubscribe(channel); err != nil {
		h.logger.Errorf("Failed to unsubscribe: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to unsubscribe", "UNSUBSCRIBE_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, h.broker.Channels(), "Unsubscribed successfully")
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if !h.broker.Enabled() {
		status = "stopped"
		code = http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   Version,
	}

	h.respondSuccess(w, code, health, "")
}

// HandleStatus handles GET /api/v1/status
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	channels := h.broker.Channels()
	if channels == nil {
		channels = []string{}
	}

	h.respondSuccess(w, http.StatusOK, StatusResponse{
		InstanceID:   h.broker.InstanceID(),
		Enabled:      h.broker.Enabled(),
		Watermark:    h.broker.Watermark(),
		Table:        h.broker.TableName(),
		PollInterval: h.broker.PollInterval().String(),
		Channels:     channels,
	}, "")
}

// respondError sends an error response.
func (h *Handler) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Code:    code,
		Message: message,
	})
}

// respondSuccess sends a success response.
func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}
