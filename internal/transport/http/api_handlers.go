package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
)

// APIHandlers provides read-only HTTP handlers over the chat state.
type APIHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// UsersResponse lists online users.
type UsersResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// HistoryResponse carries recent public messages, oldest first.
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// HistoryMessage is one stored public line split into its fields.
type HistoryMessage struct {
	Type string `json:"type"`
	Time string `json:"time"`
	Body string `json:"body"`
	Raw  string `json:"raw"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListUsers returns the names of everyone online.
// GET /api/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	users := h.hub.OnlineUsers()
	c.JSON(http.StatusOK, UsersResponse{Users: users, Count: len(users)})
}

// History returns the most recent public messages.
// GET /api/history?limit=N
func (h *APIHandlers) History(c *gin.Context) {
	limit := core.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	lines, err := h.hub.History(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{Messages: historyFromLines(lines)})
}
