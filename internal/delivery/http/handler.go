package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Retriever is the retrieval façade consumed by the handlers.
type Retriever interface {
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error)
	Answer(ctx context.Context, req *domain.SearchRequest) (*domain.AnswerResult, error)
	Reload(ctx context.Context) (*domain.Snapshot, error)
	Snapshot() *domain.Snapshot
}

// MemoryManager exposes the per-user memory operations served over HTTP.
type MemoryManager interface {
	Preferences(ctx context.Context, userID string) (domain.Preferences, domain.MemoryReadOutcome, error)
	UpdatePreferences(ctx context.Context, userID string, patch map[string]interface{}) (domain.Preferences, error)
	RecentSummaries(ctx context.Context, userID string, n int) ([]domain.ConversationSummary, domain.MemoryReadOutcome, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	retriever Retriever
	memory    MemoryManager
	logger    zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(retriever Retriever, memory MemoryManager, logger zerolog.Logger) *Handler {
	return &Handler{
		retriever: retriever,
		memory:    memory,
		logger:    logger,
	}
}

// snapshotInfo describes the reference data being served.
type snapshotInfo struct {
	Version       int64  `json:"version"`
	LoadedAt      string `json:"loaded_at"`
	Products      int    `json:"products"`
	FAQEntries    int    `json:"faq_entries"`
	CatalogSource string `json:"catalog_source"`
}

func describeSnapshot(snap *domain.Snapshot) snapshotInfo {
	return snapshotInfo{
		Version:       snap.Version,
		LoadedAt:      snap.LoadedAt.UTC().Format(time.RFC3339),
		Products:      len(snap.Catalog),
		FAQEntries:    len(snap.FAQ.Entries),
		CatalogSource: snap.CatalogSource,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	snap := h.retriever.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"service": "producelens-backend",
			"version": Version,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "producelens-backend",
		"version":  Version,
		"snapshot": describeSnapshot(snap),
	})
}

// SearchProducts handles product search requests
func (h *Handler) SearchProducts(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.retriever.Search(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Answer handles evidence-first answer requests
func (h *Handler) Answer(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.retriever.Answer(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPreferences returns a user's preference profile and where it was read from.
func (h *Handler) GetPreferences(c *gin.Context) {
	userID := c.Param("userId")
	prefs, outcome, err := h.memory.Preferences(c.Request.Context(), userID)

	body := gin.H{
		"user_id":     userID,
		"preferences": prefs,
		"read":        outcome,
	}
	if err != nil {
		body["errors"] = []string{err.Error()}
	}
	c.JSON(http.StatusOK, body)
}

// UpdatePreferences shallow-merges the request body into the stored preferences.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	userID := c.Param("userId")
	prefs, err := h.memory.UpdatePreferences(c.Request.Context(), userID, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"preferences": prefs,
	})
}

// RecentSummaries returns the user's latest conversation summaries.
func (h *Handler) RecentSummaries(c *gin.Context) {
	n := 0
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	userID := c.Param("userId")
	summaries, outcome, err := h.memory.RecentSummaries(c.Request.Context(), userID, n)

	body := gin.H{
		"user_id":   userID,
		"summaries": summaries,
		"read":      outcome,
	}
	if err != nil {
		body["errors"] = []string{err.Error()}
	}
	c.JSON(http.StatusOK, body)
}

// Reload rebuilds the reference snapshot from its sources.
func (h *Handler) Reload(c *gin.Context) {
	snap, err := h.retriever.Reload(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "reloaded",
		"snapshot": describeSnapshot(snap),
	})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSnapshotUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reference data not loaded"})
	case errors.Is(err, domain.ErrMemoryStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDataLoad):
		h.logger.Error().Err(err).Msg("reference data load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
