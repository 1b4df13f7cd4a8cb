package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tokenagg/internal/models"
)

type SourceStateLister interface {
	SourceStates(ctx context.Context) ([]models.SourceState, error)
}

type SourcesHandler struct {
	Service SourceStateLister
	Logger  *zap.Logger
}

func (h *SourcesHandler) Register(r gin.IRouter) {
	r.GET("/api/sources", h.listSources)
}

// @Summary Per-source fetch state
// @Tags sources
// @Success 200 {object} apiResponse
// @Router /api/sources [get]
func (h *SourcesHandler) listSources(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	states, err := h.Service.SourceStates(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list source states failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, states, map[string]any{"total": len(states)})
}
