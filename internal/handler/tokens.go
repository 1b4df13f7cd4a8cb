package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tokenagg/internal/models"
	"tokenagg/internal/service"
)

// TokenService is the read side of the aggregator used by the API.
type TokenService interface {
	Aggregate(ctx context.Context, query string) ([]models.Token, error)
	FindToken(ctx context.Context, address string) (*models.Token, error)
}

type TokensHandler struct {
	Service      TokenService
	DefaultLimit int
	MaxLimit     int
	Logger       *zap.Logger
}

func (h *TokensHandler) Register(r gin.IRouter) {
	group := r.Group("/api/tokens")
	group.GET("", h.listTokens)
	group.GET("/:address", h.getToken)
}

// @Summary List aggregated tokens
// @Tags tokens
// @Param q query string false "search query (empty aggregates popular tokens)"
// @Param timePeriod query string false "1h|24h|7d; keeps tokens with a non-zero change for the period"
// @Param minVolume query number false "minimum volume in native units"
// @Param minLiquidity query number false "minimum liquidity in native units"
// @Param protocol query string false "exact protocol match"
// @Param sortField query string false "volume|market_cap|liquidity|transaction_count|price_change" default(volume)
// @Param sortOrder query string false "asc|desc" default(desc)
// @Param limit query int false "page size, 1-100" default(20)
// @Param cursor query string false "cursor from meta.next_cursor"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/tokens [get]
func (h *TokensHandler) listTokens(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}

	filters := models.FilterSpec{
		MinVolume:    floatQueryPtr(c, "minVolume"),
		MinLiquidity: floatQueryPtr(c, "minLiquidity"),
		Protocol:     strings.TrimSpace(c.Query("protocol")),
		TimePeriod:   models.TimePeriod(strings.TrimSpace(c.Query("timePeriod"))),
	}
	if filters.TimePeriod != "" && !filters.TimePeriod.Valid() {
		Error(c, http.StatusBadRequest, "invalid timePeriod", map[string]any{"allowed": []string{"1h", "24h", "7d"}})
		return
	}
	sort := models.SortSpec{
		Field: models.SortField(strings.TrimSpace(c.DefaultQuery("sortField", string(models.SortVolume)))),
		Order: models.SortOrder(strings.ToLower(strings.TrimSpace(c.DefaultQuery("sortOrder", string(models.OrderDesc))))),
	}
	if !sort.Field.Valid() {
		Error(c, http.StatusBadRequest, "invalid sortField", nil)
		return
	}
	if sort.Order != models.OrderAsc && sort.Order != models.OrderDesc {
		Error(c, http.StatusBadRequest, "invalid sortOrder", nil)
		return
	}
	limit := clamp(intQuery(c, "limit", h.defaultLimit()), 1, h.maxLimit())

	tokens, err := h.Service.Aggregate(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, "aggregate tokens failed", err)
		return
	}
	if !filters.IsZero() {
		if tokens, err = service.Filter(tokens, filters); err != nil {
			h.fail(c, "filter tokens failed", err)
			return
		}
	}
	if tokens, err = service.Sort(tokens, sort); err != nil {
		h.fail(c, "sort tokens failed", err)
		return
	}
	page := service.Paginate(tokens, models.PageRequest{Limit: limit, Cursor: c.Query("cursor")})

	meta := cursorMeta(limit, page.NextCursor, page.Total)
	meta["filters"] = filters
	meta["sort"] = sort
	Ok(c, page.Tokens, meta)
}

// @Summary Get one token by address
// @Tags tokens
// @Param address path string true "token address (case-insensitive)"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/tokens/{address} [get]
func (h *TokensHandler) getToken(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	address := strings.TrimSpace(c.Param("address"))
	token, err := h.Service.FindToken(c.Request.Context(), address)
	if errors.Is(err, service.ErrTokenNotFound) {
		Error(c, http.StatusNotFound, "token not found", map[string]any{"address": address})
		return
	}
	if err != nil {
		h.fail(c, "find token failed", err)
		return
	}
	Ok(c, token, nil)
}

func (h *TokensHandler) fail(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, "internal server error", map[string]any{"error": err.Error()})
}

func (h *TokensHandler) defaultLimit() int {
	if h.DefaultLimit > 0 {
		return h.DefaultLimit
	}
	return 20
}

func (h *TokensHandler) maxLimit() int {
	if h.MaxLimit > 0 {
		return h.MaxLimit
	}
	return 100
}
