package admin

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/owid/lc-reconcile/pkg/context"
	"github.com/owid/lc-reconcile/pkg/index"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

// IndexManager exposes the reference index lifecycle
type IndexManager interface {
	Stats() models.IndexStats
	Reload(ctx context.Context) (*index.ReferenceIndex, error)
}

// CachePurger drops cached lookups after the reference data is reloaded
type CachePurger interface {
	Purge(ctx context.Context)
}

// Handler serves the index administration routes
type Handler struct {
	index  IndexManager
	cache  CachePurger
	logger ectologger.Logger
}

// NewHandler creates an admin handler
func NewHandler(idx IndexManager, cache CachePurger, logger ectologger.Logger) *Handler {
	return &Handler{
		index:  idx,
		cache:  cache,
		logger: logger,
	}
}

// Register registers the admin routes; mw guards every one of them
func (h *Handler) Register(g *echo.Group, mw ...echo.MiddlewareFunc) {
	admin := g.Group("/admin", mw...)
	admin.GET("/index", h.GetIndex)
	admin.POST("/index/reload", h.ReloadIndex)
}

// GetIndex returns the stats of the index in service
func (h *Handler) GetIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, h.index.Stats())
}

// ReloadIndex rebuilds the index from the store and swaps it in
func (h *Handler) ReloadIndex(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "admin.ReloadIndex")
	defer span.End()

	idx, err := h.index.Reload(ctx)
	if err != nil {
		return err
	}
	if h.cache != nil {
		h.cache.Purge(ctx)
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"generation": idx.Generation(),
		"user_id":    appctx.GetUserID(ctx),
	}).Info("Reference index reloaded on request")

	return c.JSON(http.StatusOK, idx.Stats())
}
