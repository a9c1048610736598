package suggest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/owid/lc-reconcile/pkg/jsonp"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
	"github.com/owid/lc-reconcile/pkg/utils"
)

const (
	statusCode = "/api/status/ok"
	statusText = "200 OK"
)

// Lookup finds names containing a piece of text
type Lookup interface {
	Suggest(ctx context.Context, text string, limit int) ([]models.SuggestResult, error)
}

type SuggestRequest struct {
	Prefix string `query:"prefix" validate:"required"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

// Handler serves entity suggestions
type Handler struct {
	lookup       Lookup
	defaultLimit int
}

// NewHandler creates a suggest handler. defaultLimit applies when the caller sends no limit;
// 0 leaves the result list uncapped.
func NewHandler(lookup Lookup, defaultLimit int) *Handler {
	return &Handler{
		lookup:       lookup,
		defaultLimit: defaultLimit,
	}
}

// Register registers the suggest routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/suggest/entity", h.SuggestEntity)
}

// SuggestEntity returns every country or entity whose name contains the prefix
func (h *Handler) SuggestEntity(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "suggest.SuggestEntity")
	defer span.End()

	req, err := utils.BindRequest[SuggestRequest](c)
	if err != nil {
		return err
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	results, err := h.lookup.Suggest(ctx, req.Prefix, limit)
	if err != nil {
		return err
	}
	if results == nil {
		results = []models.SuggestResult{}
	}

	return jsonp.Respond(c, http.StatusOK, models.SuggestResponse{
		Code:   statusCode,
		Status: statusText,
		Prefix: req.Prefix,
		Result: results,
	})
}
