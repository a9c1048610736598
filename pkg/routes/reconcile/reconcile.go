package reconcile

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/owid/lc-reconcile/pkg/jsonp"
	"github.com/owid/lc-reconcile/pkg/metrics"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/reconcile"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

// Dispatcher answers a parsed batch
type Dispatcher interface {
	Dispatch(ctx context.Context, queries map[string]models.ReconciliationQuery) (any, error)
}

// Handler serves the OpenRefine reconcile endpoint
type Handler struct {
	dispatcher Dispatcher
}

// NewHandler creates a reconcile handler
func NewHandler(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Register registers the reconcile routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/reconcile", h.Reconcile)
	g.POST("/reconcile", h.Reconcile)
}

// Reconcile reads the queries parameter from the query string or the form body.
// Without it the service metadata is returned.
func (h *Handler) Reconcile(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "reconcile.Reconcile")
	defer span.End()

	var queries map[string]models.ReconciliationQuery
	if raw := c.FormValue("queries"); raw != "" {
		parsed, err := reconcile.ParseQueries(raw)
		if err != nil {
			metrics.BatchesTotal.WithLabelValues("malformed").Inc()
			return err
		}
		queries = parsed
	}

	out, err := h.dispatcher.Dispatch(ctx, queries)
	if err != nil {
		return err
	}

	return jsonp.Respond(c, http.StatusOK, out)
}
