package flyout

import (
	"context"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/owid/lc-reconcile/pkg/jsonp"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
	"github.com/owid/lc-reconcile/pkg/utils"
)

// Lookup finds a canonical country by id
type Lookup interface {
	Country(ctx context.Context, id string) (*models.Country, error)
}

type FlyoutRequest struct {
	ID string `query:"id" validate:"required"`
}

// Handler serves the suggest flyout
type Handler struct {
	lookup Lookup
}

// NewHandler creates a flyout handler
func NewHandler(lookup Lookup) *Handler {
	return &Handler{lookup: lookup}
}

// Register registers the flyout routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/flyout/entity", h.FlyoutEntity)
}

// FlyoutEntity renders the canonical name of a country. Unknown ids are a 404.
func (h *Handler) FlyoutEntity(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "flyout.FlyoutEntity")
	defer span.End()

	req, err := utils.BindRequest[FlyoutRequest](c)
	if err != nil {
		return err
	}

	country, err := h.lookup.Country(ctx, req.ID)
	if err != nil {
		return err
	}

	return jsonp.Respond(c, http.StatusOK, models.FlyoutResponse{
		ID:   country.ID,
		HTML: RenderHTML(country.CanonicalName),
	})
}

// RenderHTML is the flyout fragment for a name
func RenderHTML(name string) string {
	return `<p style="font-size: 0.8em; color: black;">` + html.EscapeString(name) + `</p>`
}
