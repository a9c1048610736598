package flyout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owid/lc-reconcile/pkg/middleware"
	"github.com/owid/lc-reconcile/pkg/models"
)

type fakeLookup map[string]string

// Country resolves ids numerically, as the store does, so "007" finds country 7
func (f fakeLookup) Country(_ context.Context, id string) (*models.Country, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	stored := strconv.Itoa(n)
	name, ok := f[stored]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.Country{ID: stored, CanonicalName: name}, nil
}

func newServer() *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewHandler(fakeLookup{
		"7":  "Cote d'Ivoire",
		"99": "<b>United States</b> & co",
	}).Register(e.Group(""))
	return e
}

func serve(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFlyoutEntity(t *testing.T) {
	rec := serve(newServer(), "/flyout/entity?id=7")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FlyoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "7", resp.ID)
	assert.Equal(t, `<p style="font-size: 0.8em; color: black;">Cote d&#39;Ivoire</p>`, resp.HTML)
}

func TestFlyoutEntity_EscapesName(t *testing.T) {
	rec := serve(newServer(), "/flyout/entity?id=99")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FlyoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `<p style="font-size: 0.8em; color: black;">&lt;b&gt;United States&lt;/b&gt; &amp; co</p>`, resp.HTML)
}

func TestFlyoutEntity_ReturnsStoredID(t *testing.T) {
	rec := serve(newServer(), "/flyout/entity?id=007")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FlyoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "7", resp.ID)
}

func TestFlyoutEntity_NotFound(t *testing.T) {
	rec := serve(newServer(), "/flyout/entity?id=12345")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlyoutEntity_MissingID(t *testing.T) {
	rec := serve(newServer(), "/flyout/entity")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlyoutEntity_JSONP(t *testing.T) {
	rec := serve(newServer(), "/flyout/entity?id=7&callback=refine.flyout")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "refine.flyout({")
}
