package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owid/lc-reconcile/pkg/index"
	"github.com/owid/lc-reconcile/pkg/middleware"
	"github.com/owid/lc-reconcile/pkg/models"
)

type staticLoader struct {
	records []models.CanonicalRecord
	err     error
}

func (l *staticLoader) LoadCanonicalRecords(_ context.Context) ([]models.CanonicalRecord, error) {
	return l.records, l.err
}

type countingPurger struct {
	purges int
}

func (p *countingPurger) Purge(_ context.Context) {
	p.purges++
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newServer(loader index.Loader, purger CachePurger, mw ...echo.MiddlewareFunc) (*echo.Echo, *index.Holder) {
	holder := index.NewHolder(loader, testLogger(), index.DefaultConfig())
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(testLogger())
	NewHandler(holder, purger, testLogger()).Register(e.Group(""), mw...)
	return e, holder
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetIndex_NotLoaded(t *testing.T) {
	e, _ := newServer(&staticLoader{}, nil)

	rec := serve(e, http.MethodGet, "/admin/index", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.IndexStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.False(t, stats.Loaded)
}

func TestReloadIndex(t *testing.T) {
	loader := &staticLoader{records: []models.CanonicalRecord{
		{ID: "60", RawName: "France", CanonicalName: "France", Kind: models.KindCountry},
		{ID: "1002", RawName: "Europe", CanonicalName: "Europe", Kind: models.KindEntity},
	}}
	purger := &countingPurger{}
	e, holder := newServer(loader, purger)

	rec := serve(e, http.MethodPost, "/admin/index/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.IndexStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.True(t, stats.Loaded)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Countries)
	assert.Equal(t, 1, stats.Entities)
	assert.Equal(t, 1, purger.purges)
	assert.True(t, holder.Ready())

	rec = serve(e, http.MethodPost, "/admin/index/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, uint64(2), stats.Generation)
	assert.Equal(t, 2, purger.purges)
}

func TestReloadIndex_StoreFailure(t *testing.T) {
	purger := &countingPurger{}
	e, _ := newServer(&staticLoader{err: models.ErrStoreUnavailable}, purger)

	rec := serve(e, http.MethodPost, "/admin/index/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, purger.purges)
}

func TestAdmin_RequiresToken(t *testing.T) {
	verify := func(_ context.Context, raw string) (middleware.UserClaims, error) {
		var claims middleware.UserClaims
		if raw != "good" {
			return claims, assert.AnError
		}
		claims.Sub = "user-1"
		claims.RealmAccess.Roles = []string{"reconcile-admin"}
		return claims, nil
	}
	auth := middleware.Authentication(testLogger(), verify, "reconcile-admin")
	e, _ := newServer(&staticLoader{}, nil, auth)

	rec := serve(e, http.MethodGet, "/admin/index", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/admin/index", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/admin/index", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
