package jsonp

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(query string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/suggest/entity?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRespond_PlainJSON(t *testing.T) {
	c, rec := newContext("prefix=kor")

	require.NoError(t, Respond(c, http.StatusOK, map[string]string{"id": "7"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")
	assert.JSONEq(t, `{"id":"7"}`, rec.Body.String())
}

func TestRespond_Callback(t *testing.T) {
	c, rec := newContext("callback=jQuery123.handle")

	require.NoError(t, Respond(c, http.StatusOK, map[string]string{"id": "7"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `jQuery123.handle({"id":"7"})`, rec.Body.String())
}

func TestCallback_Rejected(t *testing.T) {
	for _, cb := range []string{"alert(1)", "a;b", "1abc", "a..b", "<script>"} {
		t.Run(cb, func(t *testing.T) {
			c, _ := newContext("callback=" + url.QueryEscape(cb))
			_, err := Callback(c)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "cb([])", string(Wrap("cb", []byte("[]"))))
}
