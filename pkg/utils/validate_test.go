package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupRequest struct {
	Prefix string `query:"prefix" validate:"required"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

func TestValidate(t *testing.T) {
	_, err := Validate(lookupRequest{Prefix: "kor"})
	require.NoError(t, err)

	_, err = Validate(lookupRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Prefix' failed rule 'required'")

	_, err = Validate(lookupRequest{Prefix: "kor", Limit: 1000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 'max=500'")
}

func TestBindRequest(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/suggest/entity?prefix=kor&limit=5", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	got, err := BindRequest[lookupRequest](c)
	require.NoError(t, err)
	assert.Equal(t, lookupRequest{Prefix: "kor", Limit: 5}, got)

	req = httptest.NewRequest(http.MethodGet, "/suggest/entity", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	_, err = BindRequest[lookupRequest](c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	req = httptest.NewRequest(http.MethodGet, "/suggest/entity?prefix=kor&limit=lots", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	_, err = BindRequest[lookupRequest](c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
