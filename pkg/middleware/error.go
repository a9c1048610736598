package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/owid/lc-reconcile/pkg/context"
	"github.com/owid/lc-reconcile/pkg/jsonp"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// StatusFor maps domain errors to the status code they are served with
func StatusFor(err error) (int, string, bool) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Not Found", true
	case errors.Is(err, models.ErrMalformedQueries):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, models.ErrStoreUnavailable), errors.Is(err, models.ErrIndexNotReady):
		return http.StatusServiceUnavailable, "Service Unavailable", true
	}
	return 0, "", false
}

// Error renders every handler error as an ErrorResponse, wrapped in the JSONP callback
// when the request asked for one
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()

		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if status, msg, ok := StatusFor(err); ok {
			code = status
			message = msg
		} else if httperror.IsHTTPError(err) {
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			if httperr.Meta != nil {
				meta = httperr.Meta
			}
		}

		log := logger.WithContext(ctx).WithError(err).WithField("status", code)
		if code >= http.StatusInternalServerError {
			log.Error("api is returning an error")
			tracing.MarkError(ctx, err)
		} else {
			log.Warn("api is returning an error")
		}

		resp := ErrorResponse{
			Message:   message,
			RequestID: context.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		}

		callback, cbErr := jsonp.Callback(c)
		if cbErr != nil || callback == "" {
			_ = c.JSON(code, resp)
			return
		}
		body, marshalErr := json.Marshal(resp)
		if marshalErr != nil {
			_ = c.JSON(code, resp)
			return
		}
		_ = c.Blob(code, jsonp.ContentType, jsonp.Wrap(callback, body))
	}
}
