// Package jsonp writes responses that honor an optional JSONP callback parameter.
package jsonp

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

const (
	// CallbackParam is the query parameter naming the callback
	CallbackParam = "callback"
	// ContentType is sent for wrapped responses
	ContentType = "text/javascript; charset=utf-8"
)

// a dotted javascript identifier path such as jQuery123.cb
var callbackPattern = regexp.MustCompile(`^[A-Za-z_$][0-9A-Za-z_$]*(\.[A-Za-z_$][0-9A-Za-z_$]*)*$`)

// Callback returns the callback requested by c, or "" when there is none.
// A callback that is not a plain identifier path is rejected with a 400.
func Callback(c echo.Context) (string, error) {
	callback := c.QueryParam(CallbackParam)
	if callback == "" {
		return "", nil
	}
	if len(callback) > 128 || !callbackPattern.MatchString(callback) {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "invalid callback parameter")
	}
	return callback, nil
}

// Wrap renders body as callback(body)
func Wrap(callback string, body []byte) []byte {
	out := make([]byte, 0, len(callback)+len(body)+2)
	out = append(out, callback...)
	out = append(out, '(')
	out = append(out, body...)
	return append(out, ')')
}

// Respond writes v as JSON, or as callback(JSON) when a callback was requested
func Respond(c echo.Context, code int, v any) error {
	callback, err := Callback(c)
	if err != nil {
		return err
	}
	if callback == "" {
		return c.JSON(code, v)
	}

	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(code, ContentType, Wrap(callback, body))
}
