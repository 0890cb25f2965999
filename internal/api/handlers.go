package api

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const mimeMsgpack = "application/msgpack"

// wantsMsgpack reports whether the client asked for a msgpack body.
func wantsMsgpack(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack)
}

// respond writes v as msgpack when the client accepts it and as JSON
// otherwise. Both encodings use the JSON field names.
func respond(c echo.Context, status int, v interface{}) error {
	if !wantsMsgpack(c) {
		return c.JSON(status, v)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, mimeMsgpack, buf.Bytes())
}

// pathParam returns a decoded path parameter. Subjects contain spaces and
// punctuation, so clients send them escaped.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// notImplemented answers for optional collaborators that were not wired.
func notImplemented(what string) error {
	return &APIError{
		Status:  http.StatusNotImplemented,
		Code:    "NOT_IMPLEMENTED",
		Message: what + " is not available",
	}
}
