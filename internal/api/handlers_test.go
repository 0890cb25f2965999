package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bidmap-converter/backend/internal/convert"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/mapping"
	"github.com/bidmap-converter/backend/internal/models"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apBid        = "Artist - Indoor Wi-Fi Access Point"
	apDeployment = "AP - Cisco MR36H"
)

var apRect = [4]float64{100, 200, 150, 250}

// fakeConverter copies the input through and records preview labels.
type fakeConverter struct {
	err    error
	result convert.Result
	label  string
}

func (f *fakeConverter) Convert(ctx context.Context, input, output string) (convert.Result, error) {
	if f.err != nil {
		return convert.Result{}, f.err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return convert.Result{}, err
	}
	return f.result, os.WriteFile(output, data, 0644)
}

func (f *fakeConverter) Preview(style iconstyle.Style, label string) ([]byte, error) {
	f.label = label
	return []byte("%PDF-1.7 preview"), nil
}

func (f *fakeConverter) Mode() render.Mode { return render.Compound }

func testMapping(t *testing.T) *mapping.Table {
	t.Helper()
	m, err := mapping.New(mapping.Entry{Bid: apBid, Deployment: apDeployment, Category: "APs"})
	require.NoError(t, err)
	return m
}

func newEngine(t *testing.T) *convert.Engine {
	t.Helper()
	return convert.New(convert.Options{
		Mapping:  testMapping(t),
		Resolver: iconstyle.NewResolver(nil, nil),
		Renderer: render.New(t.TempDir()),
	})
}

func newContext(method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// requireAPIError asserts err is an APIError with the given status and code.
func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, code, apiErr.Code)
}

func TestErrorHandler(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/icons/x", nil)
		ErrorHandler(NewNotFoundError("icon", "x"), c)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
	})

	t.Run("echo error", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/nowhere", nil)
		ErrorHandler(echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), c)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"HTTP_ERROR"`)
	})

	t.Run("unexpected error hides details", func(t *testing.T) {
		SetErrorDetails(false)
		c, rec := newContext(http.MethodGet, "/", nil)
		ErrorHandler(errors.New("boom"), c)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("unexpected error with details", func(t *testing.T) {
		SetErrorDetails(true)
		defer SetErrorDetails(false)
		c, rec := newContext(http.MethodGet, "/", nil)
		ErrorHandler(errors.New("boom"), c)
		assert.Contains(t, rec.Body.String(), `"details":"boom"`)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("no mapping degrades", func(t *testing.T) {
		h := NewHealthHandler(&Dependencies{AllowIconEditing: true})
		c, rec := newContext(http.MethodGet, "/api/health", nil)
		require.NoError(t, h.HandleHealth(c))

		var resp models.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, []string{"No mappings loaded"}, resp.MappingWarnings)
		assert.True(t, resp.IconEditing)
		assert.Zero(t, resp.BidIcons)
	})

	t.Run("loaded", func(t *testing.T) {
		h := NewHealthHandler(&Dependencies{Mapping: testMapping(t), Engine: &fakeConverter{}})
		c, rec := newContext(http.MethodGet, "/api/health", nil)
		require.NoError(t, h.HandleHealth(c))

		var resp models.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 1, resp.Mappings)
		assert.Equal(t, "compound", resp.RenderMode)
		assert.Empty(t, resp.MappingWarnings)
	})
}

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, NewHandlers(&Dependencies{Mapping: testMapping(t), Engine: &fakeConverter{}}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/icons/AP%20-%20Cisco%20MR36H", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subject":"AP - Cisco MR36H"`)

	req = httptest.NewRequest(http.MethodPut, "/api/icons/x", bytes.NewBufferString(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
