package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bidmap-converter/backend/internal/models"
	"github.com/bidmap-converter/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestConvertHandler_HandleUpload(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		writeErr   error
		wantStatus int
		errCode    string
	}{
		{name: "pdf upload", filename: "site.pdf", wantStatus: http.StatusCreated},
		{name: "upper case extension", filename: "SITE.PDF", wantStatus: http.StatusCreated},
		{name: "wrong extension", filename: "site.txt", wantStatus: http.StatusBadRequest, errCode: "BAD_REQUEST"},
		{name: "store failure", filename: "site.pdf", writeErr: errors.New("disk full"), wantStatus: http.StatusInternalServerError, errCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage(t.TempDir())
			store.WriteErr = tt.writeErr
			h := NewConvertHandler(store, &fakeConverter{}, t.TempDir(), nil)

			body, contentType := multipartBody(t, tt.filename, testutil.MapPDF())
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.HandleUpload(c)
			if tt.errCode != "" {
				requireAPIError(t, err, tt.wantStatus, tt.errCode)
				assert.Zero(t, store.GetFileCount())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp models.UploadResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.UploadID)
			assert.Equal(t, tt.filename, resp.Name)
			assert.Equal(t, 1, store.GetFileCount())
		})
	}

	t.Run("missing file field", func(t *testing.T) {
		h := NewConvertHandler(testutil.NewMockStorage(t.TempDir()), &fakeConverter{}, t.TempDir(), nil)
		c, _ := newContext(http.MethodPost, "/api/upload", nil)
		requireAPIError(t, h.HandleUpload(c), http.StatusBadRequest, "BAD_REQUEST")
	})
}

func convertContext(method, target, param, id string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newContext(method, target, nil)
	c.SetParamNames(param)
	c.SetParamValues(id)
	return c, rec
}

func TestConvertHandler_ConvertAndDownload(t *testing.T) {
	store := testutil.NewMockStorage(t.TempDir())
	store.AddFile("up-1", "site.pdf", models.ArtifactUpload, testutil.MapPDF(
		testutil.Circle(apBid, apRect),
		testutil.Circle("Unknown Bid", apRect),
	))
	outDir := t.TempDir()
	h := NewConvertHandler(store, newEngine(t), outDir, nil)

	c, rec := convertContext(http.MethodPost, "/api/convert/up-1", "uploadId", "up-1")
	require.NoError(t, h.HandleConvert(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "up-1", resp.UploadID)
	assert.Equal(t, 1, resp.Converted)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, []string{"Unknown Bid"}, resp.SkippedSubjects)
	assert.Equal(t, "compound", resp.Mode)
	assert.Equal(t, "/api/download/"+resp.FileID, resp.DownloadURL)

	data, err := store.GetFileData(resp.FileID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	leftovers, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	c, rec = convertContext(http.MethodGet, "/api/download/"+resp.FileID, "fileId", resp.FileID)
	require.NoError(t, h.HandleDownload(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `attachment; filename="converted_deployment.pdf"`)
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestConvertHandler_ConvertOptions(t *testing.T) {
	store := testutil.NewMockStorage(t.TempDir())
	store.AddFile("up-1", "site.pdf", models.ArtifactUpload, testutil.MapPDF())
	h := NewConvertHandler(store, &fakeConverter{}, t.TempDir(), nil)

	t.Run("custom output name", func(t *testing.T) {
		c, rec := convertContext(http.MethodPost, "/api/convert/up-1?output_name=final.pdf", "uploadId", "up-1")
		require.NoError(t, h.HandleConvert(c))

		var resp models.ConversionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "final.pdf", resp.Name)
		assert.NotNil(t, resp.SkippedSubjects)
	})

	t.Run("msgpack response", func(t *testing.T) {
		c, rec := convertContext(http.MethodPost, "/api/convert/up-1", "uploadId", "up-1")
		c.Request().Header.Set(echo.HeaderAccept, mimeMsgpack)
		require.NoError(t, h.HandleConvert(c))
		assert.Equal(t, mimeMsgpack, rec.Header().Get(echo.HeaderContentType))

		var resp models.ConversionResponse
		require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "up-1", resp.UploadID)
		assert.NotEmpty(t, resp.FileID)
	})
}

func TestConvertHandler_ConvertErrors(t *testing.T) {
	store := testutil.NewMockStorage(t.TempDir())
	store.AddFile("two", "two.pdf", models.ArtifactUpload, testutil.TwoPagePDF())
	store.AddFile("done", "done.pdf", models.ArtifactConverted, testutil.MapPDF())
	store.AddFile("up", "site.pdf", models.ArtifactUpload, testutil.MapPDF())

	tests := []struct {
		name       string
		id         string
		engine     Converter
		wantStatus int
		errCode    string
	}{
		{name: "unknown upload", id: "missing", engine: &fakeConverter{}, wantStatus: http.StatusNotFound, errCode: "NOT_FOUND"},
		{name: "converted artifact", id: "done", engine: &fakeConverter{}, wantStatus: http.StatusNotFound, errCode: "NOT_FOUND"},
		{name: "multi page", id: "two", engine: newEngine(t), wantStatus: http.StatusUnprocessableEntity, errCode: "UNPROCESSABLE"},
		{name: "cancelled", id: "up", engine: &fakeConverter{err: context.Canceled}, wantStatus: http.StatusServiceUnavailable, errCode: "SERVICE_UNAVAILABLE"},
		{name: "broken pdf", id: "up", engine: &fakeConverter{err: errors.New("xref")}, wantStatus: http.StatusUnprocessableEntity, errCode: "UNPROCESSABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewConvertHandler(store, tt.engine, t.TempDir(), nil)
			c, _ := convertContext(http.MethodPost, "/api/convert/"+tt.id, "uploadId", tt.id)
			requireAPIError(t, h.HandleConvert(c), tt.wantStatus, tt.errCode)
		})
	}
}

func TestConvertHandler_DownloadMissing(t *testing.T) {
	h := NewConvertHandler(testutil.NewMockStorage(t.TempDir()), &fakeConverter{}, t.TempDir(), nil)
	c, _ := convertContext(http.MethodGet, "/api/download/nope", "fileId", "nope")
	requireAPIError(t, h.HandleDownload(c), http.StatusNotFound, "NOT_FOUND")
}

func TestConvertHandler_RecentFiles(t *testing.T) {
	store := testutil.NewMockStorage(t.TempDir())
	h := NewConvertHandler(store, &fakeConverter{}, t.TempDir(), nil)

	c, rec := newContext(http.MethodGet, "/api/files", nil)
	require.NoError(t, h.HandleRecentFiles(c))
	assert.JSONEq(t, `[]`, rec.Body.String())

	store.AddFile("a", "site.pdf", models.ArtifactUpload, testutil.MapPDF())
	c, rec = newContext(http.MethodGet, "/api/files", nil)
	require.NoError(t, h.HandleRecentFiles(c))

	var files []models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, models.ArtifactUpload, files[0].Kind)
}
