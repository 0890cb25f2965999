// handlers_convert.go - Upload, conversion and download handlers
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bidmap-converter/backend/internal/convert"
	"github.com/bidmap-converter/backend/internal/models"
	"github.com/bidmap-converter/backend/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	store     storage.Store
	engine    Converter
	outputDir string
	allowed   []string
}

// NewConvertHandler creates a new conversion handler. allowed lists the
// accepted upload extensions; empty means ".pdf".
func NewConvertHandler(store storage.Store, engine Converter, outputDir string, allowed []string) ConvertHandler {
	if len(allowed) == 0 {
		allowed = []string{".pdf"}
	}
	return &ConvertHandlerImpl{
		store:     store,
		engine:    engine,
		outputDir: outputDir,
		allowed:   allowed,
	}
}

// HandleUpload accepts a bid map as multipart/form-data field "file"
func (h *ConvertHandlerImpl) HandleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	if !h.accepts(file.Filename) {
		return NewBadRequestError(fmt.Sprintf("unsupported file type: %s", file.Filename), nil)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.StoreUpload(file.Filename, src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return respond(c, http.StatusCreated, models.UploadResponse{
		UploadID: info.ID,
		Name:     info.Name,
		Size:     info.Size,
	})
}

func (h *ConvertHandlerImpl) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range h.allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// HandleConvert converts a stored upload and stores the result
func (h *ConvertHandlerImpl) HandleConvert(c echo.Context) error {
	uploadID := c.Param("uploadId")
	if uploadID == "" {
		return NewValidationError("uploadId")
	}

	upload, err := h.store.Get(uploadID)
	if err != nil || upload.Kind != models.ArtifactUpload {
		return NewNotFoundError("upload", uploadID)
	}
	input, err := h.store.GetFilePath(uploadID)
	if err != nil {
		return NewNotFoundError("upload", uploadID)
	}

	if err := os.MkdirAll(h.outputDir, 0755); err != nil {
		return NewInternalError("failed to prepare output directory", err)
	}
	output := filepath.Join(h.outputDir, uuid.New().String()+".pdf")
	defer os.Remove(output)

	start := time.Now()
	result, err := h.engine.Convert(c.Request().Context(), input, output)
	if err != nil {
		return conversionError(uploadID, err)
	}
	elapsed := time.Since(start)

	f, err := os.Open(output)
	if err != nil {
		return NewInternalError("failed to read converted file", err)
	}
	defer f.Close()

	info, err := h.store.StoreConverted(uploadID, f, c.FormValue("output_name"))
	if err != nil {
		return NewInternalError("failed to save converted file", err)
	}

	logger.Infof("converted %s: %d converted, %d skipped in %s", upload.Name, result.Converted, result.Skipped, elapsed)

	skipped := result.SkippedSubjects
	if skipped == nil {
		skipped = []string{}
	}
	return respond(c, http.StatusOK, models.ConversionResponse{
		UploadID:        uploadID,
		FileID:          info.ID,
		Name:            info.Name,
		Mode:            string(h.engine.Mode()),
		Converted:       result.Converted,
		Skipped:         result.Skipped,
		SkippedSubjects: skipped,
		ProcessingTime:  elapsed.Milliseconds(),
		DownloadURL:     "/api/download/" + info.ID,
	})
}

func conversionError(uploadID string, err error) error {
	switch {
	case errors.Is(err, convert.ErrInputMissing):
		return NewNotFoundError("upload", uploadID)
	case errors.Is(err, convert.ErrMultiPage):
		return NewUnprocessableError("only single-page maps can be converted", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailableError("conversion was interrupted")
	default:
		return NewUnprocessableError("failed to convert PDF", err)
	}
}

// HandleDownload serves a stored file as an attachment
func (h *ConvertHandlerImpl) HandleDownload(c echo.Context) error {
	id := c.Param("fileId")
	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	path, err := h.store.GetFilePath(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	return c.Attachment(path, info.Name)
}

// HandleRecentFiles lists live uploads and conversions, newest first
func (h *ConvertHandlerImpl) HandleRecentFiles(c echo.Context) error {
	files, err := h.store.List(50)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}
	return respond(c, http.StatusOK, files)
}
