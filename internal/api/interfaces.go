// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/bidmap-converter/backend/internal/convert"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ConvertHandler handles the upload, convert and download cycle
type ConvertHandler interface {
	HandleUpload(c echo.Context) error
	HandleConvert(c echo.Context) error
	HandleDownload(c echo.Context) error
	HandleRecentFiles(c echo.Context) error
}

// IconHandler handles icon style listing, editing and previews
type IconHandler interface {
	HandleListIcons(c echo.Context) error
	HandleGetIcon(c echo.Context) error
	HandleUpdateIcon(c echo.Context) error
	HandleDeleteIcon(c echo.Context) error
	HandleBulkUpdate(c echo.Context) error
	HandlePreview(c echo.Context) error
}

// Converter is the conversion engine as seen by the handlers.
// This allows mocking in tests
type Converter interface {
	Convert(ctx context.Context, input, output string) (convert.Result, error)
	Preview(style iconstyle.Style, label string) ([]byte, error)
	Mode() render.Mode
}

// OverrideStore persists icon style overrides
type OverrideStore interface {
	Set(subject string, o iconstyle.Overrides) error
	Delete(subject string) (bool, error)
	BuildFullConfig(subject string, partial iconstyle.Overrides) iconstyle.Overrides
	ApplyToMultiple(subjects []string, updates iconstyle.Overrides) (int, error)
}
