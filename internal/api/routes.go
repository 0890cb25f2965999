// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/bidmap-converter/backend/internal/appearance"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/logging"
	"github.com/bidmap-converter/backend/internal/mapping"
	"github.com/bidmap-converter/backend/internal/storage"
	"github.com/bidmap-converter/backend/internal/toolchest"
	"github.com/labstack/echo/v4"
)

var logger = logging.New("api")

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store     storage.Store
	Engine    Converter
	Resolver  *iconstyle.Resolver
	Overrides OverrideStore
	Toolchest *toolchest.Reference
	Mapping   *mapping.Table
	Extractor *appearance.Extractor
	OutputDir string

	AllowIconEditing bool
	AllowedFileTypes []string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Convert ConvertHandler
	Icons   IconHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps),
		Convert: NewConvertHandler(deps.Store, deps.Engine, deps.OutputDir, deps.AllowedFileTypes),
		Icons:   NewIconHandler(deps.Resolver, deps.Overrides, deps.Engine, deps.AllowIconEditing),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	g := e.Group("/api")

	g.GET("/health", handlers.Health.HandleHealth)

	// Conversion cycle
	g.POST("/upload", handlers.Convert.HandleUpload)
	g.POST("/convert/:uploadId", handlers.Convert.HandleConvert)
	g.GET("/download/:fileId", handlers.Convert.HandleDownload)
	g.GET("/files", handlers.Convert.HandleRecentFiles)

	// Icon styles
	icons := g.Group("/icons")
	icons.GET("", handlers.Icons.HandleListIcons)
	icons.POST("/bulk", handlers.Icons.HandleBulkUpdate)
	icons.GET("/:subject", handlers.Icons.HandleGetIcon)
	icons.PUT("/:subject", handlers.Icons.HandleUpdateIcon)
	icons.DELETE("/:subject", handlers.Icons.HandleDeleteIcon)
	icons.GET("/:subject/preview", handlers.Icons.HandlePreview)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
