// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/bidmap-converter/backend/internal/appearance"
	"github.com/bidmap-converter/backend/internal/mapping"
	"github.com/bidmap-converter/backend/internal/models"
	"github.com/bidmap-converter/backend/internal/toolchest"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	toolchest   *toolchest.Reference
	mapping     *mapping.Table
	extractor   *appearance.Extractor
	engine      Converter
	iconEditing bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(deps *Dependencies) HealthHandler {
	return &HealthHandlerImpl{
		toolchest:   deps.Toolchest,
		mapping:     deps.Mapping,
		extractor:   deps.Extractor,
		engine:      deps.Engine,
		iconEditing: deps.AllowIconEditing,
	}
}

// HandleHealth reports what reference material the server has loaded.
// A missing mapping degrades the status but still answers 200.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := models.HealthResponse{
		Status:          "ok",
		Mappings:        h.mapping.Len(),
		ReferenceColors: len(h.extractor.Subjects()),
		IconEditing:     h.iconEditing,
		MappingWarnings: h.mapping.Validate(),
	}
	if h.toolchest != nil {
		resp.BidIcons = h.toolchest.BidCount()
		resp.DeploymentIcons = h.toolchest.DeploymentCount()
	}
	if h.engine != nil {
		resp.RenderMode = string(h.engine.Mode())
	}
	if len(resp.MappingWarnings) > 0 {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}
