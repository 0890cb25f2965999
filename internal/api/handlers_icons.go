// handlers_icons.go - Icon style handlers
package api

import (
	"errors"
	"net/http"

	"github.com/bidmap-converter/backend/internal/convert"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/ids"
	"github.com/bidmap-converter/backend/internal/models"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/labstack/echo/v4"
)

// IconHandlerImpl implements the IconHandler interface
type IconHandlerImpl struct {
	resolver  *iconstyle.Resolver
	overrides OverrideStore
	engine    Converter
	editable  bool
}

// NewIconHandler creates a new icon handler. Editing routes answer 403
// unless editable is set.
func NewIconHandler(resolver *iconstyle.Resolver, overrides OverrideStore, engine Converter, editable bool) IconHandler {
	if resolver == nil {
		resolver = iconstyle.NewResolver(nil, nil)
	}
	return &IconHandlerImpl{
		resolver:  resolver,
		overrides: overrides,
		engine:    engine,
		editable:  editable,
	}
}

type iconListResponse struct {
	Icons      []iconstyle.Resolved `json:"icons"`
	Categories []string             `json:"categories"`
	Count      int                  `json:"count"`
}

// HandleListIcons returns every resolvable style, optionally filtered by
// ?category=
func (h *IconHandlerImpl) HandleListIcons(c echo.Context) error {
	category := c.QueryParam("category")

	icons := make([]iconstyle.Resolved, 0)
	for _, r := range h.resolver.All() {
		if category == "" || r.Category == category {
			icons = append(icons, r)
		}
	}

	return respond(c, http.StatusOK, iconListResponse{
		Icons:      icons,
		Categories: h.resolver.Catalog().CategoryNames(),
		Count:      len(icons),
	})
}

// HandleGetIcon returns the resolved style of one subject
func (h *IconHandlerImpl) HandleGetIcon(c echo.Context) error {
	subject := pathParam(c, "subject")
	r, ok := h.resolver.Lookup(subject)
	if !ok {
		return NewNotFoundError("icon", subject)
	}
	return respond(c, http.StatusOK, r)
}

// HandleUpdateIcon merges a partial style into the subject's persisted
// overrides
func (h *IconHandlerImpl) HandleUpdateIcon(c echo.Context) error {
	if err := h.checkEditable(); err != nil {
		return err
	}
	subject := pathParam(c, "subject")
	if subject == "" {
		return NewValidationError("subject")
	}

	var partial iconstyle.Overrides
	if err := c.Bind(&partial); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := h.validateOverrides(partial); err != nil {
		return err
	}

	full := h.overrides.BuildFullConfig(subject, partial)
	if err := h.overrides.Set(subject, full); err != nil {
		return NewInternalError("failed to save icon overrides", err)
	}
	logger.Infof("updated icon style %q", subject)

	r, ok := h.resolver.Lookup(subject)
	if !ok {
		return NewInternalError("updated icon does not resolve", nil)
	}
	return respond(c, http.StatusOK, r)
}

// HandleDeleteIcon drops the persisted overrides of a subject
func (h *IconHandlerImpl) HandleDeleteIcon(c echo.Context) error {
	if err := h.checkEditable(); err != nil {
		return err
	}
	subject := pathParam(c, "subject")

	ok, err := h.overrides.Delete(subject)
	if err != nil {
		return NewInternalError("failed to save icon overrides", err)
	}
	if !ok {
		return NewNotFoundError("icon override", subject)
	}
	logger.Infof("reset icon style %q", subject)
	return c.NoContent(http.StatusNoContent)
}

// HandleBulkUpdate applies one partial style to several subjects
func (h *IconHandlerImpl) HandleBulkUpdate(c echo.Context) error {
	if err := h.checkEditable(); err != nil {
		return err
	}

	var req models.BulkIconUpdate
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(req.Subjects) == 0 {
		return NewValidationError("subjects")
	}
	if err := h.validateOverrides(req.Updates); err != nil {
		return err
	}

	n, err := h.overrides.ApplyToMultiple(req.Subjects, req.Updates)
	if err != nil {
		return NewInternalError("failed to save icon overrides", err)
	}
	logger.Infof("bulk updated %d icon styles", n)

	return c.JSON(http.StatusOK, map[string]int{"updated": n})
}

// HandlePreview renders the subject's icon on a single-page PDF. ?label=
// sets the ID text; it defaults to the subject's first device ID.
func (h *IconHandlerImpl) HandlePreview(c echo.Context) error {
	if h.engine == nil {
		return notImplemented("icon preview")
	}
	subject := pathParam(c, "subject")
	style, ok := h.resolver.Resolve(subject, nil)
	if !ok {
		return NewNotFoundError("icon", subject)
	}

	label := c.QueryParam("label")
	if label == "" {
		if id, ok := ids.NewAssigner(nil).NextID(subject); ok {
			label = id
		} else {
			label = "ID"
		}
	}

	data, err := h.engine.Preview(style, label)
	if errors.Is(err, convert.ErrNoRenderer) {
		return notImplemented("icon preview")
	}
	if err != nil {
		return NewInternalError("failed to render preview", err)
	}
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func (h *IconHandlerImpl) checkEditable() error {
	if !h.editable {
		return NewForbiddenError("icon editing is disabled")
	}
	if h.overrides == nil {
		return notImplemented("icon override storage")
	}
	return nil
}

func (h *IconHandlerImpl) validateOverrides(o iconstyle.Overrides) error {
	if o.Category != nil && *o.Category != "" && !h.resolver.Catalog().HasCategory(*o.Category) {
		return NewValidationError("category")
	}
	if o.ImagePath != nil && *o.ImagePath != "" && !render.LocalPath(*o.ImagePath) {
		return NewValidationError("image_path")
	}
	return nil
}
