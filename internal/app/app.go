// Package app assembles the conversion engine and its reference material
// from an AppConfig. The server and the CLI share it.
package app

import (
	"fmt"

	"github.com/bidmap-converter/backend/internal/appearance"
	"github.com/bidmap-converter/backend/internal/config"
	"github.com/bidmap-converter/backend/internal/convert"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/ids"
	"github.com/bidmap-converter/backend/internal/layers"
	"github.com/bidmap-converter/backend/internal/logging"
	"github.com/bidmap-converter/backend/internal/mapping"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/bidmap-converter/backend/internal/toolchest"
)

var logger = logging.New("app")

// App holds everything a conversion needs. All fields are safe to share
// between concurrent requests.
type App struct {
	Config    *config.AppConfig
	Toolchest *toolchest.Reference
	Mapping   *mapping.Table
	Extractor *appearance.Extractor
	Overrides *iconstyle.Store
	Resolver  *iconstyle.Resolver
	Renderer  *render.Renderer
	Engine    *convert.Engine
}

// Load reads the reference material named by cfg. A missing toolchest or an
// unknown render mode is fatal; the other inputs degrade with a warning.
func Load(cfg *config.AppConfig) (*App, error) {
	logging.SetLevel(cfg.Advanced.LogLevel)

	mode, err := render.ParseMode(cfg.Conversion.RenderMode)
	if err != nil {
		return nil, err
	}

	tc, err := toolchest.Load(cfg.Conversion.ToolchestDirectory)
	if err != nil {
		return nil, fmt.Errorf("loading toolchest: %w", err)
	}
	logger.Infof("toolchest: %d bid, %d deployment icons", tc.BidCount(), tc.DeploymentCount())

	table, err := mapping.Load(cfg.Conversion.MappingFile)
	if err != nil {
		logger.Warnf("no mappings loaded: %v", err)
		table, _ = mapping.New()
	}
	for _, problem := range table.Validate() {
		logger.Warnf("mapping: %s", problem)
	}

	extractor := appearance.NewExtractor()
	if path := cfg.Conversion.AppearancePDF; path != "" {
		n := extractor.Load(path)
		logger.Infof("appearance reference: %d subjects", n)
	}

	catalog := iconstyle.Builtin()
	overrides := iconstyle.NewStore(cfg.Conversion.IconOverridesFile, catalog)
	resolver := iconstyle.NewResolver(catalog, overrides)
	renderer := render.New(cfg.Conversion.GearIconsDirectory)

	var cloner *layers.Cloner
	if path := cfg.Conversion.LayerPDF; path != "" {
		cloner = layers.NewCloner(path)
	}

	engine := convert.New(convert.Options{
		Mapping:        table,
		Resolver:       resolver,
		Renderer:       renderer,
		Extractor:      extractor,
		Layers:         cloner,
		Toolchest:      tc,
		IDPrefixes:     ids.DefaultTable(),
		Mode:           mode,
		FallbackWidth:  cfg.Conversion.FallbackWidth,
		FallbackHeight: cfg.Conversion.FallbackHeight,
	})

	return &App{
		Config:    cfg,
		Toolchest: tc,
		Mapping:   table,
		Extractor: extractor,
		Overrides: overrides,
		Resolver:  resolver,
		Renderer:  renderer,
		Engine:    engine,
	}, nil
}
