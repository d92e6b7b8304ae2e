// Package pipeline runs the complete stackchart pipeline.
//
// The CLI and the HTTP API both go through this package so that loading,
// stacking, layout, and rendering behave the same everywhere.
//
// # Architecture
//
// The pipeline has four stages:
//
//  1. Load: read records from a file or take them inline
//  2. Stack: pivot and stack the records into series
//  3. Layout: qualify scale domains in a frame loop, then compute geometry
//  4. Render: produce artifacts (SVG, PNG, JSON)
//
// Layouts and artifacts are cached by content hash; stacking is cheap and
// always recomputed so every result carries its series.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DataPath: "visits.csv",
//	    X:        "hour",
//	    Y:        "visits",
//	    Z:        "day",
//	    Formats:  []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackchart/pkg/cache"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/layout"
	"github.com/matzehuels/stackchart/pkg/scale"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultWidth   = 800.0
	DefaultHeight  = 400.0
	DefaultMarginX = 48.0
	DefaultMarginY = 32.0
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ValidMarks is the set of supported marks.
var ValidMarks = map[string]bool{
	string(layout.MarkArea): true,
	string(layout.MarkBar):  true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run. It decodes from API request bodies;
// chart files are mapped onto it by package config.
type Options struct {
	// Data options. Records, when set, take precedence over DataPath.
	DataPath   string            `json:"data_path,omitempty"`
	DataFormat string            `json:"data_format,omitempty"`
	Sheet      string            `json:"sheet,omitempty"`
	Records    []encoding.Record `json:"records,omitempty"`

	// Stack options. X, Y, and Z are field names, or expressions when
	// prefixed with "=".
	X         string `json:"x"`
	Y         string `json:"y"`
	Z         string `json:"z"`
	Order     string `json:"order,omitempty"`
	Offset    string `json:"offset,omitempty"`
	Stable    bool   `json:"stable,omitempty"`
	Direction string `json:"direction,omitempty"`

	// Layout options
	Mark    string     `json:"mark,omitempty"`
	Width   float64    `json:"width,omitempty"`
	Height  float64    `json:"height,omitempty"`
	MarginX float64    `json:"margin_x,omitempty"`
	MarginY float64    `json:"margin_y,omitempty"`
	XScale  scale.Spec `json:"x_scale"`
	YScale  scale.Spec `json:"y_scale"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Title   string   `json:"title,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result holds the outputs of a pipeline run.
type Result struct {
	// DataHash is the content hash of the input records.
	DataHash string

	Series   []stack.Series
	Warnings []string

	// Order and Offset are the strategies the stack resolved to.
	Order  stack.Order
	Offset stack.Offset

	// Layout and Artifacts are empty when only stacking was requested.
	Layout    layout.Layout
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds sizes and stage timings.
type Stats struct {
	Records    int
	Series     int
	LoadTime   time.Duration
	StackTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid format %q (must be one of: svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMark checks that mark is supported.
func ValidateMark(mark string) error {
	if !ValidMarks[mark] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid mark %q (must be one of: area, bar)", mark)
	}
	return nil
}

// ValidateDirection checks that dir names a stack direction.
func ValidateDirection(dir string) error {
	switch stack.Direction(dir) {
	case stack.Vertical, stack.Horizontal:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid direction %q (must be one of: vertical, horizontal)", dir)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options for a full run and fills in
// defaults. Calling it again is a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForStack(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForStack checks the data source and channel accessors.
func (o *Options) ValidateForStack() error {
	if o.Records == nil && o.DataPath == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "data path or inline records are required")
	}
	if o.X == "" || o.Y == "" || o.Z == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "x, y, and z channels are required")
	}
	if _, _, _, err := o.Accessors(); err != nil {
		return err
	}
	if o.Direction == "" {
		o.Direction = string(stack.Vertical)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateDirection(o.Direction)
}

// SetLayoutDefaults fills in frame size, margins, mark, and axis scale
// types.
func (o *Options) SetLayoutDefaults() {
	if o.Mark == "" {
		o.Mark = string(layout.MarkArea)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MarginX == 0 {
		o.MarginX = DefaultMarginX
	}
	if o.MarginY == 0 {
		o.MarginY = DefaultMarginY
	}
	ids, values := o.axisSpecs()
	if ids.Type == "" {
		ids.Type = string(scale.KindBand)
	}
	if values.Type == "" {
		values.Type = string(scale.KindLinear)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout applies layout defaults and validates them.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateMark(o.Mark); err != nil {
		return err
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if 2*o.MarginX >= o.Width || 2*o.MarginY >= o.Height {
		return errors.New(errors.ErrCodeInvalidConfig, "margins %gx%g leave no room in a %gx%g frame", o.MarginX, o.MarginY, o.Width, o.Height)
	}
	return nil
}

// SetRenderDefaults fills in the output formats.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
}

// ValidateForRender applies render defaults and validates them.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Accessors parses the x, y, and z channels.
func (o *Options) Accessors() (x, y, z encoding.Accessor, err error) {
	if x, err = encoding.Parse(o.X); err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeInvalidAccessor, err, "x channel")
	}
	if y, err = encoding.Parse(o.Y); err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeInvalidAccessor, err, "y channel")
	}
	if z, err = encoding.Parse(o.Z); err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeInvalidAccessor, err, "z channel")
	}
	return x, y, z, nil
}

// StackConfig builds the stack configuration for records.
func (o *Options) StackConfig(records []encoding.Record) (stack.Config, error) {
	x, y, z, err := o.Accessors()
	if err != nil {
		return stack.Config{}, err
	}
	return stack.Config{
		Data:      records,
		X:         x,
		Y:         y,
		Z:         z,
		Order:     stack.Order(o.Order),
		Offset:    stack.Offset(o.Offset),
		Stable:    o.Stable,
		Direction: stack.Direction(o.Direction),
	}, nil
}

// axisSpecs returns the id-axis and value-axis scale specs. Vertical stacks
// take ids from x; horizontal stacks from y.
func (o *Options) axisSpecs() (ids, values *scale.Spec) {
	if stack.Direction(o.Direction) == stack.Horizontal {
		return &o.YScale, &o.XScale
	}
	return &o.XScale, &o.YScale
}

// StackKeyOpts returns cache key options for stacking.
func (o *Options) StackKeyOpts() cache.StackKeyOpts {
	return cache.StackKeyOpts{
		Sheet:     o.Sheet,
		X:         o.X,
		Y:         o.Y,
		Z:         o.Z,
		Order:     o.Order,
		Offset:    o.Offset,
		Stable:    o.Stable,
		Direction: o.Direction,
	}
}

// LayoutKeyOpts returns cache key options for layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	scales, _ := json.Marshal([2]scale.Spec{o.XScale, o.YScale})
	return cache.LayoutKeyOpts{
		Mark:    o.Mark,
		Width:   o.Width,
		Height:  o.Height,
		MarginX: o.MarginX,
		MarginY: o.MarginY,
		Scales:  string(scales),
	}
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Title: o.Title}
}
