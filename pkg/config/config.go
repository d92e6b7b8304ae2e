// Package config reads chart files.
//
// A chart file is TOML:
//
//	[data]
//	path = "visits.csv"      # relative to the chart file
//
//	[stack]
//	x = "hour"
//	y = "visits"
//	z = "day"
//	order = "insideOut"
//	offset = "wiggle"
//
//	[scales.y]
//	domain = "0.."
//	nice = true
//
//	[render]
//	mark = "area"
//	formats = ["svg", "png"]
//
// Unknown keys are rejected so that typos surface instead of silently
// falling back to defaults.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/pipeline"
	"github.com/matzehuels/stackchart/pkg/scale"
)

// Chart is a decoded chart file.
type Chart struct {
	Data   Data   `toml:"data"`
	Stack  Stack  `toml:"stack"`
	Scales Scales `toml:"scales"`
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`
}

// Data locates the input records.
type Data struct {
	Path   string `toml:"path"`
	Sheet  string `toml:"sheet"`
	Format string `toml:"format"`
}

// Stack selects channels and stacking strategies. Channels are field
// names, or expressions when prefixed with "=".
type Stack struct {
	X         string `toml:"x"`
	Y         string `toml:"y"`
	Z         string `toml:"z"`
	Order     string `toml:"order"`
	Offset    string `toml:"offset"`
	Stable    bool   `toml:"stable"`
	Direction string `toml:"direction"`
}

// Scales configures the x and y axis scales.
type Scales struct {
	X scale.Spec `toml:"x"`
	Y scale.Spec `toml:"y"`
}

// Render configures geometry and output.
type Render struct {
	Mark    string   `toml:"mark"`
	Width   float64  `toml:"width"`
	Height  float64  `toml:"height"`
	MarginX float64  `toml:"margin_x"`
	MarginY float64  `toml:"margin_y"`
	Title   string   `toml:"title"`
	Formats []string `toml:"formats"`
}

// Cache configures result caching. Redis takes precedence over Dir.
type Cache struct {
	Disabled bool          `toml:"disabled"`
	Dir      string        `toml:"dir"`
	Redis    string        `toml:"redis"`
	TTL      time.Duration `toml:"ttl"`
}

// Load reads, decodes, and validates the chart file at path.
func Load(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "chart file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes and validates a chart. A relative data path is resolved
// against baseDir.
func Parse(data []byte, baseDir string) (*Chart, error) {
	var c Chart
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode chart")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in chart: %s", strings.Join(keys, ", "))
	}

	if c.Data.Path != "" && !filepath.IsAbs(c.Data.Path) && baseDir != "" {
		c.Data.Path = filepath.Join(baseDir, c.Data.Path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the chart as the pipeline would run it.
func (c *Chart) Validate() error {
	if c.Data.Path == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "[data] path is required")
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] ttl must not be negative")
	}
	opts := c.Options()
	return opts.ValidateAndSetDefaults()
}

// Options maps the chart onto pipeline options.
func (c *Chart) Options() pipeline.Options {
	return pipeline.Options{
		DataPath:   c.Data.Path,
		DataFormat: c.Data.Format,
		Sheet:      c.Data.Sheet,
		X:          c.Stack.X,
		Y:          c.Stack.Y,
		Z:          c.Stack.Z,
		Order:      c.Stack.Order,
		Offset:     c.Stack.Offset,
		Stable:     c.Stack.Stable,
		Direction:  c.Stack.Direction,
		Mark:       c.Render.Mark,
		Width:      c.Render.Width,
		Height:     c.Render.Height,
		MarginX:    c.Render.MarginX,
		MarginY:    c.Render.MarginY,
		XScale:     c.Scales.X,
		YScale:     c.Scales.Y,
		Formats:    append([]string(nil), c.Render.Formats...),
		Title:      c.Render.Title,
	}
}
