package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackchart/pkg/cache"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/observability"
	"github.com/matzehuels/stackchart/pkg/scale"
	"github.com/matzehuels/stackchart/pkg/stack"
)

func visits() []encoding.Record {
	return []encoding.Record{
		{"day": "Mon", "hour": 0, "visits": 1},
		{"day": "Mon", "hour": 1, "visits": 2},
		{"day": "Tue", "hour": 0, "visits": 5},
		{"day": "Tue", "hour": 1, "visits": 0},
	}
}

func barOptions() Options {
	return Options{
		Records: visits(),
		X:       "hour",
		Y:       "visits",
		Z:       "day",
		Mark:    "bar",
		Width:   220,
		Height:  120,
		MarginX: 10,
		MarginY: 10,
		Formats: []string{FormatJSON, FormatSVG},
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"json", false},
		{"pdf", true},
		{"SVG", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateMarkAndDirection(t *testing.T) {
	for _, m := range []string{"area", "bar"} {
		if err := ValidateMark(m); err != nil {
			t.Errorf("ValidateMark(%q) = %v", m, err)
		}
	}
	if err := ValidateMark("pie"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("ValidateMark(pie) = %v, want INVALID_CONFIG", err)
	}
	for _, d := range []string{"vertical", "horizontal"} {
		if err := ValidateDirection(d); err != nil {
			t.Errorf("ValidateDirection(%q) = %v", d, err)
		}
	}
	if err := ValidateDirection("diagonal"); err == nil {
		t.Error("ValidateDirection(diagonal) should fail")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Records: visits(), X: "hour", Y: "visits", Z: "day"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("size = %vx%v, want defaults", opts.Width, opts.Height)
	}
	if opts.Mark != "area" || opts.Direction != "vertical" {
		t.Errorf("mark/direction = %s/%s, want area/vertical", opts.Mark, opts.Direction)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("formats = %v, want [svg]", opts.Formats)
	}
	if opts.XScale.Type != "band" || opts.YScale.Type != "linear" {
		t.Errorf("scale types = %s/%s, want band/linear", opts.XScale.Type, opts.YScale.Type)
	}
	if opts.Logger == nil {
		t.Error("logger should default to a discard logger")
	}

	h := Options{Records: visits(), X: "visits", Y: "hour", Z: "day", Direction: "horizontal"}
	if err := h.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if h.YScale.Type != "band" || h.XScale.Type != "linear" {
		t.Errorf("horizontal scale types = %s/%s, want linear/band", h.XScale.Type, h.YScale.Type)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		code   errors.Code
	}{
		{"no data", func(o *Options) { o.Records = nil }, errors.ErrCodeInvalidConfig},
		{"missing z", func(o *Options) { o.Z = "" }, errors.ErrCodeInvalidConfig},
		{"bad expression", func(o *Options) { o.Y = "=visits *" }, errors.ErrCodeInvalidAccessor},
		{"bad direction", func(o *Options) { o.Direction = "up" }, errors.ErrCodeInvalidConfig},
		{"bad mark", func(o *Options) { o.Mark = "pie" }, errors.ErrCodeInvalidConfig},
		{"margins", func(o *Options) { o.MarginX = 200 }, errors.ErrCodeInvalidConfig},
		{"bad format", func(o *Options) { o.Formats = []string{"gif"} }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := barOptions()
			tt.modify(&opts)
			err := opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteBars(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), barOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.Records != 4 || res.Stats.Series != 2 {
		t.Errorf("stats = %+v, want 4 records, 2 series", res.Stats)
	}
	if len(res.Layout.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(res.Layout.Blocks))
	}
	if res.Layout.MarginX != 10 || res.Layout.MarginY != 10 {
		t.Errorf("margins = %v,%v, want 10,10", res.Layout.MarginX, res.Layout.MarginY)
	}

	// The value domain qualifies to [0, 6] over the inverted range
	// [110, 10]; Tue at hour 0 stacks to 6 and reaches the top margin.
	tue := res.Layout.Blocks[2]
	if tue.Key != "Tue" {
		t.Fatalf("blocks[2].Key = %s, want Tue", tue.Key)
	}
	if tue.Bottom != 10 {
		t.Errorf("Tue top edge = %v, want 10", tue.Bottom)
	}
	if want := 110 - 100.0/6; math.Abs(tue.Top-want) > 1e-9 {
		t.Errorf("Tue lower edge = %v, want %v", tue.Top, want)
	}
	// Two hours share the band range [10, 210].
	if tue.Left != 10 || tue.Right != 110 {
		t.Errorf("Tue x span = [%v, %v], want [10, 110]", tue.Left, tue.Right)
	}

	for _, f := range []string{FormatJSON, FormatSVG} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"series"`) {
		t.Error("JSON artifact should embed series")
	}
}

func TestExecuteAreasHorizontal(t *testing.T) {
	opts := barOptions()
	opts.Mark = ""
	opts.Direction = "horizontal"
	opts.X, opts.Y = "visits", "hour"
	opts.Formats = []string{FormatJSON}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Layout.Areas) != 2 || len(res.Layout.Blocks) != 0 {
		t.Fatalf("layout = %d areas, %d blocks; want 2 areas", len(res.Layout.Areas), len(res.Layout.Blocks))
	}
	// Values run left to right across [10, 210].
	tue := res.Layout.Areas[1]
	if tue.Upper[0].X != 210 {
		t.Errorf("Tue upper x at hour 0 = %v, want 210", tue.Upper[0].X)
	}
}

func TestExecuteExplicitDomain(t *testing.T) {
	opts := barOptions()
	opts.YScale = scale.Spec{Domain: "0..12"}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// 6 of 12 sits halfway between 110 and 10.
	if got := res.Layout.Blocks[2].Bottom; got != 60 {
		t.Errorf("Tue top edge = %v, want 60", got)
	}
}

func TestExecuteNice(t *testing.T) {
	records := []encoding.Record{
		{"day": "Mon", "hour": 0, "visits": 3.7},
		{"day": "Tue", "hour": 0, "visits": 3.6},
	}
	opts := barOptions()
	opts.Records = records
	opts.YScale = scale.Spec{Nice: true}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// The stack tops out at 7.3; a nice domain ends above it.
	if got := res.Layout.Blocks[1].Bottom; got <= 10 {
		t.Errorf("top edge = %v, want below the top margin after Nice", got)
	}
}

func TestExecuteCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, barOptions())
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Execute(ctx, barOptions())
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v, want hits", second.CacheInfo)
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached SVG differs from rendered SVG")
	}

	refresh := barOptions()
	refresh.Refresh = true
	third, err := r.Execute(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}

	changed := barOptions()
	changed.Order = "descending"
	fourth, err := r.Execute(ctx, changed)
	if err != nil {
		t.Fatalf("changed Execute: %v", err)
	}
	if fourth.CacheInfo.LayoutHit {
		t.Error("a different order must not reuse the cached layout")
	}
}

func TestStackWarnings(t *testing.T) {
	opts := barOptions()
	opts.Order = "zigzag"
	opts.Offset = "sideways"
	opts.Records = append(visits(), encoding.Record{"day": "Mon", "hour": 0, "visits": 9})

	res, err := NewRunner(nil, nil, nil).Stack(context.Background(), opts)
	if err != nil {
		t.Fatalf("Stack: %v", err)
	}
	if len(res.Warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], `"zigzag"`) || !strings.Contains(res.Warnings[1], `"sideways"`) {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[2], "1 duplicate") {
		t.Errorf("duplicate warning = %q", res.Warnings[2])
	}
	// The first Mon/0 record wins.
	if got := res.Series[0].Points[0].Value; got != 1 {
		t.Errorf("Mon/0 value = %v, want 1", got)
	}
	if res.Order != stack.OrderNone || res.Offset != stack.OffsetNone {
		t.Errorf("resolved %s/%s, want none/none", res.Order, res.Offset)
	}
}

// ttlCache records the lifetime of every write.
type ttlCache struct {
	cache.NullCache
	mu   sync.Mutex
	ttls []time.Duration
}

func (c *ttlCache) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls = append(c.ttls, ttl)
	return nil
}

func TestRunnerTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want []time.Duration
	}{
		{"defaults", 0, []time.Duration{cache.TTLLayout, cache.TTLArtifact, cache.TTLArtifact}},
		{"override", time.Minute, []time.Duration{time.Minute, time.Minute, time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ttlCache{}
			r := NewRunner(c, nil, nil)
			r.TTL = tt.ttl
			if _, err := r.Execute(context.Background(), barOptions()); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(c.ttls) != len(tt.want) {
				t.Fatalf("ttls = %v, want %v", c.ttls, tt.want)
			}
			for i := range tt.want {
				if c.ttls[i] != tt.want[i] {
					t.Errorf("ttls[%d] = %v, want %v", i, c.ttls[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.csv")
	raw := []byte("day,hour,visits\nMon,0,1\nTue,0,5\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	records, hash, err := Load(context.Background(), Options{DataPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 || records[1]["visits"] != 5.0 {
		t.Errorf("records = %v", records)
	}
	if hash != cache.Hash(raw) {
		t.Error("hash should cover the raw file")
	}

	_, _, err = Load(context.Background(), Options{DataPath: filepath.Join(t.TempDir(), "none.csv")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v, want FILE_NOT_FOUND", err)
	}
}

type recordingPipelineHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	stages []string
}

func (h *recordingPipelineHooks) add(s string) {
	h.mu.Lock()
	h.stages = append(h.stages, s)
	h.mu.Unlock()
}

func (h *recordingPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
	h.add("load")
}

func (h *recordingPipelineHooks) OnStackComplete(context.Context, int, time.Duration, error) {
	h.add("stack")
}

func (h *recordingPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.add("layout")
}

func (h *recordingPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.add("render")
}

func TestPipelineHooks(t *testing.T) {
	hooks := &recordingPipelineHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), barOptions()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "load,stack,layout,render"
	if got := strings.Join(hooks.stages, ","); got != want {
		t.Errorf("stages = %s, want %s", got, want)
	}
}
