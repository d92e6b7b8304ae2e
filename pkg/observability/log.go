package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event as a debug line. It implements all four hook
// interfaces.
type LogHooks struct {
	Logger *log.Logger
}

// RegisterLogHooks installs LogHooks for every event family.
func RegisterLogHooks(l *log.Logger) {
	h := LogHooks{Logger: l}
	SetPipelineHooks(h)
	SetQualifyHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h LogHooks) stage(msg string, d time.Duration, err error, kv ...any) {
	kv = append(kv, "duration", d)
	if err != nil {
		kv = append(kv, "error", err)
	}
	h.Logger.Debug(msg, kv...)
}

func (h LogHooks) OnLoadStart(_ context.Context, source string) {
	h.Logger.Debug("load start", "source", source)
}

func (h LogHooks) OnLoadComplete(_ context.Context, source string, records int, d time.Duration, err error) {
	h.stage("load done", d, err, "source", source, "records", records)
}

func (h LogHooks) OnStackStart(_ context.Context, records int) {
	h.Logger.Debug("stack start", "records", records)
}

func (h LogHooks) OnStackComplete(_ context.Context, series int, d time.Duration, err error) {
	h.stage("stack done", d, err, "series", series)
}

func (h LogHooks) OnLayoutStart(_ context.Context, mark string, series int) {
	h.Logger.Debug("layout start", "mark", mark, "series", series)
}

func (h LogHooks) OnLayoutComplete(_ context.Context, mark string, d time.Duration, err error) {
	h.stage("layout done", d, err, "mark", mark)
}

func (h LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render start", "formats", formats)
}

func (h LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.stage("render done", d, err, "formats", formats)
}

func (h LogHooks) OnQualifyScheduled(_ context.Context, scaleID, field string) {
	h.Logger.Debug("qualify scheduled", "scale", scaleID, "field", field)
}

func (h LogHooks) OnQualifyFlushed(_ context.Context, scaleID, field string, d time.Duration, err error) {
	h.stage("qualify flushed", d, err, "scale", scaleID, "field", field)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h LogHooks) OnRequest(_ context.Context, method, path string) {
	h.Logger.Debug("request", "method", method, "path", path)
}

func (h LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}
