// Package frame completes scale domains from data between render passes.
//
// A render pass reads scales; it must not also write them, or the next read
// would see a different scale than the one the pass started with. So when a
// pass finds a scale whose domain is still incomplete it does not qualify
// it on the spot. It defers the write to the [Scheduler], and the [Loop]
// flushes the scheduler after the pass returns:
//
//	loop := frame.NewLoop(records, logger)
//	err := loop.Pass(ctx, func(f *frame.Frame) error {
//	    return f.QualifyDomain(y, encoding.Field("y1"), "y", stacked)
//	})
//	// y's domain is now qualified; the next pass can compute geometry.
package frame

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/observability"
	"github.com/matzehuels/stackchart/pkg/scale"
)

// Loop drives render passes over a default dataset.
type Loop struct {
	passMu sync.Mutex // serializes passes
	sched  *Scheduler
	logger *log.Logger

	mu     sync.Mutex // guards data and passes
	data   []encoding.Record
	passes int
}

// NewLoop returns a loop whose passes qualify against data unless a
// request names another dataset. A nil logger discards output.
func NewLoop(data []encoding.Record, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{sched: NewScheduler(), data: data, logger: logger}
}

// SetData replaces the default dataset for subsequent passes. It may be
// called from inside a pass; the running pass keeps its snapshot.
func (l *Loop) SetData(data []encoding.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = data
}

// Passes returns the number of completed passes.
func (l *Loop) Passes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.passes
}

// Pass runs fn as one render pass and then flushes the writes it deferred.
// Passes are serialized. If fn fails, deferred writes still run, since the
// next pass depends on them; the returned error joins both.
func (l *Loop) Pass(ctx context.Context, fn func(f *Frame) error) error {
	l.passMu.Lock()
	defer l.passMu.Unlock()

	l.mu.Lock()
	f := &Frame{ctx: ctx, sched: l.sched, data: l.data, logger: l.logger, index: l.passes}
	l.mu.Unlock()

	passErr := fn(f)

	pending := len(l.sched.Pending())
	flushErr := l.sched.Flush(ctx)

	l.mu.Lock()
	l.passes++
	l.mu.Unlock()
	l.logger.Debug("render pass complete", "pass", f.index, "flushed", pending)

	return stderrors.Join(passErr, flushErr)
}

// Frame is the view of one render pass.
type Frame struct {
	ctx    context.Context
	sched  *Scheduler
	data   []encoding.Record
	logger *log.Logger
	index  int
}

// Context returns the pass context.
func (f *Frame) Context() context.Context { return f.ctx }

// Data returns the default dataset.
func (f *Frame) Data() []encoding.Record { return f.data }

// Index returns the 0-based number of this pass.
func (f *Frame) Index() int { return f.index }

// QualifyDomain requests qualification of sc's domain against override, or
// the frame's default dataset when override is nil. See [QualifyDomain].
func (f *Frame) QualifyDomain(sc scale.Scale, acc encoding.Accessor, field string, override []encoding.Record) error {
	data := f.data
	if override != nil {
		data = override
	}
	if err := QualifyDomain(f.ctx, f.sched, sc, acc, field, data); err != nil {
		return err
	}
	f.logger.Debug("domain requested", "scale", sc.ID(), "field", field, "valid", sc.Domain().Valid())
	return nil
}

// QualifyDomain applies the qualification protocol to sc:
//
//  1. identity scales are skipped;
//  2. an unqualified range fails with RANGE_UNBOUND, since ranges come from
//     layout and are never inferred;
//  3. an unqualified, qualifiable domain gets one deferred write on s,
//     keyed by the scale's ID;
//  4. a valid domain is left alone.
//
// The deferred write does not run until s is flushed. ctx is handed to the
// scheduling hook; the write itself runs under the flush context.
func QualifyDomain(ctx context.Context, s *Scheduler, sc scale.Scale, acc encoding.Accessor, field string, data []encoding.Record) error {
	if scale.IsIdentity(sc) {
		return nil
	}
	if !sc.Range().Valid() {
		return errors.New(errors.ErrCodeRangeUnbound, "range of the %q scale must be set before rendering", field)
	}

	q, ok := sc.Domain().(scale.Qualifiable)
	if !ok || q.Valid() {
		return nil
	}

	id := sc.ID()
	s.Defer(id, func(flushCtx context.Context) error {
		start := time.Now()
		err := q.Qualify(data, acc)
		if err != nil {
			err = errors.Wrap(errors.GetCode(err), err, "qualify %q domain", field)
		}
		observability.Qualify().OnQualifyFlushed(flushCtx, id, field, time.Since(start), err)
		return err
	})
	observability.Qualify().OnQualifyScheduled(ctx, id, field)
	return nil
}
