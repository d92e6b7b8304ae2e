package frame

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackchart/pkg/bounds"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/errors"
	"github.com/matzehuels/stackchart/pkg/observability"
	"github.com/matzehuels/stackchart/pkg/scale"
)

var records = []encoding.Record{{"v": 2.0}, {"v": 8.0}, {"v": 5.0}}

func TestSchedulerCoalesces(t *testing.T) {
	s := NewScheduler()
	var ran []string

	s.Defer("a", func(context.Context) error { ran = append(ran, "a1"); return nil })
	s.Defer("b", func(context.Context) error { ran = append(ran, "b"); return nil })
	s.Defer("a", func(context.Context) error { ran = append(ran, "a2"); return nil })

	assert.Equal(t, []string{"a", "b"}, s.Pending())
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []string{"a2", "b"}, ran)
	assert.Empty(t, s.Pending())

	// A second flush has nothing to run.
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, ran, 2)
}

func TestSchedulerJoinsErrors(t *testing.T) {
	var s Scheduler
	boom := errors.New(errors.ErrCodeInternal, "boom")
	ran := 0

	s.Defer("x", func(context.Context) error { ran++; return boom })
	s.Defer("y", func(context.Context) error { ran++; return nil })

	err := s.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal))
	assert.Equal(t, 2, ran)
}

func TestSchedulerDeferDuringFlush(t *testing.T) {
	s := NewScheduler()
	s.Defer("a", func(context.Context) error {
		s.Defer("later", func(context.Context) error { return nil })
		return nil
	})
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []string{"later"}, s.Pending())
}

func TestQualifyDomainDeferred(t *testing.T) {
	sc := scale.NewLinear(bounds.MustParse("0.."), bounds.New(0.0, 100.0))
	s := NewScheduler()

	require.NoError(t, QualifyDomain(context.Background(), s, sc, encoding.Field("v"), "v", records))

	// Nothing changes until the flush.
	assert.False(t, sc.Valid())
	assert.Equal(t, []string{sc.ID()}, s.Pending())

	require.NoError(t, s.Flush(context.Background()))
	assert.True(t, sc.Valid())
	ext, err := sc.Domain().(*bounds.Bounds[float64]).Bounds()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 8}, ext)
}

func TestQualifyDomainCoalescesPerScale(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	other := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	s := NewScheduler()

	require.NoError(t, QualifyDomain(context.Background(), s, sc, encoding.Field("v"), "v", records))
	require.NoError(t, QualifyDomain(context.Background(), s, sc, encoding.Field("v"), "v", records))
	require.NoError(t, QualifyDomain(context.Background(), s, other, encoding.Field("v"), "v", records))

	assert.Equal(t, []string{sc.ID(), other.ID()}, s.Pending())
}

func TestQualifyDomainRangeUnbound(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.MustParse("0.."))
	err := QualifyDomain(context.Background(), NewScheduler(), sc, encoding.Field("v"), "sales", records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRangeUnbound))
	assert.Contains(t, err.Error(), "sales")
}

func TestQualifyDomainSkips(t *testing.T) {
	tests := []struct {
		name string
		sc   scale.Scale
	}{
		{"identity without range", scale.NewIdentity(nil)},
		{"valid domain", scale.NewLinear(bounds.New(0.0, 1.0), bounds.New(0.0, 1.0))},
		{"band", scale.NewBand(scale.Set{"a"}, bounds.New(0.0, 1.0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler()
			require.NoError(t, QualifyDomain(context.Background(), s, tt.sc, encoding.Field("v"), "v", records))
			assert.Empty(t, s.Pending())
		})
	}
}

func TestQualifyDomainFlushError(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	s := NewScheduler()
	require.NoError(t, QualifyDomain(context.Background(), s, sc, encoding.Field("missing"), "missing", records))

	err := s.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeQualification))
}

func TestLoopFlushesAfterPass(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.New(0.0, 100.0))
	loop := NewLoop(records, nil)
	ctx := context.Background()

	err := loop.Pass(ctx, func(f *Frame) error {
		require.NoError(t, f.QualifyDomain(sc, encoding.Field("v"), "v", nil))
		// The current pass still sees the unqualified domain.
		assert.False(t, sc.Valid())
		_, err := sc.Compute(5)
		assert.True(t, errors.Is(err, errors.ErrCodeUnqualified))
		return nil
	})
	require.NoError(t, err)

	err = loop.Pass(ctx, func(f *Frame) error {
		assert.Equal(t, 1, f.Index())
		assert.True(t, sc.Valid())
		got, err := sc.Compute(5)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, got, 1e-9)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loop.Passes())
}

func TestFrameOverrideDataset(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	loop := NewLoop(records, nil)

	override := []encoding.Record{{"v": -4.0}, {"v": 4.0}}
	require.NoError(t, loop.Pass(context.Background(), func(f *Frame) error {
		return f.QualifyDomain(sc, encoding.Field("v"), "v", override)
	}))

	ext, err := sc.Domain().(*bounds.Bounds[float64]).Bounds()
	require.NoError(t, err)
	assert.Equal(t, []float64{-4, 4}, ext)
}

func TestLoopFlushesEvenWhenPassFails(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	loop := NewLoop(records, nil)

	err := loop.Pass(context.Background(), func(f *Frame) error {
		if err := f.QualifyDomain(sc, encoding.Field("v"), "v", nil); err != nil {
			return err
		}
		return errors.New(errors.ErrCodeInternal, "mark failed")
	})
	require.Error(t, err)
	assert.True(t, sc.Valid())
}

func TestLoopPassBodyUpdatesData(t *testing.T) {
	sc := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	loop := NewLoop(records, nil)
	live := []encoding.Record{{"v": 10.0}, {"v": 20.0}}

	done := make(chan error, 1)
	go func() {
		done <- loop.Pass(context.Background(), func(f *Frame) error {
			loop.SetData(live)
			assert.Equal(t, 0, loop.Passes())
			// The running pass keeps the dataset it started with.
			assert.Len(t, f.Data(), len(records))
			return f.QualifyDomain(sc, encoding.Field("v"), "v", nil)
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pass blocked on SetData or Passes")
	}
	assert.Equal(t, 1, loop.Passes())

	require.NoError(t, loop.Pass(context.Background(), func(f *Frame) error {
		assert.Equal(t, live, f.Data())
		return nil
	}))
}

type ctxKey struct{}

type recordingHooks struct {
	observability.NoopQualifyHooks
	scheduled, flushed []string
	scheduledCtx       []any
}

func (h *recordingHooks) OnQualifyScheduled(ctx context.Context, id, field string) {
	h.scheduled = append(h.scheduled, field)
	h.scheduledCtx = append(h.scheduledCtx, ctx.Value(ctxKey{}))
}

func (h *recordingHooks) OnQualifyFlushed(_ context.Context, id, field string, _ time.Duration, _ error) {
	h.flushed = append(h.flushed, field)
}

func TestQualifyHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetQualifyHooks(hooks)
	defer observability.Reset()

	sc := scale.NewLinear(nil, bounds.New(0.0, 1.0))
	loop := NewLoop(records, nil)
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	require.NoError(t, loop.Pass(ctx, func(f *Frame) error {
		return f.QualifyDomain(sc, encoding.Field("v"), "v", nil)
	}))

	assert.Equal(t, []string{"v"}, hooks.scheduled)
	assert.Equal(t, []string{"v"}, hooks.flushed)
	assert.Equal(t, []any{"req-1"}, hooks.scheduledCtx)
}
