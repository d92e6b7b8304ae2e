package pipeline

import (
	"context"

	"github.com/matzehuels/stackchart/pkg/bounds"
	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/frame"
	"github.com/matzehuels/stackchart/pkg/layout"
	"github.com/matzehuels/stackchart/pkg/scale"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// Frame dataset fields. Every stacked point contributes its id with both
// its lower and upper bound, so a qualified value domain covers the full
// extent of the stack.
const (
	idField    = "id"
	valueField = "value"
)

// frameRecords flattens series into the dataset the frame loop qualifies
// scale domains against.
func frameRecords(series []stack.Series) []encoding.Record {
	var out []encoding.Record
	for _, s := range series {
		for _, p := range s.Points {
			out = append(out,
				encoding.Record{idField: p.ID, valueField: p.Start},
				encoding.Record{idField: p.ID, valueField: p.End},
			)
		}
	}
	return out
}

// BuildScales constructs the id-axis and value-axis scales. A spec without
// an explicit range spans the frame inside the margins; the vertical value
// axis is inverted so larger values sit higher.
func BuildScales(opts Options) (ids, values scale.Scale, err error) {
	idSpec, valueSpec := opts.axisSpecs()
	w, h := opts.Width, opts.Height
	horizontal := bounds.New(opts.MarginX, w-opts.MarginX)
	vertical := bounds.New(opts.MarginY, h-opts.MarginY)
	inverted := bounds.New(h-opts.MarginY, opts.MarginY)

	idRange, valueRange := horizontal, inverted
	if stack.Direction(opts.Direction) == stack.Horizontal {
		idRange, valueRange = vertical, horizontal
	}
	if idSpec.Range != nil {
		idRange = nil
	}
	if valueSpec.Range != nil {
		valueRange = nil
	}

	if ids, err = idSpec.Build(idRange); err != nil {
		return nil, nil, err
	}
	if values, err = valueSpec.Build(valueRange); err != nil {
		return nil, nil, err
	}
	return ids, values, nil
}

// GenerateLayout computes geometry for series. The first frame pass
// requests domain qualification for both axes; the deferred writes land
// when the pass ends, so the second pass sees complete scales.
func GenerateLayout(ctx context.Context, series []stack.Series, opts Options) (layout.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Layout{}, err
	}
	ids, values, err := BuildScales(opts)
	if err != nil {
		return layout.Layout{}, err
	}
	_, valueSpec := opts.axisSpecs()

	loop := frame.NewLoop(frameRecords(series), opts.Logger)
	err = loop.Pass(ctx, func(f *frame.Frame) error {
		if band, ok := ids.(*scale.Band); ok {
			if d, _ := band.Domain().(scale.Set); len(d) == 0 {
				band.SetDomain(scale.Distinct(f.Data(), encoding.Field(idField)))
			}
		} else if err := f.QualifyDomain(ids, encoding.Field(idField), idField, nil); err != nil {
			return err
		}
		return f.QualifyDomain(values, encoding.Field(valueField), valueField, nil)
	})
	if err != nil {
		return layout.Layout{}, err
	}

	var l layout.Layout
	err = loop.Pass(ctx, func(f *frame.Frame) error {
		if lin, ok := values.(*scale.Linear); ok && valueSpec.Nice {
			lin.Nice(10)
		}
		l, err = layout.Build(series, stack.Direction(opts.Direction), layout.Mark(opts.Mark), ids, values, opts.Width, opts.Height)
		return err
	})
	if err != nil {
		return layout.Layout{}, err
	}
	l.MarginX, l.MarginY = opts.MarginX, opts.MarginY
	return l, nil
}
