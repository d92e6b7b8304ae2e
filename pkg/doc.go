// Package pkg provides the core libraries for stackchart.
//
// # Overview
//
// Stackchart turns row-oriented data into stacked charts: each record
// contributes one value to one series at one position, series are stacked
// on top of each other, and the result is laid out as areas or bars and
// rendered. The pkg directory is organized into:
//
//  1. [bounds], [scale], [encoding] - Value ranges, axis mappings, and
//     record accessors
//  2. [stack] - Grouping, ordering, and offsetting of series
//  3. [frame] - Completing scale domains from data
//  4. [layout] - Pixel geometry for area and bar marks
//  5. [render/sink] - SVG, PNG, and JSON output
//  6. [pipeline] - Orchestration (load → stack → layout → render) with caching
//  7. [dataset], [config], [cache], [api] - Inputs, chart files, storage, and HTTP
//
// # Architecture
//
// The typical data flow:
//
//	CSV / JSON / XLSX
//	       ↓
//	  [dataset] records
//	       ↓
//	  [stack] series (order + offset)
//	       ↓
//	  [frame] qualified scales
//	       ↓
//	  [layout] blocks or areas
//	       ↓
//	  SVG/PNG/JSON output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/stackchart/pkg/config"
//	    "github.com/matzehuels/stackchart/pkg/pipeline"
//	)
//
//	chart, _ := config.Load("chart.toml")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(ctx, chart.Options())
//	os.WriteFile("chart.svg", result.Artifacts["svg"], 0o644)
//
// [bounds]: github.com/matzehuels/stackchart/pkg/bounds
// [scale]: github.com/matzehuels/stackchart/pkg/scale
// [encoding]: github.com/matzehuels/stackchart/pkg/encoding
// [stack]: github.com/matzehuels/stackchart/pkg/stack
// [frame]: github.com/matzehuels/stackchart/pkg/frame
// [layout]: github.com/matzehuels/stackchart/pkg/layout
// [render/sink]: github.com/matzehuels/stackchart/pkg/render/sink
// [pipeline]: github.com/matzehuels/stackchart/pkg/pipeline
// [dataset]: github.com/matzehuels/stackchart/pkg/dataset
// [config]: github.com/matzehuels/stackchart/pkg/config
// [cache]: github.com/matzehuels/stackchart/pkg/cache
// [api]: github.com/matzehuels/stackchart/pkg/api
package pkg
