package pipeline

import (
	"fmt"

	"github.com/matzehuels/stackchart/pkg/encoding"
	"github.com/matzehuels/stackchart/pkg/stack"
)

// BuildStack stacks records according to opts. Settings the stack ignores
// (unknown order or offset names) and duplicate id/category pairs are
// reported as warnings and logged.
func BuildStack(records []encoding.Record, opts Options) (*stack.Stack, []string, error) {
	cfg, err := opts.StackConfig(records)
	if err != nil {
		return nil, nil, err
	}
	s, err := stack.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if cfg.Order != "" && !cfg.Order.Valid() {
		warnings = append(warnings, fmt.Sprintf("unknown order %q, using %s", cfg.Order, s.Order()))
	}
	if cfg.Offset != "" && !cfg.Offset.Valid() {
		warnings = append(warnings, fmt.Sprintf("unknown offset %q, using %s", cfg.Offset, s.Offset()))
	}
	if dups := s.Duplicates(); len(dups) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate id/category pairs, kept the first of each (first: %v/%s)", len(dups), dups[0].ID, dups[0].Key))
	}
	for _, w := range warnings {
		opts.Logger.Warn(w)
	}
	return s, warnings, nil
}
