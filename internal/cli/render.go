package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// renderOpts holds the command-line flags for the render command. Flags
// override the chart file; unset flags leave it alone.
type renderOpts struct {
	output  string // output file (single format) or base path (several)
	formats string // comma-separated output formats
	title   string // chart title
	refresh bool   // bypass cached results
	cache   cacheFlags
}

// renderCommand creates the render command, which runs the whole pipeline
// for a chart file and writes one file per format.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <chart.toml>",
		Short: "Render a chart to SVG, PNG, or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.title, "title", "", "chart title")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, chartPath string, ro renderOpts) error {
	ctx := cmd.Context()

	chart, opts, err := loadChart(chartPath)
	if err != nil {
		return err
	}
	if formats := parseFormats(ro.formats); formats != nil {
		opts.Formats = formats
	}
	if ro.title != "" {
		opts.Title = ro.title
	}
	opts.Refresh = ro.refresh
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	r, err := c.newRunner(ctx, ro.cache, &chart.Cache)
	if err != nil {
		return err
	}
	defer r.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering "+filepath.Base(chartPath))
	spin.Start()
	res, err := r.Execute(ctx, opts)
	spin.Stop()
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		printWarning("%s", w)
	}

	paths := outputPaths(chartPath, ro.output, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], res.Artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", filepath.Base(chartPath))
	printStats(res.Stats.Records, res.Stats.Series, res.CacheInfo.RenderHit)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	prog.done(fmt.Sprintf("Wrote %d file(s)", len(opts.Formats)))
	return nil
}

// outputPaths maps each format to a destination file. A single format
// writes to output verbatim; several formats share output's base name.
// Without output, files land next to the chart file.
func outputPaths(chartPath, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}

	base := output
	if base == "" {
		base = chartPath
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

