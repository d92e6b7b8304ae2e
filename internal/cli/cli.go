// Package cli implements the stackchart command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackchart/pkg/buildinfo"
	"github.com/matzehuels/stackchart/pkg/cache"
	"github.com/matzehuels/stackchart/pkg/config"
	"github.com/matzehuels/stackchart/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stackchart"

	// redisDialTimeout bounds the initial Redis ping.
	redisDialTimeout = 5 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stackchart lays out and renders stacked charts",
		Long:         `Stackchart stacks tabular data into layered series, lays them out as stacked areas or bars, and renders SVG, PNG, or JSON.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.stackCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags are the cache selectors shared by every command that runs the
// pipeline.
type cacheFlags struct {
	noCache bool
	redis   string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().StringVar(&f.redis, "redis", "", "cache results in Redis at addr instead of on disk")
}

// merge applies a chart's [cache] table underneath the command-line flags.
func (f cacheFlags) merge(cc config.Cache) cacheFlags {
	if cc.Disabled {
		f.noCache = true
	}
	if f.redis == "" {
		f.redis = cc.Redis
	}
	return f
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags, chart *config.Cache) (*pipeline.Runner, error) {
	var dir string
	var ttl time.Duration
	if chart != nil {
		flags = flags.merge(*chart)
		dir, ttl = chart.Dir, chart.TTL
	}
	cc, err := newCache(ctx, flags, dir)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.TTL = ttl
	return r, nil
}

// newCache picks the cache backend: none, Redis when an address is given,
// otherwise files under dir or the user cache directory.
func newCache(ctx context.Context, flags cacheFlags, dir string) (cache.Cache, error) {
	if flags.noCache {
		return cache.NewNullCache(), nil
	}
	if flags.redis != "" {
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:        flags.redis,
			DialTimeout: redisDialTimeout,
		})
	}
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackchart/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice. An
// empty string yields nil so the chart's formats apply.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// loadChart reads the chart at path and maps it onto pipeline options.
func loadChart(path string) (*config.Chart, pipeline.Options, error) {
	chart, err := config.Load(path)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	return chart, chart.Options(), nil
}
