package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackchart/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached layouts and rendered outputs",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		redisAddr string
		dir       string
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if redisAddr == "" {
				if dir == "" {
					var err error
					if dir, err = cacheDir(); err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
				}
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					printInfo("Cache is empty")
					return nil
				}
			}

			cc, err := newCache(ctx, cacheFlags{redis: redisAddr}, dir)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				return fmt.Errorf("cache backend %T cannot be cleared", cc)
			}
			if err := clearer.Clear(ctx); err != nil {
				return err
			}

			printSuccess("Cleared cache")
			if redisAddr != "" {
				printDetail("Redis: %s", redisAddr)
			} else {
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "clear the Redis cache at addr")
	cmd.Flags().StringVar(&dir, "cache-dir", "", "file cache directory (default ~/.cache/stackchart)")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
