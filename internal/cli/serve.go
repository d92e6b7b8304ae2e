package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackchart/pkg/api"
	"github.com/matzehuels/stackchart/pkg/config"
)

const (
	defaultAddr       = ":8080"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP until the context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		dir   string
		ttl   time.Duration
		flags cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stack and render API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := c.newRunner(ctx, flags, &config.Cache{Dir: dir, TTL: ttl})
			if err != nil {
				return err
			}
			defer r.Close()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Handler:           api.NewRouter(r, c.Logger),
				ReadHeaderTimeout: readHeaderTimeout,
			}
			printSuccess("Listening on %s", ln.Addr())
			return serve(ctx, srv, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&dir, "cache-dir", "", "file cache directory (default ~/.cache/stackchart)")
	cmd.Flags().DurationVar(&ttl, "cache-ttl", 0, "cache entry lifetime (default per stage)")
	flags.register(cmd)

	return cmd
}

// serve runs srv on ln and shuts it down gracefully once ctx ends.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	printInfo("Server stopped")
	return nil
}
