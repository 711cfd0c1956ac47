package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/boxaug/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		maxBody int64
		path    string
		store   storeFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve single-image augmentation over HTTP",
		Long: `Start an HTTP server that augments one image per request with the loaded
configuration. POST a JSON body with a base64 image and its annotations to
/v1/augment. The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  boxaug serve --addr :9000 --config pipeline.yaml
  boxaug serve --cache redis://localhost:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			cache, err := newCache(ctx, store)
			if err != nil {
				return err
			}
			defer cache.Close()

			srv, err := server.New(cache, server.Options{
				Config:  cfg,
				MaxBody: maxBody,
				Logger:  loggerFromContext(ctx),
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBody, "maximum request body in bytes")
	cmd.Flags().StringVarP(&path, "config", "c", "", "pipeline configuration file")
	store.register(cmd, false)

	return cmd
}
