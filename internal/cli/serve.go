package cli

import (
	"os"
	"os/signal"
	"syscall"

	"plant-backend/internal/app"
	"plant-backend/internal/blob"
	"plant-backend/internal/store"
	"plant-backend/internal/utils"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port        string
		storeDriver string
		blobDriver  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plant monitor API",
		Long: `Run the plant monitor API until interrupted.

Configuration comes from the environment (and a .env file); flags override it.

Examples:
  plantctl serve
  plantctl serve --port 8080 --store sqlite
  STORE_DRIVER=mongo MONGO_URI=mongodb://db:27017 plantctl serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			if port != "" {
				cfg.Port = port
			}
			if storeDriver != "" {
				cfg.Store.Driver = store.Driver(storeDriver)
			}
			if blobDriver != "" {
				cfg.Blob.Driver = blob.Driver(blobDriver)
			}
			utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&storeDriver, "store", "", "postgres|sqlite|bolt|mongo|memory (overrides STORE_DRIVER)")
	cmd.Flags().StringVar(&blobDriver, "blobs", "", "fs|s3|memory (overrides BLOB_DRIVER)")
	return cmd
}
