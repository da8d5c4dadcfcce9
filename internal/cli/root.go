// Package cli implements the plantctl command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"plant-backend/internal/client"
	"plant-backend/internal/utils"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:3001"

type options struct {
	apiURL   string
	jsonOut  bool
	logLevel string
	out      io.Writer
}

func (o *options) controller() (*client.Controller, *client.HTTPClient) {
	api := client.NewHTTPClient(o.apiURL)
	return client.NewController(api), api
}

// NewRootCmd builds the plantctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}

	root := &cobra.Command{
		Use:   "plantctl",
		Short: "Track plant growth with timestamped photos",
		Long: `plantctl runs the plant monitor API and talks to it.

Each plant keeps an append-only list of images. Images are given either as
a URL or as a local file that is uploaded to the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.SetupLogger(opts.logLevel, utils.GetEnv("LOG_FORMAT", "console"))
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.apiURL, "api", utils.GetEnv("PLANT_API_URL", defaultAPIURL), "plant API base URL")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of styled output")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", utils.GetEnv("LOG_LEVEL", "warn"), "log level")

	root.AddCommand(
		newServeCmd(),
		newListCmd(opts),
		newAddCmd(opts),
		newAddImageCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs plantctl against os.Args and returns the process exit code.
func Execute() int {
	_ = utils.LoadEnv()
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errActionFailed) {
			_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}
		return 1
	}
	return 0
}
