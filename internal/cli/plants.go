package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"plant-backend/internal/client"
	"plant-backend/internal/models"

	"github.com/spf13/cobra"
)

// errActionFailed signals a non-zero exit after the state was already printed.
var errActionFailed = errors.New("action failed")

func imageFlags(cmd *cobra.Command, url, file *string) {
	cmd.Flags().StringVar(url, "image-url", "", "image URL")
	cmd.Flags().StringVar(file, "file", "", "local image file to upload (wins over --image-url)")
}

func buildImage(url, file string) (client.Image, error) {
	img := client.Image{URL: url}
	if file != "" {
		f, err := client.ReadFile(file)
		if err != nil {
			return img, err
		}
		img.File = f
	}
	return img, nil
}

func finish(opts *options, ctrl *client.Controller, outcome client.Outcome) error {
	if err := render(opts, ctrl.Snapshot()); err != nil {
		return err
	}
	if outcome != client.Succeeded {
		return errActionFailed
	}
	return nil
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plants, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _ := opts.controller()
			outcome := ctrl.Load(cmd.Context())
			return finish(opts, ctrl, outcome)
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var name, url, file string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a plant with its first image",
		Long: `Add a plant with its first image.

Examples:
  plantctl add --name Tomato --image-url http://example.com/tomato.jpg
  plantctl add --name Basil --file ./basil-day1.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := buildImage(url, file)
			if err != nil {
				return err
			}
			ctrl, _ := opts.controller()
			outcome := ctrl.Create(cmd.Context(), name, img)
			return finish(opts, ctrl, outcome)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "plant name")
	imageFlags(cmd, &url, &file)
	return cmd
}

func newAddImageCmd(opts *options) *cobra.Command {
	var url, file string

	cmd := &cobra.Command{
		Use:   "add-image <plant-id>",
		Short: "Append an image to a plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := buildImage(url, file)
			if err != nil {
				return err
			}
			ctrl, _ := opts.controller()
			outcome := ctrl.AppendImage(cmd.Context(), args[0], img)
			return finish(opts, ctrl, outcome)
		},
	}
	imageFlags(cmd, &url, &file)
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow plant changes live",
		Long:  "Load the current plants, then print every change pushed by the server until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl, api := opts.controller()
			if ctrl.Load(ctx) != client.Succeeded {
				return finish(opts, ctrl, client.Failed)
			}
			if err := render(opts, ctrl.Snapshot()); err != nil {
				return err
			}
			return client.Watch(ctx, api.FeedURL(), func(evt models.PlantEvent) {
				ctrl.ApplyEvent(evt)
				_ = renderEvent(opts, evt)
			})
		},
	}
}
