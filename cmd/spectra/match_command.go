package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra"
	"github.com/himanishpuri/spectra/pkg/spectra/present"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <file>",
		Short: "Identify the song in an existing audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := ctx.newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			path := args[0]
			rec, err := app.EncodeFile(sigCtx, path)
			if err != nil {
				return fmt.Errorf("encode %s: %w", path, err)
			}
			logger.Infof("Encoded %s: %s, %s at %d Hz", path, humanize.Bytes(uint64(rec.Len())), rec.Duration, rec.SampleRate)

			if !ctx.jsonOutput() {
				if err := present.RenderState(cmd.OutOrStdout(), spectra.ProcessingState(), ctx.presenter(cmd)); err != nil {
					return err
				}
			}

			if err := app.MatchRecording(sigCtx, rec); errors.Is(err, context.Canceled) {
				return err
			}
			return renderOutcome(cmd, ctx, app.State())
		},
	}
}
