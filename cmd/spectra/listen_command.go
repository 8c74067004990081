package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra"
	"github.com/himanishpuri/spectra/pkg/spectra/present"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	var immediate bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Record from the microphone and identify the song",
		Long: "Record a short clip from the default microphone and identify it.\n" +
			"Recording stops on its own after max_duration, or earlier when Enter is pressed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, ctx, immediate)
		},
	}

	cmd.Flags().BoolVarP(&immediate, "now", "n", false, "Start recording without waiting for Enter")
	return cmd
}

func runListen(cmd *cobra.Command, ctx *commandContext, immediate bool) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	p := ctx.presenter(cmd)
	progress := func(st spectra.UIState) {
		if ctx.jsonOutput() {
			return
		}
		switch st.Phase() {
		case spectra.PhaseRecording, spectra.PhaseProcessing:
			_ = present.RenderState(out, st, p)
		}
	}

	app, cleanup, err := ctx.newApp(spectra.WithStateListener(progress))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Ping(sigCtx); err != nil {
		logger.Warnf("Recognition service is not answering: %v", err)
	}

	enter := watchEnter(cmd.InOrStdin())
	if !immediate {
		if !ctx.jsonOutput() {
			if err := present.RenderState(out, app.State(), p); err != nil {
				return err
			}
		}
		select {
		case <-enter:
		case <-sigCtx.Done():
			return sigCtx.Err()
		}
	}

	if err := app.StartRecording(sigCtx); err != nil {
		return renderOutcome(cmd, ctx, app.State())
	}

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-enter:
			if err := app.StopRecording(); err != nil {
				logger.Warnf("Stopping the recording failed: %v", err)
			}
		case <-finished:
		}
	}()

	st, err := app.Wait(sigCtx)
	if err != nil {
		return err
	}
	return renderOutcome(cmd, ctx, st)
}

// watchEnter signals once per line read from in. A closed input never signals.
func watchEnter(in io.Reader) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			ch <- struct{}{}
		}
	}()
	return ch
}

// renderOutcome prints the final state. Failures other than no-match are
// returned as errReported so main exits non-zero without repeating them.
func renderOutcome(cmd *cobra.Command, ctx *commandContext, st spectra.UIState) error {
	if err := present.RenderState(cmd.OutOrStdout(), st, ctx.presenter(cmd)); err != nil {
		return err
	}
	if st.Phase() == spectra.PhaseError && !st.IsNotice() {
		return fmt.Errorf("%s: %w", st.Message(), errReported)
	}
	return nil
}
