package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/spectra/internal/history"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
	"github.com/himanishpuri/spectra/pkg/spectra/present"
)

type historyEntry struct {
	TaskID     string                 `json:"task_id"`
	Status     string                 `json:"status"`
	Message    string                 `json:"message,omitempty"`
	Polls      int                    `json:"polls"`
	AudioBytes int                    `json:"audio_bytes"`
	DurationMs int64                  `json:"duration_ms"`
	CreatedAt  time.Time              `json:"created_at"`
	Results    []model.MatchCandidate `json:"results"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous match results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				entries := make([]historyEntry, 0, len(rows))
				for _, r := range rows {
					results, err := r.Results()
					if err != nil {
						return err
					}
					if results == nil {
						results = []model.MatchCandidate{}
					}
					entries = append(entries, historyEntry{
						TaskID:     r.TaskID,
						Status:     r.Status,
						Message:    r.Message,
						Polls:      r.Polls,
						AudioBytes: r.AudioBytes,
						DurationMs: r.DurationMs,
						CreatedAt:  r.CreatedAt,
						Results:    results,
					})
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No matches recorded yet")
				return nil
			}

			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				top, confidence := "-", ""
				if r.TopTitle != "" {
					top = r.TopTitle
					if r.TopArtist != "" {
						top += " - " + r.TopArtist
					}
					confidence = present.FormatConfidence(r.Confidence)
				}
				table = append(table, []string{
					humanize.Time(r.CreatedAt),
					r.TaskID,
					r.Status,
					top,
					confidence,
					strconv.Itoa(r.Polls),
					humanize.Bytes(uint64(r.AudioBytes)),
				})
			}
			fmt.Fprintln(out, present.Table(
				[]string{"When", "Task", "Status", "Top match", "Confidence", "Polls", "Audio"},
				table, 4, 5, 6,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", history.DefaultLimit, "Number of entries to show")
	return cmd
}
