package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"banshee/internal/library"
)

type recordJSON struct {
	ID           string  `json:"id"`
	Category     string  `json:"category"`
	Name         string  `json:"name"`
	State        string  `json:"state"`
	Status       string  `json:"status,omitempty"`
	ErrorKind    string  `json:"error_kind,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Current      int64   `json:"current"`
	Total        int64   `json:"total"`
	StartedAt    string  `json:"started_at,omitempty"`
	FinishedAt   string  `json:"finished_at,omitempty"`
	Seconds      float64 `json:"duration_seconds"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently finished transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(store *library.Store) error {
				records, err := store.RecentTransactions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					items := make([]recordJSON, 0, len(records))
					for _, rec := range records {
						items = append(items, recordJSON{
							ID:           rec.TransactionID,
							Category:     rec.Category.String(),
							Name:         rec.Name,
							State:        string(rec.State),
							Status:       rec.Status,
							ErrorKind:    rec.ErrorKind,
							ErrorMessage: rec.ErrorMessage,
							Current:      rec.Current,
							Total:        rec.Total,
							StartedAt:    formatTimestamp(rec.StartedAt),
							FinishedAt:   formatTimestamp(rec.FinishedAt),
							Seconds:      rec.Duration().Seconds(),
						})
					}
					return writeJSON(cmd, items)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No transactions recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					detail := rec.Status
					if rec.ErrorMessage != "" {
						detail = rec.ErrorMessage
					}
					rows = append(rows, []string{
						rec.FinishedAt.Local().Format("2006-01-02 15:04"),
						rec.Category.String(),
						rec.Name,
						string(rec.State),
						formatCount(rec.Current, rec.Total),
						rec.Duration().Round(time.Second).String(),
						fallback(detail, "-"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Finished", "Category", "Name", "State", "Progress", "Took", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of transactions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must be zero or positive")
			}
			return ctx.withLibrary(func(store *library.Store) error {
				removed, err := store.PruneHistory(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "Number of most recent entries to keep")
	return cmd
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
