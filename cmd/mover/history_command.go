package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mover/internal/history"
)

type historyJSON struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Subject     string    `json:"subject"`
	Destination string    `json:"destination,omitempty"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions and placements",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var kind history.Kind
			switch strings.ToLower(strings.TrimSpace(kindFlag)) {
			case "":
			case string(history.KindSubmission):
				kind = history.KindSubmission
			case string(history.KindPlacement):
				kind = history.KindPlacement
			default:
				return fmt.Errorf("unknown history kind %q (want submission or placement)", kindFlag)
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), history.ListOptions{Kind: kind, Limit: limit})
			if err != nil {
				return err
			}

			if jsonOutput {
				items := make([]historyJSON, 0, len(entries))
				for _, e := range entries {
					items = append(items, historyJSON{
						ID:          e.ID,
						Kind:        string(e.Kind),
						Subject:     e.Subject,
						Destination: e.Destination,
						Status:      string(e.Status),
						Detail:      e.Detail,
						CreatedAt:   e.CreatedAt,
					})
				}
				return writeJSON(cmd, items)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				subject := e.Subject
				if e.Destination != "" {
					subject += " -> " + e.Destination
				}
				status := string(e.Status)
				if e.Detail != "" {
					status += ": " + e.Detail
				}
				rows = append(rows, []string{
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					string(e.Kind),
					subject,
					status,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"When", "Kind", "Item", "Status"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Filter by kind (submission or placement)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
