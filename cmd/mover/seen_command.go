package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"mover/internal/dedup"
)

func newSeenCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "seen",
		Short: "List feed links already submitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.SeenPath()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if jsonOutput {
					return writeJSON(cmd, []string{})
				}
				fmt.Fprintf(out, "No seen links recorded yet (%s)\n", path)
				return nil
			}

			store := dedup.NewLinkStore(path, nil)
			if err := store.Restore(); err != nil {
				return err
			}
			links := store.Links()
			if jsonOutput {
				if links == nil {
					links = []string{}
				}
				return writeJSON(cmd, links)
			}
			if len(links) == 0 {
				fmt.Fprintln(out, "No seen links recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(links))
			for i, link := range links {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), link})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Link"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
