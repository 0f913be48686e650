package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mover/internal/logging"
	"mover/internal/transmission"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit LINK",
		Short: "Add a torrent link to Transmission without consulting the seen store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			link := strings.TrimSpace(args[0])
			if link == "" {
				return errors.New("link is required")
			}
			client := transmission.NewFromConfig(cfg, logging.NewNop())
			body, err := client.Submit(cmd.Context(), transmission.Add{Filename: link})
			if err != nil {
				return err
			}
			resp, err := transmission.ParseResponse(body)
			if err != nil {
				return err
			}
			if resp.Result != transmission.ResultSuccess {
				return fmt.Errorf("transmission rejected torrent: %s", resp.Result)
			}
			added, ok, err := resp.Added()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !ok:
				fmt.Fprintln(out, "Torrent submitted")
			case added.Duplicate:
				fmt.Fprintf(out, "Torrent already present: %s (id %d)\n", added.Name, added.ID)
			default:
				fmt.Fprintf(out, "Added torrent %s (id %d)\n", added.Name, added.ID)
			}
			return nil
		},
	}
}

func newTorrentCommand(ctx *commandContext) *cobra.Command {
	torrentCmd := &cobra.Command{
		Use:   "torrent",
		Short: "Run id-based Transmission actions",
	}
	for _, action := range []struct {
		name  string
		short string
	}{
		{"start", "Start torrents"},
		{"start-now", "Start torrents, bypassing the queue"},
		{"stop", "Stop torrents"},
		{"verify", "Verify torrent data"},
		{"reannounce", "Ask trackers for more peers"},
		{"get", "Show torrent details"},
	} {
		torrentCmd.AddCommand(newTorrentActionCommand(ctx, action.name, action.short))
	}
	return torrentCmd
}

func newTorrentActionCommand(ctx *commandContext, name, short string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   name + " [ID...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			action, err := transmission.ParseAction(name, args)
			if err != nil {
				return err
			}
			client := transmission.NewFromConfig(cfg, logging.NewNop())
			body, err := client.Submit(cmd.Context(), action)
			if err != nil {
				return err
			}
			resp, err := transmission.ParseResponse(body)
			if err != nil {
				return err
			}
			if resp.Result != transmission.ResultSuccess {
				return fmt.Errorf("%s failed: %s", action.Request().Method, resp.Result)
			}
			if name != "get" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", action.Request().Method, resp.Result)
				return nil
			}
			torrents, err := resp.Torrents()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, torrents)
			}
			if len(torrents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No torrents")
				return nil
			}
			rows := make([][]string, 0, len(torrents))
			for _, t := range torrents {
				state := "active"
				switch {
				case t.Error != 0:
					state = t.ErrorString
				case t.IsFinished:
					state = "finished"
				case t.IsStalled:
					state = "stalled"
				}
				rows = append(rows, []string{
					strconv.FormatInt(t.ID, 10),
					t.Name,
					fmt.Sprintf("%.1f%%", t.PercentDone*100),
					state,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Done", "State"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
	if name == "get" {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	}
	return cmd
}
