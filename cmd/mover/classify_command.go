package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mover/internal/classify"
	"mover/internal/config"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify PATH...",
		Short: "Show where paths would be placed in the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			roots := classify.Roots{MoviesDir: cfg.Library.MoviesDir, TVDir: cfg.Library.TVDir}
			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				rows = append(rows, classifyRow(cfg, roots, arg))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Path", "Kind", "Title", "Destination"}, rows, nil))
			return nil
		},
	}
}

// classifyRow resolves one path. Paths that do not exist are treated as files.
func classifyRow(cfg *config.Config, roots classify.Roots, path string) []string {
	c, err := classify.Classify(path)
	if err != nil {
		return []string{path, "-", "-", err.Error()}
	}
	isDir := false
	if info, statErr := os.Stat(path); statErr == nil {
		isDir = info.IsDir()
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return []string{path, c.Kind.String(), c.DisplayTitle(), statErr.Error()}
	}
	target, err := classify.Target(c, isDir, roots)
	if err != nil {
		return []string{path, c.Kind.String(), c.DisplayTitle(), "left in place: " + err.Error()}
	}
	return []string{path, c.Kind.String(), c.DisplayTitle(), filepath.Join(cfg.Paths.SaveDir, target)}
}
