package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mover/internal/config"
	"mover/internal/daemon"
	"mover/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

type statusLine struct {
	label  string
	kind   statusKind
	detail string
}

// taskStatusKind maps a daemon task state onto a status line severity.
func taskStatusKind(state daemon.TaskState) statusKind {
	switch state {
	case daemon.TaskRunning:
		return statusOK
	case daemon.TaskFailed:
		return statusError
	case daemon.TaskPending:
		return statusWarn
	default:
		return statusInfo
	}
}

func writeStatusSection(w io.Writer, title string, lines []statusLine, colorize bool) {
	width := 0
	for _, line := range lines {
		width = max(width, len(line.label)+1)
	}
	header := "== " + title + " =="
	if colorize {
		header = statusStyles[statusInfo].color + header + ansiReset
	}
	fmt.Fprintln(w, header)
	for _, line := range lines {
		style := statusStyles[line.kind]
		text := fmt.Sprintf("  %-*s [%s]", width, line.label+":", style.label)
		if line.detail != "" {
			text += " " + line.detail
		}
		if colorize {
			text = style.color + text + ansiReset
		}
		fmt.Fprintln(w, text)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon tasks and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			daemonLines, taskLines := daemonStatusLines(cfg)
			daemonLines = append(daemonLines, statusLine{label: "Config", kind: statusInfo, detail: ctx.configPath})
			writeStatusSection(out, "Daemon", daemonLines, colorize)
			if len(taskLines) > 0 {
				fmt.Fprintln(out)
				writeStatusSection(out, "Tasks", taskLines, colorize)
			}

			failed := 0
			var checks []statusLine
			for _, result := range preflight.RunAll(cmd.Context(), cfg, local) {
				line := statusLine{label: result.Name, kind: statusOK, detail: result.Detail}
				if !result.Passed {
					line.kind = statusError
					failed++
				}
				checks = append(checks, line)
			}
			fmt.Fprintln(out)
			writeStatusSection(out, "Dependencies", checks, colorize)
			if failed > 0 {
				return fmt.Errorf("%d dependency check(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Skip network checks")
	return cmd
}

// daemonStatusLines reports whether an instance holds the lock and, when one
// does, the task states from its status file.
func daemonStatusLines(cfg *config.Config) ([]statusLine, []statusLine) {
	running, err := daemonRunning(cfg)
	switch {
	case err != nil:
		return []statusLine{{label: "Daemon", kind: statusWarn, detail: err.Error()}}, nil
	case !running:
		return []statusLine{{label: "Daemon", kind: statusInfo, detail: "not running"}}, nil
	}

	snap, err := daemon.ReadStatusFile(cfg.StatusPath())
	if err != nil {
		return []statusLine{
			{label: "Daemon", kind: statusOK, detail: "running"},
			{label: "Tasks", kind: statusWarn, detail: "status file unavailable"},
		}, nil
	}
	lines := []statusLine{{
		label:  "Daemon",
		kind:   statusOK,
		detail: fmt.Sprintf("running (pid %d, up %s)", snap.PID, time.Since(snap.StartedAt).Truncate(time.Second)),
	}}
	tasks := make([]statusLine, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		detail := string(task.State)
		if msg := strings.TrimSpace(task.Error); msg != "" {
			detail += ": " + msg
		}
		tasks = append(tasks, statusLine{label: task.Name, kind: taskStatusKind(task.State), detail: detail})
	}
	return lines, tasks
}

// daemonRunning reports whether another process holds the instance lock.
func daemonRunning(cfg *config.Config) (bool, error) {
	if cfg == nil {
		return false, errors.New("config unavailable")
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	_ = lock.Unlock()
	return false, nil
}
