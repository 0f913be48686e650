package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mover/internal/logging"
)

// TaskRecord is the persisted form of a TaskStatus.
type TaskRecord struct {
	Name  string    `json:"name"`
	State TaskState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// StatusSnapshot is written to the state directory whenever a task changes
// state so that other processes can report on a running daemon.
type StatusSnapshot struct {
	PID       int          `json:"pid"`
	Running   bool         `json:"running"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Tasks     []TaskRecord `json:"tasks"`
}

// ReadStatusFile loads a snapshot written by a daemon.
func ReadStatusFile(path string) (StatusSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StatusSnapshot{}, err
	}
	var snap StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return StatusSnapshot{}, fmt.Errorf("decode status file: %w", err)
	}
	return snap, nil
}

func (d *Daemon) snapshot() StatusSnapshot {
	status := d.Status()
	snap := StatusSnapshot{
		PID:       os.Getpid(),
		Running:   status.Running,
		StartedAt: d.startedAt,
		UpdatedAt: time.Now().UTC(),
		Tasks:     make([]TaskRecord, 0, len(status.Tasks)),
	}
	for _, task := range status.Tasks {
		rec := TaskRecord{Name: task.Name, State: task.State}
		if task.Err != nil {
			rec.Error = task.Err.Error()
		}
		snap.Tasks = append(snap.Tasks, rec)
	}
	return snap
}

// publishStatus rewrites the status file. Failures are logged only.
func (d *Daemon) publishStatus() {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()

	path := d.cfg.StatusPath()
	data, err := json.MarshalIndent(d.snapshot(), "", "  ")
	if err == nil {
		tmp := path + ".tmp"
		if err = os.WriteFile(tmp, data, 0o644); err == nil {
			err = os.Rename(tmp, path)
		}
	}
	if err != nil {
		logging.WarnWithContext(d.logger, "status file not updated", "status_write_failed",
			logging.String(logging.FieldPath, filepath.Clean(path)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that state_dir is writable"),
			logging.String(logging.FieldImpact, "mover status shows stale task states"),
		)
	}
}
