// Package task reads the scheduler-provided task definition from the work
// directory. The definition names the upstream tasks whose artifacts this run
// is allowed to publish, plus release metadata used to resolve the manifest.
package task

import (
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/beetmover/internal/errors"
)

// Filename is the fixed name of the task definition inside the work directory.
const Filename = "task.json"

// Task is the definition handed to the mover by the scheduling system.
// Dependencies is the allowlist of upstream task IDs: only artifacts produced
// by these tasks may be downloaded.
type Task struct {
	TaskID       string   `json:"taskId,omitempty"`
	Dependencies []string `json:"dependencies"`
	Payload      Payload  `json:"payload"`
}

// Payload carries release metadata plus optional per-artifact digests for
// download verification.
type Payload struct {
	Product string `json:"product,omitempty"`
	Version string `json:"version,omitempty"`
	Branch  string `json:"branch,omitempty"`

	// Checksums maps a manifest artifact path to its expected digest.
	Checksums map[string]Digest `json:"checksums,omitempty"`
}

// Digest pairs an algorithm name with the expected hex digest.
type Digest struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// Load reads and validates task.json from the work directory.
func Load(workDir string) (*Task, error) {
	path := filepath.Join(workDir, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryTask, errors.SeverityFatal, "failed to read task definition").
			WithContext("path", path)
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, errors.CategoryTask, errors.SeverityFatal, "failed to parse task definition").
			WithContext("path", path)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate enforces structural requirements before any job runs.
func (t *Task) Validate() error {
	if len(t.Dependencies) == 0 {
		return errors.TaskInvalid("dependencies must list at least one upstream task")
	}
	for _, dep := range t.Dependencies {
		if dep == "" {
			return errors.TaskInvalid("dependencies must not contain empty task IDs")
		}
	}
	for artifact, d := range t.Payload.Checksums {
		if d.Algorithm == "" || d.Value == "" {
			return errors.TaskInvalid("checksum entries need algorithm and value").
				WithContext("artifact", artifact)
		}
	}
	return nil
}
