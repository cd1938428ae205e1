package manifest

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/beetmover/internal/logfields"
	"git.home.luguber.info/inful/beetmover/internal/task"
)

// Filename is the fixed name of the manifest document inside the work
// directory, materialized there by the upstream pipeline alongside task.json.
const Filename = "manifest.json"

// Resolve loads the manifest for the current run and cross-checks it against
// the task definition. Payload checksum entries that reference artifacts
// absent from the mapping are logged and ignored; they usually indicate a
// stale payload rather than a broken manifest.
func Resolve(workDir string, t *task.Task) (*Manifest, error) {
	m, err := ParseFile(filepath.Join(workDir, Filename))
	if err != nil {
		return nil, err
	}

	if len(t.Payload.Checksums) > 0 {
		known := make(map[string]struct{}, m.EntryCount())
		for _, deliverables := range m.Mapping {
			for _, entry := range deliverables {
				known[entry.Artifact] = struct{}{}
			}
		}
		for artifact := range t.Payload.Checksums {
			if _, ok := known[artifact]; !ok {
				slog.Warn("Checksum entry references unknown artifact", logfields.Path(artifact))
			}
		}
	}

	return m, nil
}
