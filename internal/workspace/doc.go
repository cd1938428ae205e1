// Package workspace manages the work directory for copy runs, supporting both
// ephemeral (timestamped temp) and persistent (scheduler-provided) modes.
//
// Persistent mode uses the directory the scheduling system populated with
// task.json and manifest.json; it is never deleted. Ephemeral mode creates a
// timestamped directory suitable for tests and ad-hoc runs.
package workspace
