package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/beetmover/internal/logfields"
)

// Manager handles work directory operations (both temporary and persistent)
type Manager struct {
	baseDir    string
	workDir    string
	persistent bool // If true, use workDir directly and never delete it
}

// NewManager creates a workspace manager with an ephemeral timestamped directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{
		baseDir:    baseDir,
		persistent: false,
	}
}

// NewPersistentManager creates a workspace manager over the scheduler-provided
// work directory. The directory is fixed and not cleaned up on Cleanup().
func NewPersistentManager(workDir string) *Manager {
	return &Manager{
		baseDir:    workDir,
		workDir:    workDir,
		persistent: true,
	}
}

// Create creates the work directory.
// For ephemeral mode: creates a timestamped directory.
// For persistent mode: ensures the fixed directory exists.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.workDir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent work directory: %w", err)
		}
		slog.Info("Using persistent work directory", logfields.Path(m.workDir))
		return nil
	}

	timestamp := time.Now().Format("20060102-150405")
	workDir := filepath.Join(m.baseDir, fmt.Sprintf("beetmover-%s", timestamp))

	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	m.workDir = workDir
	slog.Info("Created work directory", logfields.Path(workDir))
	return nil
}

// Path returns the work directory path.
func (m *Manager) Path() string {
	return m.workDir
}

// AbsPath resolves a validated relative artifact path inside the work
// directory. The second return is false when the path would land outside it;
// callers must have validated the path already, so false signals a bug
// upstream rather than user input.
func (m *Manager) AbsPath(rel string) (string, bool) {
	abs := filepath.Join(m.workDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(abs, filepath.Clean(m.workDir)+string(os.PathSeparator)) {
		return "", false
	}
	return abs, true
}

// Cleanup removes the work directory in ephemeral mode. Persistent work
// directories are left alone; their scratch files are advisory and deletable
// on the next run.
func (m *Manager) Cleanup() error {
	if m.persistent || m.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.workDir); err != nil {
		return fmt.Errorf("failed to cleanup work directory: %w", err)
	}
	slog.Debug("Removed work directory", logfields.Path(m.workDir))
	m.workDir = ""
	return nil
}
