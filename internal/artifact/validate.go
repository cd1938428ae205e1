// Package artifact vets source references before any network fetch. It is the
// sole access-control gate: a URL must be an artifact of an allowed upstream
// task, and its path must stay inside the work directory.
package artifact

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// UntrustedSourceError marks a source URL that is not an artifact of any
// allowed upstream task. Fatal per job, never retried.
type UntrustedSourceError struct {
	URL    string
	Reason string
}

func (e *UntrustedSourceError) Error() string {
	return fmt.Sprintf("untrusted source %s: %s", e.URL, e.Reason)
}

// InvalidPathError marks an artifact path that would escape the work
// directory. Fatal per job, never retried.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid artifact path %q: %s", e.Path, e.Reason)
}

// Validator checks source URLs against the artifact store root and the
// allowlist of upstream task IDs from the task definition.
type Validator struct {
	artifactRoot string
	allowedTasks map[string]struct{}
}

// NewValidator builds a validator for one run. allowedTaskIDs is typically
// the task's dependencies list.
func NewValidator(artifactRoot string, allowedTaskIDs []string) *Validator {
	allowed := make(map[string]struct{}, len(allowedTaskIDs))
	for _, id := range allowedTaskIDs {
		allowed[id] = struct{}{}
	}
	return &Validator{
		artifactRoot: strings.TrimSuffix(artifactRoot, "/"),
		allowedTasks: allowed,
	}
}

// Validate returns the sanitized path of the artifact relative to the work
// directory, keyed by the producing task so artifacts from different tasks
// never collide. Source URLs have the shape <artifact_root>/<taskID>/<path>.
func (v *Validator) Validate(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", &UntrustedSourceError{URL: sourceURL, Reason: "unparseable URL"}
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", &UntrustedSourceError{URL: sourceURL, Reason: "unsupported scheme " + u.Scheme}
	}
	if !strings.HasPrefix(sourceURL, v.artifactRoot+"/") {
		return "", &UntrustedSourceError{URL: sourceURL, Reason: "outside artifact store root"}
	}

	rest := strings.TrimPrefix(sourceURL, v.artifactRoot+"/")
	taskID, artifactPath, found := strings.Cut(rest, "/")
	if !found || artifactPath == "" {
		return "", &UntrustedSourceError{URL: sourceURL, Reason: "no artifact path after task ID"}
	}
	if _, ok := v.allowedTasks[taskID]; !ok {
		return "", &UntrustedSourceError{URL: sourceURL, Reason: "task " + taskID + " not in dependencies"}
	}

	rel := path.Join(taskID, artifactPath)
	if err := checkRelativePath(rel, artifactPath); err != nil {
		return "", err
	}
	return rel, nil
}

// checkRelativePath rejects traversal segments and absolute paths. path.Join
// already cleans the path, so an escaping result starts with ".." or "/".
func checkRelativePath(cleaned, raw string) error {
	if strings.Contains(raw, "..") {
		return &InvalidPathError{Path: raw, Reason: "traversal segment"}
	}
	if path.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return &InvalidPathError{Path: raw, Reason: "escapes work directory"}
	}
	return nil
}
