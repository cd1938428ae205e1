// Package manifest models the declarative copy mapping produced by the
// upstream release pipeline: per locale and per deliverable, which staged
// artifact maps to which destination key.
//
// The document shape (artifact_base_url, s3_prefix_dated, s3_prefix_latest,
// mapping) is an external contract with the manifest producers and must not
// change.
package manifest

import (
	"encoding/json"
	"os"
	"path"
	"strings"

	"git.home.luguber.info/inful/beetmover/internal/errors"
)

// Entry maps one deliverable to its staged artifact path and destination key.
// Immutable once the manifest is built.
type Entry struct {
	Artifact string `json:"artifact"`
	S3Key    string `json:"s3_key"`
}

// Manifest is the full copy mapping for one run. Read-only after Parse.
type Manifest struct {
	ArtifactBaseURL string                      `json:"artifact_base_url"`
	S3PrefixDated   string                      `json:"s3_prefix_dated"`
	S3PrefixLatest  string                      `json:"s3_prefix_latest"`
	Mapping         map[string]map[string]Entry `json:"mapping"`
}

// CopyJob is one unit of work derived from a manifest entry: one download
// fanned out to every destination key. LocalPath is assigned by the
// orchestrator once the source URL has been vetted.
type CopyJob struct {
	Locale       string
	Deliverable  string
	Artifact     string
	SourceURL    string
	Destinations []string
}

// ID identifies the job in reports and logs.
func (j CopyJob) ID() string {
	return j.Locale + "/" + j.Deliverable
}

// Parse unmarshals and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.CategoryManifest, errors.SeverityFatal, "failed to parse manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseFile reads and parses a manifest document from disk.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryManifest, errors.SeverityFatal, "failed to read manifest").
			WithContext("path", path)
	}
	return Parse(data)
}

// Validate rejects manifests with missing base locations or incomplete
// entries. Incomplete locales fail the whole manifest rather than being
// silently skipped.
func (m *Manifest) Validate() error {
	if m.ArtifactBaseURL == "" {
		return errors.ManifestMissing("artifact_base_url")
	}
	if m.S3PrefixDated == "" {
		return errors.ManifestMissing("s3_prefix_dated")
	}
	if m.S3PrefixLatest == "" {
		return errors.ManifestMissing("s3_prefix_latest")
	}
	for locale, deliverables := range m.Mapping {
		if len(deliverables) == 0 {
			return errors.ManifestIncomplete(locale, "", "deliverables")
		}
		for deliverable, entry := range deliverables {
			if entry.Artifact == "" {
				return errors.ManifestIncomplete(locale, deliverable, "artifact")
			}
			if entry.S3Key == "" {
				return errors.ManifestIncomplete(locale, deliverable, "s3_key")
			}
		}
	}
	return nil
}

// Jobs derives one CopyJob per (locale, deliverable) pair. Each job carries
// exactly one destination per prefix, dated first. Iteration order across
// jobs is insignificant; destinations across jobs are independent.
func (m *Manifest) Jobs() []CopyJob {
	jobs := make([]CopyJob, 0, m.EntryCount())
	for locale, deliverables := range m.Mapping {
		for deliverable, entry := range deliverables {
			jobs = append(jobs, CopyJob{
				Locale:      locale,
				Deliverable: deliverable,
				Artifact:    entry.Artifact,
				SourceURL:   joinURL(m.ArtifactBaseURL, entry.Artifact),
				Destinations: []string{
					path.Join(m.S3PrefixDated, entry.S3Key),
					path.Join(m.S3PrefixLatest, entry.S3Key),
				},
			})
		}
	}
	return jobs
}

// EntryCount returns the number of (locale, deliverable) pairs.
func (m *Manifest) EntryCount() int {
	n := 0
	for _, deliverables := range m.Mapping {
		n += len(deliverables)
	}
	return n
}

// joinURL appends a relative artifact path to a base URL without collapsing
// the scheme's double slash the way path.Join would.
func joinURL(base, rel string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(rel, "/")
}
