package mover

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/beetmover/internal/artifact"
	"git.home.luguber.info/inful/beetmover/internal/errors"
	"git.home.luguber.info/inful/beetmover/internal/logfields"
	"git.home.luguber.info/inful/beetmover/internal/manifest"
)

// ErrorKind categorizes a job failure for the run summary.
type ErrorKind string

const (
	KindUntrustedSource ErrorKind = "untrusted-source"
	KindInvalidPath     ErrorKind = "invalid-path"
	KindDownload        ErrorKind = "download"
	KindUpload          ErrorKind = "upload"
	KindCanceled        ErrorKind = "canceled"
	KindInternal        ErrorKind = "internal"
)

// DestinationResult is the outcome of one destination upload.
type DestinationResult struct {
	Key string
	Err error
}

// JobResult is the outcome of one copy job. Err is nil on success; Kind is
// set whenever Err is.
type JobResult struct {
	JobID        string
	Locale       string
	Deliverable  string
	Err          error
	Kind         ErrorKind
	Destinations []DestinationResult
}

// RunReport aggregates per-job outcomes for a whole run.
type RunReport struct {
	Results []JobResult
}

// OK reports whether every job succeeded.
func (r *RunReport) OK() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the failed job results.
func (r *RunReport) Failed() []JobResult {
	var failed []JobResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns nil on full success, otherwise a structured error summarizing
// the failure count for the process exit path.
func (r *RunReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return errors.New(errors.CategoryUpload, errors.SeverityError,
		fmt.Sprintf("%d of %d copy jobs failed", len(failed), len(r.Results)))
}

// log emits the run summary: every failed job with its error kind, or a final
// confirmation when everything moved.
func (r *RunReport) log() {
	failed := r.Failed()
	if len(failed) == 0 {
		slog.Info("All copy jobs succeeded", slog.Int("jobs", len(r.Results)))
		return
	}
	for _, res := range failed {
		slog.Error("Copy job failed",
			logfields.Locale(res.Locale), logfields.Deliverable(res.Deliverable),
			slog.String("kind", string(res.Kind)), logfields.Error(res.Err))
	}
	slog.Error("Copy run finished with failures",
		slog.Int("failed", len(failed)), slog.Int("jobs", len(r.Results)))
}

// classifyKind maps an error to its report kind.
func classifyKind(err error) ErrorKind {
	var untrusted *artifact.UntrustedSourceError
	if stderrors.As(err, &untrusted) {
		return KindUntrustedSource
	}
	var invalid *artifact.InvalidPathError
	if stderrors.As(err, &invalid) {
		return KindInvalidPath
	}
	switch errors.GetCategory(err) {
	case errors.CategoryDownload, errors.CategoryNetwork:
		return KindDownload
	case errors.CategoryUpload:
		return KindUpload
	case errors.CategoryFileSystem:
		return KindDownload
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindInternal
}

func canceledResult(job manifest.CopyJob, cause error) JobResult {
	return JobResult{
		JobID:       job.ID(),
		Locale:      job.Locale,
		Deliverable: job.Deliverable,
		Err:         errors.Wrap(cause, errors.CategoryInternal, errors.SeverityError, "run canceled before job started"),
		Kind:        KindCanceled,
	}
}

func errInternalPath(rel string) error {
	return errors.New(errors.CategoryInternal, errors.SeverityError, "validated path resolved outside work directory").
		WithContext("path", rel)
}
