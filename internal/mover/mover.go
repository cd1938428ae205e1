// Package mover drives a copy run: it derives copy jobs from the manifest,
// vets each source, downloads once, and fans the bytes out to every
// destination with independent retry and failure isolation.
package mover

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/beetmover/internal/checksum"
	"git.home.luguber.info/inful/beetmover/internal/logfields"
	"git.home.luguber.info/inful/beetmover/internal/manifest"
	"git.home.luguber.info/inful/beetmover/internal/metrics"
	"git.home.luguber.info/inful/beetmover/internal/observability"
	"git.home.luguber.info/inful/beetmover/internal/task"
	"git.home.luguber.info/inful/beetmover/internal/transfer"
	"git.home.luguber.info/inful/beetmover/internal/workspace"
)

// Transfer is the download/upload primitive the orchestrator drives. Satisfied
// by *transfer.Client; tests substitute spies.
type Transfer interface {
	Download(ctx context.Context, url, destPath string) error
	Upload(ctx context.Context, signer transfer.PutURLSigner, target transfer.UploadTarget, localPath string) error
}

// SourceValidator vets a source URL and returns its work-dir-relative path.
// Satisfied by *artifact.Validator.
type SourceValidator interface {
	Validate(sourceURL string) (string, error)
}

// Orchestrator executes copy runs. All fields are read-only after
// construction; per-job state is job-local, so no locking is needed beyond
// result collection.
type Orchestrator struct {
	transfer    Transfer
	signer      transfer.PutURLSigner
	validator   SourceValidator
	ws          *workspace.Manager
	recorder    metrics.Recorder
	concurrency int
	checksums   map[string]task.Digest
}

// Options configures an Orchestrator.
type Options struct {
	Transfer    Transfer
	Signer      transfer.PutURLSigner
	Validator   SourceValidator
	Workspace   *workspace.Manager
	Recorder    metrics.Recorder
	Concurrency int

	// Checksums maps manifest artifact paths to expected digests; verified
	// after download when present. A mismatch fails the job permanently.
	Checksums map[string]task.Digest
}

// New builds an Orchestrator.
func New(opts Options) *Orchestrator {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		transfer:    opts.Transfer,
		signer:      opts.Signer,
		validator:   opts.Validator,
		ws:          opts.Workspace,
		recorder:    rec,
		concurrency: concurrency,
		checksums:   opts.Checksums,
	}
}

// Run executes every copy job derived from the manifest and returns the
// aggregate report. It never fails fast across jobs: publishing failures are
// reported exhaustively.
func (o *Orchestrator) Run(ctx context.Context, m *manifest.Manifest) *RunReport {
	start := time.Now()
	jobs := m.Jobs()
	report := &RunReport{Results: make([]JobResult, 0, len(jobs))}
	if len(jobs) == 0 {
		slog.Info("Manifest mapping is empty, nothing to move")
		return report
	}

	concurrency := o.concurrency
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}
	o.recorder.SetWorkerConcurrency(concurrency)

	tasks := make(chan manifest.CopyJob)
	var wg sync.WaitGroup
	var mu sync.Mutex

	worker := func() {
		defer wg.Done()
		for job := range tasks {
			select {
			case <-ctx.Done():
				mu.Lock()
				report.Results = append(report.Results, canceledResult(job, ctx.Err()))
				mu.Unlock()
				continue
			default:
			}
			res := o.runJob(ctx, job)
			mu.Lock()
			report.Results = append(report.Results, res)
			mu.Unlock()
			if res.Err == nil {
				o.recorder.IncJobOutcome(metrics.ResultSuccess)
			} else if res.Kind == KindCanceled {
				o.recorder.IncJobOutcome(metrics.ResultCanceled)
			} else {
				o.recorder.IncJobOutcome(metrics.ResultFailed)
			}
		}
	}

	wg.Add(concurrency)
	for range concurrency {
		go worker()
	}
	for _, job := range jobs {
		tasks <- job
	}
	close(tasks)
	wg.Wait()

	o.recorder.ObserveRunDuration(time.Since(start))
	report.log()
	return report
}

// runJob executes one copy job: validate, download once, upload to every
// destination independently.
func (o *Orchestrator) runJob(ctx context.Context, job manifest.CopyJob) JobResult {
	ctx = observability.WithJob(ctx, job.Locale, job.Deliverable)
	res := JobResult{JobID: job.ID(), Locale: job.Locale, Deliverable: job.Deliverable}

	rel, err := o.validator.Validate(job.SourceURL)
	if err != nil {
		observability.ErrorContext(ctx, "Source validation failed", logfields.URL(job.SourceURL), logfields.Error(err))
		res.Err = err
		res.Kind = classifyKind(err)
		return res
	}

	localPath, ok := o.ws.AbsPath(rel)
	if !ok {
		observability.ErrorContext(ctx, "Validated path escapes work directory", logfields.Path(rel))
		res.Err = errInternalPath(rel)
		res.Kind = KindInternal
		return res
	}

	dlStart := time.Now()
	err = o.transfer.Download(observability.WithStage(ctx, "download"), job.SourceURL, localPath)
	o.recorder.ObserveDownloadDuration(time.Since(dlStart), err == nil)
	if err != nil {
		observability.ErrorContext(ctx, "Download failed, destinations not attempted",
			logfields.URL(job.SourceURL), logfields.Error(err))
		res.Err = err
		res.Kind = classifyKind(err)
		return res
	}

	if digest, ok := o.checksums[job.Artifact]; ok {
		if err := checksum.Verify(localPath, digest.Algorithm, digest.Value); err != nil {
			observability.ErrorContext(ctx, "Checksum verification failed", logfields.Path(localPath), logfields.Error(err))
			res.Err = err
			res.Kind = KindDownload
			return res
		}
	}

	res.Destinations = o.uploadAll(ctx, job, localPath)
	for _, d := range res.Destinations {
		if d.Err != nil {
			res.Err = d.Err
			res.Kind = classifyKind(d.Err)
			break
		}
	}
	return res
}

// uploadAll pushes the downloaded file to every destination concurrently.
// Each destination is an independent unit of failure: one exhausting its
// retries neither cancels nor rolls back the others.
func (o *Orchestrator) uploadAll(ctx context.Context, job manifest.CopyJob, localPath string) []DestinationResult {
	contentType := transfer.ContentTypeFor(localPath)
	results := make([]DestinationResult, len(job.Destinations))
	var wg sync.WaitGroup
	wg.Add(len(job.Destinations))
	for i, dest := range job.Destinations {
		go func(i int, dest string) {
			defer wg.Done()
			upCtx := observability.WithStage(ctx, "upload")
			target := transfer.UploadTarget{Key: dest, ContentType: contentType}
			start := time.Now()
			err := o.transfer.Upload(upCtx, o.signer, target, localPath)
			o.recorder.ObserveUploadDuration(time.Since(start), err == nil)
			if err != nil {
				o.recorder.IncDestinationOutcome(metrics.ResultFailed)
				observability.ErrorContext(upCtx, "Upload failed",
					logfields.Destination(dest), logfields.ContentType(contentType), logfields.Error(err))
			} else {
				o.recorder.IncDestinationOutcome(metrics.ResultSuccess)
				observability.InfoContext(upCtx, "Uploaded",
					logfields.Destination(dest), logfields.ContentType(contentType))
			}
			results[i] = DestinationResult{Key: dest, Err: err}
		}(i, dest)
	}
	wg.Wait()
	return results
}
