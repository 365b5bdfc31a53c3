package police

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"courtbridge/internal/audit"
	"courtbridge/internal/platform/metrics"
	"courtbridge/internal/storage/blob"
)

// uploadQueueCapacity bounds how many jobs may wait behind the worker before
// Upload itself starts blocking.
const uploadQueueCapacity = 64

// Uploader fetches one document's binary content from the registry and
// persists it to the blob store. Jobs are strictly FIFO within one instance:
// a single worker goroutine processes them one at a time, and a failed job
// never poisons the queue for the next one. The guarantee is process-local.
type Uploader struct {
	client  *Client
	store   blob.Store
	audit   AuditSink
	logger  *slog.Logger
	metrics *metrics.Metrics
	jobs    chan uploadJob
}

type uploadJob struct {
	req    UploadRequest
	actor  Actor
	result chan uploadOutcome // buffered; worker never blocks on an abandoned caller
}

type uploadOutcome struct {
	res UploadResult
	err error
}

func NewUploader(client *Client, store blob.Store, sink AuditSink, logger *slog.Logger, m *metrics.Metrics) *Uploader {
	return &Uploader{
		client:  client,
		store:   store,
		audit:   sink,
		logger:  logger,
		metrics: m,
		jobs:    make(chan uploadJob, uploadQueueCapacity),
	}
}

// Run is the worker loop. It owns the fetch-decode-store sequence for every
// queued job; the loop only stops when ctx is done.
func (u *Uploader) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-u.jobs:
			u.metrics.UploadQueueDepth.Dec()
			res, err := u.process(ctx, job)
			if err != nil {
				u.logger.WarnContext(ctx, "upload job failed",
					"case_id", job.req.CaseID,
					"file_id", job.req.FileID,
					"error", err,
				)
			}
			job.result <- uploadOutcome{res: res, err: err}
		}
	}
}

// Upload queues one fetch-and-store job and waits for its outcome. Callers
// queue behind every previously issued job regardless of how those end.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest, actor Actor) (UploadResult, error) {
	job := uploadJob{req: req, actor: actor, result: make(chan uploadOutcome, 1)}

	select {
	case u.jobs <- job:
		u.metrics.UploadQueueDepth.Inc()
	case <-ctx.Done():
		return UploadResult{}, ctx.Err()
	}

	select {
	case out := <-job.result:
		return out.res, out.err
	case <-ctx.Done():
		// The job still runs to completion in queue order; only the caller
		// stops waiting.
		return UploadResult{}, ctx.Err()
	}
}

func (u *Uploader) process(ctx context.Context, job uploadJob) (UploadResult, error) {
	start := time.Now()
	defer func() {
		u.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	}()

	content, err := u.fetchContent(ctx, job.req.FileID)
	if err != nil {
		return UploadResult{}, u.signalUploadFailure(ctx, job, err)
	}

	segment := bucketSegmentUploads
	if job.req.CaseType.IsIndictment() {
		segment = bucketSegmentIndictments
	}
	// The uuid segment only prevents key collisions across repeated uploads
	// of the same file name; identical content still lands twice.
	key := fmt.Sprintf("%s/%s/%s/%s", segment, job.req.CaseID, uuid.NewString(), job.req.FileName)

	if err := u.store.Put(ctx, key, content); err != nil {
		return UploadResult{}, u.signalUploadFailure(ctx, job, fmt.Errorf("store document: %w", err))
	}

	return UploadResult{Key: key, Size: len(content)}, nil
}

// fetchContent retrieves and decodes one document. The upstream responds
// with a JSON string whose value is the base64-encoded PDF.
func (u *Uploader) fetchContent(ctx context.Context, fileID string) ([]byte, error) {
	body, status, err := u.client.GetPDFDocument(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &UpstreamStatusError{Operation: "GetPDFDocumentByID", StatusCode: status}
	}

	var encoded string
	if err := json.Unmarshal(body, &encoded); err != nil {
		return nil, fmt.Errorf("decode content envelope: %w", err)
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode document content: %w", err)
	}
	return content, nil
}

// signalUploadFailure follows the read policy: unavailability and upstream
// non-2xx both mean the file does not exist from the caller's perspective;
// everything else is audited and escalated. A NotFound passing back through
// is returned unchanged.
func (u *Uploader) signalUploadFailure(ctx context.Context, job uploadJob, err error) error {
	d := dispositionFor(err)
	if d.Audit {
		u.audit.ReportFailure(ctx, audit.Event{
			Action:      audit.ActionUploadFile,
			CaseID:      job.req.CaseID,
			ActorID:     job.actor.NationalID,
			Institution: job.actor.Institution,
			FileID:      job.req.FileID,
			FileName:    job.req.FileName,
			Reason:      err.Error(),
		})
	}
	if d.Err == err {
		return err
	}
	return fmt.Errorf("upload file %s for case %s: %w", job.req.FileID, job.req.CaseID, d.Err)
}
