package police

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"courtbridge/internal/audit"
	"courtbridge/pkg/requestcontext"
)

// AuditSink receives escalated upstream failures. Satisfied by
// audit.Publisher; defined here so the gateway owns its dependency surface.
type AuditSink interface {
	ReportFailure(ctx context.Context, event audit.Event)
}

// Fetcher retrieves the case's document listing and derives the two read
// views: normalized file descriptors and deduplicated case-info records.
// Both operations are read-only and idempotent.
type Fetcher struct {
	client *Client
	cache  *ListingCache // nil disables caching
	audit  AuditSink
	logger *slog.Logger
}

func NewFetcher(client *Client, cache *ListingCache, sink AuditSink, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, cache: cache, audit: sink, logger: logger}
}

// ListCaseFiles returns one descriptor per document the registry holds for
// the case.
func (f *Fetcher) ListCaseFiles(ctx context.Context, caseID string, actor Actor) ([]CaseFileDescriptor, error) {
	payload, err := f.fetchListing(ctx, caseID)
	if err != nil {
		return nil, f.signalReadFailure(ctx, audit.ActionListCaseFiles, caseID, actor, err)
	}

	files := make([]CaseFileDescriptor, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		files = append(files, CaseFileDescriptor{
			ID:               strconv.Itoa(doc.ID),
			Name:             ensurePDFSuffix(doc.Name),
			PoliceCaseNumber: doc.CaseNumber,
			Chapter:          chapterFromCategory(doc.Category),
			DisplayDate:      doc.Created,
		})
	}
	return files, nil
}

// GetCaseInfo derives one record per distinct police case number, in
// insertion order: the top-level number first, then numbers from the
// document listing, then numbers introduced only by the case-unit section.
// Case units enrich already-known records with place and date.
func (f *Fetcher) GetCaseInfo(ctx context.Context, caseID string, actor Actor) ([]CaseInfoRecord, error) {
	payload, err := f.fetchListing(ctx, caseID)
	if err != nil {
		return nil, f.signalReadFailure(ctx, audit.ActionGetCaseInfo, caseID, actor, err)
	}

	records := []CaseInfoRecord{{PoliceCaseNumber: payload.CaseNumber}}
	index := map[string]int{payload.CaseNumber: 0}

	for _, doc := range payload.Documents {
		if _, seen := index[doc.CaseNumber]; !seen {
			index[doc.CaseNumber] = len(records)
			records = append(records, CaseInfoRecord{PoliceCaseNumber: doc.CaseNumber})
		}
	}

	for _, unit := range payload.CaseUnits {
		i, seen := index[unit.OriginalCaseNumber]
		if !seen {
			index[unit.OriginalCaseNumber] = len(records)
			records = append(records, CaseInfoRecord{PoliceCaseNumber: unit.OriginalCaseNumber})
			continue
		}
		records[i].Place = unit.Place
		records[i].Date = parseUpstreamTime(unit.OffenseDate)
	}

	return records, nil
}

// fetchListing returns the validated listing payload, read through the cache
// when one is configured. Cache failures are soft and never surface.
func (f *Fetcher) fetchListing(ctx context.Context, caseID string) (*documentListPayload, error) {
	if payload, ok := f.cache.Lookup(ctx, caseID); ok {
		return payload, nil
	}

	body, status, err := f.client.GetDocumentList(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		// Failures come back as an unstructured stack trace, never a
		// structured error body; the status code is all there is.
		return nil, &UpstreamStatusError{Operation: "GetDocumentListById", StatusCode: status}
	}

	payload, err := parseDocumentList(body)
	if err != nil {
		return nil, err
	}

	f.cache.Save(ctx, caseID, payload)
	return payload, nil
}

// signalReadFailure resolves a fetch failure against the read policy,
// emitting an audit event where the policy demands one.
func (f *Fetcher) signalReadFailure(ctx context.Context, action, caseID string, actor Actor, err error) error {
	d := dispositionFor(err)
	if d.Audit {
		f.audit.ReportFailure(ctx, audit.Event{
			Action:      action,
			CaseID:      caseID,
			ActorID:     actor.NationalID,
			Institution: actor.Institution,
			Reason:      err.Error(),
		})
		f.logger.ErrorContext(ctx, "police registry read failed",
			"action", action,
			"case_id", caseID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		f.logger.DebugContext(ctx, "police registry read yielded nothing",
			"action", action,
			"case_id", caseID,
			"error", err,
		)
	}
	if d.Err == err {
		return err
	}
	return fmt.Errorf("%s for case %s: %w", action, caseID, d.Err)
}
