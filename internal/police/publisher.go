package police

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"courtbridge/internal/audit"
	"courtbridge/pkg/platform/sentinel"
)

// CaseOutcome carries a finished case's verdict and its court documents for
// the push back to the registry.
type CaseOutcome struct {
	CaseID              string
	CaseType            CaseType
	CaseState           string
	PoliceCaseNumber    string
	DefendantNationalID string
	ValidTo             *time.Time
	ConclusionText      string

	RequestPDF     []byte
	CourtRecordPDF []byte
	RulingPDF      []byte
	// CustodyNoticePDF accompanies custody-class cases only.
	CustodyNoticePDF []byte

	Actor Actor
}

// OutcomePublisher pushes case outcomes upstream. The push is best-effort
// notification: it must not block or fail the judicial workflow, so it
// reports a boolean and never returns an error.
type OutcomePublisher struct {
	client *Client
	audit  AuditSink
	logger *slog.Logger
}

func NewOutcomePublisher(client *Client, sink AuditSink, logger *slog.Logger) *OutcomePublisher {
	return &OutcomePublisher{client: client, audit: sink, logger: logger}
}

type updateCasePayload struct {
	RVCaseID           string          `json:"rvMal_ID"`
	CaseNumber         string          `json:"caseNumber"`
	SSN                string          `json:"ssn"`
	Type               string          `json:"type"`
	CourtVerdict       string          `json:"courtVerdict"`
	ExpiringDate       string          `json:"expiringDate,omitempty"`
	CourtVerdictString string          `json:"courtVerdictString,omitempty"`
	CourtDocuments     []courtDocument `json:"courtDocuments"`
}

type courtDocument struct {
	Type          string `json:"type"`
	CourtDocument string `json:"courtDocument"`
}

// PublishOutcome PUTs the verdict and up to four documents upstream. A 2xx
// answer and a gated (unavailable) upstream both count as success: the
// latter is a deliberate soft-success for a known-flaky dependency. Any
// other failure is logged, audited, and reported as false.
func (p *OutcomePublisher) PublishOutcome(ctx context.Context, outcome CaseOutcome) bool {
	payload := updateCasePayload{
		RVCaseID:           outcome.CaseID,
		CaseNumber:         outcome.PoliceCaseNumber,
		SSN:                outcome.DefendantNationalID,
		Type:               string(outcome.CaseType),
		CourtVerdict:       outcome.CaseState,
		CourtVerdictString: outcome.ConclusionText,
		CourtDocuments:     courtDocuments(outcome),
	}
	if outcome.ValidTo != nil {
		payload.ExpiringDate = outcome.ValidTo.Format(time.RFC3339)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.fail(ctx, outcome, err)
		return false
	}

	_, status, err := p.client.UpdateCase(ctx, outcome.CaseID, body)
	switch {
	case err == nil && status >= 200 && status <= 299:
		p.logger.InfoContext(ctx, "case outcome published",
			"case_id", outcome.CaseID,
			"police_case_number", outcome.PoliceCaseNumber,
		)
		return true
	case errors.Is(err, sentinel.ErrUnavailable):
		// Skipped quietly: the registry is flagged down and this call is
		// advisory. Success is reported so the workflow continues.
		p.logger.DebugContext(ctx, "case outcome push skipped, registry unavailable",
			"case_id", outcome.CaseID,
		)
		return true
	case err == nil:
		p.fail(ctx, outcome, &UpstreamStatusError{Operation: "UpdateRVCase", StatusCode: status})
		return false
	default:
		p.fail(ctx, outcome, err)
		return false
	}
}

func courtDocuments(outcome CaseOutcome) []courtDocument {
	docs := make([]courtDocument, 0, 4)
	appendDoc := func(docType string, content []byte) {
		if len(content) == 0 {
			return
		}
		docs = append(docs, courtDocument{
			Type:          docType,
			CourtDocument: base64.StdEncoding.EncodeToString(content),
		})
	}
	appendDoc(docTypeRequest, outcome.RequestPDF)
	appendDoc(docTypeCourtRecord, outcome.CourtRecordPDF)
	appendDoc(docTypeRuling, outcome.RulingPDF)
	appendDoc(docTypeCustodyNotice, outcome.CustodyNoticePDF)
	return docs
}

func (p *OutcomePublisher) fail(ctx context.Context, outcome CaseOutcome, err error) {
	p.logger.ErrorContext(ctx, "case outcome push failed",
		"case_id", outcome.CaseID,
		"police_case_number", outcome.PoliceCaseNumber,
		"error", err,
	)
	p.audit.ReportFailure(ctx, audit.Event{
		Action:      audit.ActionPublishOutcome,
		CaseID:      outcome.CaseID,
		ActorID:     outcome.Actor.NationalID,
		Institution: outcome.Actor.Institution,
		Reason:      err.Error(),
	})
}
