package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"courtbridge/internal/police"
	"courtbridge/pkg/platform/httputil"
	"courtbridge/pkg/requestcontext"
)

// FetcherService exposes the read path of the gateway.
type FetcherService interface {
	ListCaseFiles(ctx context.Context, caseID string, actor police.Actor) ([]police.CaseFileDescriptor, error)
	GetCaseInfo(ctx context.Context, caseID string, actor police.Actor) ([]police.CaseInfoRecord, error)
}

// UploaderService exposes the serialized write path.
type UploaderService interface {
	Upload(ctx context.Context, req police.UploadRequest, actor police.Actor) (police.UploadResult, error)
}

// PublisherService exposes the best-effort outcome push.
type PublisherService interface {
	PublishOutcome(ctx context.Context, outcome police.CaseOutcome) bool
}

// Handler wires the gateway operations onto internal HTTP endpoints for the
// case-management layer. Authentication happens upstream of this service;
// the acting user arrives in headers.
type Handler struct {
	fetcher   FetcherService
	uploader  UploaderService
	publisher PublisherService
	logger    *slog.Logger
}

func New(fetcher FetcherService, uploader UploaderService, publisher PublisherService, logger *slog.Logger) *Handler {
	return &Handler{fetcher: fetcher, uploader: uploader, publisher: publisher, logger: logger}
}

// Register mounts gateway endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/internal/cases/{caseID}", func(r chi.Router) {
		r.Get("/policeFiles", h.HandleListCaseFiles)
		r.Get("/policeCaseInfo", h.HandleGetCaseInfo)
		r.Post("/policeFiles/upload", h.HandleUploadFile)
		r.Put("/outcome", h.HandlePublishOutcome)
	})
}

func actorFromRequest(r *http.Request) police.Actor {
	return police.Actor{
		NationalID:  r.Header.Get("X-Actor-National-Id"),
		Institution: r.Header.Get("X-Actor-Institution"),
	}
}

func (h *Handler) HandleListCaseFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")

	files, err := h.fetcher.ListCaseFiles(ctx, caseID, actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) HandleGetCaseInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")

	records, err := h.fetcher.GetCaseInfo(ctx, caseID, actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

type uploadRequest struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	CaseType string `json:"caseType"`
}

func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	if req.FileID == "" || req.FileName == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	start := time.Now()
	result, err := h.uploader.Upload(ctx, police.UploadRequest{
		CaseID:   caseID,
		FileID:   req.FileID,
		FileName: req.FileName,
		CaseType: police.CaseType(req.CaseType),
	}, actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "police document stored",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"file_id", req.FileID,
		"key", result.Key,
		"size", result.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

type outcomeRequest struct {
	CaseType            string     `json:"caseType"`
	CaseState           string     `json:"caseState"`
	PoliceCaseNumber    string     `json:"policeCaseNumber"`
	DefendantNationalID string     `json:"defendantNationalId"`
	ValidTo             *time.Time `json:"validToDate,omitempty"`
	ConclusionText      string     `json:"conclusion,omitempty"`
	// Documents arrive base64-encoded from the case-management layer.
	RequestPDF       string `json:"requestPdf,omitempty"`
	CourtRecordPDF   string `json:"courtRecordPdf,omitempty"`
	RulingPDF        string `json:"rulingPdf,omitempty"`
	CustodyNoticePDF string `json:"custodyNoticePdf,omitempty"`
}

type outcomeResponse struct {
	Delivered bool `json:"delivered"`
}

func (h *Handler) HandlePublishOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	docs := make(map[string][]byte, 4)
	for field, encoded := range map[string]string{
		"requestPdf":       req.RequestPDF,
		"courtRecordPdf":   req.CourtRecordPDF,
		"rulingPdf":        req.RulingPDF,
		"custodyNoticePdf": req.CustodyNoticePDF,
	} {
		if encoded == "" {
			continue
		}
		content, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "bad_request",
				"error_description": field + " is not valid base64",
			})
			return
		}
		docs[field] = content
	}

	delivered := h.publisher.PublishOutcome(ctx, police.CaseOutcome{
		CaseID:              caseID,
		CaseType:            police.CaseType(req.CaseType),
		CaseState:           req.CaseState,
		PoliceCaseNumber:    req.PoliceCaseNumber,
		DefendantNationalID: req.DefendantNationalID,
		ValidTo:             req.ValidTo,
		ConclusionText:      req.ConclusionText,
		RequestPDF:          docs["requestPdf"],
		CourtRecordPDF:      docs["courtRecordPdf"],
		RulingPDF:           docs["rulingPdf"],
		CustodyNoticePDF:    docs["custodyNoticePdf"],
		Actor:               actorFromRequest(r),
	})

	httputil.WriteJSON(w, http.StatusOK, outcomeResponse{Delivered: delivered})
}
