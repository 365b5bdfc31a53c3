package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbridge/internal/police"
	"courtbridge/internal/police/handler"
	"courtbridge/pkg/platform/sentinel"
)

type fakeFetcher struct {
	files   []police.CaseFileDescriptor
	records []police.CaseInfoRecord
	err     error

	gotCaseID string
	gotActor  police.Actor
}

func (f *fakeFetcher) ListCaseFiles(_ context.Context, caseID string, actor police.Actor) ([]police.CaseFileDescriptor, error) {
	f.gotCaseID = caseID
	f.gotActor = actor
	return f.files, f.err
}

func (f *fakeFetcher) GetCaseInfo(_ context.Context, caseID string, actor police.Actor) ([]police.CaseInfoRecord, error) {
	f.gotCaseID = caseID
	f.gotActor = actor
	return f.records, f.err
}

type fakeUploader struct {
	result police.UploadResult
	err    error
	gotReq police.UploadRequest
}

func (u *fakeUploader) Upload(_ context.Context, req police.UploadRequest, _ police.Actor) (police.UploadResult, error) {
	u.gotReq = req
	return u.result, u.err
}

type fakePublisher struct {
	delivered  bool
	gotOutcome police.CaseOutcome
}

func (p *fakePublisher) PublishOutcome(_ context.Context, outcome police.CaseOutcome) bool {
	p.gotOutcome = outcome
	return p.delivered
}

func newTestServer(t *testing.T, fetcher *fakeFetcher, uploader *fakeUploader, publisher *fakePublisher) *httptest.Server {
	t.Helper()
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	if uploader == nil {
		uploader = &fakeUploader{}
	}
	if publisher == nil {
		publisher = &fakePublisher{}
	}
	h := handler.New(fetcher, uploader, publisher, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	h.Register(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Actor-National-Id", "0101017890")
	req.Header.Set("X-Actor-Institution", "Héraðsdómur Reykjavíkur")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleListCaseFiles(t *testing.T) {
	t.Run("returns descriptors for the routed case", func(t *testing.T) {
		chapter := 2
		fetcher := &fakeFetcher{files: []police.CaseFileDescriptor{
			{ID: "77", Name: "skyrsla.pdf", PoliceCaseNumber: "007-2024-1", Chapter: &chapter},
		}}
		server := newTestServer(t, fetcher, nil, nil)

		resp := doRequest(t, http.MethodGet, server.URL+"/api/internal/cases/case-1/policeFiles", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var files []police.CaseFileDescriptor
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&files))
		require.Len(t, files, 1)
		assert.Equal(t, "77", files[0].ID)

		assert.Equal(t, "case-1", fetcher.gotCaseID)
		assert.Equal(t, "0101017890", fetcher.gotActor.NationalID)
		assert.Equal(t, "Héraðsdómur Reykjavíkur", fetcher.gotActor.Institution)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		fetcher := &fakeFetcher{err: fmt.Errorf("no documents for case: %w", sentinel.ErrNotFound)}
		server := newTestServer(t, fetcher, nil, nil)

		resp := doRequest(t, http.MethodGet, server.URL+"/api/internal/cases/case-1/policeFiles", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("maps bad gateway to 502", func(t *testing.T) {
		fetcher := &fakeFetcher{err: fmt.Errorf("list case files: %w", sentinel.ErrBadGateway)}
		server := newTestServer(t, fetcher, nil, nil)

		resp := doRequest(t, http.MethodGet, server.URL+"/api/internal/cases/case-1/policeFiles", nil)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestHandleGetCaseInfo(t *testing.T) {
	fetcher := &fakeFetcher{records: []police.CaseInfoRecord{
		{PoliceCaseNumber: "007-2024-1", Place: "Reykjavík"},
		{PoliceCaseNumber: "007-2024-2"},
	}}
	server := newTestServer(t, fetcher, nil, nil)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/internal/cases/case-9/policeCaseInfo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []police.CaseInfoRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 2)
	assert.Equal(t, "Reykjavík", records[0].Place)
	assert.Equal(t, "case-9", fetcher.gotCaseID)
}

func TestHandleUploadFile(t *testing.T) {
	t.Run("forwards the upload and returns the stored key", func(t *testing.T) {
		uploader := &fakeUploader{result: police.UploadResult{Key: "uploads/case-1/abc/doc.pdf", Size: 42}}
		server := newTestServer(t, nil, uploader, nil)

		body, _ := json.Marshal(map[string]string{
			"fileId":   "99",
			"fileName": "doc.pdf",
			"caseType": "CUSTODY",
		})
		resp := doRequest(t, http.MethodPost, server.URL+"/api/internal/cases/case-1/policeFiles/upload", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result police.UploadResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "uploads/case-1/abc/doc.pdf", result.Key)

		assert.Equal(t, "case-1", uploader.gotReq.CaseID)
		assert.Equal(t, "99", uploader.gotReq.FileID)
		assert.Equal(t, police.CaseType("CUSTODY"), uploader.gotReq.CaseType)
	})

	t.Run("rejects a request without file id or name", func(t *testing.T) {
		server := newTestServer(t, nil, &fakeUploader{}, nil)

		body, _ := json.Marshal(map[string]string{"fileName": "doc.pdf"})
		resp := doRequest(t, http.MethodPost, server.URL+"/api/internal/cases/case-1/policeFiles/upload", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		server := newTestServer(t, nil, &fakeUploader{}, nil)

		resp := doRequest(t, http.MethodPost, server.URL+"/api/internal/cases/case-1/policeFiles/upload", []byte("{"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("maps an upload failure through the sentinel", func(t *testing.T) {
		uploader := &fakeUploader{err: fmt.Errorf("fetch document: %w", sentinel.ErrNotFound)}
		server := newTestServer(t, nil, uploader, nil)

		body, _ := json.Marshal(map[string]string{"fileId": "99", "fileName": "doc.pdf"})
		resp := doRequest(t, http.MethodPost, server.URL+"/api/internal/cases/case-1/policeFiles/upload", body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandlePublishOutcome(t *testing.T) {
	t.Run("decodes documents and reports delivery", func(t *testing.T) {
		publisher := &fakePublisher{delivered: true}
		server := newTestServer(t, nil, nil, publisher)

		body, _ := json.Marshal(map[string]string{
			"caseType":       "CUSTODY",
			"caseState":      "ACCEPTED",
			"rulingPdf":      base64.StdEncoding.EncodeToString([]byte("ruling")),
			"courtRecordPdf": base64.StdEncoding.EncodeToString([]byte("record")),
		})
		resp := doRequest(t, http.MethodPut, server.URL+"/api/internal/cases/case-3/outcome", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Delivered bool `json:"delivered"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.True(t, out.Delivered)

		assert.Equal(t, "case-3", publisher.gotOutcome.CaseID)
		assert.Equal(t, []byte("ruling"), publisher.gotOutcome.RulingPDF)
		assert.Equal(t, []byte("record"), publisher.gotOutcome.CourtRecordPDF)
		assert.Nil(t, publisher.gotOutcome.RequestPDF)
	})

	t.Run("reports delivered false without an error status", func(t *testing.T) {
		server := newTestServer(t, nil, nil, &fakePublisher{delivered: false})

		body, _ := json.Marshal(map[string]string{"caseState": "ACCEPTED"})
		resp := doRequest(t, http.MethodPut, server.URL+"/api/internal/cases/case-3/outcome", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Delivered bool `json:"delivered"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.False(t, out.Delivered)
	})

	t.Run("rejects invalid base64 in a document field", func(t *testing.T) {
		server := newTestServer(t, nil, nil, &fakePublisher{})

		body, _ := json.Marshal(map[string]string{"rulingPdf": "not base64!!"})
		resp := doRequest(t, http.MethodPut, server.URL+"/api/internal/cases/case-3/outcome", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
