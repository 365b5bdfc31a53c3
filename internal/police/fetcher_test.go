package police

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbridge/internal/audit"
	"courtbridge/pkg/platform/sentinel"
)

const listingFixture = `{
	"malsnumer": "007-2021-1",
	"skjol": [
		{"rvMalSkjolMals_ID": 9, "heitiSkjals": "skra", "malsnumer": "007-2021-1", "domsSkjalsFlokkun": "3.gr", "dagsStofnad": "2021-01-01"}
	],
	"malseinings": []
}`

func newListingServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.Contains(r.URL.Path, "/V2/GetDocumentListById/"))
		assert.Equal(t, "GOV/10001/Court", r.Header.Get("X-Road-Client"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestListCaseFiles(t *testing.T) {
	ctx := context.Background()
	actor := Actor{NationalID: "0101803019", Institution: "Héraðsdómur Reykjavíkur"}

	t.Run("maps a well-formed listing", func(t *testing.T) {
		srv := newListingServer(t, http.StatusOK, listingFixture)
		defer srv.Close()

		sink := &sinkRecorder{}
		fetcher := NewFetcher(newTestClient(t, srv.URL, true), nil, sink, testLogger())

		files, err := fetcher.ListCaseFiles(ctx, "case-1", actor)
		require.NoError(t, err)
		require.Len(t, files, 1)

		assert.Equal(t, "9", files[0].ID)
		assert.Equal(t, "skra.pdf", files[0].Name)
		assert.Equal(t, "007-2021-1", files[0].PoliceCaseNumber)
		require.NotNil(t, files[0].Chapter)
		assert.Equal(t, 2, *files[0].Chapter)
		assert.Equal(t, "2021-01-01", files[0].DisplayDate)
		assert.Empty(t, sink.Events())
	})

	t.Run("unavailable upstream reads as not found without audit", func(t *testing.T) {
		sink := &sinkRecorder{}
		fetcher := NewFetcher(newTestClient(t, "http://unreachable.test", false), nil, sink, testLogger())

		_, err := fetcher.ListCaseFiles(ctx, "case-1", actor)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
		assert.Empty(t, sink.Events())
	})

	t.Run("non-2xx with a stack trace body reads as not found without audit", func(t *testing.T) {
		srv := newListingServer(t, http.StatusInternalServerError,
			"System.NullReferenceException: Object reference not set\n   at RV.Controllers...")
		defer srv.Close()

		sink := &sinkRecorder{}
		fetcher := NewFetcher(newTestClient(t, srv.URL, true), nil, sink, testLogger())

		_, err := fetcher.ListCaseFiles(ctx, "case-1", actor)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
		assert.Empty(t, sink.Events())
	})

	t.Run("schema failure escalates to bad gateway with one audit event", func(t *testing.T) {
		srv := newListingServer(t, http.StatusOK, `{"skjol": "not-an-array"}`)
		defer srv.Close()

		sink := &sinkRecorder{}
		fetcher := NewFetcher(newTestClient(t, srv.URL, true), nil, sink, testLogger())

		_, err := fetcher.ListCaseFiles(ctx, "case-1", actor)
		assert.True(t, errors.Is(err, sentinel.ErrBadGateway))

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionListCaseFiles, events[0].Action)
		assert.Equal(t, "case-1", events[0].CaseID)
		assert.Equal(t, actor.NationalID, events[0].ActorID)
		assert.Equal(t, actor.Institution, events[0].Institution)
	})

	t.Run("network failure escalates to bad gateway with one audit event", func(t *testing.T) {
		srv := newListingServer(t, http.StatusOK, listingFixture)
		srv.Close() // connection refused from here on

		sink := &sinkRecorder{}
		fetcher := NewFetcher(newTestClient(t, srv.URL, true), nil, sink, testLogger())

		_, err := fetcher.ListCaseFiles(ctx, "case-1", actor)
		assert.True(t, errors.Is(err, sentinel.ErrBadGateway))
		assert.Len(t, sink.Events(), 1)
	})
}

func TestGetCaseInfo(t *testing.T) {
	ctx := context.Background()
	actor := Actor{NationalID: "0101803019"}

	t.Run("dedupes case numbers in first-seen order", func(t *testing.T) {
		srv := newListingServer(t, http.StatusOK, `{
			"malsnumer": "007-2021-9",
			"skjol": [
				{"rvMalSkjolMals_ID": 1, "heitiSkjals": "a", "malsnumer": "007-2021-1"},
				{"rvMalSkjolMals_ID": 2, "heitiSkjals": "b", "malsnumer": "007-2021-2"},
				{"rvMalSkjolMals_ID": 3, "heitiSkjals": "c", "malsnumer": "007-2021-1"},
				{"rvMalSkjolMals_ID": 4, "heitiSkjals": "d", "malsnumer": "007-2021-1"}
			],
			"malseinings": []
		}`)
		defer srv.Close()

		fetcher := NewFetcher(newTestClient(t, srv.URL, true), nil, &sinkRecorder{}, testLogger())

		records, err := fetcher.GetCaseInfo(ctx, "case-1", actor)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "007-2021-9", records[0].PoliceCaseNumber)
		assert.Equal(t, "007-2021-1", records[1].PoliceCaseNumber)
		assert.Equal(t, "007-2021-2", records[2].PoliceCaseNumber)
	})

	t.Run("case units enrich known records and append unseen numbers bare", func(t *testing.T) {
		srv := newListingServer(t, http.StatusOK, `{
			"malsnumer": "007-2021-9",
			"skjol": [
				{"rvMalSkjolMals_ID": 1, "heitiSkjals": "a", "malsnumer": "007-2021-1"}
			],
			"malseinings": [
				{"upprunalegtMalsnumer": "007-2021-1", "vettvangur": "Reykjavík", "brotFra": "2021-02-02T10:00:00Z"},
				{"upprunalegtMalsnumer": "007-2021-5", "vettvangur": "Akureyri", "brotFra": "2021-03-03T10:00:00Z"}
			]
		}`)
		defer srv.Close()

		fetcher := NewFetcher(newTestClient(t, srv.URL, true), nil, &sinkRecorder{}, testLogger())

		records, err := fetcher.GetCaseInfo(ctx, "case-1", actor)
		require.NoError(t, err)
		require.Len(t, records, 3)

		// Known number: enriched with place and date.
		assert.Equal(t, "007-2021-1", records[1].PoliceCaseNumber)
		assert.Equal(t, "Reykjavík", records[1].Place)
		require.NotNil(t, records[1].Date)
		assert.Equal(t, time.Date(2021, 2, 2, 10, 0, 0, 0, time.UTC), records[1].Date.UTC())

		// Unseen number: appended with only the number populated.
		assert.Equal(t, "007-2021-5", records[2].PoliceCaseNumber)
		assert.Empty(t, records[2].Place)
		assert.Nil(t, records[2].Date)
	})

	t.Run("failures follow the read policy", func(t *testing.T) {
		sink := &sinkRecorder{}
		fetcher := NewFetcher(newTestClient(t, "http://unreachable.test", false), nil, sink, testLogger())

		_, err := fetcher.GetCaseInfo(ctx, "case-1", actor)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
		assert.Empty(t, sink.Events())
	})
}
