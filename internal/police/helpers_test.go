package police

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"courtbridge/internal/audit"
	"courtbridge/internal/platform/config"
	"courtbridge/internal/platform/metrics"
)

func testPoliceConfig(baseURL string, available bool) config.PoliceConfig {
	return config.PoliceConfig{
		XRoadBasePath:    baseURL,
		XRoadMemberClass: "GOV",
		MemberCode:       "10005",
		APIPath:          "api/Rettarvarsla",
		XRoadClientID:    "GOV/10001/Court",
		APIKey:           "test-key",
		Available:        available,
		Version:          "v2",
	}
}

func newTestClient(t *testing.T, baseURL string, available bool) *Client {
	t.Helper()
	client, err := NewClient(testPoliceConfig(baseURL, available), testLogger(), metrics.NewForTesting())
	require.NoError(t, err)
	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// sinkRecorder captures audit events for assertions.
type sinkRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *sinkRecorder) ReportFailure(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *sinkRecorder) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, len(r.events))
	copy(out, r.events)
	return out
}
