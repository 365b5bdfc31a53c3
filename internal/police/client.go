package police

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"courtbridge/internal/platform/config"
	"courtbridge/internal/platform/metrics"
	"courtbridge/pkg/domain"
	"courtbridge/pkg/platform/circuit"
	"courtbridge/pkg/platform/sentinel"
)

// Client is the preconfigured X-Road transport towards the police registry.
// Every outbound call passes through it: mutual-TLS credentials, the client
// and API-key headers, and the single availability gate all live here.
type Client struct {
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	listPath   string
	pdfPath    string
	updatePath string

	xroadClientID string
	apiKey        string
	timeout       time.Duration

	// available is read before every call. The gateway never flips it after
	// startup; an external health collaborator owns transitions.
	available atomic.Bool

	// breaker trips on consecutive transport failures and 5xx responses, so a
	// dying registry is not hammered while it recovers.
	breaker *circuit.Breaker
}

// NewClient validates configuration and builds the transport. Malformed
// configuration (missing path components, unreadable TLS material) is a
// startup-time fatal condition.
func NewClient(cfg config.PoliceConfig, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if cfg.XRoadBasePath == "" || cfg.XRoadMemberClass == "" || cfg.MemberCode == "" || cfg.APIPath == "" {
		return nil, fmt.Errorf("police transport: x-road path components must all be set")
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	base := BuildPath(cfg.XRoadBasePath, cfg.XRoadMemberClass, cfg.MemberCode, cfg.APIPath)

	// The document-content endpoint exists in two protocol generations; the
	// generation is fixed once here, never branched at call sites.
	pdfPath := base + "/GetPDFDocumentByID/"
	if cfg.Version.AtLeast(domain.APIVersionV2) {
		pdfPath = base + "/V2/GetPDFDocumentByID/"
	}

	c := &Client{
		http:          &http.Client{Transport: transport},
		logger:        logger,
		metrics:       m,
		tracer:        otel.Tracer("courtbridge/police"),
		listPath:      base + "/V2/GetDocumentListById/",
		pdfPath:       pdfPath,
		updatePath:    base + "/V2/UpdateRVCase/",
		xroadClientID: cfg.XRoadClientID,
		apiKey:        cfg.APIKey,
		timeout:       cfg.RequestTimeout,
		breaker:       circuit.New("police-registry"),
	}
	c.available.Store(cfg.Available)
	return c, nil
}

func buildTransport(cfg config.PoliceConfig) (*http.Transport, error) {
	if cfg.TLSCertFile == "" && cfg.TLSKeyFile == "" && cfg.TLSCAFile == "" {
		return http.DefaultTransport.(*http.Transport).Clone(), nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("police transport: load client key pair: %w", err)
	}

	caPEM, err := os.ReadFile(cfg.TLSCAFile)
	if err != nil {
		return nil, fmt.Errorf("police transport: read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("police transport: CA bundle contains no certificates")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}
	return transport, nil
}

// Available reports the upstream gate state.
func (c *Client) Available() bool {
	return c.available.Load()
}

// SetAvailable flips the gate. Exists for an external health collaborator
// and for tests; nothing in this gateway calls it after startup.
func (c *Client) SetAvailable(v bool) {
	c.available.Store(v)
}

// GetDocumentList retrieves the raw document-listing payload for a case.
func (c *Client) GetDocumentList(ctx context.Context, caseID string) ([]byte, int, error) {
	return c.do(ctx, "GetDocumentListById", http.MethodGet, c.listPath+caseID, nil)
}

// GetPDFDocument retrieves the raw content response for one document.
func (c *Client) GetPDFDocument(ctx context.Context, fileID string) ([]byte, int, error) {
	return c.do(ctx, "GetPDFDocumentByID", http.MethodGet, c.pdfPath+fileID, nil)
}

// UpdateCase pushes a case outcome upstream.
func (c *Client) UpdateCase(ctx context.Context, caseID string, body []byte) ([]byte, int, error) {
	return c.do(ctx, "UpdateRVCase", http.MethodPut, c.updatePath+caseID, body)
}

func (c *Client) do(ctx context.Context, operation, method, url string, body []byte) ([]byte, int, error) {
	if !c.available.Load() {
		c.metrics.ObserveUpstream(operation, "unavailable")
		return nil, 0, fmt.Errorf("police registry %s: %w", operation, sentinel.ErrUnavailable)
	}
	if !c.breaker.Allow() {
		c.metrics.ObserveUpstream(operation, "circuit_open")
		return nil, 0, fmt.Errorf("police registry %s: circuit open: %w", operation, sentinel.ErrUnavailable)
	}

	ctx, span := c.tracer.Start(ctx, "police."+operation,
		trace.WithAttributes(attribute.String("police.operation", operation)))
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("X-Road-Client", c.xroadClientID)
	req.Header.Set("X-API-KEY", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveUpstream(operation, "transport_error")
		c.recordOutcome(ctx, false)
		return nil, 0, fmt.Errorf("call %s: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveUpstream(operation, "read_error")
		c.recordOutcome(ctx, false)
		return nil, resp.StatusCode, fmt.Errorf("read %s response: %w", operation, err)
	}

	c.metrics.ObserveUpstream(operation, fmt.Sprintf("%dxx", resp.StatusCode/100))
	// 4xx responses are the registry answering; only 5xx counts against it.
	c.recordOutcome(ctx, resp.StatusCode < 500)
	return respBody, resp.StatusCode, nil
}

func (c *Client) recordOutcome(ctx context.Context, ok bool) {
	if ok {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "police registry circuit closed")
		}
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "police registry circuit opened")
	}
}
