package eventsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// WebhookSink publishes each catalog event as an HTTP POST, adapted
// from the alerting package's generic webhook notification channel.
// Per spec.md §4.6, publication is fire-and-forget: Publish never
// returns an error to its caller, only logs one.
type WebhookSink struct {
	url        string
	headers    map[string]string
	httpClient *http.Client
	logger     *slog.Logger
}

// WebhookPayload is the JSON body posted for every event.
type WebhookPayload struct {
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	TabularID     string    `json:"tabular_id"`
	WarehouseID   string    `json:"warehouse_id"`
	NamespacePath []string  `json:"namespace_path"`
	Actor         string    `json:"actor"`
	CorrelationID string    `json:"correlation_id"`
}

// NewWebhookSink creates a WebhookSink posting to url with a 30s
// timeout, matching the alerting webhook channel's client.
func NewWebhookSink(url string, headers map[string]string, logger *slog.Logger) *WebhookSink {
	if logger == nil {
		logger = slog.Default()
	}
	if headers == nil {
		headers = make(map[string]string)
	}
	return &WebhookSink{
		url:     url,
		headers: headers,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "webhook-event-sink"),
	}
}

// Publish satisfies commit.EventSink. Any failure — marshal, transport,
// non-2xx status — is logged and swallowed.
func (s *WebhookSink) Publish(ctx context.Context, event commit.Event) {
	payload := WebhookPayload{
		Version:       "1.0",
		Timestamp:     event.Timestamp,
		EventID:       event.EventID,
		EventType:     event.EventType,
		TabularID:     event.TabularID.String(),
		WarehouseID:   event.WarehouseID.String(),
		NamespacePath: event.NamespacePath,
		Actor:         event.Actor,
		CorrelationID: event.CorrelationID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload", "error", err, "event_id", event.EventID)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to build event webhook request", "error", err, "event_id", event.EventID)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Lakekeeper-Events/1.0")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("failed to deliver event webhook", "error", err, "event_id", event.EventID)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Warn("event webhook returned non-success status",
			"status_code", resp.StatusCode, "body", string(respBody), "event_id", event.EventID)
		return
	}

	s.logger.Debug("event webhook delivered", "event_id", event.EventID, "status_code", resp.StatusCode)
}

// WebhookVerifier is the webhook-backed ContractVerifier variant: it
// posts the before/after metadata and interprets the response body as
// an allow/veto decision, per spec.md §4.6's "verify(entity_id, before,
// after) returning allow or veto(reason)".
type WebhookVerifier struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookVerifier creates a WebhookVerifier posting to url.
func NewWebhookVerifier(url string, logger *slog.Logger) *WebhookVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookVerifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "webhook-contract-verifier"),
	}
}

type verifyRequest struct {
	TabularID string                `json:"tabular_id"`
	Before    *model.TableMetadata  `json:"before,omitempty"`
	After     *model.TableMetadata  `json:"after"`
}

type verifyResponse struct {
	Decision string `json:"decision"` // "allow" | "veto"
	Reason   string `json:"reason,omitempty"`
}

// Verify satisfies commit.ContractVerifier. Unlike Publish, a
// transport failure here is surfaced to the caller rather than
// swallowed: the verifier is a synchronous pre-commit gate, and a
// reachability failure must not silently become an allow.
func (v *WebhookVerifier) Verify(ctx context.Context, tabularID model.TabularID, before, after *model.TableMetadata) error {
	body, err := json.Marshal(verifyRequest{TabularID: tabularID.String(), Before: before, After: after})
	if err != nil {
		return fmt.Errorf("marshal contract verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build contract verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contract verifier unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("contract verifier returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode contract verification response: %w", err)
	}

	if decoded.Decision == "veto" {
		return catalogerr.ContractViolated(decoded.Reason)
	}
	return nil
}

var (
	_ commit.EventSink        = (*WebhookSink)(nil)
	_ commit.ContractVerifier = (*WebhookVerifier)(nil)
)
