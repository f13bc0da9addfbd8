package eventsink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

func TestWebhookSink_PostsEventPayload(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode posted payload: %v", err)
		}
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, nil, nil)
	sink.Publish(context.Background(), commit.Event{
		EventID:     "evt-1",
		EventType:   "created",
		TabularID:   uuid.New(),
		WarehouseID: uuid.New(),
		Timestamp:   time.Now(),
	})

	select {
	case payload := <-received:
		if payload.EventID != "evt-1" || payload.EventType != "created" {
			t.Errorf("unexpected payload: %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}
}

func TestWebhookSink_SwallowsTransportErrors(t *testing.T) {
	sink := NewWebhookSink("http://127.0.0.1:0/unreachable", nil, nil)
	sink.Publish(context.Background(), commit.Event{EventID: "evt-2"})
}

func TestWebhookVerifier_AllowDecisionReturnsNoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(verifyResponse{Decision: "allow"})
	}))
	defer srv.Close()

	v := NewWebhookVerifier(srv.URL, nil)
	if err := v.Verify(context.Background(), uuid.New(), nil, nil); err != nil {
		t.Errorf("expected no error for an allow decision, got %v", err)
	}
}

func TestWebhookVerifier_VetoDecisionReturnsContractViolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(verifyResponse{Decision: "veto", Reason: "schema evolution not allowed"})
	}))
	defer srv.Close()

	v := NewWebhookVerifier(srv.URL, nil)
	err := v.Verify(context.Background(), uuid.New(), nil, nil)
	if err == nil {
		t.Fatal("expected an error for a veto decision")
	}
	if !catalogerr.Is(err, catalogerr.TypeContractViolated) {
		t.Errorf("expected a ContractViolated error, got %v", err)
	}
}

func TestWebhookVerifier_UnreachableServerReturnsError(t *testing.T) {
	v := NewWebhookVerifier("http://127.0.0.1:0/unreachable", nil)
	if err := v.Verify(context.Background(), uuid.New(), nil, nil); err == nil {
		t.Error("expected an error when the contract verifier is unreachable")
	}
}
