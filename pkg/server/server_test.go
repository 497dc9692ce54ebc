package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aversoft/b24sync/pkg/services"
)

type mockLinker struct {
	result  *services.LinkResult
	err     error
	dealIDs []string
}

func (m *mockLinker) LinkDeal(ctx context.Context, dealID string) (*services.LinkResult, error) {
	m.dealIDs = append(m.dealIDs, dealID)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func postWebhook(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookFlatPayload(t *testing.T) {
	linker := &mockLinker{result: &services.LinkResult{Status: "ok"}}
	s := New(linker)

	rec := postWebhook(t, s, `{"deal_id": "500"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(linker.dealIDs) != 1 || linker.dealIDs[0] != "500" {
		t.Errorf("Expected deal 500 linked, got %v", linker.dealIDs)
	}

	var result services.LinkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Status != "ok" {
		t.Errorf("Expected ok status, got %+v", result)
	}
}

func TestWebhookEventEnvelope(t *testing.T) {
	linker := &mockLinker{result: &services.LinkResult{Status: "ok"}}
	s := New(linker)

	rec := postWebhook(t, s, `{"data": {"FIELDS": {"ID": 500}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(linker.dealIDs) != 1 || linker.dealIDs[0] != "500" {
		t.Errorf("Expected deal 500 from envelope, got %v", linker.dealIDs)
	}
}

func TestWebhookBareFields(t *testing.T) {
	linker := &mockLinker{result: &services.LinkResult{Status: "ok"}}
	s := New(linker)

	rec := postWebhook(t, s, `{"FIELDS": {"ID": "501"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(linker.dealIDs) != 1 || linker.dealIDs[0] != "501" {
		t.Errorf("Expected deal 501, got %v", linker.dealIDs)
	}
}

func TestWebhookMissingDealID(t *testing.T) {
	linker := &mockLinker{}
	s := New(linker)

	rec := postWebhook(t, s, `{"event": "ONCRMDEALUPDATE"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if len(linker.dealIDs) != 0 {
		t.Errorf("Expected no link attempt, got %v", linker.dealIDs)
	}
}

func TestWebhookBusinessErrorStays200(t *testing.T) {
	linker := &mockLinker{result: &services.LinkResult{Status: "error", Message: "missing required fields"}}
	s := New(linker)

	rec := postWebhook(t, s, `{"deal_id": "500"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected business errors over 200, got %d", rec.Code)
	}
}

func TestWebhookUnexpectedFailure(t *testing.T) {
	linker := &mockLinker{err: errors.New("portal unavailable")}
	s := New(linker)

	rec := postWebhook(t, s, `{"deal_id": "500"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
}
