package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/polyglot/internal/platform"
)

type fakeDispatcher struct {
	updates []*platform.Update
}

func (d *fakeDispatcher) HandleUpdate(_ context.Context, update *platform.Update) {
	d.updates = append(d.updates, update)
}

type fakeHealth struct {
	err error
}

func (h *fakeHealth) Health(context.Context) error { return h.err }

func newTestServer(dispatcher *fakeDispatcher, health *fakeHealth) *Server {
	s := NewServer(dispatcher, health, zerolog.Nop(), Options{})
	// Handle inline so assertions see the dispatched update.
	s.dispatch = func(update *platform.Update) {
		dispatcher.HandleUpdate(context.Background(), update)
	}
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.newEcho().ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcceptsValidMessage(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestServer(dispatcher, &fakeHealth{})

	rec := doRequest(s, http.MethodPost, "/webhook", `{
		"update_id": 10,
		"message": {
			"message_id": 1,
			"from": {"id": 7, "first_name": "Ada"},
			"chat": {"id": 7, "type": "private"},
			"text": "hello"
		}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.updates) != 1 {
		t.Fatalf("expected 1 dispatched update, got %d", len(dispatcher.updates))
	}
	got := dispatcher.updates[0]
	if got.UpdateID != 10 || got.Message == nil || got.Message.Text != "hello" {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestWebhookRejectsSchemaViolation(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestServer(dispatcher, &fakeHealth{})

	// message without the required chat object
	rec := doRequest(s, http.MethodPost, "/webhook", `{
		"update_id": 10,
		"message": {"message_id": 1, "text": "hello"}
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.updates) != 0 {
		t.Fatal("invalid payload must not be dispatched")
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "fail" {
		t.Fatalf("status field = %q, want fail", resp.Status)
	}
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(&fakeDispatcher{}, &fakeHealth{})

	for _, body := range []string{"", "not json", `{"update_id": 1} trailing`} {
		rec := doRequest(s, http.MethodPost, "/webhook", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
	}
}

func TestWebhookAcceptsUnknownUpdateKind(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestServer(dispatcher, &fakeHealth{})

	// A poll update carries no payload the router reacts to, but the
	// platform still expects a 200.
	rec := doRequest(s, http.MethodPost, "/webhook", `{"update_id": 11, "poll": {"id": "x"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.updates) != 1 {
		t.Fatalf("expected 1 dispatched update, got %d", len(dispatcher.updates))
	}
	if kind := dispatcher.updates[0].Kind(); kind != "unknown" {
		t.Fatalf("kind = %q, want unknown", kind)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&fakeDispatcher{}, &fakeHealth{})
	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "polyglot") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHealthEndpointDatabaseDown(t *testing.T) {
	s := newTestServer(&fakeDispatcher{}, &fakeHealth{err: errors.New("connection refused")})
	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeDispatcher{}, &fakeHealth{})
	rec := doRequest(s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestValidateUpdatePayloadMembership(t *testing.T) {
	update, err := ValidateUpdatePayload([]byte(`{
		"update_id": 12,
		"my_chat_member": {
			"chat": {"id": -100, "type": "channel", "title": "News"},
			"from": {"id": 7},
			"old_chat_member": {"status": "left"},
			"new_chat_member": {"status": "administrator"}
		}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.MyChatMember == nil {
		t.Fatal("expected my_chat_member payload")
	}
	if update.MyChatMember.NewChatMember.Status != platform.MemberStatusAdministrator {
		t.Fatalf("unexpected status %q", update.MyChatMember.NewChatMember.Status)
	}
}

func TestValidateUpdatePayloadBadChatType(t *testing.T) {
	_, err := ValidateUpdatePayload([]byte(`{
		"update_id": 12,
		"channel_post": {"message_id": 1, "chat": {"id": -100, "type": "broadcast"}}
	}`))
	if err == nil {
		t.Fatal("expected schema violation for unknown chat type")
	}
}

func TestValidateUpdatePayloadMissingUpdateID(t *testing.T) {
	_, err := ValidateUpdatePayload([]byte(`{"message": {"message_id": 1, "chat": {"id": 1, "type": "private"}}}`))
	if err == nil {
		t.Fatal("expected schema violation for missing update_id")
	}
}
