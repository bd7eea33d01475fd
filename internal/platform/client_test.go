package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSendMessage(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	if err := client.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ChatID != 42 || got.Text != "hello" || got.ReplyTo != 0 {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestClientReplyCarriesReplyTo(t *testing.T) {
	t.Parallel()

	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if err := client.Reply(context.Background(), 42, 7, "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ReplyTo != 7 {
		t.Fatalf("expected reply_to 7, got %d", got.ReplyTo)
	}
}

func TestClientGetChatMemberStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getChatMember" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"user":{"id":7},"status":"administrator"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	status, err := client.GetChatMemberStatus(context.Background(), -100, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != MemberStatusAdministrator {
		t.Fatalf("expected administrator, got %q", status)
	}
}

func TestClientNon2xxIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	err := client.SendMessage(context.Background(), 42, "hello")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected response detail in error, got %v", err)
	}
}

func TestUpdateKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		update *Update
		want   string
	}{
		{&Update{Message: &Message{}}, "message"},
		{&Update{EditedMessage: &Message{}}, "edited_message"},
		{&Update{ChannelPost: &Message{}}, "channel_post"},
		{&Update{EditedChannelPost: &Message{}}, "edited_channel_post"},
		{&Update{MyChatMember: &ChatMemberUpdate{}}, "my_chat_member"},
		{&Update{}, "unknown"},
		{nil, "unknown"},
	}
	for _, tc := range cases {
		if got := tc.update.Kind(); got != tc.want {
			t.Errorf("Kind() = %q, want %q", got, tc.want)
		}
	}
}
