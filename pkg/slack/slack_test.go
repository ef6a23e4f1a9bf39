package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:  server.URL,
		BotToken: "xoxb-test",
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestPostMessage(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotArgs map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotArgs); err != nil {
			t.Errorf("decode args: %v", err)
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))

	if err := client.PostMessage(context.Background(), "D123", "hello"); err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}
	if gotPath != "/chat.postMessage" {
		t.Fatalf("path = %q, want /chat.postMessage", gotPath)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotArgs["channel"] != "D123" || gotArgs["text"] != "hello" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestPostMessageAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"channel_not_found"}`)
	}))

	err := client.PostMessage(context.Background(), "D404", "hello")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("PostMessage() error = %v, want channel_not_found", err)
	}
}

func TestOpenConversation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.open" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"ok":true,"channel":{"id":"D555"}}`)
	}))

	channelID, err := client.OpenConversation(context.Background(), "U1")
	if err != nil {
		t.Fatalf("OpenConversation() error = %v", err)
	}
	if channelID != "D555" {
		t.Fatalf("channel id = %q, want D555", channelID)
	}
}

func TestSendDirect(t *testing.T) {
	t.Parallel()

	var paths []string
	var postedChannel string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/conversations.open":
			fmt.Fprint(w, `{"ok":true,"channel":{"id":"D9"}}`)
		case "/chat.postMessage":
			var args map[string]any
			defer r.Body.Close()
			json.NewDecoder(r.Body).Decode(&args)
			postedChannel, _ = args["channel"].(string)
			fmt.Fprint(w, `{"ok":true}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	if err := client.SendDirect(context.Background(), "U1", "hi"); err != nil {
		t.Fatalf("SendDirect() error = %v", err)
	}
	if len(paths) != 2 || paths[0] != "/conversations.open" || paths[1] != "/chat.postMessage" {
		t.Fatalf("call sequence = %v", paths)
	}
	if postedChannel != "D9" {
		t.Fatalf("posted channel = %q, want D9", postedChannel)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://slack.com/api"}); err == nil {
		t.Fatal("NewClient() accepted empty token")
	}
}
