package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
)

// stubRunner echoes the query and records resets.
type stubRunner struct {
	mu     sync.Mutex
	resets []string
}

func (r *stubRunner) Invoke(_ context.Context, in model.QueryInput) *model.Reply {
	return &model.Reply{
		Text: "echo: " + in.Query,
		ToolCalls: []model.ToolCallRecord{
			{Name: "list_restaurants", Args: map[string]any{}, Result: map[string]any{"count": float64(0)}},
		},
	}
}

func (r *stubRunner) Reset(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, conversationID)
	return nil
}

func dial(t *testing.T, runner *stubRunner) *websocket.Conn {
	t.Helper()
	srv := New(Config{AllowedOrigins: []string{"*"}}, runner)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg
}

func TestWebSocket_WelcomeFrame(t *testing.T) {
	conn := dial(t, &stubRunner{})

	welcome := readFrame(t, conn)
	if welcome.Type != "reply" {
		t.Fatalf("expected reply frame, got %q", welcome.Type)
	}
	if welcome.ConversationID == "" {
		t.Error("welcome frame must carry the conversation id")
	}
	if !strings.Contains(welcome.Text, "FoodieSpot") {
		t.Errorf("unexpected welcome text: %q", welcome.Text)
	}
}

func TestWebSocket_ChatRoundTrip(t *testing.T) {
	conn := dial(t, &stubRunner{})
	readFrame(t, conn) // welcome

	if err := conn.WriteJSON(ClientMessage{Type: "chat", Text: "thai food"}); err != nil {
		t.Fatal(err)
	}
	reply := readFrame(t, conn)
	if reply.Type != "reply" || reply.Text != "echo: thai food" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "list_restaurants" {
		t.Errorf("reply should carry audit entries, got %+v", reply.ToolCalls)
	}
}

func TestWebSocket_ResetFrame(t *testing.T) {
	runner := &stubRunner{}
	conn := dial(t, runner)
	welcome := readFrame(t, conn)

	if err := conn.WriteJSON(ClientMessage{Type: "reset"}); err != nil {
		t.Fatal(err)
	}
	status := readFrame(t, conn)
	if status.Type != "status" {
		t.Fatalf("expected status frame, got %+v", status)
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.resets) != 1 || runner.resets[0] != welcome.ConversationID {
		t.Errorf("reset not forwarded for session, got %v", runner.resets)
	}
}

func TestWebSocket_RejectsEmptyAndUnknownFrames(t *testing.T) {
	conn := dial(t, &stubRunner{})
	readFrame(t, conn) // welcome

	if err := conn.WriteJSON(ClientMessage{Type: "chat", Text: "   "}); err != nil {
		t.Fatal(err)
	}
	if frame := readFrame(t, conn); frame.Type != "error" {
		t.Errorf("expected error for empty chat, got %+v", frame)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "upload"}); err != nil {
		t.Fatal(err)
	}
	if frame := readFrame(t, conn); frame.Type != "error" {
		t.Errorf("expected error for unknown type, got %+v", frame)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(Config{}, &stubRunner{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
