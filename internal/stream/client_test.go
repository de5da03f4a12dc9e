package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer emulates the welcome → auth → subscribe → data flow.
func feedServer(t *testing.T, dataFrames int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"connected"}]`)); err != nil {
			return
		}

		// Auth
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var auth map[string]string
		if err := json.Unmarshal(msg, &auth); err != nil {
			t.Errorf("unmarshal auth: %v", err)
			return
		}
		if auth["action"] != "auth" || auth["key"] == "" || auth["secret"] == "" {
			t.Errorf("unexpected auth request: %s", msg)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"authenticated"}]`)); err != nil {
			return
		}

		// Subscribe
		_, msg, err = conn.ReadMessage()
		if err != nil {
			return
		}
		var sub struct {
			Action string   `json:"action"`
			Trades []string `json:"trades"`
			Quotes []string `json:"quotes"`
		}
		if err := json.Unmarshal(msg, &sub); err != nil {
			t.Errorf("unmarshal subscribe: %v", err)
			return
		}
		if sub.Action != "subscribe" {
			t.Errorf("expected subscribe action, got %s", sub.Action)
			return
		}

		for i := 0; i < dataFrames; i++ {
			frame := []byte(`[{"T":"t","S":"BTC/USD","p":50000.5}]`)
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}

		// Hold the connection open past the client's listen window.
		time.Sleep(2 * time.Second)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClient_HandshakeFlow(t *testing.T) {
	server := feedServer(t, 0)
	defer server.Close()

	client, welcome, err := Dial(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if !strings.Contains(string(welcome), "connected") {
		t.Errorf("unexpected welcome frame: %s", welcome)
	}

	resp, err := client.Authenticate("test-key", "test-secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !strings.Contains(string(resp), "authenticated") {
		t.Errorf("unexpected auth response: %s", resp)
	}

	if err := client.Subscribe([]string{"BTC/USD"}, []string{"BTC/USD"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
}

func TestClient_ListenCollectsFrames(t *testing.T) {
	server := feedServer(t, 3)
	defer server.Close()

	client, _, err := Dial(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Authenticate("test-key", "test-secret"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := client.Subscribe([]string{"BTC/USD"}, nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	var frames []string
	count, err := client.Listen(context.Background(), 500*time.Millisecond, func(msg []byte) {
		frames = append(frames, string(msg))
	}, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 frames, got %d", count)
	}
	if len(frames) != 3 || !strings.Contains(frames[0], "BTC/USD") {
		t.Errorf("unexpected frames: %v", frames)
	}
}

func TestClient_ListenQuietWindow(t *testing.T) {
	server := feedServer(t, 0)
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ReadInterval = 50 * time.Millisecond

	client, _, err := Dial(context.Background(), wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Authenticate("k", "s"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := client.Subscribe([]string{"BTC/USD"}, nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	quiet := 0
	count, err := client.Listen(context.Background(), 200*time.Millisecond, nil, func() { quiet++ })
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no frames, got %d", count)
	}
	if quiet == 0 {
		t.Error("expected quiet intervals to be reported")
	}
}

func TestClient_ListenRespectsContext(t *testing.T) {
	server := feedServer(t, 0)
	defer server.Close()

	client, _, err := Dial(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Authenticate("k", "s"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := client.Subscribe([]string{"BTC/USD"}, nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if _, err := client.Listen(ctx, time.Minute, nil, nil); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Listen must return promptly after cancellation")
	}
}

func TestDial_RefusedEndpoint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, _, err := Dial(ctx, "ws://127.0.0.1:1/feed", nil); err == nil {
		t.Error("expected dial error for refused endpoint")
	}
}
