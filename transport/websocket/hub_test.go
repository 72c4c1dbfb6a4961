package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/message"
	"github.com/wricardo/battleships-server/game/service"
	"github.com/wricardo/battleships-server/game/session"
)

type testServer struct {
	server  *httptest.Server
	hub     *Hub
	clients *client.Registry
	games   *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	ids := id.NewAllocator(0)
	clients := client.NewRegistry(ids, message.Encode, log)
	games := session.NewManager(ids, clients, log)
	dispatcher := service.NewDispatcher(games, clients, nil, log)
	hub := NewHub(dispatcher, nil, log)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
		games.Close()
	})
	return &testServer{server: server, hub: hub, clients: clients, games: games}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func writeFrame(t *testing.T, ws *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, _ := json.Marshal(message.Envelope{Type: typ, ID: "ref-" + typ, Payload: raw})
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) message.Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var env message.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	return env
}

func join(t *testing.T, ws *websocket.Conn, name string, role client.Role) id.ID {
	t.Helper()
	writeFrame(t, ws, message.TypeServerJoinRequest, message.ServerJoinRequest{Name: name, ClientType: role})
	env := readFrame(t, ws)
	if env.Type != message.TypeServerJoinResponse {
		t.Fatalf("expected %s, got %s", message.TypeServerJoinResponse, env.Type)
	}
	var resp message.ServerJoinResponse
	_ = json.Unmarshal(env.Payload, &resp)
	return resp.ClientID
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHub_HandshakeAndRequests(t *testing.T) {
	s := newTestServer(t)
	ws := s.dial(t)

	clientID := join(t, ws, "alice", client.Player)
	if s.clients.Lookup(clientID) == nil {
		t.Fatal("expected client to be registered after handshake")
	}

	writeFrame(t, ws, message.TypeLobbyRequest, struct{}{})
	if env := readFrame(t, ws); env.Type != message.TypeLobbyResponse {
		t.Errorf("expected %s, got %s", message.TypeLobbyResponse, env.Type)
	}

	writeFrame(t, ws, message.TypeGameJoinPlayerRequest, message.GameJoinPlayerRequest{GameID: 404})
	env := readFrame(t, ws)
	if env.Type != message.TypeErrorNotification {
		t.Fatalf("expected %s, got %s", message.TypeErrorNotification, env.Type)
	}
	var notice message.ErrorNotification
	_ = json.Unmarshal(env.Payload, &notice)
	if notice.ErrorType != service.ErrorTypeNoSuchGame || notice.ReferenceID != "ref-"+message.TypeGameJoinPlayerRequest {
		t.Errorf("unexpected notification %+v", notice)
	}
}

func TestHub_MalformedFrame(t *testing.T) {
	s := newTestServer(t)
	ws := s.dial(t)
	join(t, ws, "alice", client.Player)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	env := readFrame(t, ws)
	var notice message.ErrorNotification
	_ = json.Unmarshal(env.Payload, &notice)
	if env.Type != message.TypeErrorNotification || notice.ErrorType != service.ErrorTypeInvalidArgument {
		t.Errorf("expected InvalidArgument notification, got %s %+v", env.Type, notice)
	}

	writeFrame(t, ws, message.TypeLobbyRequest, struct{}{})
	if env := readFrame(t, ws); env.Type != message.TypeLobbyResponse {
		t.Errorf("expected the connection to survive a bad frame, got %s", env.Type)
	}
}

func TestHub_HandshakeRequired(t *testing.T) {
	s := newTestServer(t)
	ws := s.dial(t)

	writeFrame(t, ws, message.TypeLobbyRequest, struct{}{})
	env := readFrame(t, ws)
	var notice message.ErrorNotification
	_ = json.Unmarshal(env.Payload, &notice)
	if env.Type != message.TypeErrorNotification || notice.ErrorType != service.ErrorTypeNotAllowed {
		t.Fatalf("expected NotAllowed notification, got %s %+v", env.Type, notice)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close after failed handshake, got %v", err)
	}
	if s.clients.Count() != 0 {
		t.Errorf("expected no registered client, got %d", s.clients.Count())
	}
}

func TestHub_DisconnectLeavesGame(t *testing.T) {
	s := newTestServer(t)
	inst, err := s.games.CreateGame(engine.Configuration{
		MaxPlayerCount: 2, Width: 10, Height: 10, ShotCount: 1, RoundTime: 1000,
		Ships: map[int][]engine.Point{1: {{X: 0, Y: 0}}},
	}, "g", false)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	ws := s.dial(t)
	clientID := join(t, ws, "alice", client.Player)
	writeFrame(t, ws, message.TypeGameJoinPlayerRequest, message.GameJoinPlayerRequest{GameID: inst.ID()})
	if env := readFrame(t, ws); env.Type != message.TypeGameJoinPlayerResponse {
		t.Fatalf("expected %s, got %s", message.TypeGameJoinPlayerResponse, env.Type)
	}

	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()

	waitFor(t, "client cleanup", func() bool { return s.clients.Lookup(clientID) == nil })
	waitFor(t, "game cleanup", func() bool { return !inst.HasClient(clientID) })
	waitFor(t, "connection cleanup", func() bool { return s.hub.Count() == 0 })
}

func TestConn_SlowConsumer(t *testing.T) {
	hub := &Hub{log: zap.NewNop().Sugar(), conns: map[*Conn]struct{}{}}
	c := &Conn{hub: hub, send: make(chan []byte, 1), done: make(chan struct{})}

	if err := c.Send([]byte("a")); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := c.Send([]byte("b")); !errors.Is(err, ErrSlowConsumer) {
		t.Fatalf("expected ErrSlowConsumer, got %v", err)
	}
	if err := c.Send([]byte("c")); !errors.Is(err, ErrConnClosed) {
		t.Errorf("expected ErrConnClosed after drop, got %v", err)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://ok.example"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://ok.example", true},
		{"https://evil.example", false},
		{"", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q: expected %v, got %v", tt.origin, tt.want, got)
		}
	}

	if !originChecker(nil)(httptest.NewRequest(http.MethodGet, "/ws", nil)) {
		t.Error("expected empty allow list to accept everything")
	}
}
