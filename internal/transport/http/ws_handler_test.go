package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mingle-im/mingle-server/internal/auth"
	"github.com/mingle-im/mingle-server/internal/config"
	"github.com/mingle-im/mingle-server/internal/core"
	"github.com/mingle-im/mingle-server/internal/log"
	"github.com/mingle-im/mingle-server/internal/proto"
	"github.com/mingle-im/mingle-server/internal/store/sqlite"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	hub := core.NewHub(st, logger)

	cfg := config.Default()
	cfg.Addr = ":0"
	server := NewServer(&cfg, hub, st, authService, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func registerUser(t *testing.T, ts *httptest.Server, username string) (int64, string) {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: "password123"})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	var out AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.User.ID, out.Token
}

type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// mustReadEvent reads frames until the named event arrives, skipping
// unrelated broadcasts like online_users.
func mustReadEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) json.RawMessage {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read waiting for %q: %v", name, err)
		}
		if frame.Type == proto.OutboundTypeError {
			t.Fatalf("unexpected error frame waiting for %q: %+v", name, frame.Error)
		}
		if frame.Event == name {
			return frame.Data
		}
	}
}

func mustReadError(t *testing.T, ctx context.Context, conn *websocket.Conn, code string) {
	t.Helper()

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read waiting for error: %v", err)
	}
	if frame.Type != proto.OutboundTypeError || frame.Error == nil || frame.Error.Code != code {
		t.Fatalf("expected error %q, got %+v", code, frame)
	}
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// seedDirectMessages sends direct messages over a short-lived websocket
// connection, waiting for each ack so they are persisted before returning.
func seedDirectMessages(t *testing.T, ts *httptest.Server, senderID int64, senderToken string, receiverID int64, contents ...string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: senderID, Token: senderToken})
	mustReadEvent(t, ctx, conn, core.EventOnlineUsers)

	for _, content := range contents {
		sendInbound(t, ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{
			SenderID:   senderID,
			ReceiverID: &receiverID,
			Content:    content,
		})
		mustReadEvent(t, ctx, conn, core.EventMessageSent)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketDirectMessageFlow(t *testing.T) {
	ts := startTestServer(t)
	aliceID, aliceToken := registerUser(t, ts, "alice")
	bobID, bobToken := registerUser(t, ts, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{UserID: aliceID, Token: aliceToken})
	mustReadEvent(t, ctx, connA, core.EventOnlineUsers)

	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{UserID: bobID, Token: bobToken})
	mustReadEvent(t, ctx, connB, core.EventOnlineUsers)

	sendInbound(t, ctx, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		SenderID:   aliceID,
		ReceiverID: &bobID,
		Content:    "hi there",
	})

	var delivered core.MessagePayload
	if err := json.Unmarshal(mustReadEvent(t, ctx, connB, core.EventReceiveMessage), &delivered); err != nil {
		t.Fatalf("unmarshal receive_message: %v", err)
	}
	if delivered.SenderID != aliceID || delivered.Content != "hi there" || delivered.SenderName != "alice" {
		t.Fatalf("unexpected delivery: %+v", delivered)
	}

	var ack core.MessagePayload
	if err := json.Unmarshal(mustReadEvent(t, ctx, connA, core.EventMessageSent), &ack); err != nil {
		t.Fatalf("unmarshal message_sent: %v", err)
	}
	if ack.ID != delivered.ID {
		t.Fatalf("ack id mismatch: %d != %d", ack.ID, delivered.ID)
	}

	// Bob marks the conversation as read; alice's side learns about it.
	sendInbound(t, ctx, connB, proto.InboundTypeMarkRead, proto.MarkReadData{
		SenderID:   aliceID,
		ReceiverID: bobID,
	})
	var receipt core.ReadReceiptPayload
	if err := json.Unmarshal(mustReadEvent(t, ctx, connA, core.EventMessagesRead), &receipt); err != nil {
		t.Fatalf("unmarshal messages_read: %v", err)
	}
	if receipt.ReaderID != bobID {
		t.Fatalf("unexpected reader: %+v", receipt)
	}
}

func TestWebSocketTypingIndicator(t *testing.T) {
	ts := startTestServer(t)
	aliceID, aliceToken := registerUser(t, ts, "alice")
	bobID, bobToken := registerUser(t, ts, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)
	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{UserID: aliceID, Token: aliceToken})
	mustReadEvent(t, ctx, connA, core.EventOnlineUsers)
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{UserID: bobID, Token: bobToken})
	mustReadEvent(t, ctx, connB, core.EventOnlineUsers)

	sendInbound(t, ctx, connA, proto.InboundTypeTyping, proto.TypingData{
		SenderID:   aliceID,
		ReceiverID: &bobID,
		IsTyping:   true,
	})

	var typing core.TypingPayload
	if err := json.Unmarshal(mustReadEvent(t, ctx, connB, core.EventTypingStatus), &typing); err != nil {
		t.Fatalf("unmarshal typing_status: %v", err)
	}
	if typing.SenderID != aliceID || !typing.IsTyping {
		t.Fatalf("unexpected typing payload: %+v", typing)
	}
}

func TestWebSocketCallSignaling(t *testing.T) {
	ts := startTestServer(t)
	aliceID, aliceToken := registerUser(t, ts, "alice")
	bobID, bobToken := registerUser(t, ts, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)
	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{UserID: aliceID, Token: aliceToken})
	mustReadEvent(t, ctx, connA, core.EventOnlineUsers)
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{UserID: bobID, Token: bobToken})
	mustReadEvent(t, ctx, connB, core.EventOnlineUsers)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	sendInbound(t, ctx, connA, proto.InboundTypeCallUser, proto.CallUserData{
		UserToCall: bobID,
		SignalData: offer,
		From:       aliceID,
		Name:       "alice",
	})

	var incoming core.IncomingCallPayload
	if err := json.Unmarshal(mustReadEvent(t, ctx, connB, core.EventIncomingCall), &incoming); err != nil {
		t.Fatalf("unmarshal incoming_call: %v", err)
	}
	if incoming.From != aliceID || incoming.Name != "alice" || string(incoming.Signal) != string(offer) {
		t.Fatalf("unexpected incoming call: %+v", incoming)
	}

	answer := json.RawMessage(`{"type":"answer"}`)
	sendInbound(t, ctx, connB, proto.InboundTypeAnswerCall, proto.AnswerCallData{To: aliceID, Signal: answer})
	got := mustReadEvent(t, ctx, connA, core.EventCallAccepted)
	if string(got) != string(answer) {
		t.Fatalf("answer signal mangled: %s", got)
	}

	sendInbound(t, ctx, connB, proto.InboundTypeEndCall, proto.CallTargetData{To: aliceID})
	mustReadEvent(t, ctx, connA, core.EventCallEnded)
}

func TestWebSocketJoinRejectsInvalidToken(t *testing.T) {
	ts := startTestServer(t)
	aliceID, _ := registerUser(t, ts, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: aliceID, Token: "garbage"})
	mustReadError(t, ctx, conn, core.ErrCodeUnauthorized)
}

func TestWebSocketSecondJoinRejected(t *testing.T) {
	ts := startTestServer(t)
	aliceID, aliceToken := registerUser(t, ts, "alice")
	bobID, bobToken := registerUser(t, ts, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: aliceID, Token: aliceToken})
	mustReadEvent(t, ctx, conn, core.EventOnlineUsers)

	// Re-joining as another user must not rebind the connection; otherwise
	// alice's presence and channel registrations would be left behind.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: bobID, Token: bobToken})
	mustReadError(t, ctx, conn, core.ErrCodeBadRequest)

	// The connection still acts as alice.
	sendInbound(t, ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{
		SenderID:   aliceID,
		ReceiverID: &bobID,
		Content:    "still me",
	})
	var ack core.MessagePayload
	if err := json.Unmarshal(mustReadEvent(t, ctx, conn, core.EventMessageSent), &ack); err != nil {
		t.Fatalf("unmarshal message_sent: %v", err)
	}
	if ack.SenderID != aliceID {
		t.Fatalf("unexpected sender after rejected re-join: %+v", ack)
	}
}

func TestWebSocketSendBeforeJoinRejected(t *testing.T) {
	ts := startTestServer(t)
	_, _ = registerUser(t, ts, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	receiver := int64(2)
	sendInbound(t, ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{
		SenderID:   1,
		ReceiverID: &receiver,
		Content:    "sneaky",
	})
	mustReadError(t, ctx, conn, core.ErrCodeNotJoined)
}
