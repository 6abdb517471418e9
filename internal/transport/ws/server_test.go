package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"claimguard.ai/internal/config"
	"claimguard.ai/internal/protocol"
	"claimguard.ai/internal/service"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	cfg := config.Defaults()
	cfg.Chat.BannedWords = []string{"griefer"}
	cfg.Chat.Action = config.ActionCensor
	s := NewServer(service.New(cfg, service.Options{}), nil)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, _ := json.Marshal(v)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Client: "test"})
	var w protocol.WelcomeMsg
	recv(t, conn, &w)
	return w
}

func TestServer_HandshakeAndChecks(t *testing.T) {
	conn := dial(t)
	w := hello(t, conn)
	if w.Type != protocol.TypeWelcome || w.SessionID == "" || w.Rules.BannedWords != 1 || w.Rules.ChatAction != "CENSOR" {
		t.Fatalf("welcome: %#v", w)
	}

	send(t, conn, protocol.CheckChatMsg{Type: protocol.TypeCheckChat, ReqID: "c1", Player: "alex", Text: "stop it griefer"})
	var cr protocol.ChatResultMsg
	recv(t, conn, &cr)
	if cr.ReqID != "c1" || !cr.Flagged || cr.Text != "stop it *******" {
		t.Fatalf("chat result: %#v", cr)
	}

	typeID := 54
	send(t, conn, protocol.CheckInteractMsg{Type: protocol.TypeCheckInteract, ReqID: "i1", Player: "alex", TypeID: &typeID, Variant: 2})
	var ir protocol.InteractResultMsg
	recv(t, conn, &ir)
	if ir.ReqID != "i1" || ir.Trust != "CONTAINER" {
		t.Fatalf("interact result: %#v", ir)
	}

	send(t, conn, protocol.CheckRegionMsg{Type: protocol.TypeCheckRegion, ReqID: "r1", Player: "alex", Max: [3]int{3, 3, 3}})
	var rr protocol.RegionResultMsg
	recv(t, conn, &rr)
	if rr.ReqID != "r1" || !rr.Allowed {
		t.Fatalf("region result: %#v", rr)
	}

	send(t, conn, protocol.CheckBanMsg{Type: protocol.TypeCheckBan, ReqID: "b1", IP: "10.0.0.1"})
	var br protocol.BanResultMsg
	recv(t, conn, &br)
	if br.ReqID != "b1" || br.Banned {
		t.Fatalf("ban result: %#v", br)
	}
}

func TestServer_BadRequests(t *testing.T) {
	conn := dial(t)
	hello(t, conn)

	cases := []struct {
		frame string
		code  string
		reqID string
	}{
		{`not json`, protocol.ErrProtoBadRequest, ""},
		{`{"type":"DANCE","req_id":"x"}`, protocol.ErrProtoBadRequest, "x"},
		{`{"type":"CHECK_INTERACT","req_id":"i"}`, protocol.ErrBadRequest, "i"},
		{`{"type":"CHECK_INTERACT","req_id":"v","type_id":1,"variant":999}`, protocol.ErrBadRequest, "v"},
		{`{"type":"CHECK_BAN","req_id":"b","ip":"nope"}`, protocol.ErrBadRequest, "b"},
		{`{"type":"CHECK_BAN","req_id":"e"}`, protocol.ErrBadRequest, "e"},
	}
	for _, tc := range cases {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(tc.frame)); err != nil {
			t.Fatalf("write: %v", err)
		}
		var em protocol.ErrorMsg
		recv(t, conn, &em)
		if em.Type != protocol.TypeError || em.Code != tc.code || em.ReqID != tc.reqID {
			t.Fatalf("frame %s: got %#v", tc.frame, em)
		}
	}
}

func TestServer_RejectsMissingHello(t *testing.T) {
	conn := dial(t)
	send(t, conn, protocol.CheckChatMsg{Type: protocol.TypeCheckChat, ReqID: "1", Text: "hi"})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
