package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"claimguard.ai/internal/protect/bans"
	"claimguard.ai/internal/protocol"
	"claimguard.ai/internal/service"
)

type Server struct {
	svc *service.Service
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(svc *service.Service, logger *log.Logger) *Server {
	return &Server{
		svc: svc,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // plugins connect server-to-server
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.logf("session %s connected from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			resp := s.dispatch(ctx, sessionID, msg)
			b, err := json.Marshal(resp)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
		s.logf("session %s closed", sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	sum := s.svc.Summary()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		Rules: protocol.RulesSummary{
			BannedWords:    sum.BannedWords,
			ChatAction:     sum.ChatAction,
			AccessTrust:    sum.AccessTrust,
			ContainerTrust: sum.ContainerTrust,
			Explodable:     sum.Explodable,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	return welcome.SessionID, out
}

// dispatch answers one request frame. Every frame gets exactly one reply.
func (s *Server) dispatch(ctx context.Context, sessionID string, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "invalid json")
	}
	bad := func(m string) any { return protocol.NewError(base.ReqID, protocol.ErrBadRequest, m) }

	switch base.Type {
	case protocol.TypeCheckChat:
		var req protocol.CheckChatMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return bad("bad CHECK_CHAT")
		}
		v := s.svc.CheckChat(sessionID, req.Player, req.Text)
		return protocol.ChatResultMsg{
			Type: protocol.TypeChatResult, ReqID: req.ReqID,
			Flagged: v.Flagged, Action: v.Action, Text: v.Text,
		}

	case protocol.TypeCheckInteract:
		var req protocol.CheckInteractMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return bad("bad CHECK_INTERACT")
		}
		if req.TypeID == nil || *req.TypeID < 0 {
			return bad("type_id required")
		}
		if req.Variant < 0 || req.Variant > 255 {
			return bad("variant out of range")
		}
		v := s.svc.CheckInteract(sessionID, req.Player, *req.TypeID, uint8(req.Variant))
		return protocol.InteractResultMsg{
			Type: protocol.TypeInteractRes, ReqID: req.ReqID,
			Trust: string(v.Trust), Explodable: v.Explodable,
		}

	case protocol.TypeCheckRegion:
		var req protocol.CheckRegionMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return bad("bad CHECK_REGION")
		}
		return protocol.RegionResultMsg{
			Type: protocol.TypeRegionResult, ReqID: req.ReqID,
			Allowed: s.svc.CheckRegion(req.Player, req.Min, req.Max),
		}

	case protocol.TypeCheckBan:
		var req protocol.CheckBanMsg
		if err := json.Unmarshal(msg, &req); err != nil || strings.TrimSpace(req.IP) == "" {
			return bad("ip required")
		}
		rec, banned, err := s.svc.CheckBan(ctx, sessionID, req.IP)
		if err != nil {
			if errors.Is(err, bans.ErrBadIP) {
				return bad(err.Error())
			}
			s.logf("session %s: check ban: %v", sessionID, err)
			return protocol.NewError(req.ReqID, protocol.ErrInternal, "ban lookup failed")
		}
		res := protocol.BanResultMsg{Type: protocol.TypeBanResult, ReqID: req.ReqID, Banned: banned}
		if banned {
			res.Reason = rec.Reason
			if !rec.Permanent() {
				res.ExpiresAt = rec.ExpiresAt.Format(time.RFC3339)
			}
		}
		return res

	default:
		return protocol.NewError(base.ReqID, protocol.ErrProtoBadRequest, "unknown type "+base.Type)
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
