package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"live-placement-backend/internal/model"
)

const (
	maxDecodeErrorsPerConn = 3
	maxFramePayloadBytes   = 4 << 10
)

// Frame is the websocket envelope in both directions.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type roomPayload struct {
	Room string `json:"room"`
}

// joinedPayload tells the client to refetch: events fired before the join are never replayed.
type joinedPayload struct {
	Room       string `json:"room"`
	Resync     bool   `json:"resync"`
	ServerTime string `json:"server_time"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Gateway upgrades authenticated requests to websocket sessions and
// manages their room subscriptions on the hub.
type Gateway struct {
	hub            *Hub
	sendBuffer     int
	allowedOrigins map[string]struct{}
	scope          CompanyScope
}

// NewGateway builds a gateway over hub. An empty allowedOrigins accepts any origin.
// When scope is set, a POC joining a company room is checked against its
// current assignments instead of the ones captured at connect.
// Rooms already joined are kept until the client leaves them or disconnects.
func NewGateway(hub *Hub, sendBuffer int, allowedOrigins []string, scope CompanyScope) *Gateway {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o != "" {
			origins[o] = struct{}{}
		}
	}
	return &Gateway{hub: hub, sendBuffer: sendBuffer, allowedOrigins: origins, scope: scope}
}

// ServeHTTP expects a Principal in the request context.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	server := websocket.Server{
		Handshake: g.checkOrigin,
		Handler: func(conn *websocket.Conn) {
			g.serve(r.Context(), conn, principal)
		},
	}
	server.ServeHTTP(w, r)
}

func (g *Gateway) checkOrigin(config *websocket.Config, r *http.Request) error {
	if len(g.allowedOrigins) == 0 {
		return nil
	}
	origin, err := url.Parse(r.Header.Get("Origin"))
	if err != nil {
		return err
	}
	if _, ok := g.allowedOrigins[origin.Scheme+"://"+origin.Host]; !ok {
		return fmt.Errorf("origin %q not allowed", r.Header.Get("Origin"))
	}
	config.Origin = origin
	return nil
}

type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *peer) writeFrame(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn, principal Principal) {
	// the http server's read and write timeouts must not apply to a long-lived session
	_ = conn.SetDeadline(time.Time{})

	session := NewSession(principal, g.sendBuffer)
	out := &peer{encoder: json.NewEncoder(conn)}
	defer func() {
		g.hub.LeaveAll(session)
		session.Close()
		_ = conn.Close()
	}()

	go pump(session, out)

	conn.MaxPayloadBytes = maxFramePayloadBytes
	decodeErrors := 0
	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				_ = writeError(out, "", "INVALID_ARGUMENT", "payload too large")
				continue
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			decodeErrors++
			_ = writeError(out, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case "room.join":
			g.handleJoin(ctx, session, out, frame)
		case "room.leave":
			g.handleLeave(session, out, frame)
		case "ping":
			_ = out.writeFrame(Frame{Type: "pong", RequestID: frame.RequestID})
		default:
			_ = writeError(out, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

// pump writes queued events until the session closes or the connection fails.
func pump(session *Session, out *peer) {
	for {
		select {
		case <-session.Done():
			return
		case ev := <-session.Outbound():
			if err := out.writeFrame(Frame{Type: "event", Payload: mustJSON(ev)}); err != nil {
				log.Printf("realtime: write to session=%s failed: %v", session.ID(), err)
				session.Close()
				return
			}
		}
	}
}

func (g *Gateway) handleJoin(ctx context.Context, session *Session, out *peer, frame Frame) {
	room, ok := parseRoomFrame(out, frame)
	if !ok {
		return
	}
	principal := session.Principal()
	if _, isCompany := room.CompanyID(); isCompany && principal.Role == model.RolePOC && g.scope != nil {
		ids, err := g.scope(ctx, principal.UserID)
		if err != nil {
			log.Printf("realtime: resolve companies of user=%q failed: %v", principal.UserID, err)
			_ = writeError(out, frame.RequestID, "INTERNAL", "failed to resolve company scope")
			return
		}
		principal.CompanyIDs = ids
	}
	if !principal.CanJoin(room) {
		log.Printf("realtime: user=%q role=%q denied room=%q", principal.UserID, principal.Role, room)
		_ = writeError(out, frame.RequestID, "FORBIDDEN", "not allowed to join room")
		return
	}
	g.hub.Join(room, session)
	_ = out.writeFrame(Frame{
		Type:      "room.joined",
		RequestID: frame.RequestID,
		Payload: mustJSON(joinedPayload{
			Room:       string(room),
			Resync:     true,
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		}),
	})
}

func (g *Gateway) handleLeave(session *Session, out *peer, frame Frame) {
	room, ok := parseRoomFrame(out, frame)
	if !ok {
		return
	}
	g.hub.Leave(room, session)
	_ = out.writeFrame(Frame{
		Type:      "room.left",
		RequestID: frame.RequestID,
		Payload:   mustJSON(roomPayload{Room: string(room)}),
	})
}

func parseRoomFrame(out *peer, frame Frame) (Room, bool) {
	var payload roomPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeError(out, frame.RequestID, "INVALID_ARGUMENT", "invalid room payload")
		return "", false
	}
	room, err := ParseRoom(payload.Room)
	if err != nil {
		_ = writeError(out, frame.RequestID, "INVALID_ARGUMENT", err.Error())
		return "", false
	}
	return room, true
}

func writeError(out *peer, requestID string, code string, message string) error {
	return out.writeFrame(Frame{
		Type:      "error",
		RequestID: requestID,
		Payload:   mustJSON(errorPayload{Code: code, Message: message}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("realtime: failed to marshal frame payload: %v", err)
		return nil
	}
	return b
}
