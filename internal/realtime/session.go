/*
File: internal/realtime/session.go
Description: The per-client actor. Owns all transport I/O for one
connection: a read pump parsing inbound control frames and a write pump
draining the bounded outbound queue. Every terminal transport condition
funnels into one teardown path.
*/
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/internal/auth"
	"github.com/tinywideclouds/go-telemetry-hub/internal/geo"
	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameBytes = 4096
)

// Session lifecycle states.
const (
	stateUpgraded int32 = iota
	stateActive
	stateClosing
	stateClosed
)

// SessionConfig carries the per-deployment knobs a session needs.
type SessionConfig struct {
	// RequireAuth gates joins on a valid channel-scoped token. When false,
	// anonymous sessions may join any channel and tokens are ignored.
	RequireAuth bool
	// Secret is the shared token-signing secret, supplied out-of-band.
	Secret []byte
	// QueueDepth bounds the outbound queue; overflow closes the connection.
	QueueDepth int
}

// Session implements hub.Subscriber. Its outbound queue and its viewport are
// mutated only through this session; the hub holds a non-owning reference.
type Session struct {
	id      string
	conn    *websocket.Conn
	manager *hub.Manager
	cfg     SessionConfig

	// outbound carries *telemetry.Message fan-out alongside control replies
	// (acks, pongs, rejections); the write pump is the connection's only
	// writer.
	outbound chan any

	state     atomic.Int32
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	logger    zerolog.Logger
}

// NewSession wraps an upgraded WebSocket connection. The cancelable context
// is created here, not in Run, so that Kick is safe on a session that has
// been accepted but not yet started.
func NewSession(ctx context.Context, id string, conn *websocket.Conn, manager *hub.Manager, cfg SessionConfig, logger zerolog.Logger) *Session {
	s := &Session{
		id:       id,
		conn:     conn,
		manager:  manager,
		cfg:      cfg,
		outbound: make(chan any, cfg.QueueDepth),
		logger:   logger.With().Str("component", "Session").Str("conn", id).Logger(),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state.Store(stateUpgraded)
	return s
}

// ID returns the connection identifier. It is a uniqueness token only; the
// token signature, not identifier entropy, is what authorizes channel access.
func (s *Session) ID() string { return s.id }

// Enqueue implements hub.Subscriber. Non-blocking; false means overflow or a
// session already past Active, either way nothing more will be written.
func (s *Session) Enqueue(msg *telemetry.Message) bool {
	if s.state.Load() >= stateClosing {
		return false
	}
	select {
	case s.outbound <- msg:
		return true
	default:
		return false
	}
}

// Kick implements hub.Subscriber. It runs teardown on its own goroutine so it
// is safe to call from fan-out.
func (s *Session) Kick(reason string) {
	go s.teardown(reason)
}

// Run registers the session with the hub and blocks until the connection
// reaches a terminal transport condition.
func (s *Session) Run() {
	// A session kicked between accept and start never registers.
	if !s.state.CompareAndSwap(stateUpgraded, stateActive) {
		return
	}
	s.manager.Register(s)

	go s.writePump()
	s.readPump()
}

// teardown is the single cleanup path regardless of which exit triggered it:
// deregister from every joined channel (and drop the viewport), stop the write
// pump, close the transport.
func (s *Session) teardown(reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(stateClosing)
		s.manager.Unregister(s.id)
		s.cancel()
		_ = s.conn.Close()
		s.state.Store(stateClosed)
		s.logger.Info().Str("reason", reason).Msg("Session closed.")
	})
}

// readPump parses inbound control frames until the transport fails or the
// client sends an undecodable frame.
func (s *Session) readPump() {
	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.teardown("client disconnected")
			} else {
				s.teardown(fmt.Sprintf("read failed: %v", err))
			}
			return
		}

		var frame telemetry.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Undecodable input is a protocol violation, not a rejectable
			// request; the session cannot trust anything that follows.
			s.teardown("protocol violation: undecodable frame")
			return
		}
		s.handleFrame(frame)
	}
}

func (s *Session) handleFrame(frame telemetry.ClientFrame) {
	switch frame.Type {
	case telemetry.FrameJoin:
		s.handleJoin(frame)
	case telemetry.FrameLeave:
		s.manager.Leave(s.id, frame.Channel)
		s.send(telemetry.AckFrame{Type: telemetry.FrameLeft, Channel: frame.Channel})
	case telemetry.FrameSetBBox:
		s.handleSetBounds(frame)
	case telemetry.FramePing:
		s.send(telemetry.AckFrame{Type: telemetry.FramePong})
	default:
		s.send(telemetry.ErrorFrame{
			Type:   telemetry.FrameError,
			Code:   telemetry.CodeInvalidFrame,
			Reason: fmt.Sprintf("unrecognized frame type %q", frame.Type),
		})
	}
}

// handleJoin verifies the supplied token when auth is required and requires
// its channel scope to equal the requested channel. Any failure is answered
// with an explicit rejection frame; membership stays unchanged and the
// session stays active for retry.
func (s *Session) handleJoin(frame telemetry.ClientFrame) {
	if frame.Channel == "" {
		s.send(telemetry.ErrorFrame{Type: telemetry.FrameError, Code: telemetry.CodeInvalidFrame, Reason: "join requires a channel"})
		return
	}

	if s.cfg.RequireAuth {
		if frame.Token == "" {
			s.reject(telemetry.CodeAuthRequired, "a channel-scoped token is required to join")
			return
		}
		claims, err := auth.Verify(frame.Token, s.cfg.Secret)
		if err != nil {
			code := telemetry.CodeAuthMalformed
			if errors.Is(err, auth.ErrExpiredToken) {
				code = telemetry.CodeAuthExpired
			}
			s.reject(code, err.Error())
			return
		}
		if err := claims.Authorize(frame.Channel); err != nil {
			s.reject(telemetry.CodeAuthScopeMismatch, err.Error())
			return
		}
		s.logger.Info().Str("subject", claims.Subject).Str("channel", frame.Channel).Msg("Join authorized.")
	}

	s.manager.Join(s.id, frame.Channel)
	s.send(telemetry.AckFrame{Type: telemetry.FrameJoined, Channel: frame.Channel})
}

func (s *Session) handleSetBounds(frame telemetry.ClientFrame) {
	box := geo.BoundingBox{
		NorthEast: geo.Point{Lat: frame.NorthEastLat, Lng: frame.NorthEastLng},
		SouthWest: geo.Point{Lat: frame.SouthWestLat, Lng: frame.SouthWestLng},
	}
	if err := s.manager.SetBounds(s.id, box); err != nil {
		s.send(telemetry.ErrorFrame{Type: telemetry.FrameError, Code: telemetry.CodeInvalidBounds, Reason: err.Error()})
		return
	}
	s.send(telemetry.BoundsAck{
		Type:         telemetry.FrameBBoxAck,
		ConnectionID: s.id,
		NorthEastLat: frame.NorthEastLat,
		NorthEastLng: frame.NorthEastLng,
		SouthWestLat: frame.SouthWestLat,
		SouthWestLng: frame.SouthWestLng,
	})
}

func (s *Session) reject(code, reason string) {
	s.logger.Warn().Str("code", code).Str("reason", reason).Msg("Join rejected.")
	s.send(telemetry.ErrorFrame{Type: telemetry.FrameError, Code: code, Reason: reason})
}

// send queues a control reply. Control replies share the outbound queue so
// the overflow policy covers them too. Replies to a session already Closing
// are dropped.
func (s *Session) send(frame any) {
	if s.state.Load() >= stateClosing {
		return
	}
	select {
	case s.outbound <- frame:
	default:
		s.Kick("outbound queue overflow")
	}
}

// writePump is the connection's sole writer. A write failure transitions the
// session to Closing via the shared teardown path.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case v := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(v); err != nil {
				s.teardown(fmt.Sprintf("write failed: %v", err))
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.teardown(fmt.Sprintf("keepalive ping failed: %v", err))
				return
			}
		}
	}
}
