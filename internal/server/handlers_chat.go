package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/broadcast"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/logging"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the token, not the Origin header
	},
}

// handleChatSocket authenticates, upgrades, registers the connection with
// the coordinator and pumps inbound frames until the client goes away.
// Token rejection terminates the attempt before any presence mutation.
func (s *Server) handleChatSocket(c echo.Context) error {
	if !s.limits.Acquire(c.RealIP()) {
		metrics.ConnectionsTotal.WithLabelValues("limited").Inc()
		return c.JSON(429, map[string]string{"error": "too many connections"})
	}
	defer s.limits.Release()

	identity, err := s.tokens.Validate(c.QueryParam("access_token"))
	if err != nil {
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(401, map[string]string{"error": "unauthorized"})
	}

	peerHint := c.QueryParam("peer")

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	conn := broadcast.NewConn(ws, s.clock)

	// The connection outlives the upgrade request; lifecycle calls must not
	// inherit its cancellation.
	ctx := context.Background()

	if err := s.coordinator.OnConnect(ctx, conn, identity, peerHint); err != nil {
		slog.Error("Connect failed", "username", identity.UserName, "error", err)
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		conn.Stop()
		return nil
	}
	metrics.ConnectionsTotal.WithLabelValues("accepted").Inc()
	logger := logging.WithUserName(identity.UserName)
	logger.Info("Client connected", "conn_id", conn.ID)

	s.readPump(ws, conn, identity)

	s.coordinator.OnDisconnect(ctx, conn, identity)
	conn.Stop()
	logger.Info("Client disconnected", "conn_id", conn.ID)

	return nil
}

// readPump blocks until the socket closes. Each well-formed frame is
// dispatched on its own goroutine, so calls from one connection may run
// concurrently with each other, like calls from different connections.
func (s *Server) readPump(ws *websocket.Conn, conn *broadcast.Conn, identity domain.Identity) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var frame domain.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.operationError(conn, "", "malformed frame")
			continue
		}

		go s.dispatch(conn, identity, frame)
	}
}

func (s *Server) dispatch(conn *broadcast.Conn, identity domain.Identity, frame domain.ClientFrame) {
	ctx := context.Background()

	switch frame.Op {
	case domain.OpSendMessage:
		var req domain.SendMessageRequest
		if !s.decode(conn, frame, &req) {
			return
		}
		if _, err := s.coordinator.SendMessage(ctx, identity, req); err != nil {
			slog.Error("SendMessage failed", "username", identity.UserName, "error", err)
			s.operationError(conn, frame.Op, "message could not be sent")
		}

	case domain.OpNotifyTyping:
		var req domain.NotifyTypingRequest
		if !s.decode(conn, frame, &req) {
			return
		}
		s.coordinator.NotifyTyping(identity, req)

	case domain.OpLoadMessages:
		var req domain.LoadMessagesRequest
		if !s.decode(conn, frame, &req) {
			return
		}
		if err := s.coordinator.LoadMessages(ctx, identity, req.RecipientID, req.Page); err != nil {
			slog.Error("LoadMessages failed", "username", identity.UserName, "error", err)
			s.operationError(conn, frame.Op, "history could not be loaded")
		}

	default:
		s.operationError(conn, frame.Op, "unknown operation")
	}
}

// decode unmarshals and validates an operation payload, reporting a frame
// error to the caller on failure.
func (s *Server) decode(conn *broadcast.Conn, frame domain.ClientFrame, into any) bool {
	if err := json.Unmarshal(frame.Data, into); err != nil {
		s.operationError(conn, frame.Op, "malformed payload")
		return false
	}
	if err := s.validate.Struct(into); err != nil {
		s.operationError(conn, frame.Op, "invalid payload")
		return false
	}
	return true
}

func (s *Server) operationError(conn *broadcast.Conn, op, reason string) {
	payload, err := json.Marshal(domain.ServerFrame{
		Event: domain.EventError,
		Data:  domain.OperationError{Op: op, Reason: reason},
	})
	if err != nil {
		return
	}
	conn.Enqueue(payload)
}
