package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/viewsocial/realtime/internal/auth"
	"github.com/viewsocial/realtime/internal/hub"
	"go.uber.org/zap"
)

const (
	maxFrameSize  = 64 * 1024
	writeDeadline = 10 * time.Second
)

// WebSocketServer is the per-connection entry point: it authenticates the
// upgrade request, registers the connection, and runs the paired inbound
// and outbound loops. A failed handshake is rejected before any hub state
// exists; a registered connection is unregistered exactly once no matter
// which loop ends first.
type WebSocketServer struct {
	logger        *zap.Logger
	upgrader      *websocket.Upgrader
	authenticator *auth.Authenticator
	presence      *hub.Presence
	frameRouter   *FrameRouter

	sendBufferSize int
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	authenticator *auth.Authenticator,
	presence *hub.Presence,
	frameRouter *FrameRouter,
	sendBufferSize int,
) *WebSocketServer {
	return &WebSocketServer{
		logger,
		upgrader,
		authenticator,
		presence,
		frameRouter,
		sendBufferSize,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/ws", s.handle).Methods("GET")
}

func (s *WebSocketServer) handle(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	authentication, err := s.authenticator.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid bearer token", http.StatusUnauthorized)
		return
	}

	if !authentication.CanConnect() {
		http.Error(w, "realtime scope required", http.StatusForbidden)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.serve(r.Context(), wsConn, authentication.UserId)
}

func (s *WebSocketServer) serve(ctx context.Context, wsConn *websocket.Conn, userId uuid.UUID) {
	connection := hub.NewConnection(userId, s.sendBufferSize)

	s.presence.Connect(connection)
	defer s.presence.Disconnect(userId, connection.Id)

	logger := s.logger.With(
		zap.String("connectionId", connection.Id),
		zap.String("userId", userId.String()))

	logger.Info("websocket connection established")

	go s.writeLoop(logger, wsConn, connection)
	s.readLoop(ctx, logger, wsConn, connection)

	logger.Info("websocket connection closed")
}

// writeLoop drains the connection's sink to the transport. A write failure
// or a closed sink terminates the pair: closing the underlying websocket
// unblocks the sibling read loop.
func (s *WebSocketServer) writeLoop(logger *zap.Logger, wsConn *websocket.Conn, connection *hub.Connection) {
	defer wsConn.Close()

	for {
		select {
		case event := <-connection.Events():
			wsConn.SetWriteDeadline(time.Now().Add(writeDeadline))

			err := wsConn.WriteJSON(event)
			if err != nil {
				logger.Warn("outbound write failed", zap.Error(err))
				connection.Close()

				return
			}
		case <-connection.Done():
			return
		}
	}
}

// readLoop decodes client frames until the transport closes. Malformed
// frames are non-fatal; only a transport error ends the loop.
func (s *WebSocketServer) readLoop(ctx context.Context, logger *zap.Logger, wsConn *websocket.Conn, connection *hub.Connection) {
	defer connection.Close()

	wsConn.SetReadLimit(maxFrameSize)

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read ended", zap.Error(err))
			}

			return
		}

		s.frameRouter.RouteFrame(ctx, connection.UserId, data)
	}
}

// bearerToken extracts the credential from the Authorization header, or
// from the access_token query parameter for browser clients that cannot
// set headers on a websocket handshake.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return r.URL.Query().Get("access_token")
}
