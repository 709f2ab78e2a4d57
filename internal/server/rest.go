package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/viewsocial/realtime/internal/auth"
	"github.com/viewsocial/realtime/internal/hub"
	"go.uber.org/zap"
)

// RESTServer is the ingress for the message, post and payment domains:
// after their own write succeeds they push a fully-populated event here
// for fan-out to live connections. It also exposes presence as a
// read-only resource.
type RESTServer struct {
	logger        *zap.Logger
	authenticator *auth.Authenticator
	eventRouter   *hub.Router
	presence      *hub.Presence
}

func NewRESTServer(
	logger *zap.Logger,
	authenticator *auth.Authenticator,
	eventRouter *hub.Router,
	presence *hub.Presence,
) *RESTServer {
	return &RESTServer{
		logger,
		authenticator,
		eventRouter,
		presence,
	}
}

type SendToUserRequest struct {
	UserId uuid.UUID `json:"userId"`
	Event  hub.Event `json:"event"`
}

type SendToUsersRequest struct {
	UserIds []uuid.UUID `json:"userIds"`
	Event   hub.Event   `json:"event"`
}

type BroadcastRequest struct {
	Event hub.Event `json:"event"`
}

type PresenceResponse struct {
	UserId      uuid.UUID `json:"userId"`
	Online      bool      `json:"online"`
	Connections int       `json:"connections"`
}

type OnlineUsersResponse struct {
	Online []uuid.UUID `json:"online"`
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/events/user", s.requirePublisher(s.handleSendToUser)).Methods("POST")
	router.HandleFunc("/events/users", s.requirePublisher(s.handleSendToUsers)).Methods("POST")
	router.HandleFunc("/events/broadcast", s.requirePublisher(s.handleBroadcast)).Methods("POST")
	router.HandleFunc("/presence", s.requirePublisher(s.handleOnlineUsers)).Methods("GET")
	router.HandleFunc("/presence/{userId}", s.requirePublisher(s.handlePresence)).Methods("GET")
}

// requirePublisher accepts an API key or a JWT carrying the publish scope.
func (s *RESTServer) requirePublisher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "missing bearer credential", http.StatusUnauthorized)
			return
		}

		credential := strings.TrimPrefix(header, "Bearer ")

		authentication, err := s.authenticator.AuthenticateAPIKey(credential)
		if err != nil {
			authentication, err = s.authenticator.AuthenticateJWT(credential)
		}
		if err != nil {
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		}

		if !authentication.CanPublish() {
			http.Error(w, "publish scope required", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

func (s *RESTServer) handleSendToUser(w http.ResponseWriter, r *http.Request) {
	var request SendToUserRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if request.UserId == uuid.Nil || request.Event.Type == "" {
		http.Error(w, "userId and event type are required", http.StatusBadRequest)
		return
	}

	s.eventRouter.SendToUser(request.UserId, request.Event)

	w.WriteHeader(http.StatusAccepted)
}

func (s *RESTServer) handleSendToUsers(w http.ResponseWriter, r *http.Request) {
	var request SendToUsersRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if len(request.UserIds) == 0 || request.Event.Type == "" {
		http.Error(w, "userIds and event type are required", http.StatusBadRequest)
		return
	}

	s.eventRouter.SendToUsers(request.UserIds, request.Event)

	w.WriteHeader(http.StatusAccepted)
}

func (s *RESTServer) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var request BroadcastRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if request.Event.Type == "" {
		http.Error(w, "event type is required", http.StatusBadRequest)
		return
	}

	s.eventRouter.Broadcast(request.Event)

	w.WriteHeader(http.StatusAccepted)
}

func (s *RESTServer) handlePresence(w http.ResponseWriter, r *http.Request) {
	userId, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, PresenceResponse{
		UserId:      userId,
		Online:      s.presence.IsOnline(userId),
		Connections: s.presence.Count(userId),
	})
}

func (s *RESTServer) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	online := s.presence.OnlineUsers()
	if online == nil {
		online = []uuid.UUID{}
	}

	s.writeJSON(w, OnlineUsersResponse{
		Online: online,
	})
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}

	return true
}
