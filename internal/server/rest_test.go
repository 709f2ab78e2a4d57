package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewsocial/realtime/internal/auth"
	"github.com/viewsocial/realtime/internal/hub"
	"go.uber.org/zap"
)

type restFixture struct {
	server   *httptest.Server
	registry *hub.Registry
	presence *hub.Presence
}

func newRESTFixture(t *testing.T) *restFixture {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	registry := hub.NewRegistry()
	eventRouter := hub.NewRouter(logger, registry)
	presence := hub.NewPresence(logger, registry, eventRouter)
	authenticator := auth.NewAuthenticator("test-secret", []string{"test-api-key"})

	restServer := NewRESTServer(logger, authenticator, eventRouter, presence)

	router := mux.NewRouter()
	restServer.Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &restFixture{
		server:   server,
		registry: registry,
		presence: presence,
	}
}

func (f *restFixture) do(t *testing.T, method, path, credential string, body []byte) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, bytes.NewBuffer(body))
	require.NoError(t, err)

	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func drainConnection(connection *hub.Connection) []hub.Event {
	var events []hub.Event
	for {
		select {
		case event := <-connection.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestRESTServer_Authorization(t *testing.T) {
	f := newRESTFixture(t)

	body := []byte(`{"userId":"` + uuid.NewString() + `","event":{"type":"post_liked"}}`)

	t.Run("missing credential", func(t *testing.T) {
		resp := f.do(t, "POST", "/events/user", "", body)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid api key", func(t *testing.T) {
		resp := f.do(t, "POST", "/events/user", "wrong-api-key", body)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("jwt without publish scope", func(t *testing.T) {
		token := mintToken(t, uuid.New(), []string{auth.ScopeRealtime})
		resp := f.do(t, "POST", "/events/user", token, body)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("jwt with publish scope", func(t *testing.T) {
		token := mintToken(t, uuid.New(), []string{auth.ScopePublish})
		resp := f.do(t, "POST", "/events/user", token, body)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	})
}

func TestRESTServer_SendToUser(t *testing.T) {
	f := newRESTFixture(t)

	userId := uuid.New()
	connection := hub.NewConnection(userId, 8)
	f.registry.Register(connection)

	t.Run("delivers to live connections", func(t *testing.T) {
		senderId := uuid.New()
		body := []byte(`{
			"userId": "` + userId.String() + `",
			"event": {"type":"payment_received","sender_id":"` + senderId.String() + `","amount":"9.99"}
		}`)

		resp := f.do(t, "POST", "/events/user", "test-api-key", body)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		events := drainConnection(connection)
		require.Len(t, events, 1)
		assert.Equal(t, hub.EventTypePaymentReceived, events[0].Type)
		assert.Equal(t, "9.99", events[0].Amount)
	})

	t.Run("rejects missing event type", func(t *testing.T) {
		body := []byte(`{"userId":"` + userId.String() + `","event":{}}`)

		resp := f.do(t, "POST", "/events/user", "test-api-key", body)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		resp := f.do(t, "POST", "/events/user", "test-api-key", []byte("{"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRESTServer_SendToUsersAndBroadcast(t *testing.T) {
	f := newRESTFixture(t)

	alice := uuid.New()
	bob := uuid.New()
	aliceConn := hub.NewConnection(alice, 8)
	bobConn := hub.NewConnection(bob, 8)
	f.registry.Register(aliceConn)
	f.registry.Register(bobConn)

	t.Run("send to users", func(t *testing.T) {
		body := []byte(`{
			"userIds": ["` + alice.String() + `","` + bob.String() + `"],
			"event": {"type":"message_sent","conversation_id":"` + uuid.NewString() + `","content":"hello"}
		}`)

		resp := f.do(t, "POST", "/events/users", "test-api-key", body)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Len(t, drainConnection(aliceConn), 1)
		assert.Len(t, drainConnection(bobConn), 1)
	})

	t.Run("broadcast", func(t *testing.T) {
		body := []byte(`{"event":{"type":"post_liked","post_id":"` + uuid.NewString() + `"}}`)

		resp := f.do(t, "POST", "/events/broadcast", "test-api-key", body)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Len(t, drainConnection(aliceConn), 1)
		assert.Len(t, drainConnection(bobConn), 1)
	})
}

func TestRESTServer_Presence(t *testing.T) {
	f := newRESTFixture(t)

	userId := uuid.New()
	f.presence.Connect(hub.NewConnection(userId, 8))
	f.presence.Connect(hub.NewConnection(userId, 8))

	t.Run("per-user presence", func(t *testing.T) {
		resp := f.do(t, "GET", "/presence/"+userId.String(), "test-api-key", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var presence PresenceResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&presence))
		assert.Equal(t, userId, presence.UserId)
		assert.True(t, presence.Online)
		assert.Equal(t, 2, presence.Connections)
	})

	t.Run("offline user", func(t *testing.T) {
		offlineId := uuid.New()
		resp := f.do(t, "GET", "/presence/"+offlineId.String(), "test-api-key", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var presence PresenceResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&presence))
		assert.False(t, presence.Online)
		assert.Equal(t, 0, presence.Connections)
	})

	t.Run("online users", func(t *testing.T) {
		resp := f.do(t, "GET", "/presence", "test-api-key", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var online OnlineUsersResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&online))
		assert.Equal(t, []uuid.UUID{userId}, online.Online)
	})

	t.Run("invalid user id", func(t *testing.T) {
		resp := f.do(t, "GET", "/presence/not-a-uuid", "test-api-key", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
