package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isooko/gateway/internal/domain/relay"
	"github.com/isooko/gateway/internal/infrastructure/config"
)

// newUpstreamFake serves just enough of the assistant API for the wired
// gateway: assistant retrieval succeeds, streaming runs are rejected.
func newUpstreamFake(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/assistants/asst_srv", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "asst_srv",
			"name": "Isooko",
		})
	})
	mux.HandleFunc("/threads/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := newUpstreamFake(t)

	cfg := config.Default()
	cfg.Upstream.APIKey = "test-key"
	cfg.Upstream.AssistantID = "asst_srv"
	cfg.Upstream.BaseURL = upstream.URL
	cfg.Upstream.MaxRetries = 0
	cfg.Logging.Level = "error"
	cfg.Logging.Development = true

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	web := httptest.NewServer(srv.Router())
	t.Cleanup(web.Close)
	return srv, web
}

func TestAssembledRoutes(t *testing.T) {
	_, web := newGateway(t)

	resp, err := http.Get(web.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var root struct {
		Status    string            `json:"status"`
		Service   string            `json:"service"`
		Endpoints map[string]string `json:"endpoints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&root))
	assert.Equal(t, "online", root.Status)
	assert.Contains(t, root.Endpoints, "websocket")
}

func TestAssembledHealth(t *testing.T) {
	_, web := newGateway(t)

	resp, err := http.Get(web.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status      string `json:"status"`
		AssistantID string `json:"assistant_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "asst_srv", health.AssistantID)
}

func TestAssembledChatRejectsMalformedBody(t *testing.T) {
	_, web := newGateway(t)

	resp, err := http.Post(web.URL+"/chat", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAssembledMetricsExposition(t *testing.T) {
	_, web := newGateway(t)

	// Generate one observed request first.
	resp, err := http.Get(web.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(web.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gateway_uptime_seconds")
	assert.Contains(t, string(body), "gateway_http_requests_total")
}

func TestAssembledWebSocketErrorTurn(t *testing.T) {
	_, web := newGateway(t)

	wsURL := "ws" + strings.TrimPrefix(web.URL, "http") + "/ws/chat/wired"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(frame), "Error: "), "got frame %q", frame)

	_, frame, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, relay.EndOfMessage, string(frame))
}

func TestShutdownClosesWebSocketSessions(t *testing.T) {
	srv, web := newGateway(t)

	wsURL := "ws" + strings.TrimPrefix(web.URL, "http") + "/ws/chat/draining"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
