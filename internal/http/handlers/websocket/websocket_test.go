package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/songs-service/internal/types"
	"github.com/princekumarofficial/songs-service/internal/utils/jwt"
	wsClient "github.com/princekumarofficial/songs-service/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestRejectsMissingToken(t *testing.T) {
	hub := wsClient.NewHub()
	rec := httptest.NewRecorder()

	WebSocketHandler(hub, secret)(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectsInvalidToken(t *testing.T) {
	hub := wsClient.NewHub()
	rec := httptest.NewRecorder()

	WebSocketHandler(hub, secret)(rec, httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeliversEventsToOwner(t *testing.T) {
	hub := wsClient.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(WebSocketHandler(hub, secret))
	defer srv.Close()

	token, err := jwt.CreateToken("owner-1", secret)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsUserConnected("owner-1") }, time.Second, 10*time.Millisecond)

	hub.BroadcastToUser("owner-1", types.NewEvent(types.EventSongDeleted, &types.SongDeletedEvent{SongID: 7}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type types.EventType        `json:"type"`
		Data types.SongDeletedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, types.EventSongDeleted, event.Type)
	assert.Equal(t, int64(7), event.Data.SongID)
}
