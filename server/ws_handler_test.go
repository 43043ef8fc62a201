package server_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-room-server/presence"
	"github.com/jrsteele09/go-room-server/server"
	"github.com/stretchr/testify/require"
)

func (f *testFixture) dial(t *testing.T, bearer string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + server.RouteWebSocket
	header := http.Header{}
	if bearer != "" {
		header.Set("Authorization", "Bearer "+bearer)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func readOutbound(t *testing.T, conn *websocket.Conn) presence.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg presence.Outbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_RequiresAuth(t *testing.T) {
	f := setupTestFixture(t)

	_, resp, err := f.dial(t, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_JoinAndLeave(t *testing.T) {
	f := setupTestFixture(t)
	u := f.register(t, "ws-u@example.com", "Uma")
	v := f.register(t, "ws-v@example.com", "Vic")
	roomID := f.createRoom(t, u, "Live")

	cu, _, err := f.dial(t, u.Token)
	require.NoError(t, err)
	cv, _, err := f.dial(t, v.Token)
	require.NoError(t, err)

	require.NoError(t, cu.WriteJSON(presence.Inbound{Type: presence.TypeJoin, RoomID: roomID, UserID: u.UserID}))
	msg := readOutbound(t, cu)
	require.Equal(t, presence.TypeParticipantJoined, msg.Type)
	require.Equal(t, u.UserID, msg.Participant.UserID)
	require.Equal(t, "Uma", msg.Participant.Name)

	require.NoError(t, cv.WriteJSON(presence.Inbound{Type: presence.TypeJoin, RoomID: roomID, UserID: v.UserID}))
	require.Equal(t, v.UserID, readOutbound(t, cu).Participant.UserID)
	require.Equal(t, v.UserID, readOutbound(t, cv).Participant.UserID)

	require.NoError(t, cv.WriteJSON(presence.Inbound{Type: presence.TypeLeave, RoomID: roomID, UserID: v.UserID}))
	left := readOutbound(t, cu)
	require.Equal(t, presence.TypeParticipantLeft, left.Type)
	require.Equal(t, v.UserID, left.UserID)
	require.Equal(t, roomID, left.RoomID)
	require.Equal(t, presence.TypeParticipantLeft, readOutbound(t, cv).Type)
}

func TestWebSocket_DisconnectLeavesRooms(t *testing.T) {
	f := setupTestFixture(t)
	u := f.register(t, "ws-drop-u@example.com", "Uma")
	v := f.register(t, "ws-drop-v@example.com", "Vic")
	roomID := f.createRoom(t, u, "Drop")

	cu, _, err := f.dial(t, u.Token)
	require.NoError(t, err)
	cv, _, err := f.dial(t, v.Token)
	require.NoError(t, err)

	require.NoError(t, cu.WriteJSON(presence.Inbound{Type: presence.TypeJoin, RoomID: roomID, UserID: u.UserID}))
	readOutbound(t, cu)
	require.NoError(t, cv.WriteJSON(presence.Inbound{Type: presence.TypeJoin, RoomID: roomID, UserID: v.UserID}))
	readOutbound(t, cu)
	readOutbound(t, cv)

	require.NoError(t, cv.Close())

	left := readOutbound(t, cu)
	require.Equal(t, presence.TypeParticipantLeft, left.Type)
	require.Equal(t, v.UserID, left.UserID)
	require.Len(t, f.hub.Snapshot(roomID), 1)
}

func TestWebSocket_Errors(t *testing.T) {
	f := setupTestFixture(t)
	u := f.register(t, "ws-err@example.com", "Uma")
	roomID := f.createRoom(t, u, "Errors")

	conn, _, err := f.dial(t, u.Token)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readOutbound(t, conn)
	require.Equal(t, presence.TypeError, msg.Type)
	require.Contains(t, msg.Message, "malformed message")

	require.NoError(t, conn.WriteJSON(presence.Inbound{Type: presence.TypeJoin, RoomID: roomID, UserID: "someone-else"}))
	msg = readOutbound(t, conn)
	require.Equal(t, presence.TypeError, msg.Type)
	require.Contains(t, msg.Message, "does not match")

	require.NoError(t, conn.WriteJSON(presence.Inbound{Type: presence.TypeJoin, RoomID: "missing", UserID: u.UserID}))
	msg = readOutbound(t, conn)
	require.Equal(t, presence.TypeError, msg.Type)
	require.Contains(t, msg.Message, "not found")
}
