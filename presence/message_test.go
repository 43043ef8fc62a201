package presence_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/presence"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	in, err := presence.DecodeInbound([]byte(`{"type":"join","roomId":" R ","userId":"u1","name":"Jane"}`))
	require.NoError(t, err)
	require.Equal(t, presence.Inbound{Type: presence.TypeJoin, RoomID: "R", UserID: "u1", Name: "Jane"}, in)

	bad := []string{
		`not json`,
		`{"type":"shout","roomId":"R","userId":"u1"}`,
		`{"type":"leave","roomId":"","userId":"u1"}`,
		`{"type":"join","roomId":"R"}`,
	}
	for _, raw := range bad {
		_, err := presence.DecodeInbound([]byte(raw))
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest, raw)
	}
}
