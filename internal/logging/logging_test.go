package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-room-server/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logging.SetupWriter("PROD", &buf)

	log.Info().Str("room_id", "abc").Msg("room created")
	log.Debug().Msg("dropped below info")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "room created", line["message"])
	require.Equal(t, "abc", line["room_id"])
}
