package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/relmatrix/internal/testutil"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	logger := newLogger("warn", "text", out)

	logger.Info("quiet")
	logger.Warn("loud")

	require.NotContains(t, out.String(), "quiet")
	require.Contains(t, out.String(), "loud")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	logger := newLogger("info", "json", out)

	logger.Info("release starting", "project", "relmatrix")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.String()), &record))
	require.Equal(t, "release starting", record["msg"])
	require.Equal(t, "relmatrix", record["project"])
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	logger := newLogger("chatty", "text", out)

	logger.Debug("hidden")
	logger.Info("visible")

	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "visible")
}
