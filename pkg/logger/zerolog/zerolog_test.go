package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/raykavin/chartcore/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "debug", "2006-01-02", false, true)
	require.NoError(t, err)

	log.WithField("series", 3).WithError(errors.New("boom")).Info("series added")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "series added", entry["message"])
	require.EqualValues(t, 3, entry["series"])
	require.Equal(t, "boom", entry["error"])
}

func TestNewWithWriter_InvalidLevel(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "loud", "", false, true)
	require.Error(t, err)
}

func TestZerologAdapter_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "trace", "", false, true)
	require.NoError(t, err)

	log.SetLevel(logger.WarnLevel)
	require.Equal(t, logger.WarnLevel, log.GetLevel())

	log.Info("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	require.NotPanics(t, func() {
		log.WithFields(map[string]any{"panel": 1}).Debug("ignored")
	})
}
