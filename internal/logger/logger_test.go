package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("WARN", &buf)

	log.Info("hidden")
	log.WithField("kit", "a.zip").Debug("hidden too")
	assert.Zero(t, buf.Len())

	log.WithField("kit", "a.zip").WithError(errors.New("boom")).Warn("visible")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "visible", entry.Message)
	assert.Equal(t, "a.zip", entry.Fields["kit"])
	assert.Equal(t, "boom", entry.Error)
	assert.Empty(t, entry.Caller)
}

func TestErrorsCarryCaller(t *testing.T) {
	var buf bytes.Buffer
	New("DEBUG", &buf).WithFields(map[string]interface{}{"n": 1}).Error("failed")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.True(t, strings.Contains(entry.Caller, "logger_test.go"), entry.Caller)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing happens")
	log.WithField("a", 1).Warn("still nothing")
}
