package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ParsesLevel(t *testing.T) {
	Init("debug")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Init("nonsense")
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}

func TestComponent_AddsField(t *testing.T) {
	Init("info")
	var buf bytes.Buffer
	Log.SetOutput(&buf)

	Component("scheduler").Info("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler", entry["component"])
	assert.Equal(t, "tick", entry["msg"])
}
