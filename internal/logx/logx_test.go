package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldNames(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, "debug")
	log.WithField("session", "s1").Debug("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "debug", line["severity"])
	assert.Equal(t, "s1", line["session"])
	assert.Contains(t, line, "timestamp")
}

func TestUnknownLevel(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, NewTo(&bytes.Buffer{}, "loud").Level)
	assert.Equal(t, logrus.WarnLevel, NewTo(&bytes.Buffer{}, "warn").Level)
}
