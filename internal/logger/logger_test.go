package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "DEBUG", want: logrus.DebugLevel},
		{level: "info", want: logrus.InfoLevel},
		{level: "WARN", want: logrus.WarnLevel},
		{level: "ERROR", want: logrus.ErrorLevel},
		{level: "INVALID", want: logrus.InfoLevel},
		{level: "", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			InitWithOutput(tt.level, &buf)
			assert.Equal(t, tt.want, GetLogger().Level)
		})
	}
}

func TestInvalidLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("LOUD", &buf)
	assert.Contains(t, buf.String(), "Invalid log level 'LOUD'")
}

func TestEntriesAreJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("INFO", &buf)

	Debug("filtered out")
	WithField("server_id", "srv-1").Info("probe finished")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "probe finished", entry["msg"])
	assert.Equal(t, "srv-1", entry["server_id"])
	assert.Equal(t, Service, entry["service"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelHelpers(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("DEBUG", &buf)
	hook := test.NewLocal(GetLogger())

	Debugf("d %d", 1)
	Infof("i %d", 2)
	Warnf("w %d", 3)
	Errorf("e %d", 4)

	entries := hook.AllEntries()
	require.Len(t, entries, 4)
	want := []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, want[i], e.Level)
	}
	assert.Equal(t, "e 4", hook.LastEntry().Message)
}

func TestLeveledAdapter(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("DEBUG", &buf)
	hook := test.NewLocal(GetLogger())

	l := NewLeveled("probe")
	l.Warn("retrying request", "url", "https://maps.example.com", "attempt", 2)
	l.Debug("odd pair count", "dangling")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "probe", entries[0].Data["component"])
	assert.Equal(t, 2, entries[0].Data["attempt"])
	assert.NotContains(t, entries[1].Data, "dangling")
}
