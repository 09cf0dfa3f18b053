package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	previous := GetLevel()
	SetOutput(buf, "text")
	SetLevel(level)

	t.Cleanup(func() {
		SetOutput(os.Stderr, "text")
		SetLevel(previous)
	})
	return buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"off", LevelSilent, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, LevelWarn)

	Debug("hidden debug")
	Info("hidden info")
	Warn("visible warning")
	Error("visible error")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible warning")
	assert.Contains(t, output, "visible error")
}

func TestComponentAndFields(t *testing.T) {
	buf := captureOutput(t, LevelDebug)

	HTTP().WithField("status", 201).WithFields(map[string]interface{}{"path": "/api/user/create/"}).Info("request %s", "done")

	output := buf.String()
	assert.Contains(t, output, "component=http")
	assert.Contains(t, output, "status=201")
	assert.Contains(t, output, "path=/api/user/create/")
	assert.Contains(t, output, "request done")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := New("db").WithField("a", 1)
	child := parent.WithField("b", 2)

	assert.Len(t, parent.fields, 1)
	assert.Len(t, child.fields, 2)
}

func TestSilentLevel(t *testing.T) {
	buf := captureOutput(t, LevelSilent)

	Error("should not appear")
	assert.Empty(t, buf.String())
}

func TestConfigure(t *testing.T) {
	captureOutput(t, LevelWarn)

	Configure(false, false)
	assert.Equal(t, LevelWarn, GetLevel())

	Configure(true, false)
	assert.Equal(t, LevelDebug, GetLevel())
}

func TestProgress(t *testing.T) {
	buf := captureOutput(t, LevelDebug)

	StartProgress("Planning migration")
	UpdateProgress("inspecting users")
	EndProgress(true)

	output := buf.String()
	assert.Contains(t, output, "Planning migration...")
	assert.Contains(t, output, "inspecting users")
	assert.Contains(t, output, "done")
}
