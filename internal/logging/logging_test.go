package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, slog.LevelInfo, FormatJSON, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", "name", "Jane Doe")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "Jane Doe", entry["name"])
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, slog.LevelInfo, "xml", false)
	assert.Error(t, err)
}

func TestDefaultDiscardsUntilSet(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := New(&buf, slog.LevelInfo, FormatJSON, false)
	require.NoError(t, err)
	SetDefault(logger)
	Default().Info("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestErrorAttrs(t *testing.T) {
	err := goerr.New("person not found", goerr.V("name", "Jane Doe"))
	attrs := ErrorAttrs(err)
	require.Len(t, attrs, 4)
	assert.Equal(t, "error", attrs[0])
	assert.Equal(t, "values", attrs[2])
	assert.Equal(t, "Jane Doe", attrs[3].(map[string]any)["name"])

	assert.Len(t, ErrorAttrs(assertErr("plain")), 2)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
