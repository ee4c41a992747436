package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad frontmatter").Build(), expected: 2},
		{name: "not found", err: NewError(CategoryNotFound, "missing").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "filesystem", err: FileSystemError("read failed").Build(), expected: 11},
		{name: "render", err: NewError(CategoryRender, "convert failed").Build(), expected: 11},
		{name: "watch", err: NewError(CategoryWatch, "watcher closed").Build(), expected: 12},
		{name: "internal", err: NewError(CategoryInternal, "boom").Fatal().Build(), expected: 10},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	internal := NewError(CategoryInternal, "nil reader").Fatal().Build()
	require.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(internal))
	require.Equal(t, "Error: [internal:fatal] nil reader", verbose.FormatError(internal))

	cfg := ConfigError("unknown log level").Build()
	require.Equal(t, "Error: [config:fatal] unknown log level", quiet.FormatError(cfg))
	require.Equal(t, "Error: plain", quiet.FormatError(errors.New("plain")))
	require.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(FileSystemError("failed to read source").WithContext("source", "a.md").Build())

	require.Equal(t, 11, code)
	require.Contains(t, out.String(), "failed to read source")
	require.Contains(t, logs.String(), "category=filesystem")
	require.Contains(t, logs.String(), "source=a.md")

	code = -1
	adapter.HandleError(nil)
	require.Equal(t, -1, code)
}
