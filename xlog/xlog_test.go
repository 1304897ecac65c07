package xlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

type testBanner struct{}

func (testBanner) JSON() string      { return `xtree` }
func (testBanner) PlainText() string { return "=== xtree ===" }

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	res := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		res = append(res, m)
	}
	return res
}

func TestLogLevelOf(t *testing.T) {
	testcases := []struct {
		in      string
		lvl     logLevel
		wantErr bool
	}{
		{in: "debug", lvl: LogLevelDebug},
		{in: " INFO ", lvl: LogLevelInfo},
		{in: "Warn", lvl: LogLevelWarn},
		{in: "error", lvl: LogLevelError},
		{in: "trace", lvl: LogLevelDebug, wantErr: true},
	}
	for _, tc := range testcases {
		t.Run(tc.in, func(tt *testing.T) {
			lvl, err := LogLevelOf(tc.in)
			if tc.wantErr {
				require.Error(tt, err)
			} else {
				require.NoError(tt, err)
			}
			require.Equal(tt, tc.lvl, lvl)
		})
	}

	require.Equal(t, zapcore.InfoLevel, getLogLevelOrDefault(""))
	require.Equal(t, zapcore.WarnLevel, getLogLevelOrDefault("warn"))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault("nope"))
}

func TestLogEncoderOf(t *testing.T) {
	enc, err := LogEncoderOf("JSON")
	require.NoError(t, err)
	require.Equal(t, JSON, enc)
	enc, err = LogEncoderOf("text")
	require.NoError(t, err)
	require.Equal(t, PlainText, enc)
	_, err = LogEncoderOf("xml")
	require.Error(t, err)

	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
}

func TestXLogger_ConsoleJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewXLogger(
		WithXLoggerConsoleWriter(buf),
		WithXLoggerEncoder(JSON),
		WithXLoggerLevel(LogLevelInfo),
		WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
		WithXLoggerTimeEncoder(nil),
		nil,
	)
	require.Equal(t, "info", logger.Level())

	logger.Debug("dropped")
	logger.Info("session started", zap.String("tree", "rbtree"))
	logger.Warn("slow")
	logger.Error(errors.New("boom"), "failed")
	logger.Error(nil, "no error")
	logger.Logf(zapcore.InfoLevel, "inserted %d keys", 3)
	require.NoError(t, logger.Sync())

	lines := decodeLines(t, buf)
	require.Len(t, lines, 5)
	require.Equal(t, "session started", lines[0]["msg"])
	require.Equal(t, "INFO", lines[0]["lvl"])
	require.Equal(t, "rbtree", lines[0]["tree"])
	require.Contains(t, lines[0]["callAt"], "xlog_test.go")
	require.Equal(t, "WARN", lines[1]["lvl"])
	require.Equal(t, "boom", lines[2]["error"])
	require.NotContains(t, lines[3], "error")
	require.Equal(t, "inserted 3 keys", lines[4]["msg"])

	buf.Reset()
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	logger.Debug("kept")
	require.Len(t, decodeLines(t, buf), 1)
	require.NoError(t, logger.Close())
}

func TestXLogger_ErrorStack(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewXLogger(WithXLoggerConsoleWriter(buf), WithXLoggerLevel(LogLevelDebug))

	err := infra.NewErrorStack("[xtree] order violation")
	logger.ErrorStack(err, "validate", zap.Int64("len", 3))
	logger.ErrorStack(errors.New("plain"), "plain error")
	logger.ErrorStackf(infra.WrapErrorStack(errors.New("io"), "read line"), "repl %s", "stopped")
	logger.ErrorStack(nil, "nil error")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)
	require.Equal(t, "[xtree] order violation", lines[0]["error"])
	require.NotEmpty(t, lines[0]["errorStack"])
	require.Equal(t, float64(3), lines[0]["len"])
	require.Equal(t, "plain", lines[1]["error"])
	require.NotContains(t, lines[1], "errorStack")
	require.Equal(t, "repl stopped", lines[2]["msg"])
	require.Equal(t, "read line: io", lines[2]["error"])
	require.NotContains(t, lines[3], "error")
}

func TestXLogger_Banner(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewXLogger(
		WithXLoggerConsoleWriter(buf),
		WithXLoggerEncoder(PlainText),
	)
	logger.Banner(testBanner{})
	logger.Banner(testBanner{})
	logger.Banner(nil)
	require.Equal(t, 1, strings.Count(buf.String(), "=== xtree ==="))

	buf.Reset()
	logger = NewXLogger(WithXLoggerConsoleWriter(buf))
	logger.Banner(testBanner{})
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	require.Equal(t, "xtree", lines[0]["banner"])
}

func TestXLogger_Named(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewXLogger(WithXLoggerConsoleWriter(buf), WithXLoggerLevel(LogLevelInfo))
	repl := logger.Named("repl")
	repl.Info("command", zap.String("line", "insert 1"))
	repl.Debug("dropped")

	// The child follows the parent level.
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	repl.Debug("kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	require.Equal(t, "repl", lines[0]["component"])
	require.Equal(t, "kept", lines[1]["msg"])
}

func TestXLogger_FileAndConsoleTee(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	buf := &bytes.Buffer{}
	logger := NewXLogger(
		WithXLoggerConsoleWriter(buf),
		WithXLoggerFileWriter(&FileCoreConfig{
			FilePath: dir,
			Filename: "xtree.log",
		}),
		WithXLoggerLevel(LogLevelInfo),
	)
	for i := 0; i < 3; i++ {
		logger.Info("tee", zap.Int("i", i))
	}
	require.NoError(t, logger.Sync())
	require.NoError(t, logger.Close())

	require.Len(t, decodeLines(t, buf), 3)
	content, err := os.ReadFile(filepath.Join(dir, "xtree.log"))
	require.NoError(t, err)
	fileLines := decodeLines(t, bytes.NewBuffer(content))
	require.Len(t, fileLines, 3)
	require.Equal(t, float64(2), fileLines[2]["i"])

	// Reopening appends.
	logger = NewXLogger(
		WithXLoggerFileWriter(&FileCoreConfig{FilePath: dir, Filename: "xtree.log"}),
	)
	logger.Warn("again")
	require.NoError(t, logger.Close())
	content, err = os.ReadFile(filepath.Join(dir, "xtree.log"))
	require.NoError(t, err)
	require.Len(t, decodeLines(t, bytes.NewBuffer(content)), 4)
}

func TestSingleLog_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "taken"), 0o755))
	log := &singleLog{filePath: dir, filename: "taken"}
	_, err := log.Write([]byte("x"))
	require.Error(t, err)
	require.NoError(t, log.Close())
	require.NoError(t, log.Sync())
}

func TestMultiCore(t *testing.T) {
	var tee xLogMultiCore
	require.Nil(t, tee.writeSyncer())
	require.Nil(t, tee.levelEncoder())
	require.Nil(t, tee.timeEncoder())
	require.Nil(t, tee.outEncoder())
	require.False(t, tee.Enabled(zapcore.ErrorLevel))
	require.NoError(t, tee.Sync())
	require.NoError(t, tee.Close())

	lvl := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	tee = xLogTeeCore(
		newConsoleCore(a)(lvl, JSON, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder),
		newConsoleCore(b)(lvl, PlainText, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder),
	)
	require.Equal(t, zapcore.WarnLevel, tee.Level())
	require.False(t, tee.Enabled(zapcore.InfoLevel))
	require.True(t, tee.Enabled(zapcore.ErrorLevel))

	l := zap.New(tee.With([]zap.Field{zap.String("k", "v")}))
	l.Error("both")
	l.Info("none")
	require.Contains(t, a.String(), `"k":"v"`)
	require.Contains(t, b.String(), "both")
	require.NotContains(t, b.String(), "none")
}
