package xlog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omeyang/xlogutil/pkg/observability/xlog"
	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
	"github.com/omeyang/xlogutil/pkg/observability/xrotate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCleanup 测试结束时执行 cleanup
func testCleanup(t *testing.T, cleanup func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

func build(t *testing.T, b *xlog.Builder) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)
	return logger
}

// =============================================================================
// 基本输出
// =============================================================================

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug))

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	output := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\noutput: %s", want, output)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelWarn))

	ctx := context.Background()
	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())
	assert.True(t, logger.Enabled(ctx, xlog.LevelDebug))
	logger.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetFormat(" JSON "))

	logger.Info(context.Background(), "rotated", xlog.Path("/var/log/app.log"), xlog.Count(3))
	assert.Contains(t, buf.String(), `"msg":"rotated"`)
	assert.Contains(t, buf.String(), `"path":"/var/log/app.log"`)
	assert.Contains(t, buf.String(), `"count":3`)
}

func TestLogger_WithAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))

	child := logger.With(xlog.Component("tee")).WithGroup("file")
	child.Info(context.Background(), "opened", xlog.Bytes(42))

	output := buf.String()
	assert.Contains(t, output, "component=tee")
	assert.Contains(t, output, "file.bytes=42")

	// 空参数返回自身
	assert.Same(t, logger, logger.With())
	assert.Same(t, logger, logger.WithGroup(""))

	// 派生 logger 共享级别
	lwl, ok := child.(xlog.LoggerWithLevel)
	require.True(t, ok)
	lwl.SetLevel(xlog.LevelError)
	assert.Equal(t, xlog.LevelError, logger.GetLevel())
}

func TestLogger_Stack(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))

	attrs := make([]slog.Attr, 1, 4)
	attrs[0] = xlog.Err(errors.New("boom"))
	logger.Stack(context.Background(), "crashed", attrs...)

	output := buf.String()
	assert.Contains(t, output, "level=ERROR")
	assert.Contains(t, output, "error=boom")
	assert.Contains(t, output, "stack=")
	assert.Contains(t, output, "TestLogger_Stack")
	assert.Len(t, attrs, 1)
}

func TestLogger_AddSourcePointsToCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetAddSource(true))

	logger.Info(context.Background(), "where")
	assert.Contains(t, buf.String(), "xlog_test.go")
}

func TestLogger_ReplaceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).
		SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == xlog.KeyPath {
				return slog.String(a.Key, "***")
			}
			return a
		}))

	logger.Info(context.Background(), "masked", xlog.Path("/secret"))
	assert.Contains(t, buf.String(), "path=***")
	assert.NotContains(t, buf.String(), "/secret")
}

// =============================================================================
// 错误处理
// =============================================================================

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestLogger_OnError(t *testing.T) {
	writeErr := errors.New("disk full")

	var got []error
	logger := build(t, xlog.New().
		SetOutput(failingWriter{writeErr}).
		SetOnError(func(err error) { got = append(got, err) }))

	logger.Info(context.Background(), "lost")
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], writeErr)
	assert.Equal(t, uint64(1), xlog.ErrorCount(logger))
}

func TestLogger_OnErrorPanicIsolated(t *testing.T) {
	logger := build(t, xlog.New().
		SetOutput(failingWriter{errors.New("x")}).
		SetOnError(func(error) { panic("callback") }))

	assert.NotPanics(t, func() {
		logger.Error(context.Background(), "lost")
	})
	assert.Equal(t, uint64(2), xlog.ErrorCount(logger))
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *xlog.Builder
		wantErr error
	}{
		{"未知级别", xlog.New().SetLevelString("verbose"), xlog.ErrUnknownLevel},
		{"未知格式", xlog.New().SetFormat("xml"), xlog.ErrUnknownFormat},
		{"nil 输出", xlog.New().SetOutput(nil), xlog.ErrNilOutput},
		{"轮转路径为空", xlog.New().SetRotation(""), xrotate.ErrEmptyFilename},
		{"lumberjack 参数无效", xlog.New().SetLumberjack("x.log", xrotate.WithLumberjackMaxSizeMB(0)), xrotate.ErrInvalidMaxSize},
		{"首个错误生效", xlog.New().SetFormat("xml").SetLevelString("verbose"), xlog.ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, cleanup, err := tt.builder.Build()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, logger)
			assert.Nil(t, cleanup)
		})
	}
}

// =============================================================================
// 输出目标
// =============================================================================

func TestBuilder_SetRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, cleanup, err := xlog.New().
		SetRotation(path, xrotate.WithMaxSize(64), xrotate.WithMaxFiles(2)).
		Build()
	require.NoError(t, err)

	for range 10 {
		logger.Info(context.Background(), "rotating record", xlog.Count(1))
	}
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	data, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestBuilder_SetLumberjack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lj.log")

	logger, cleanup, err := xlog.New().
		SetLumberjack(path, xrotate.WithCompress(false)).
		SetFormat("json").
		Build()
	require.NoError(t, err)

	logger.Warn(context.Background(), "to lumberjack")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to lumberjack"`)
}

func TestBuilder_SetPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().
		SetOutput(&buf).
		SetPrefix(xprefix.WithPrefix("worker-1")))

	ctx := context.Background()
	logger.Info(ctx, "first")
	logger.Info(ctx, "second")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "worker-1 | time="), line)
	}
}

func TestBuilder_PrefixIntoRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, cleanup, err := xlog.New().
		SetRotation(path, xrotate.WithPrefixOptions(xprefix.WithPrefix("file"))).
		SetPrefix(xprefix.WithPrefix("slog")).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "nested")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "file | slog | time="), string(data))
}

func TestBuilder_ReplacedRotationIsClosed(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	logger := build(t, xlog.New().
		SetRotation(filepath.Join(dir, "first.log")).
		SetOutput(&buf))

	logger.Info(context.Background(), "to buffer")
	assert.Contains(t, buf.String(), "to buffer")

	data, err := os.ReadFile(filepath.Join(dir, "first.log"))
	require.NoError(t, err)
	assert.Empty(t, data)
}
