package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	globalLogger atomic.Pointer[LoggerWithLevel]

	// globalMu 保护 globalOnce 的执行与重置
	globalMu   sync.Mutex
	globalOnce sync.Once
)

func initDefault() LoggerWithLevel {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalOnce.Do(func() {
		logger, _, err := New().Build()
		if err != nil {
			// 默认配置不应失败；失败时降级而不是 panic
			fmt.Fprintf(os.Stderr, "xlog: failed to build default logger: %v, using fallback\n", err)
			logger = newLogger(slog.NewTextHandler(os.Stderr, nil), new(slog.LevelVar), false, nil)
		}
		globalLogger.Store(&logger)
	})
	return *globalLogger.Load()
}

// Default 返回全局 Logger，首次调用时惰性创建（stderr、Info、text）
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	return initDefault()
}

// SetDefault 替换全局 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 恢复为未初始化状态，仅用于测试
func ResetDefault() {
	globalMu.Lock()
	globalLogger.Store(nil)
	globalOnce = sync.Once{}
	globalMu.Unlock()
}

// globalEmit 全局函数比实例方法多一层调用
func globalEmit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.emit(ctx, level, msg, attrs, methodSkip+1)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelInfo:
		l.Info(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, slog.LevelDebug, msg, attrs)
}

// Info 使用全局 Logger 记录 Info 日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 使用全局 Logger 记录 Warn 日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, slog.LevelError, msg, attrs)
}

// Stack 使用全局 Logger 记录带调用栈的 Error 日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.stack(ctx, msg, attrs, methodSkip+1)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
