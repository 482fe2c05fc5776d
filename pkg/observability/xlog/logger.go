package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var _ LoggerWithLevel = (*xlogger)(nil)

const (
	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

// xlogger 派生 logger 与父级共享 levelVar、errors、inOnError
type xlogger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	addSource bool

	onError   func(error)
	errors    *atomic.Uint64
	inOnError *atomic.Bool
}

func newLogger(h slog.Handler, levelVar *slog.LevelVar, addSource bool, onError func(error)) *xlogger {
	return &xlogger{
		handler:   h,
		levelVar:  levelVar,
		addSource: addSource,
		onError:   onError,
		errors:    new(atomic.Uint64),
		inOnError: new(atomic.Bool),
	}
}

func (l *xlogger) derive(h slog.Handler) *xlogger {
	c := *l
	c.handler = h
	return &c
}

// emit 构造记录并交给 handler
//
// skip 为 runtime.Callers 需要跳过的帧数，使 AddSource 指向业务调用方。
//
//go:noinline
func (l *xlogger) emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, skip int) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		runtime.Callers(skip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	if err := l.handler.Handle(ctx, r); err != nil {
		l.reportError(err)
	}
}

// reportError 计数并回调 onError
//
// 回调中再次出错不会重入；回调 panic 被吞掉并计数。
func (l *xlogger) reportError(err error) {
	l.errors.Add(1)
	if l.onError == nil || !l.inOnError.CompareAndSwap(false, true) {
		return
	}
	defer l.inOnError.Store(false)
	defer func() {
		if r := recover(); r != nil {
			l.errors.Add(1)
		}
	}()
	l.onError(err)
}

// Callers → emit → Debug/Info/... → 业务代码
const methodSkip = 3

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelDebug, msg, attrs, methodSkip)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelInfo, msg, attrs, methodSkip)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelWarn, msg, attrs, methodSkip)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelError, msg, attrs, methodSkip)
}

func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.stack(ctx, msg, attrs, methodSkip+1)
}

//go:noinline
func (l *xlogger) stack(ctx context.Context, msg string, attrs []slog.Attr, skip int) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	attrs = append(attrs[:len(attrs):len(attrs)], slog.String(KeyStack, captureStack()))
	l.emit(ctx, slog.LevelError, msg, attrs, skip)
}

// captureStack 返回当前 goroutine 的调用栈，超过 maxStackSize 时截断
func captureStack() string {
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		b := make([]byte, initialStackSize)
		bufp = &b
	}
	defer stackPool.Put(bufp)

	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		// 扩展后的缓冲区不放回池中
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 归还前拷贝
	return string(buf[:n])
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

func (l *xlogger) SetLevel(level Level) { l.levelVar.Set(slog.Level(level)) }

func (l *xlogger) GetLevel() Level { return Level(l.levelVar.Level()) }

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回 handler 写入失败的次数（含回调 panic）
func ErrorCount(l Logger) uint64 {
	if xl, ok := l.(*xlogger); ok {
		return xl.errors.Load()
	}
	return 0
}
