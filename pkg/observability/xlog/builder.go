package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
	"github.com/omeyang/xlogutil/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数，返回空 Key 的 Attr 会移除该属性
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器，一次性使用
type Builder struct {
	output      io.Writer
	closer      io.Closer // 由 Builder 创建、随 cleanup 关闭的轮转器
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	prefixOpts  []xprefix.Option
	prefixed    bool
	onError     func(error)
	err         error
}

// New 创建构建器：stderr、Info 级别、text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = ErrNilOutput
		return b
	}
	b.releaseCloser()
	b.output = w
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err == nil {
		b.levelVar.Set(slog.Level(level))
	}
	return b
}

// SetLevelString 通过名称设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值视为 text
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "text":
		b.format = "text"
	case "json":
		b.format = "json"
	default:
		b.err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return b
}

// SetAddSource 是否记录源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 输出到编号备份的轮转文件（P.1 最新）
func (b *Builder) SetRotation(path string, opts ...xrotate.Option) *Builder {
	if b.err != nil {
		return b
	}
	l, err := xrotate.NewFileLog(path, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.releaseCloser()
	b.output, b.closer = l, l
	return b
}

// SetLumberjack 输出到 lumberjack 轮转文件（时间戳命名备份，可压缩）
func (b *Builder) SetLumberjack(path string, opts ...xrotate.LumberjackOption) *Builder {
	if b.err != nil {
		return b
	}
	r, err := xrotate.NewLumberjack(path, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.releaseCloser()
	b.output, b.closer = r, r
	return b
}

// SetPrefix 在输出外包一层行前缀写入器
//
// 不传选项时只启用包装（无时间戳、无标签），可配合 xprefix 的 setter 使用。
func (b *Builder) SetPrefix(opts ...xprefix.Option) *Builder {
	b.prefixOpts = append(b.prefixOpts, opts...)
	b.prefixed = true
	return b
}

// SetOnError 设置写入失败的回调
//
// 回调在日志调用的 goroutine 中同步执行；不得向同一 logger 写入失败的目标。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性替换函数（重命名、脱敏、过滤）
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// releaseCloser 被后续输出设置覆盖的轮转器立即关闭
func (b *Builder) releaseCloser() {
	if b.closer != nil {
		_ = b.closer.Close()
		b.closer = nil
	}
}

// Build 构建 Logger
//
// 返回的 cleanup 关闭 Builder 创建的轮转文件，可重复调用。
// 配置错误时已创建的轮转文件会被关闭。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		b.releaseCloser()
		return nil, nil, b.err
	}

	out := b.output
	if b.prefixed {
		out = xprefix.New(out, b.prefixOpts...)
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return newLogger(handler, b.levelVar, b.addSource, b.onError), b.cleanup(), nil
}

func (b *Builder) cleanup() func() error {
	closer := b.closer
	b.closer = nil

	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() {
			if closer != nil {
				if cerr := closer.Close(); cerr != nil && !errors.Is(cerr, xrotate.ErrClosed) {
					err = cerr
				}
			}
		})
		return err
	}
}
