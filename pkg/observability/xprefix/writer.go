package xprefix

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding"
)

const (
	// DefaultSeparator 默认分隔符，用于时间戳、标签、正文之间以及块之间
	DefaultSeparator = " | "

	// DefaultDateTimeFormat 控制台/文件便捷构造使用的默认时间格式（可排序格式）
	DefaultDateTimeFormat = "2006-01-02T15:04:05"

	newline = '\n'
)

// 编译时断言
var (
	_ io.WriteCloser = (*Writer)(nil)
	_ Flusher        = (*Writer)(nil)
)

// Flusher 可选的刷新能力，底层输出实现时 [Writer.Flush] 会委托调用
type Flusher interface {
	Flush() error
}

// Writer 按行加前缀的写入器
//
// 零值不可用，通过 [New] 创建。
type Writer struct {
	w io.Writer

	enc       encoding.Encoding // nil 表示 UTF-8 直通
	layout    string
	hasLayout bool
	label     string
	hasLabel  bool
	sep       string

	atLineStart bool
	closeInner  bool
	closed      bool

	// 可注入的时钟（nil 时使用 time.Now），仅用于测试
	now func() time.Time
}

// Option Writer 配置选项函数
type Option func(*Writer)

// WithPrefix 设置每行的标签
func WithPrefix(label string) Option {
	return func(w *Writer) {
		w.label = label
		w.hasLabel = true
	}
}

// WithDateTimeFormat 设置行首时间戳格式（time.Format 布局）
func WithDateTimeFormat(layout string) Option {
	return func(w *Writer) {
		w.layout = layout
		w.hasLayout = true
	}
}

// WithSeparator 设置分隔符，默认 [DefaultSeparator]
func WithSeparator(sep string) Option {
	return func(w *Writer) {
		w.sep = sep
	}
}

// WithEncoding 设置文本编码，nil 表示 UTF-8
func WithEncoding(enc encoding.Encoding) Option {
	return func(w *Writer) {
		w.enc = enc
	}
}

// WithCloseInner 设置 Close 时是否关闭底层输出（需实现 io.Closer）
func WithCloseInner(closeInner bool) Option {
	return func(w *Writer) {
		w.closeInner = closeInner
	}
}

// New 创建包装 out 的 Writer，初始处于行首
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		w:           out,
		sep:         DefaultSeparator,
		atLineStart: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Write 实现 io.Writer
//
// p 按换行切分为若干子块（每块以 '\n' 结尾，末尾可能有一个不含换行的子块），
// 行首的子块先写前缀。返回值只计入 p 的字节，不含前缀。
// 空输入不产生任何写入，也不改变行状态。
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}

	written := 0
	for len(p) > 0 {
		end := len(p)
		if i := bytes.IndexByte(p, newline); i >= 0 {
			end = i + 1
		}
		chunk := p[:end]

		if w.atLineStart {
			if err := w.writePrefix(); err != nil {
				return written, err
			}
		}

		n, err := w.w.Write(chunk)
		written += n
		if err != nil {
			return written, wrapIO(err)
		}
		if n < len(chunk) {
			return written, wrapIO(io.ErrShortWrite)
		}

		w.atLineStart = chunk[len(chunk)-1] == newline
		p = p[end:]
	}
	return written, nil
}

// writePrefix 写出行首装饰：时间戳 + 分隔符，标签 + 分隔符
func (w *Writer) writePrefix() error {
	if w.hasLayout {
		if err := w.emit(w.clock().Format(w.layout) + w.sep); err != nil {
			return err
		}
	}
	if w.hasLabel {
		if err := w.emit(w.label + w.sep); err != nil {
			return err
		}
	}
	return nil
}

// emit 直接写底层输出，不经过行切分
func (w *Writer) emit(s string) error {
	b, err := w.encode(s)
	if err != nil {
		return err
	}
	n, err := w.w.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return wrapIO(err)
}

func (w *Writer) encode(s string) ([]byte, error) {
	if w.enc == nil {
		return []byte(s), nil
	}
	// 与常见运行时一致：不可表示的字符替换为编码的替换字符，而不是报错
	b, err := encoding.ReplaceUnsupported(w.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return b, nil
}

func (w *Writer) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// WriteText 按配置的编码写入一段文本
//
// 行切分在编码之前进行，多字节编码（如 UTF-16）的换行不会被拆开。
func (w *Writer) WriteText(s string) error {
	if w.closed {
		return ErrClosed
	}
	if w.enc == nil {
		_, err := w.Write([]byte(s))
		return err
	}

	for len(s) > 0 {
		end := len(s)
		if i := strings.IndexByte(s, newline); i >= 0 {
			end = i + 1
		}
		chunk := s[:end]

		if w.atLineStart {
			if err := w.writePrefix(); err != nil {
				return err
			}
		}
		if err := w.emit(chunk); err != nil {
			return err
		}

		w.atLineStart = chunk[len(chunk)-1] == newline
		s = s[end:]
	}
	return nil
}

// WriteLine 写入一行文本（追加平台行结束符）
func (w *Writer) WriteLine(s string) error {
	return w.WriteText(s + LineTerminator)
}

// WriteBlocks 以分隔符连接各块后一次写入；空列表不写入
func (w *Writer) WriteBlocks(blocks ...string) error {
	return w.WriteText(strings.Join(blocks, w.sep))
}

// WriteBlocksLine 以分隔符连接各块并追加行结束符
func (w *Writer) WriteBlocksLine(blocks ...string) error {
	return w.WriteLine(strings.Join(blocks, w.sep))
}

// EndLine 只写行结束符，结束当前行
func (w *Writer) EndLine() error {
	return w.WriteText(LineTerminator)
}

// Flush 底层输出实现 [Flusher] 时委托刷新
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	if f, ok := w.w.(Flusher); ok {
		return wrapIO(f.Flush())
	}
	return nil
}

// Close 释放写入器
//
// 启用 WithCloseInner 且底层实现 io.Closer 时一并关闭。
// 重复调用返回 [ErrClosed]。
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if !w.closeInner {
		return nil
	}
	if c, ok := w.w.(io.Closer); ok {
		return wrapIO(c.Close())
	}
	return nil
}

// AtLineStart 下一个写入的字节是否位于行首
func (w *Writer) AtLineStart() bool { return w.atLineStart }

// Prefix 返回标签及是否已设置
func (w *Writer) Prefix() (string, bool) { return w.label, w.hasLabel }

// SetPrefix 设置标签
func (w *Writer) SetPrefix(label string) {
	w.label = label
	w.hasLabel = true
}

// ClearPrefix 取消标签
func (w *Writer) ClearPrefix() {
	w.label = ""
	w.hasLabel = false
}

// DateTimeFormat 返回时间格式及是否已设置
func (w *Writer) DateTimeFormat() (string, bool) { return w.layout, w.hasLayout }

// SetDateTimeFormat 设置时间格式
func (w *Writer) SetDateTimeFormat(layout string) {
	w.layout = layout
	w.hasLayout = true
}

// ClearDateTimeFormat 取消时间戳
func (w *Writer) ClearDateTimeFormat() {
	w.layout = ""
	w.hasLayout = false
}

// Separator 返回分隔符
func (w *Writer) Separator() string { return w.sep }

// SetSeparator 设置分隔符
func (w *Writer) SetSeparator(sep string) { w.sep = sep }

// Encoding 返回文本编码，nil 表示 UTF-8
func (w *Writer) Encoding() encoding.Encoding { return w.enc }

// SetEncoding 设置文本编码
func (w *Writer) SetEncoding(enc encoding.Encoding) { w.enc = enc }
