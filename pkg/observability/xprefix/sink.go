package xprefix

import (
	"fmt"
	"os"
	"strings"

	"github.com/omeyang/xlogutil/pkg/util/xfile"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultFileMode OpenFile 创建日志文件时使用的权限
const DefaultFileMode os.FileMode = 0o644

// Stdout 创建输出到标准输出的 Writer，默认带 [DefaultDateTimeFormat] 时间戳
//
// 返回的 Writer 不会关闭 os.Stdout。
func Stdout(opts ...Option) *Writer {
	return New(os.Stdout, consoleDefaults(opts)...)
}

// Stderr 创建输出到标准错误的 Writer，默认带 [DefaultDateTimeFormat] 时间戳
func Stderr(opts ...Option) *Writer {
	return New(os.Stderr, consoleDefaults(opts)...)
}

func consoleDefaults(opts []Option) []Option {
	return append([]Option{WithDateTimeFormat(DefaultDateTimeFormat)}, opts...)
}

// OpenFile 以追加模式打开（不存在则创建）日志文件并包装为 Writer
//
// 父目录不存在时自动创建。Writer.Close 会一并关闭文件。
func OpenFile(path string, opts ...Option) (*Writer, error) {
	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, wrapIO(err)
	}
	//#nosec G304 -- 路径已经过 SanitizePath 校验
	f, err := os.OpenFile(safePath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, DefaultFileMode)
	if err != nil {
		return nil, wrapIO(err)
	}
	opts = append([]Option{WithDateTimeFormat(DefaultDateTimeFormat)}, opts...)
	opts = append(opts, WithCloseInner(true))
	return New(f, opts...), nil
}

// LookupEncoding 按 WHATWG/IANA 名称解析文本编码
//
// 空字符串、"utf-8"、"utf8" 返回 nil（UTF-8 直通，不做转换）。
func LookupEncoding(name string) (encoding.Encoding, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16le", "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	}
	enc, err := htmlindex.Get(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}
