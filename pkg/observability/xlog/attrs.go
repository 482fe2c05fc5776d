package xlog

import (
	"log/slog"
	"time"
)

// 标准字段名
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyComponent = "component"
	KeyPath      = "path"
	KeyCount     = "count"
	KeyBytes     = "bytes"
	KeyDuration  = "duration"
)

// Err 错误属性；err 为 nil 时返回空属性，slog 会忽略它
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 组件名称
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Path 文件路径
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Count 计数
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Bytes 字节数
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Duration 人类可读的耗时（如 "1m30s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}
