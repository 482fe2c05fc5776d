package xlog

import "errors"

var (
	// ErrUnknownLevel 无法识别的日志级别名称
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 无法识别的输出格式
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrNilOutput SetOutput 传入 nil
	ErrNilOutput = errors.New("xlog: nil output")
)
