package xprefix

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed 写入器已释放
	ErrClosed = errors.New("xprefix: writer is closed")

	// ErrIO 底层输出失败，原始错误通过 errors.Is/As 仍可获取
	ErrIO = errors.New("xprefix: i/o failure")

	// ErrEncoding 文本无法按配置的编码转换
	ErrEncoding = errors.New("xprefix: encoding failure")

	// ErrUnknownEncoding 编码名称无法识别
	ErrUnknownEncoding = errors.New("xprefix: unknown encoding")
)

// wrapIO 将底层错误包装为 ErrIO。
// 已经是本包哨兵错误的（例如嵌套 Writer 返回的）不重复包装。
func wrapIO(err error) error {
	if err == nil || errors.Is(err, ErrIO) || errors.Is(err, ErrClosed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
