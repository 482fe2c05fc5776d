package xrotate

import (
	"errors"
	"fmt"

	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrInvalidMaxSize lumberjack MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups lumberjack MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge lumberjack MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy lumberjack 的 MaxBackups 和 MaxAgeDays 不能同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")
)

// 运行期错误
var (
	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrNotSupported 轮转器只写，不支持读取、定位和截断
	ErrNotSupported = errors.New("xrotate: operation not supported")

	// ErrIO 文件系统操作失败。与 xprefix.ErrIO 为同一哨兵，
	// 任一包返回的 I/O 错误都可以用 errors.Is(err, ErrIO) 判断。
	ErrIO = xprefix.ErrIO
)

// wrapIO 将文件系统错误包装为 ErrIO，op 描述失败的步骤
func wrapIO(op string, err error) error {
	if err == nil || errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
