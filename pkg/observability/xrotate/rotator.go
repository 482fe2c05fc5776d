package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接用于任何接受 io.Writer 的场景（如 xlog 的输出目标）。
// 额外提供 Rotate 方法用于手动触发轮转。
//
// 扩展新实现时，必须满足以下约定：
//   - Close 后调用 Write 或 Rotate 应返回 [ErrClosed]
//   - Rotate 可以在任意两次调用之间执行
//   - 是否并发安全由实现声明
//
// 读取、定位等能力不属于本接口；[FileLog] 对这类调用返回 [ErrNotSupported]。
type Rotator interface {
	// Write 写入日志数据，满足轮转条件时自动轮转
	Write(p []byte) (n int, err error)

	// Close 关闭轮转器，释放资源；重复调用返回 [ErrClosed]
	Close() error

	// Rotate 手动触发轮转
	Rotate() error
}
