package xrotate

import (
	"io"
	"os"
	"time"
)

// fileSystem FileLog 使用的文件系统原语，用于依赖注入和测试
type fileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (logFile, error)
	Exists(name string) bool
	Rename(oldpath, newpath string) error
	Remove(name string) error

	// Created 返回文件的创建时间；文件系统不记录创建时间时退化为修改时间
	Created(name string) (time.Time, error)
}

// logFile 活动日志文件句柄，*os.File 实现了此接口
type logFile interface {
	io.WriteCloser
	Sync() error
	Stat() (os.FileInfo, error)
}

// 确保 *os.File 实现 logFile 接口（编译时检查）
var _ logFile = (*os.File)(nil)

// osFS 基于 os 包的 fileSystem 实现
type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (logFile, error) {
	//#nosec G304 -- 路径在 NewFileLog 中已经过 SanitizePath 校验
	return os.OpenFile(name, flag, perm)
}

func (osFS) Exists(name string) bool {
	_, err := os.Lstat(name)
	return err == nil
}

func (osFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (osFS) Remove(name string) error { return os.Remove(name) }

func (osFS) Created(name string) (time.Time, error) {
	info, err := os.Stat(name)
	if err != nil {
		return time.Time{}, err
	}
	if t, ok := birthTime(name, info); ok {
		return t, nil
	}
	return info.ModTime(), nil
}
