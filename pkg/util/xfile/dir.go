package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 日志目录默认权限（所有者 rwx，组 r-x，其他无权限）
const DefaultDirPerm = 0750

// EnsureDir 以 [DefaultDirPerm] 确保日志文件的父目录存在，目录已存在时不报错
//
// 底层使用 os.MkdirAll，会跟随符号链接；不可信输入应先经 [SanitizePath] 校验。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 确保文件的父目录存在，使用指定权限
//
// perm 必须包含所有者执行位（0100），否则目录无法遍历。
// 目录已存在时不修改其权限。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}
