package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// 同时将 '/' 和 '\' 视为分隔符，以检测 Windows 风格路径穿越（即使在 Linux 上）。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对日志文件路径进行格式检查和规范化
//
// 接受绝对路径与相对路径；拒绝空路径、空字节、相对路径穿越和以分隔符结尾的目录路径。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析（"/var/log/../x.log" -> "/var/x.log"）。
//
// 本函数仅做格式净化，不把路径限制在某个目录之内。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}

	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}

	// 必须在 filepath.Clean 之前检查，Clean 会移除尾部分隔符
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)

	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}

	return cleaned, nil
}
