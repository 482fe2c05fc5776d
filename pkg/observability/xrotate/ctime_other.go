//go:build !linux && !windows

package xrotate

import (
	"os"
	"time"
)

// birthTime 其他平台不读取创建时间，由调用方退化为修改时间
func birthTime(string, os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
