//go:build windows

package xrotate

import (
	"os"
	"syscall"
	"time"
)

func birthTime(_ string, info os.FileInfo) (time.Time, bool) {
	d, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok || d == nil {
		return time.Time{}, false
	}
	return time.Unix(0, d.CreationTime.Nanoseconds()), true
}
