//go:build linux

package xrotate

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime 通过 statx 读取文件创建时间
//
// 内核或文件系统不支持 STATX_BTIME 时返回 false（如较老的 ext3、部分 overlayfs）。
func birthTime(name string, _ os.FileInfo) (time.Time, bool) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, name, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
