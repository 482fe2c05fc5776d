package xfile

import (
	"os"
	"strconv"
)

// BackupPath 返回第 index 个编号备份的路径：base + "." + index
func BackupPath(base string, index int) string {
	return base + "." + strconv.Itoa(index)
}

// LastBackupIndex 返回从 1 开始连续存在的最大备份编号，没有备份时返回 0
//
// exists 为 nil 时使用 os.Lstat 判断文件是否存在。
func LastBackupIndex(base string, exists func(path string) bool) int {
	if exists == nil {
		exists = fileExists
	}
	k := 0
	for exists(BackupPath(base, k+1)) {
		k++
	}
	return k
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
