// Package xfile 提供日志文件相关的路径工具。
//
//   - [SanitizePath]: 路径格式净化（空路径、空字节、相对路径穿越、目录路径）
//   - [EnsureDir]、[EnsureDirWithPerm]: 确保文件的父目录存在
//   - [BackupPath]、[LastBackupIndex]: 编号备份文件 "P.1 … P.k" 的命名与查找
//
// # 路径穿越检测
//
// 只有 ".." 作为独立路径段时才被视为穿越，"app..2024.log" 之类的合法文件名不会误判。
//
// # 编号备份
//
// 备份文件名为基础路径加 "." 与正整数后缀，P.1 最新，后缀越大越旧。
// 后缀必须连续，[LastBackupIndex] 从 1 开始查找，遇到第一个缺口即停止。
package xfile
