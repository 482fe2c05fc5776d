// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，路径净化、目录创建、编号备份路径
package util
