// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate）。
//
// # 当前实现
//
//   - [NewFileLog]: 编号备份（P.1 最新，后缀越大越旧），按文件年龄、大小、保留数量轮转，
//     写入先进入内存缓冲并按行加前缀，刷新时可把一次写入拆分到轮转边界两侧
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转，时间戳命名备份，可选 gzip 压缩
//
// # FileLog 的刷新流程
//
//  1. MaxAge 有界且 now-创建时间 > MaxAge：先轮转
//  2. MaxSize 有界且 缓冲字节 + 当前文件大小 > MaxSize：每次只写入 MaxSize-当前大小 字节，
//     写满即轮转，剩余字节继续写入新文件；单次写入大于 MaxSize 时会多次轮转
//  3. 否则整体写入
//  4. 无论哪条路径（包括出错），清空缓冲
//
// 前缀在进入缓冲时已经加上，因此计入大小预算。
//
// # 并发
//
// FileLog 不加锁，同一实例不得在多个 goroutine 间无同步地调用。
// lumberjack 实现内部加锁，可并发写入。
//
// # 崩溃一致性
//
// 轮转的重命名序列不是原子的：进程在改名过程中崩溃可能留下编号缺口或重复，
// 下次轮转从 P.1 开始查找连续编号，缺口之后的文件不再参与编号。
package xrotate
