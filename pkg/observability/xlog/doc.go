// Package xlog 基于 log/slog 的结构化日志，供本仓库的命令行工具和库输出诊断信息。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：第一个配置错误之后的 Set 调用被跳过）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetRotation("/var/log/app.log", xrotate.WithMaxSize(10<<20), xrotate.WithMaxFiles(5)).
//		SetPrefix(xprefix.WithPrefix("app")).
//		Build()
//	defer cleanup()
//
// 输出目标三选一：[Builder.SetOutput]（任意 io.Writer，默认 stderr）、
// [Builder.SetRotation]（编号备份的 xrotate.FileLog）、
// [Builder.SetLumberjack]（按大小轮转的 lumberjack 后端）。
// [Builder.SetPrefix] 在最终输出外再包一层 xprefix.Writer，
// 每条记录的行首带上时间戳和标签。
//
// # 并发
//
// slog 的 handler 在 Write 前加锁，派生 logger（With/WithGroup）共享同一把锁，
// 因此即使输出是非并发安全的 FileLog，经 xlog 写入也是安全的。
// cleanup 不能与仍在进行的日志调用并发执行。
//
// # 全局 Logger
//
// [Default]、[SetDefault]、[ResetDefault] 以及 [Debug]、[Info]、[Warn]、[Error]、[Stack]。
// 适用于命令行工具等简单场景。
//
// # 便捷属性
//
// [Err]、[Component]、[Path]、[Count]、[Bytes]、[Duration]。
package xlog
