// Package observability 提供日志输出相关的子包。
//
// 子包列表：
//   - xprefix: 按行加时间戳/标签前缀的写入器，支持嵌套和文本编码
//   - xrotate: 日志文件轮转，编号备份（FileLog）与 lumberjack 两种后端
//   - xlog: 结构化日志，基于 log/slog 扩展，输出可接入前缀与轮转
//
// 依赖方向为 xlog -> xrotate -> xprefix，下层不感知上层。
package observability
