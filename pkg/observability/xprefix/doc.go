// Package xprefix 提供按行加前缀的写入器。
//
// [Writer] 包装任意 io.Writer，记录"下一个字节是否位于行首"的状态，
// 在每个行首注入"时间戳 + 分隔符"与"标签 + 分隔符"，其余字节原样透传。
//
// # 行状态
//
// 行状态在每次物理写入后更新：当且仅当最后写入的字节为 '\n' 时为 true。
// 状态跨 Write 调用保持，因此：
//
//	w := xprefix.New(&buf, xprefix.WithPrefix("A"))
//	w.WriteText("Test1")
//	w.WriteText("Test2\n")
//	w.WriteText("Test3")
//	// buf: "A | Test1Test2\nA | Test3"
//
// # 嵌套
//
// Writer 本身是 io.Writer，外层 Writer 会把内层发出的前缀当作行内容处理，
// 链式包装自然得到 "外层前缀 | 内层前缀 | 内容"，无需特殊处理。
//
// # 并发
//
// Writer 不加锁，不可在多个 goroutine 间无同步地共享。
//
// # 便捷构造
//
//   - [Stdout]、[Stderr]: 控制台输出，默认带时间戳
//   - [OpenFile]: 追加模式打开文件，Close 时一并关闭文件
//   - [LookupEncoding]: 按名称解析文本编码（utf-8、utf-16le、gbk 等）
package xprefix
