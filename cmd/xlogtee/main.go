// xlogtee 把标准输入逐行复制到带前缀的控制台和/或轮转日志文件。
//
// 用法:
//
//	xlogtee [选项] < input
//
// 选项:
//
//	-c, --config           配置文件（YAML/JSON）
//	-p, --prefix           行标签
//	    --no-prefix        不加行标签
//	    --datetime-format  行首时间戳的 Go time 布局
//	    --no-datetime      不加时间戳
//	    --separator        时间戳、标签、正文之间的分隔符
//	    --encoding         输出编码（WHATWG/IANA 名称，默认 UTF-8）
//	-f, --file             日志文件路径
//	    --backend          文件后端: numbered | lumberjack
//	    --max-size         单个文件最大字节数
//	    --max-age          活动文件最长存活时间
//	    --max-files        保留的备份数量
//	    --no-console       不输出到标准输出
//	    --color            强制为控制台标签着色
//	-w, --watch            配置文件变化时重新加载（需要 --config）
//
// 命令行选项覆盖配置文件中的同名项。
//
// 退出码:
//
//	0: 输入全部写出
//	1: 运行时错误（文件无法打开、写入失败等）
//	2: 参数错误（未知选项、配置无效等）
//
// 示例:
//
//	make 2>&1 | xlogtee -p build -f /var/log/build.log --max-size 10485760 --max-files 5
//	xlogtee -c tee.yaml --watch < /var/run/app.fifo
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:      "xlogtee",
		Usage:     "把标准输入逐行加前缀写入控制台和轮转日志文件",
		UsageText: "xlogtee [选项] < input",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags:     createFlags(),
		Action:    runTee,
		// 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				_, _, stderr := streams(cmd)
				fmt.Fprintln(stderr, err)
			}
		},
		Description: `xlogtee 从标准输入读取文本，每行加上 "时间戳 | 标签 | " 前缀后写出。

文件后端:
  numbered    按 --max-size / --max-age 切换，备份命名为 P.1 … P.k，
              --max-files 限制备份数量（0 表示不限制）
  lumberjack  按 MB 粒度切换，备份名带时间戳，可在配置中开启 gzip 压缩

--watch 模式下，配置文件的修改会在下一行输入之前生效。`,
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	return exitCode(app.Run(ctx, os.Args))
}

// exitCode 把 Run 的返回值映射为退出码，并输出错误信息
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	// flag 解析器已向 stderr 输出错误详情，此处仅设置退出码
	if isCLIUsageError(err) {
		return 2
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}

// usageError 参数或配置错误，退出码 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// cliUsageMessages urfave/cli 与 flag 包产生的参数错误特征
var cliUsageMessages = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"invalid boolean value",
}

func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, m := range cliUsageMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
