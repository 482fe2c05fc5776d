package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler 第一次信号优雅取消（写完当前行、刷新并关闭文件），
// 第二次信号强制退出（退出码 130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
