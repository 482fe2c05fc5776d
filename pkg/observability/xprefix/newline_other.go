//go:build !windows

package xprefix

// LineTerminator 平台行结束符
const LineTerminator = "\n"
