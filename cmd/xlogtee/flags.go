package main

import (
	"errors"

	"github.com/omeyang/xlogutil/pkg/config/xconf"
	"github.com/urfave/cli/v3"
)

// flag 名称
const (
	flagConfig         = "config"
	flagPrefix         = "prefix"
	flagDateTimeFormat = "datetime-format"
	flagSeparator      = "separator"
	flagEncoding       = "encoding"
	flagFile           = "file"
	flagBackend        = "backend"
	flagMaxSize        = "max-size"
	flagMaxAge         = "max-age"
	flagMaxFiles       = "max-files"
	flagNoConsole      = "no-console"
	flagColor          = "color"
	flagWatch          = "watch"
	flagNoDateTime     = "no-datetime"
	flagNoPrefix       = "no-prefix"
)

func createFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "配置文件路径（.yaml/.yml/.json）",
		},
		&cli.StringFlag{
			Name:    flagPrefix,
			Aliases: []string{"p"},
			Usage:   "行标签",
		},
		&cli.BoolFlag{
			Name:  flagNoPrefix,
			Usage: "不加行标签，优先于 --prefix",
		},
		&cli.StringFlag{
			Name:  flagDateTimeFormat,
			Usage: "行首时间戳的 Go time 布局",
		},
		&cli.BoolFlag{
			Name:  flagNoDateTime,
			Usage: "不加时间戳，优先于 --datetime-format",
		},
		&cli.StringFlag{
			Name:  flagSeparator,
			Usage: "分隔符",
		},
		&cli.StringFlag{
			Name:  flagEncoding,
			Usage: "输出编码，如 utf-16le、gbk、shift_jis",
		},
		&cli.StringFlag{
			Name:    flagFile,
			Aliases: []string{"f"},
			Usage:   "日志文件路径",
		},
		&cli.StringFlag{
			Name:  flagBackend,
			Usage: "文件后端: numbered | lumberjack",
		},
		&cli.Int64Flag{
			Name:  flagMaxSize,
			Usage: "单个文件最大字节数，0 表示不按大小切换",
		},
		&cli.DurationFlag{
			Name:  flagMaxAge,
			Usage: "活动文件最长存活时间，0 表示不按时间切换",
		},
		&cli.IntFlag{
			Name:  flagMaxFiles,
			Usage: "保留的备份数量，0 表示不限制",
		},
		&cli.BoolFlag{
			Name:  flagNoConsole,
			Usage: "不输出到标准输出",
		},
		&cli.BoolFlag{
			Name:  flagColor,
			Usage: "强制为控制台标签着色",
		},
		&cli.BoolFlag{
			Name:    flagWatch,
			Aliases: []string{"w"},
			Usage:   "配置文件变化时重新加载",
		},
	}
}

// loadConfig 读取 --config 指定的文件（未指定时使用默认配置）并应用命令行覆盖
//
// 配置无效时返回 usageError，文件读取失败原样返回。
func loadConfig(cmd *cli.Command) (*xconf.Config, error) {
	cfg := xconf.Default()
	if path := cmd.String(flagConfig); path != "" {
		loaded, err := xconf.Load(path)
		if err != nil {
			if isConfigError(err) {
				return nil, &usageError{err: err}
			}
			return nil, err
		}
		cfg = *loaded
	}
	return resolve(&cfg, cmd)
}

// resolve 在 cfg 上应用命令行覆盖并重新校验
func resolve(cfg *xconf.Config, cmd *cli.Command) (*xconf.Config, error) {
	applyFlags(cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return nil, &usageError{err: err}
	}
	return cfg, nil
}

// applyFlags 只覆盖命令行显式设置的项
func applyFlags(cfg *xconf.Config, cmd *cli.Command) {
	if cmd.IsSet(flagPrefix) {
		cfg.Prefix = cmd.String(flagPrefix)
	}
	if cmd.IsSet(flagDateTimeFormat) {
		cfg.DateTimeFormat = cmd.String(flagDateTimeFormat)
	}
	if cmd.IsSet(flagSeparator) {
		cfg.Separator = cmd.String(flagSeparator)
	}
	if cmd.IsSet(flagEncoding) {
		cfg.Encoding = cmd.String(flagEncoding)
	}
	if cmd.IsSet(flagFile) {
		cfg.File.Path = cmd.String(flagFile)
	}
	if cmd.IsSet(flagBackend) {
		cfg.File.Backend = cmd.String(flagBackend)
	}
	if cmd.IsSet(flagMaxSize) {
		cfg.File.MaxSize = cmd.Int64(flagMaxSize)
	}
	if cmd.IsSet(flagMaxAge) {
		cfg.File.MaxAge = cmd.Duration(flagMaxAge)
	}
	if cmd.IsSet(flagMaxFiles) {
		cfg.File.MaxFiles = cmd.Int(flagMaxFiles)
	}
	// 空字符串无法作为 flag 的值传入，关闭用单独的开关
	if cmd.Bool(flagNoPrefix) {
		cfg.Prefix = ""
	}
	if cmd.Bool(flagNoDateTime) {
		cfg.DateTimeFormat = ""
	}
	if cmd.Bool(flagNoConsole) {
		cfg.Console.Enabled = false
	}
	if cmd.Bool(flagColor) {
		cfg.Console.Color = true
	}
}

func isConfigError(err error) bool {
	return errors.Is(err, xconf.ErrInvalidConfig) ||
		errors.Is(err, xconf.ErrUnsupportedFormat) ||
		errors.Is(err, xconf.ErrParseFailed) ||
		errors.Is(err, xconf.ErrUnmarshalFailed) ||
		errors.Is(err, xconf.ErrEmptyPath)
}
