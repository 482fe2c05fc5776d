package xconf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xlogutil/pkg/observability/xlog"
	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
	"github.com/omeyang/xlogutil/pkg/observability/xrotate"
)

// 文件后端
const (
	BackendNumbered   = "numbered"
	BackendLumberjack = "lumberjack"
)

const megabyte = 1 << 20

// Config 日志工具配置
type Config struct {
	// Prefix 行标签，空字符串表示不加标签
	Prefix string `koanf:"prefix"`

	// DateTimeFormat 行首时间戳的 time 布局，空字符串表示不加时间戳
	DateTimeFormat string `koanf:"datetime_format"`

	Separator string `koanf:"separator"`

	// Encoding 文本编码名称（WHATWG/IANA），空字符串为 UTF-8
	Encoding string `koanf:"encoding"`

	File    FileConfig    `koanf:"file"`
	Console ConsoleConfig `koanf:"console"`
	Log     LogConfig     `koanf:"log"`
}

// FileConfig 文件输出配置，Path 为空时不写文件
type FileConfig struct {
	Path    string `koanf:"path"`
	Backend string `koanf:"backend"`

	// MaxSize 字节数；lumberjack 后端向上取整到 MB
	MaxSize int64 `koanf:"max_size"`

	// MaxAge numbered 后端为活动文件的最长存活时间；
	// lumberjack 后端为备份保留时间，向上取整到天
	MaxAge time.Duration `koanf:"max_age"`

	// MaxFiles 保留的备份数量
	MaxFiles int `koanf:"max_files"`

	AutoFlush bool `koanf:"auto_flush"`
	Sync      bool `koanf:"sync"`

	// Compress 仅 lumberjack 后端有效
	Compress bool `koanf:"compress"`
}

// ConsoleConfig 控制台输出配置
type ConsoleConfig struct {
	Enabled bool `koanf:"enabled"`
	Color   bool `koanf:"color"`
}

// LogConfig 工具自身诊断日志的配置
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default 返回默认配置：控制台输出、带时间戳、不写文件
func Default() Config {
	return Config{
		DateTimeFormat: xprefix.DefaultDateTimeFormat,
		Separator:      xprefix.DefaultSeparator,
		File: FileConfig{
			Backend:   BackendNumbered,
			AutoFlush: true,
		},
		Console: ConsoleConfig{Enabled: true},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Validate 校验配置并规范化后端名称
func (c *Config) Validate() error {
	var errs []error

	c.File.Backend = strings.ToLower(strings.TrimSpace(c.File.Backend))
	switch c.File.Backend {
	case "":
		c.File.Backend = BackendNumbered
	case BackendNumbered:
	case BackendLumberjack:
		if c.File.MaxFiles <= 0 && c.File.MaxAge <= 0 {
			errs = append(errs, errors.New("lumberjack backend needs file.max_files or file.max_age"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown file.backend %q", c.File.Backend))
	}

	if c.File.Path == "" && !c.Console.Enabled {
		errs = append(errs, errors.New("no output: set file.path or enable console"))
	}
	if _, err := xprefix.LookupEncoding(c.Encoding); err != nil {
		errs = append(errs, err)
	}
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(strings.TrimSpace(c.Log.Format)); f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// PrefixOptions 转换为 xprefix 选项（时间戳、标签、分隔符、编码）
func (c *Config) PrefixOptions() ([]xprefix.Option, error) {
	enc, err := xprefix.LookupEncoding(c.Encoding)
	if err != nil {
		return nil, err
	}
	opts := []xprefix.Option{
		xprefix.WithSeparator(c.Separator),
		xprefix.WithEncoding(enc),
	}
	if c.DateTimeFormat != "" {
		opts = append(opts, xprefix.WithDateTimeFormat(c.DateTimeFormat))
	}
	if c.Prefix != "" {
		opts = append(opts, xprefix.WithPrefix(c.Prefix))
	}
	return opts, nil
}

// Policy 返回 numbered 后端的轮转边界
func (c *Config) Policy() xrotate.Policy {
	return xrotate.Policy{
		MaxSize:  c.File.MaxSize,
		MaxAge:   c.File.MaxAge,
		MaxFiles: c.File.MaxFiles,
	}
}

// RotateOptions 转换为 numbered 后端（xrotate.FileLog）的选项，不含前缀装饰
func (c *Config) RotateOptions() []xrotate.Option {
	return []xrotate.Option{
		xrotate.WithMaxSize(c.File.MaxSize),
		xrotate.WithMaxAge(c.File.MaxAge),
		xrotate.WithMaxFiles(c.File.MaxFiles),
		xrotate.WithAutoFlush(c.File.AutoFlush),
		xrotate.WithSync(c.File.Sync),
	}
}

// LumberjackOptions 转换为 lumberjack 后端的选项
//
// 未设置的项沿用 xrotate 的默认值。
func (c *Config) LumberjackOptions() []xrotate.LumberjackOption {
	opts := []xrotate.LumberjackOption{xrotate.WithCompress(c.File.Compress)}
	if c.File.MaxSize > 0 {
		opts = append(opts, xrotate.WithLumberjackMaxSizeMB(int(ceilDiv(c.File.MaxSize, megabyte))))
	}
	if c.File.MaxFiles > 0 || c.File.MaxAge > 0 {
		opts = append(opts,
			xrotate.WithLumberjackMaxBackups(max(c.File.MaxFiles, 0)),
			xrotate.WithLumberjackMaxAgeDays(int(ceilDiv(int64(max(c.File.MaxAge, 0)), int64(24*time.Hour)))),
		)
	}
	return opts
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
