package xrotate

import (
	"fmt"
	"os"
	"sync"

	"github.com/omeyang/xlogutil/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// lumberjack 后端默认值与上限
const (
	DefaultLumberjackMaxSizeMB  = 100
	DefaultLumberjackMaxBackups = 7
	DefaultLumberjackMaxAgeDays = 30

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

type lumberjackConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool

	// 0 表示沿用 lumberjack 的 0600
	fileMode os.FileMode

	// 不得向同一 Rotator 写入，否则会递归加锁
	onError func(error)
}

// LumberjackOption lumberjack 后端配置选项函数
type LumberjackOption func(*lumberjackConfig)

// WithLumberjackMaxSizeMB 设置单个文件最大大小（MB，1~10240）
func WithLumberjackMaxSizeMB(mb int) LumberjackOption {
	return func(c *lumberjackConfig) { c.maxSizeMB = mb }
}

// WithLumberjackMaxBackups 设置保留的备份数量（0~1024，0 表示只按天数清理）
func WithLumberjackMaxBackups(n int) LumberjackOption {
	return func(c *lumberjackConfig) { c.maxBackups = n }
}

// WithLumberjackMaxAgeDays 设置备份保留天数（0~3650，0 表示只按数量清理）
func WithLumberjackMaxAgeDays(days int) LumberjackOption {
	return func(c *lumberjackConfig) { c.maxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩备份
func WithCompress(compress bool) LumberjackOption {
	return func(c *lumberjackConfig) { c.compress = compress }
}

// WithLocalTime 设置备份文件名中的时间戳是否使用本地时间（默认 UTC）
func WithLocalTime(local bool) LumberjackOption {
	return func(c *lumberjackConfig) { c.localTime = local }
}

// WithLumberjackFileMode 设置日志文件权限
//
// lumberjack 固定以 0600 创建文件，这里在写入和轮转后通过 chmod 调整，
// 因此存在短暂的 0600 窗口。
func WithLumberjackFileMode(mode os.FileMode) LumberjackOption {
	return func(c *lumberjackConfig) { c.fileMode = mode }
}

// WithOnError 设置内部错误（如 chmod 失败）的回调
//
// 不通过日志库上报：轮转器本身常作为日志输出，上报失败会递归写入。
func WithOnError(fn func(error)) LumberjackOption {
	return func(c *lumberjackConfig) { c.onError = fn }
}

// lumberjackRotator 基于 lumberjack 的 Rotator，并发安全
type lumberjackRotator struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)

	mu     sync.Mutex
	closed bool

	// 自上次校验权限以来写入的字节数，超过 maxBytes 说明 lumberjack 可能已自动轮转
	modeApplied bool
	written     int64
	maxBytes    int64

	// 可注入的系统调用（nil 时使用 os 标准库），仅用于测试
	statFn  func(string) (os.FileInfo, error)
	chmodFn func(string, os.FileMode) error
}

// NewLumberjack 创建按大小轮转、时间戳命名备份的轮转器
//
// 与 [FileLog] 不同，备份名形如 name-2006-01-02T15-04-05.000.log，
// 可选 gzip 压缩，清理在后台 goroutine 中进行。
func NewLumberjack(filename string, opts ...LumberjackOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := lumberjackConfig{
		maxSizeMB:  DefaultLumberjackMaxSizeMB,
		maxBackups: DefaultLumberjackMaxBackups,
		maxAgeDays: DefaultLumberjackMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, wrapIO("mkdir", err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
		path:     safePath,
		fileMode: cfg.fileMode,
		onError:  cfg.onError,
		maxBytes: int64(cfg.maxSizeMB) * 1024 * 1024,
	}, nil
}

func (c *lumberjackConfig) validate() error {
	switch {
	case c.maxSizeMB <= 0 || c.maxSizeMB > maxSizeMB:
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, c.maxSizeMB, maxSizeMB)
	case c.maxBackups < 0 || c.maxBackups > maxBackups:
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.maxBackups, maxBackups)
	case c.maxAgeDays < 0 || c.maxAgeDays > maxAgeDays:
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.maxAgeDays, maxAgeDays)
	case c.maxBackups == 0 && c.maxAgeDays == 0:
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	case c.fileMode&^os.FileMode(0o777) != 0:
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, c.fileMode)
	}
	return nil
}

// Write 实现 io.Writer
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		return n, wrapIO("write", err)
	}

	// 权限调整尽力而为，不影响写入结果
	if r.fileMode != 0 {
		r.written += int64(n)
		if !r.modeApplied || r.written >= r.maxBytes {
			r.report(r.ensureFileMode())
		}
	}
	return n, nil
}

// Rotate 手动轮转
func (r *lumberjackRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		return wrapIO("rotate", err)
	}
	if r.fileMode != 0 {
		r.modeApplied = false
		r.report(r.ensureFileMode())
	}
	return nil
}

// Close 关闭当前文件；重复调用返回 [ErrClosed]
//
// 首次关闭失败后不会重试，状态仍标记为已关闭。
func (r *lumberjackRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return wrapIO("close", r.logger.Close())
}

// ensureFileMode 检查并调整文件权限，调用方持有 mu
func (r *lumberjackRotator) ensureFileMode() error {
	stat := r.statFn
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			// lumberjack 延迟创建文件
			return nil
		}
		return err
	}

	if info.Mode().Perm() != r.fileMode {
		chmod := r.chmodFn
		if chmod == nil {
			chmod = os.Chmod
		}
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := chmod(r.path, r.fileMode); err != nil {
			return err
		}
	}

	r.modeApplied = true
	r.written = 0
	return nil
}

// report 回调 panic 被隔离，不影响写入
func (r *lumberjackRotator) report(err error) {
	if err == nil || r.onError == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	r.onError(err)
}
