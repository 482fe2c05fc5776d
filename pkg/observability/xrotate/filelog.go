package xrotate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
	"github.com/omeyang/xlogutil/pkg/util/xfile"

	"golang.org/x/text/encoding"
)

// DefaultFileMode FileLog 创建日志文件的默认权限
const DefaultFileMode os.FileMode = 0o644

// 编译时断言
var (
	_ Rotator         = (*FileLog)(nil)
	_ xprefix.Flusher = (*FileLog)(nil)
)

// Policy 轮转边界，各字段非正数表示不限制
type Policy struct {
	// MaxSize 活动文件的最大字节数
	MaxSize int64

	// MaxAge 活动文件的最长存活时间，从文件系统记录的创建时间起算
	MaxAge time.Duration

	// MaxFiles 保留的编号备份数量（P.1..P.MaxFiles）
	MaxFiles int
}

type fileLogConfig struct {
	policy     Policy
	autoFlush  bool
	sync       bool
	fileMode   os.FileMode
	prefixOpts []xprefix.Option

	fs  fileSystem
	now func() time.Time
}

// Option FileLog 配置选项函数
type Option func(*fileLogConfig)

// WithMaxSize 设置活动文件的最大字节数，非正数表示不限制
func WithMaxSize(n int64) Option {
	return func(c *fileLogConfig) {
		c.policy.MaxSize = n
	}
}

// WithMaxAge 设置活动文件的最长存活时间，非正数表示不限制
func WithMaxAge(d time.Duration) Option {
	return func(c *fileLogConfig) {
		c.policy.MaxAge = d
	}
}

// WithMaxFiles 设置保留的备份数量，非正数表示不限制
func WithMaxFiles(n int) Option {
	return func(c *fileLogConfig) {
		c.policy.MaxFiles = n
	}
}

// WithAutoFlush 设置每次写入后是否立即刷新（默认 true）
//
// 关闭后写入只进入内存缓冲，直到显式调用 Flush/Close。
func WithAutoFlush(on bool) Option {
	return func(c *fileLogConfig) {
		c.autoFlush = on
	}
}

// WithSync 设置刷新时是否调用 fsync（默认 false）
func WithSync(on bool) Option {
	return func(c *fileLogConfig) {
		c.sync = on
	}
}

// WithFileMode 设置日志文件权限，仅允许权限位（0000~0777）
func WithFileMode(mode os.FileMode) Option {
	return func(c *fileLogConfig) {
		c.fileMode = mode
	}
}

// WithPrefixOptions 设置缓冲内容的行前缀装饰
func WithPrefixOptions(opts ...xprefix.Option) Option {
	return func(c *fileLogConfig) {
		c.prefixOpts = append(c.prefixOpts, opts...)
	}
}

// withFileSystem 替换文件系统实现，仅用于测试
func withFileSystem(fs fileSystem) Option {
	return func(c *fileLogConfig) {
		c.fs = fs
	}
}

// withClock 替换时钟，仅用于测试
func withClock(now func() time.Time) Option {
	return func(c *fileLogConfig) {
		c.now = now
	}
}

// FileLog 编号备份的轮转日志文件
//
// 写入先经过行前缀装饰进入内存缓冲，刷新时按 Policy 判断是否轮转后落盘。
// 备份命名为 P.1（最新）到 P.k（最旧）。
//
// 非并发安全，见包文档。
type FileLog struct {
	path    string
	file    logFile // 轮转失败后可能为 nil，下次写入时重新打开
	size    int64
	created time.Time

	buf    bytes.Buffer
	stream *xprefix.Writer

	policy    Policy
	autoFlush bool
	sync      bool
	fileMode  os.FileMode
	closed    bool

	fs  fileSystem
	now func() time.Time
}

// NewFileLog 打开（不存在则创建）path 处的日志文件
//
// 父目录不存在时自动创建（权限 0750）。已存在的文件以追加方式续写，
// 其大小和创建时间计入轮转判断。
func NewFileLog(path string, opts ...Option) (*FileLog, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}

	cfg := fileLogConfig{
		autoFlush: true,
		fileMode:  DefaultFileMode,
		fs:        osFS{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.fileMode&^os.FileMode(0o777) != 0 {
		return nil, fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, cfg.fileMode)
	}

	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, wrapIO("mkdir", err)
	}

	l := &FileLog{
		path:      safePath,
		policy:    cfg.policy,
		autoFlush: cfg.autoFlush,
		sync:      cfg.sync,
		fileMode:  cfg.fileMode,
		fs:        cfg.fs,
		now:       cfg.now,
	}
	l.stream = xprefix.New(&l.buf, cfg.prefixOpts...)

	if err := l.openFile(); err != nil {
		return nil, err
	}
	return l, nil
}

// openFile 打开活动文件并记录其大小和创建时间
func (l *FileLog) openFile() error {
	f, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, l.fileMode)
	if err != nil {
		return wrapIO("open", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return wrapIO("stat", err)
	}

	created, err := l.fs.Created(l.path)
	if err != nil {
		created = info.ModTime()
	}

	l.file = f
	l.size = info.Size()
	l.created = created
	return nil
}

// =============================================================================
// 写入
// =============================================================================

// Write 实现 io.Writer：经前缀装饰写入缓冲，启用自动刷新时立即刷新
//
// 返回值只计入 p 的字节。
func (l *FileLog) Write(p []byte) (int, error) {
	if l.closed {
		return 0, ErrClosed
	}
	n, err := l.stream.Write(p)
	if err != nil {
		return n, err
	}
	return n, l.maybeFlush()
}

// WriteText 按配置的编码写入文本
func (l *FileLog) WriteText(s string) error {
	return l.writeVia(func() error { return l.stream.WriteText(s) })
}

// WriteLine 写入一行文本
func (l *FileLog) WriteLine(s string) error {
	return l.writeVia(func() error { return l.stream.WriteLine(s) })
}

// WriteBlocks 以分隔符连接各块后写入
func (l *FileLog) WriteBlocks(blocks ...string) error {
	return l.writeVia(func() error { return l.stream.WriteBlocks(blocks...) })
}

// WriteBlocksLine 以分隔符连接各块并结束当前行
func (l *FileLog) WriteBlocksLine(blocks ...string) error {
	return l.writeVia(func() error { return l.stream.WriteBlocksLine(blocks...) })
}

// EndLine 结束当前行
func (l *FileLog) EndLine() error {
	return l.writeVia(l.stream.EndLine)
}

func (l *FileLog) writeVia(write func() error) error {
	if l.closed {
		return ErrClosed
	}
	if err := write(); err != nil {
		return err
	}
	return l.maybeFlush()
}

func (l *FileLog) maybeFlush() error {
	if !l.autoFlush {
		return nil
	}
	return l.flush()
}

// =============================================================================
// 刷新与轮转
// =============================================================================

// Flush 按轮转策略把缓冲写入活动文件
//
// 缓冲在任何路径上都会被清空，包括出错时；失败的字节不会重试。
func (l *FileLog) Flush() error {
	if l.closed {
		return ErrClosed
	}
	return l.flush()
}

func (l *FileLog) flush() error {
	defer l.buf.Reset()

	if l.policy.MaxAge > 0 && l.now().Sub(l.created) > l.policy.MaxAge {
		if err := l.rotate(); err != nil {
			return err
		}
	}

	return l.writePending(l.buf.Bytes())
}

// writePending 按大小上限写出 p；p 为空时什么都不做，不会因已有文件超限而轮转
func (l *FileLog) writePending(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if l.policy.MaxSize > 0 && int64(len(p))+l.size > l.policy.MaxSize {
		return l.writeSplit(p)
	}
	return l.commit(p)
}

// writeSplit 把 p 拆分到一个或多个文件中，每个文件恰好写满 MaxSize
func (l *FileLog) writeSplit(p []byte) error {
	limit := l.policy.MaxSize
	for int64(len(p))+l.size > limit {
		if l.size >= limit {
			// 已存在的文件本身就已写满
			if err := l.rotate(); err != nil {
				return err
			}
			continue
		}

		n := limit - l.size
		if err := l.commit(p[:n]); err != nil {
			return err
		}
		p = p[n:]

		if err := l.rotate(); err != nil {
			return err
		}
	}
	return l.commit(p)
}

// commit 把 p 写入活动文件
func (l *FileLog) commit(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if l.file == nil {
		if err := l.openFile(); err != nil {
			return err
		}
	}

	n, err := l.file.Write(p)
	l.size += int64(n)
	if err != nil {
		return wrapIO("write", err)
	}
	if l.sync {
		if err := l.file.Sync(); err != nil {
			return wrapIO("sync", err)
		}
	}
	return nil
}

// Rotate 手动轮转：先按 MaxSize 写出缓冲内容（可能因此先切分出备份），再执行重命名序列
//
// 不检查 MaxAge，手动轮转本身就会开始一个新文件。
func (l *FileLog) Rotate() error {
	if l.closed {
		return ErrClosed
	}
	err := l.writePending(l.buf.Bytes())
	l.buf.Reset()
	if err != nil {
		return err
	}
	return l.rotate()
}

// rotate 关闭活动文件，将 P.i 依次后移为 P.(i+1)，P 改名为 P.1，再打开新的 P
//
// 超出 MaxFiles 的最旧备份先被删除。任何一步失败立即返回，不回滚。
func (l *FileLog) rotate() error {
	// 前缀流包装的是 buf 而不是文件，轮转时保留，行状态跨文件延续
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		if err != nil {
			return wrapIO("close", err)
		}
	}

	k := xfile.LastBackupIndex(l.path, l.fs.Exists)
	if l.policy.MaxFiles > 0 {
		for ; k >= l.policy.MaxFiles; k-- {
			if err := l.fs.Remove(xfile.BackupPath(l.path, k)); err != nil {
				return wrapIO("remove", err)
			}
		}
	}

	for i := k; i >= 1; i-- {
		if err := l.fs.Rename(xfile.BackupPath(l.path, i), xfile.BackupPath(l.path, i+1)); err != nil {
			return wrapIO("rename", err)
		}
	}
	if err := l.fs.Rename(l.path, xfile.BackupPath(l.path, 1)); err != nil {
		return wrapIO("rename", err)
	}

	return l.openFile()
}

// Close 刷新缓冲后释放文件
//
// 刷新失败时文件仍会被关闭，返回合并后的错误。重复调用返回 [ErrClosed]。
func (l *FileLog) Close() (err error) {
	if l.closed {
		return ErrClosed
	}
	l.closed = true

	defer func() {
		if cerr := l.stream.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		if l.file != nil {
			if cerr := l.file.Close(); cerr != nil {
				err = errors.Join(err, wrapIO("close", cerr))
			}
			l.file = nil
		}
	}()

	return l.flush()
}

// =============================================================================
// 不支持的流操作
// =============================================================================

// Read 不支持，始终返回 [ErrNotSupported]
func (l *FileLog) Read([]byte) (int, error) { return 0, ErrNotSupported }

// Seek 不支持，始终返回 [ErrNotSupported]
func (l *FileLog) Seek(int64, int) (int64, error) { return 0, ErrNotSupported }

// Truncate 不支持，始终返回 [ErrNotSupported]
func (l *FileLog) Truncate(int64) error { return ErrNotSupported }

// =============================================================================
// 配置访问
// =============================================================================

// Path 返回活动文件路径（已规范化）
func (l *FileLog) Path() string { return l.path }

// Policy 返回当前轮转边界
func (l *FileLog) Policy() Policy { return l.policy }

// SetPolicy 替换轮转边界，下一次刷新时生效
func (l *FileLog) SetPolicy(p Policy) { l.policy = p }

// CreatedAt 返回活动文件的创建时间
func (l *FileLog) CreatedAt() time.Time { return l.created }

// Size 返回活动文件当前大小（不含未刷新的缓冲）
func (l *FileLog) Size() int64 { return l.size }

// Backups 返回现存的编号备份，最新的在前
func (l *FileLog) Backups() []string {
	k := xfile.LastBackupIndex(l.path, l.fs.Exists)
	backups := make([]string, 0, k)
	for i := 1; i <= k; i++ {
		backups = append(backups, xfile.BackupPath(l.path, i))
	}
	return backups
}

// SetPrefix 设置行标签
func (l *FileLog) SetPrefix(label string) { l.stream.SetPrefix(label) }

// ClearPrefix 取消行标签
func (l *FileLog) ClearPrefix() { l.stream.ClearPrefix() }

// SetDateTimeFormat 设置行首时间戳格式
func (l *FileLog) SetDateTimeFormat(layout string) { l.stream.SetDateTimeFormat(layout) }

// ClearDateTimeFormat 取消行首时间戳
func (l *FileLog) ClearDateTimeFormat() { l.stream.ClearDateTimeFormat() }

// SetSeparator 设置分隔符
func (l *FileLog) SetSeparator(sep string) { l.stream.SetSeparator(sep) }

// SetEncoding 设置文本编码，nil 表示 UTF-8
func (l *FileLog) SetEncoding(enc encoding.Encoding) { l.stream.SetEncoding(enc) }
