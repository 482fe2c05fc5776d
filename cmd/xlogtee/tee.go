package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogutil/pkg/config/xconf"
	"github.com/omeyang/xlogutil/pkg/observability/xlog"
	"github.com/omeyang/xlogutil/pkg/observability/xprefix"
	"github.com/omeyang/xlogutil/pkg/observability/xrotate"
)

// sink 一个输出目标；*xprefix.Writer 和 *xrotate.FileLog 都满足
type sink interface {
	WriteText(s string) error
	WriteLine(s string) error
	Flush() error
	Close() error
}

var (
	_ sink = (*xprefix.Writer)(nil)
	_ sink = (*xrotate.FileLog)(nil)
)

// 回退到旧配置时的重试参数
const (
	reopenAttempts = 3
	reopenDelay    = 50 * time.Millisecond
)

// labelAttrs 控制台标签的颜色
var labelAttrs = []color.Attribute{color.FgCyan, color.Bold}

// runTee 根命令的 Action
func runTee(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 0 {
		return newUsageError("unexpected arguments: %s", strings.Join(cmd.Args().Slice(), " "))
	}
	if cmd.Bool(flagWatch) && cmd.String(flagConfig) == "" {
		return newUsageError("--%s requires --%s", flagWatch, flagConfig)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stdin, stdout, stderr := streams(cmd)
	logger, cleanup, err := xlog.New().
		SetOutput(stderr).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format).
		Build()
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { _ = cleanup() }()

	sinks, err := openSinks(cfg, stdout)
	if err != nil {
		return err
	}
	t := &tee{
		cfg:    cfg,
		sinks:  sinks,
		stdout: stdout,
		log:    logger.With(xlog.Component("xlogtee")),
		level:  logger,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var updates chan *xconf.Config
	if cmd.Bool(flagWatch) {
		updates = make(chan *xconf.Config)
		w, err := watchConfig(ctx, cmd, t.log, updates)
		if err != nil {
			return errors.Join(err, t.close())
		}
		// 先取消，避免回调阻塞在 updates 上导致 Stop 等待
		defer func() {
			cancel()
			_ = w.Stop()
		}()
	}

	runErr := t.run(ctx, readChunks(stdin, ctx.Done()), updates)
	return errors.Join(runErr, t.close())
}

// streams 返回根命令的输入输出，未设置时使用进程的标准流
func streams(cmd *cli.Command) (io.Reader, io.Writer, io.Writer) {
	root := cmd.Root()
	var (
		in     io.Reader = os.Stdin
		out    io.Writer = os.Stdout
		errOut io.Writer = os.Stderr
	)
	if root.Reader != nil {
		in = root.Reader
	}
	if root.Writer != nil {
		out = root.Writer
	}
	if root.ErrWriter != nil {
		errOut = root.ErrWriter
	}
	return in, out, errOut
}

// tee 把输入块写入全部 sink，由单个 goroutine 驱动
type tee struct {
	cfg    *xconf.Config
	sinks  []sink
	stdout io.Writer
	log    xlog.Logger
	level  xlog.Leveler
}

// run 直到输入结束、ctx 取消或写入失败
//
// ctx 取消视为正常结束：已读到的行都已写出，随后由调用方关闭 sink。
func (t *tee) run(ctx context.Context, chunks <-chan chunk, updates <-chan *xconf.Config) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-updates:
			if err := t.reload(ctx, cfg); err != nil {
				return err
			}
		case c, ok := <-chunks:
			if !ok {
				return nil
			}
			if c.err != nil {
				return fmt.Errorf("read input: %w", c.err)
			}
			if err := t.write(c.text); err != nil {
				return err
			}
		}
	}
}

// write 以换行结尾的块按整行写出，末尾不完整的块原样写出
func (t *tee) write(s string) error {
	line, complete := strings.CutSuffix(s, "\n")
	var errs []error
	for _, sk := range t.sinks {
		var err error
		if complete {
			err = sk.WriteLine(line)
		} else {
			err = sk.WriteText(line)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reload 用新配置重建 sink
//
// 旧 sink 先关闭再打开新的：同一路径的 FileLog 不能同时持有两份大小计数。
// 新配置无法打开时回退到旧配置（旧配置刚刚还能打开，失败多为瞬时错误，短暂重试），
// 回退也失败才返回错误。
func (t *tee) reload(ctx context.Context, cfg *xconf.Config) error {
	if err := closeSinks(t.sinks); err != nil {
		t.log.Warn(ctx, "close sinks before reload", xlog.Err(err))
	}
	t.sinks = nil

	sinks, err := openSinks(cfg, t.stdout)
	if err != nil {
		t.log.Error(ctx, "apply reloaded config, keeping previous settings", xlog.Err(err))
		sinks, err = retry.NewWithData[[]sink](
			retry.Context(ctx),
			retry.Attempts(reopenAttempts),
			retry.Delay(reopenDelay),
			retry.LastErrorOnly(true),
		).Do(func() ([]sink, error) {
			return openSinks(t.cfg, t.stdout)
		})
		if err != nil {
			return fmt.Errorf("reopen sinks: %w", err)
		}
		t.sinks = sinks
		return nil
	}

	t.cfg = cfg
	t.sinks = sinks
	if level, err := xlog.ParseLevel(cfg.Log.Level); err == nil {
		t.level.SetLevel(level)
	}
	t.log.Info(ctx, "config reloaded", xlog.Path(cfg.File.Path), xlog.Count(int64(len(sinks))))
	return nil
}

func (t *tee) close() error {
	err := closeSinks(t.sinks)
	t.sinks = nil
	return err
}

// openSinks 按配置打开控制台和文件输出
func openSinks(cfg *xconf.Config, stdout io.Writer) ([]sink, error) {
	opts, err := cfg.PrefixOptions()
	if err != nil {
		return nil, err
	}

	var sinks []sink
	if cfg.Console.Enabled {
		sinks = append(sinks, xprefix.New(stdout, consoleOptions(cfg, opts)...))
	}
	if cfg.File.Path != "" {
		s, err := openFileSink(cfg, opts)
		if err != nil {
			return nil, errors.Join(err, closeSinks(sinks))
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// consoleOptions 开启着色时用带颜色的标签替换纯文本标签，文件输出不受影响
func consoleOptions(cfg *xconf.Config, opts []xprefix.Option) []xprefix.Option {
	if !cfg.Console.Color || cfg.Prefix == "" {
		return opts
	}
	// 显式开启：输出被重定向时 fatih/color 默认关闭着色
	c := color.New(labelAttrs...)
	c.EnableColor()
	return append(slices.Clip(opts), xprefix.WithPrefix(c.Sprint(cfg.Prefix)))
}

func openFileSink(cfg *xconf.Config, opts []xprefix.Option) (sink, error) {
	switch cfg.File.Backend {
	case xconf.BackendLumberjack:
		r, err := xrotate.NewLumberjack(cfg.File.Path, cfg.LumberjackOptions()...)
		if err != nil {
			return nil, err
		}
		return xprefix.New(r, append(slices.Clip(opts), xprefix.WithCloseInner(true))...), nil
	default:
		fileOpts := append(cfg.RotateOptions(), xrotate.WithPrefixOptions(opts...))
		return xrotate.NewFileLog(cfg.File.Path, fileOpts...)
	}
}

// closeSinks 刷新并关闭全部 sink，已关闭的 sink 不算错误
func closeSinks(sinks []sink) error {
	var errs []error
	for _, s := range sinks {
		err := s.Close()
		if err != nil && !errors.Is(err, xprefix.ErrClosed) && !errors.Is(err, xrotate.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// chunk 一次读取结果：以换行结尾的一行，或输入末尾不完整的一段
type chunk struct {
	text string
	err  error
}

// readChunks 在后台 goroutine 中按行读取 r，读完或 done 关闭后关闭返回的通道
//
// 阻塞在 Read 上的 goroutine 只能等 r 返回，stdin 的情况下随进程退出。
func readChunks(r io.Reader, done <-chan struct{}) <-chan chunk {
	ch := make(chan chunk)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		for {
			s, err := br.ReadString('\n')
			if s != "" {
				select {
				case ch <- chunk{text: s}:
				case <-done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					select {
					case ch <- chunk{err: err}:
					case <-done:
					}
				}
				return
			}
		}
	}()
	return ch
}

// watchConfig 监视配置文件，重新加载的配置叠加命令行覆盖后送入 updates
func watchConfig(ctx context.Context, cmd *cli.Command, log xlog.Logger, updates chan<- *xconf.Config) (*xconf.Watcher, error) {
	path := cmd.String(flagConfig)
	w, err := xconf.Watch(path, func(cfg *xconf.Config, err error) {
		if err == nil {
			cfg, err = resolve(cfg, cmd)
		}
		if err != nil {
			log.Warn(ctx, "reload config, keeping current settings", xlog.Path(path), xlog.Err(err))
			return
		}
		select {
		case updates <- cfg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, errors.Join(err, w.Stop())
	}
	return w, nil
}
