package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 配置变更回调
//
// 重新加载成功时 cfg 非 nil、err 为 nil；失败时 cfg 为 nil。
// 回调在监视 goroutine 中串行执行。
type WatchCallback func(cfg *Config, err error)

// WatchOption 监视器配置选项
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，时间窗口内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher 配置文件监视器
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	inCallback atomic.Bool
}

// Watch 创建 path 的监视器，调用 [Watcher.Start] 后开始工作
//
// 监视的是文件所在目录而不是文件本身：编辑器保存时可能先删除再创建，
// 直接监视文件会丢失后续事件。
func Watch(path string, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}

	options := watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("xconf: failed to watch directory %s: %w", dir, err),
			fsw.Close(),
		)
	}

	return &Watcher{
		path:     path,
		watcher:  fsw,
		callback: callback,
		debounce: options.debounce,
		done:     make(chan struct{}),
	}, nil
}

// Start 在后台 goroutine 中开始监视，直到 ctx 取消或调用 Stop
//
// 重复调用无效果；Stop 之后调用返回 [ErrWatcherStopped]。
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWatcherStopped
	}
	if w.started {
		return nil
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return nil
}

// Stop 停止监视并释放 fsnotify 资源，可重复调用
//
// 从其他 goroutine 调用时，返回后不再有回调执行；在回调中调用也是安全的。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	if started && !w.inCallback.Load() {
		<-w.done
	}
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	name := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if relevant(event, name) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.deliver(ctx, nil, fmt.Errorf("%w: watch: %w", ErrLoadFailed, err))

		case <-timer.C:
			cfg, err := Load(w.path)
			w.deliver(ctx, cfg, err)
		}
	}
}

// relevant 目标文件的写入、创建、改名事件（vim/emacs 写临时文件后 rename）
func relevant(event fsnotify.Event, name string) bool {
	if filepath.Base(event.Name) != name {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) deliver(ctx context.Context, cfg *Config, err error) {
	if w.callback == nil || ctx.Err() != nil {
		return
	}
	w.inCallback.Store(true)
	defer w.inCallback.Store(false)
	w.callback(cfg, err)
}
