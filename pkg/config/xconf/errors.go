package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置文件失败
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容无法解析
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 配置无法映射到 Config
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrInvalidConfig 配置值不合法
	ErrInvalidConfig = errors.New("xconf: invalid config")

	// ErrWatcherStopped 监视器已停止，不能再次启动
	ErrWatcherStopped = errors.New("xconf: watcher stopped")
)
