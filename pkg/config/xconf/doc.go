// Package xconf 加载日志工具的配置文件，基于 koanf 实现。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 加载流程
//
// [Load] / [LoadBytes] 先填入 [Default] 的默认值，再用文件内容覆盖出现的键，
// 最后执行 [Config.Validate]。文件中未出现的键保持默认值，
// 显式写成空字符串的键（如 datetime_format: ""）会覆盖默认值。
//
// 示例：
//
//	prefix: api
//	datetime_format: "2006-01-02 15:04:05"
//	file:
//	  path: /var/log/api.log
//	  max_size: 10485760
//	  max_age: 24h
//	  max_files: 7
//	console:
//	  enabled: true
//	  color: true
//
// # 配置监视
//
// [Watch] 基于 fsnotify 监视配置文件所在目录（兼容 vim/emacs 的原子写入），
// 防抖后重新加载并通过回调交付新的 *Config。
// [Watcher.Stop] 返回后不再有回调执行。
package xconf
