package uploader

import (
	"time"

	"resume-intake/internal/config"
	"resume-intake/internal/constants"
	"resume-intake/internal/events"
	"resume-intake/internal/filter"
	"resume-intake/internal/fingerprint"
	"resume-intake/internal/metrics"
	"resume-intake/internal/types"
)

// Option 处理器选项
type Option func(*Processor)

// Settings 进度模拟参数
type Settings struct {
	ProgressInterval     time.Duration
	ProgressMaxIncrement float64
	ProgressCeiling      float64
}

// DefaultSettings 默认每 200ms 随机推进最多 15，且不超过 90
func DefaultSettings() Settings {
	return Settings{
		ProgressInterval:     constants.DefaultProgressInterval,
		ProgressMaxIncrement: constants.DefaultProgressMaxIncrement,
		ProgressCeiling:      constants.DefaultProgressCeiling,
	}
}

// SettingsFromConfig 从上传配置读取进度参数，非法值回落到默认值
func SettingsFromConfig(cfg config.UploadConfig) Settings {
	s := DefaultSettings()
	s.ProgressInterval = config.GetDuration(cfg.ProgressInterval, s.ProgressInterval)
	if cfg.ProgressMaxIncrement > 0 {
		s.ProgressMaxIncrement = cfg.ProgressMaxIncrement
	}
	if cfg.ProgressCeiling > 0 && cfg.ProgressCeiling < 100 {
		s.ProgressCeiling = cfg.ProgressCeiling
	}
	return s
}

// WithSettings 设置进度模拟参数，非法值保持原设置，上限必须低于 100
func WithSettings(s Settings) Option {
	return func(p *Processor) {
		if s.ProgressInterval > 0 {
			p.settings.ProgressInterval = s.ProgressInterval
		}
		if s.ProgressMaxIncrement > 0 {
			p.settings.ProgressMaxIncrement = s.ProgressMaxIncrement
		}
		if s.ProgressCeiling > 0 && s.ProgressCeiling < 100 {
			p.settings.ProgressCeiling = s.ProgressCeiling
		}
	}
}

// WithFilter 设置文件类型过滤器
func WithFilter(f *filter.Filter) Option {
	return func(p *Processor) {
		if f != nil {
			p.filter = f
		}
	}
}

// WithRegistry 设置指纹登记表
func WithRegistry(r fingerprint.Registry) Option {
	return func(p *Processor) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithNotifier 设置通知渠道
func WithNotifier(n Notifier) Option {
	return func(p *Processor) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithOnUploadComplete 上传成功后接收规范化结果
func WithOnUploadComplete(fn func([]types.IngestionResult)) Option {
	return func(p *Processor) {
		p.onComplete = fn
	}
}

// WithStateListener 监听上传状态变化
func WithStateListener(fn func(State)) Option {
	return func(p *Processor) {
		p.onState = fn
	}
}

// WithResetHook 每个批次结束时调用，用于清空输入
func WithResetHook(fn func()) Option {
	return func(p *Processor) {
		p.onReset = fn
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Upload) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithPublisher 批次成功后发布事件，nil 表示不发布
func WithPublisher(pub *events.BatchPublisher) Option {
	return func(p *Processor) {
		p.publisher = pub
	}
}

// WithSessionID 标记事件所属会话
func WithSessionID(id string) Option {
	return func(p *Processor) {
		p.sessionID = id
	}
}

// WithRandom 替换进度模拟使用的随机数来源，返回值应在 [0,1)
func WithRandom(fn func() float64) Option {
	return func(p *Processor) {
		if fn != nil {
			p.random = fn
		}
	}
}
