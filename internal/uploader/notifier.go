package uploader

import (
	"sync"

	"resume-intake/internal/logger"
)

// Level 通知级别
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification 面向用户的一条提示
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier 通知渠道，调用方不关心投递结果
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc 函数适配器
type NotifierFunc func(Notification)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier 把通知写入日志
type LogNotifier struct{}

// Notify 实现 Notifier
func (LogNotifier) Notify(n Notification) {
	if n.Level == LevelError {
		logger.Warn().Str("level", string(n.Level)).Msg(n.Message)
		return
	}
	logger.Info().Str("level", string(n.Level)).Msg(n.Message)
}

// Collector 收集通知，供测试和网关使用
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// Notify 实现 Notifier
func (c *Collector) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// All 返回已收集通知的副本
func (c *Collector) All() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}
