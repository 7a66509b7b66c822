package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"resume-intake/internal/config"
	"resume-intake/internal/logger"
)

// ErrPublishNacked broker 拒收了消息
var ErrPublishNacked = errors.New("RabbitMQ 拒收消息")

// RabbitMQ 事件发布端。所有发布共用一个开启了确认模式的通道，通道关闭后下次发布时重建。
type RabbitMQ struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQConfig

	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]struct{}
}

// NewRabbitMQ 连接 RabbitMQ 并打开发布通道
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	r := &RabbitMQ{conn: conn, cfg: cfg, declared: make(map[string]struct{})}
	r.mu.Lock()
	_, err = r.channelLocked()
	r.mu.Unlock()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Info().Msg("成功连接到RabbitMQ服务器")
	return r, nil
}

// channelLocked 返回可用的发布通道，调用方需持有 mu
func (r *RabbitMQ) channelLocked() (*amqp.Channel, error) {
	if r.ch != nil && !r.ch.IsClosed() {
		return r.ch, nil
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("创建RabbitMQ通道失败: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("开启发布确认失败: %w", err)
	}
	if r.ch != nil {
		logger.Warn().Msg("RabbitMQ发布通道已关闭，已重建")
	}
	r.ch = ch
	return ch, nil
}

// EnsureExchange 声明交换机，同一名称只声明一次
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	switch exchangeName {
	case "":
		return fmt.Errorf("exchange名称不能为空")
	case "amq.default", "default":
		return fmt.Errorf("不能声明默认交换机 '%s'", exchangeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.declared[exchangeName]; ok {
		return nil
	}
	ch, err := r.channelLocked()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(exchangeName, exchangeType, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("声明exchange %s 失败: %w", exchangeName, err)
	}
	r.declared[exchangeName] = struct{}{}
	logger.Debug().Str("exchange", exchangeName).Str("type", exchangeType).Msg("已确保exchange存在")
	return nil
}

// PublishMessage 发布一条 JSON 消息并等待 broker 确认
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	r.mu.Lock()
	ch, err := r.channelLocked()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: mode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("发布到 %s/%s 失败: %w", exchangeName, routingKey, err)
	}
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("等待发布确认失败: %w", err)
	}
	if !acked {
		return fmt.Errorf("%w: %s/%s", ErrPublishNacked, exchangeName, routingKey)
	}
	return nil
}

// PublishJSON 序列化后发布
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, body, persistent)
}

// Close 关闭通道和连接
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	if r.ch != nil {
		_ = r.ch.Close()
		r.ch = nil
	}
	r.mu.Unlock()
	return r.conn.Close()
}
