// Package outbox 轮询发件箱表并把草稿编辑事件投递到消息队列
package outbox

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resume-intake/internal/config"
	"resume-intake/internal/constants"
	"resume-intake/internal/logger"
	"resume-intake/internal/storage/models"
	"resume-intake/internal/tracing"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	defaultMaxRetryCount   = 5
)

// Publisher 发件箱消息的投递目标
type Publisher interface {
	PublishMessage(ctx context.Context, exchange, routingKey string, body []byte, persistent bool) error
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	pollingInterval time.Duration
	batchSize       int
	maxRetryCount   int
	tracer          trace.Tracer
}

// Option 中继配置项
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每批处理的消息数
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMaxRetryCount 设置失败多少次后放弃
func WithMaxRetryCount(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.maxRetryCount = n
		}
	}
}

// OptionsFromConfig 从 RabbitMQ 配置读取中继参数
func OptionsFromConfig(cfg config.RabbitMQConfig) []Option {
	return []Option{
		WithPollingInterval(config.GetDuration(cfg.RelayPollInterval, defaultPollingInterval)),
		WithBatchSize(cfg.RelayBatchSize),
		WithMaxRetryCount(cfg.RelayMaxRetryCount),
	}
}

// NewMessageRelay 创建一个新的 MessageRelay 实例
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		maxRetryCount:   defaultMaxRetryCount,
		tracer:          otel.Tracer("resume-intake/outbox"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 按间隔轮询直到 ctx 取消。单轮失败只记录日志，下一轮重试。
func (r *MessageRelay) Run(ctx context.Context) error {
	logger.Info().Dur("interval", r.pollingInterval).Int("batch_size", r.batchSize).Msg("发件箱中继启动")
	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("发件箱中继已停止")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("处理发件箱消息失败")
			}
		}
	}
}

// ProcessPending 取一批待发送消息逐条发布并更新状态，返回本轮处理的条数
func (r *MessageRelay) ProcessPending(ctx context.Context) (int, error) {
	var messages []models.OutboxMessage

	// 空轮询不建span
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer tx.Rollback()

	// SKIP LOCKED 让多个中继实例互不抢同一批消息
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", constants.OutboxStatusPending).
		Order("created_at asc").
		Order("id asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return 0, err
	}

	if len(messages) == 0 {
		return 0, tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))),
	)
	defer span.End()

	logger.Debug().Int("count", len(messages)).Msg("取到待发送的发件箱消息")

	for i := range messages {
		msg := &messages[i]
		err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		if err != nil {
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= r.maxRetryCount {
				msg.Status = constants.OutboxStatusFailed
			}
			tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ,
				attribute.Int64("outbox.id", int64(msg.ID)),
				attribute.Int("outbox.retry_count", msg.RetryCount),
			)
			logger.Warn().Err(err).
				Uint64("id", msg.ID).
				Str("aggregate_id", msg.AggregateID).
				Int("retries", msg.RetryCount).
				Msg("发布发件箱消息失败")
		} else {
			now := time.Now()
			msg.Status = constants.OutboxStatusSent
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}

		// 更新失败时整批回滚，下一轮重新拾取
		if err := tx.Save(msg).Error; err != nil {
			return 0, err
		}
	}

	return len(messages), tx.Commit().Error
}
