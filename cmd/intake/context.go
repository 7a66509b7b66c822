package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	"github.com/rs/zerolog"

	"resume-intake/internal/client"
	"resume-intake/internal/config"
	"resume-intake/internal/events"
	"resume-intake/internal/fingerprint"
	"resume-intake/internal/logger"
	"resume-intake/internal/storage"
	"resume-intake/internal/tracing"
)

// commandContext 子命令共享的配置和懒加载的依赖
type commandContext struct {
	opts *globalOptions

	cfg      *config.Config
	shutdown tracing.ShutdownFunc

	backend *client.Client
	store   *storage.Storage
}

func newCommandContext(opts *globalOptions) *commandContext {
	return &commandContext{opts: opts}
}

func (c *commandContext) init(ctx context.Context) error {
	cfg, err := config.LoadConfig(strings.TrimSpace(c.opts.configPath))
	if err != nil {
		return err
	}
	if c.opts.logLevel != "" {
		cfg.Logger.Level = c.opts.logLevel
	}
	if c.opts.sessionID != "" {
		cfg.Session.ID = c.opts.sessionID
	}
	if cfg.Session.ID == "" {
		cfg.Session.ID = uuid.NewString()
	}
	c.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	hlog.SetLogger(hertzzerolog.From(logger.Logger))
	hlog.SetLevel(hertzLevel(zerolog.GlobalLevel()))

	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		// 追踪失败不影响主流程
		logger.Warn().Err(err).Msg("初始化追踪失败")
	}
	c.shutdown = shutdown
	return nil
}

func (c *commandContext) close(ctx context.Context) error {
	c.store.Close()
	if c.shutdown != nil {
		if err := c.shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("关闭追踪失败")
		}
	}
	return nil
}

// client 后端客户端
func (c *commandContext) client() (*client.Client, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	b, err := client.New(c.cfg.Backend,
		client.WithFieldName(c.cfg.Upload.FieldName),
		client.WithTimeout(c.cfg.BackendTimeout()),
	)
	if err != nil {
		return nil, err
	}
	c.backend = b
	return b, nil
}

// storage 按配置初始化外部存储，全部未配置时返回空的管理器
func (c *commandContext) storage() (*storage.Storage, error) {
	if c.store != nil {
		return c.store, nil
	}
	s, err := storage.NewStorage(c.cfg)
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// registry 根据配置选择指纹登记表
func (c *commandContext) registry() (fingerprint.Registry, error) {
	if c.cfg.Session.Registry != "redis" {
		return fingerprint.NewMemoryRegistry(), nil
	}
	s, err := c.storage()
	if err != nil {
		return nil, err
	}
	if s.Redis == nil {
		return nil, errors.New("指纹登记表配置为 redis，但 Redis 不可用")
	}
	return fingerprint.NewRedisRegistry(s.Redis.Client, c.cfg.Session.ID)
}

// batchPublisher 配置了交换机且 RabbitMQ 可用时返回批次事件发布器
func (c *commandContext) batchPublisher() *events.BatchPublisher {
	exchange := c.cfg.Upload.EventsExchange
	if exchange == "" || c.cfg.RabbitMQ.URL == "" {
		return nil
	}
	s, err := c.storage()
	if err != nil || s.RabbitMQ == nil {
		logger.Warn().Msg("RabbitMQ 不可用，批次事件不会发布")
		return nil
	}
	if err := s.RabbitMQ.EnsureExchange(exchange, "topic", true); err != nil {
		logger.Warn().Err(err).Str("exchange", exchange).Msg("声明交换机失败，批次事件不会发布")
		return nil
	}
	return events.NewBatchPublisher(s.RabbitMQ, exchange, c.cfg.Upload.BatchUploadedRoutingKey)
}

// drafts MySQL 可用时返回草稿存储
func (c *commandContext) drafts() *storage.MySQL {
	if c.cfg.MySQL.Host == "" {
		return nil
	}
	s, err := c.storage()
	if err != nil {
		logger.Warn().Err(err).Msg("存储初始化失败，草稿不会保存")
		return nil
	}
	return s.MySQL
}

// draftTarget 编辑事件的投递目标，RabbitMQ 未配置时不写发件箱
func (c *commandContext) draftTarget() storage.DraftTarget {
	if c.cfg.RabbitMQ.URL == "" {
		return storage.DraftTarget{}
	}
	return storage.DraftTarget{
		Exchange:   c.cfg.RabbitMQ.ProfileExchange,
		RoutingKey: c.cfg.RabbitMQ.ProfileRoutingKey,
	}
}

func hertzLevel(level zerolog.Level) hlog.Level {
	switch level {
	case zerolog.TraceLevel:
		return hlog.LevelTrace
	case zerolog.DebugLevel:
		return hlog.LevelDebug
	case zerolog.InfoLevel:
		return hlog.LevelInfo
	case zerolog.WarnLevel:
		return hlog.LevelWarn
	case zerolog.ErrorLevel:
		return hlog.LevelError
	default:
		return hlog.LevelFatal
	}
}
