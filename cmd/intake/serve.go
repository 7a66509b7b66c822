package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"resume-intake/internal/api/handler"
	"resume-intake/internal/api/router"
	"resume-intake/internal/config"
	"resume-intake/internal/logger"
	"resume-intake/internal/metrics"
	"resume-intake/internal/outbox"
	"resume-intake/internal/uploader"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动本地网关，同时运行发件箱中继",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			if address != "" {
				cfg.Server.Address = address
			}
			return runServe(cmd.Context(), ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "监听地址，覆盖配置中的 server.address")
	return cmd
}

func runServe(parent context.Context, cc *commandContext, cfg *config.Config) error {
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	proc, err := cc.newProcessor(
		uploader.WithNotifier(uploader.LogNotifier{}),
		uploader.WithMetrics(metrics.NewUpload(reg)),
	)
	if err != nil {
		return err
	}
	backend, err := cc.client()
	if err != nil {
		return err
	}

	hs := router.Handlers{
		Intake:      handler.NewIntakeHandler(proc, cfg.Upload.FieldName),
		MetricsPath: cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		hs.Gatherer = reg
	}
	// 不能把 nil 的 *storage.MySQL 直接当作接口传入
	if drafts := cc.drafts(); drafts != nil {
		hs.Profile = handler.NewProfileHandler(backend, drafts, cc.draftTarget())
	} else {
		hs.Profile = handler.NewProfileHandler(backend, nil, cc.draftTarget())
	}

	h := router.NewServer(cfg.Server.Address)
	router.RegisterRoutes(h, hs)

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info().Str("address", cfg.Server.Address).Msg("网关启动")
		return h.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info().Msg("正在关闭网关...")
		return h.Shutdown(shutdownCtx)
	})

	if relay := cc.relay(cfg); relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	if err := g.Wait(); err != nil && sigCtx.Err() == nil {
		return err
	}
	logger.Info().Msg("已退出")
	return nil
}

// relay MySQL 和 RabbitMQ 都可用时才运行发件箱中继
func (c *commandContext) relay(cfg *config.Config) *outbox.MessageRelay {
	drafts := c.drafts()
	if drafts == nil || cfg.RabbitMQ.URL == "" {
		return nil
	}
	s, err := c.storage()
	if err != nil || s.RabbitMQ == nil {
		logger.Warn().Msg("RabbitMQ 不可用，发件箱中继不启动")
		return nil
	}
	if err := s.RabbitMQ.EnsureExchange(cfg.RabbitMQ.ProfileExchange, "topic", true); err != nil {
		logger.Warn().Err(err).Msg("声明编辑事件交换机失败")
	}
	return outbox.NewMessageRelay(drafts.DB(), s.RabbitMQ, outbox.OptionsFromConfig(cfg.RabbitMQ)...)
}
