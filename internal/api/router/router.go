package router

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-intake/internal/api/handler"
	"resume-intake/internal/tracing"
)

// Handlers 网关用到的全部处理器
type Handlers struct {
	Intake  *handler.IntakeHandler
	Profile *handler.ProfileHandler
	// Gatherer 为 nil 时不暴露指标
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

// NewServer 创建 Hertz 服务器，全局安装了追踪 SDK 时同时挂载链路追踪
func NewServer(address string) *server.Hertz {
	opts := []config.Option{
		server.WithHostPorts(address),
		server.WithHandleMethodNotAllowed(true),
		server.WithExitWaitTime(3 * time.Second),
	}
	// 追踪未启用时全局只有空实现，不挂载 hertz 追踪
	var serverTracing app.HandlerFunc
	if tracing.SDKInstalled() {
		tracer, tracerCfg := hertztracing.NewServerTracer()
		opts = append(opts, tracer)
		serverTracing = hertztracing.ServerMiddleware(tracerCfg)
	}
	h := server.New(opts...)
	if serverTracing != nil {
		h.Use(serverTracing)
	}
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxDebugf(c, "%s %s -> %d (%s)", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	})
	return h
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, hs Handlers) {
	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	if hs.Intake != nil {
		api.POST("/intake/upload", hs.Intake.HandleUpload)
		api.GET("/intake/state", hs.Intake.HandleState)
	}

	if hs.Profile != nil {
		api.POST("/profile/form", hs.Profile.HandleToForm)
		api.POST("/profile/struct", hs.Profile.HandleToStruct)
		api.PATCH("/profile/:id", hs.Profile.HandleSave)
	}

	if hs.Gatherer != nil {
		path := hs.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		h.GET(path, adaptor.NewHertzHTTPHandler(promhttp.HandlerFor(hs.Gatherer, promhttp.HandlerOpts{})))
	}
}
