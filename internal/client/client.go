// Package client 调用后端简历服务：批量上传、刷新状态、列表、详情与结构化数据回写。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-intake/internal/config"
	"resume-intake/internal/constants"
	"resume-intake/internal/logger"
	"resume-intake/internal/types"
)

var tracer = otel.Tracer("resume-intake/client")

// Client 后端简历服务客户端
type Client struct {
	baseURL   string
	token     string
	timeout   time.Duration
	fieldName string

	hc    *client.Client
	cache *lru.Cache[int64, types.BackendItem]
}

// Option 客户端选项
type Option func(*Client)

// WithFieldName 覆盖 multipart 文件字段名
func WithFieldName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.fieldName = name
		}
	}
}

// WithTimeout 覆盖单次请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New 根据后端配置创建客户端
func New(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("后端地址不能为空")
	}

	hc, err := client.NewClient()
	if err != nil {
		return nil, fmt.Errorf("创建HTTP客户端失败: %w", err)
	}

	c := &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		timeout:   config.GetDuration(cfg.Timeout, 60*time.Second),
		fieldName: constants.DefaultUploadFieldName,
		hc:        hc,
	}

	if cfg.DetailCacheSize > 0 {
		c.cache, err = lru.New[int64, types.BackendItem](cfg.DetailCacheSize)
		if err != nil {
			return nil, fmt.Errorf("创建详情缓存失败: %w", err)
		}
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do 发送请求并返回 2xx 响应体的副本，非 2xx 时返回 *APIError
func (c *Client) do(ctx context.Context, req *protocol.Request) ([]byte, error) {
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseResponse(resp)

	if c.token != "" {
		req.Header.Set(consts.HeaderAuthorization, "Bearer "+c.token)
	}
	req.Header.Set(consts.HeaderAccept, "application/json")

	method := string(req.Method())
	ctx, span := tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", string(req.URI().Path())),
		),
	)
	defer span.End()
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{&req.Header})

	start := time.Now()
	if err := c.hc.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("请求后端失败: %w", err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))
	body := append([]byte(nil), resp.Body()...)
	logger.Debug().
		Str("method", string(req.Method())).
		Str("uri", req.URI().String()).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("后端请求完成")

	if status < 200 || status >= 300 {
		return nil, newAPIError(status, body)
	}
	return body, nil
}

// headerCarrier 把追踪上下文写入 hertz 请求头
type headerCarrier struct {
	h *protocol.RequestHeader
}

func (c headerCarrier) Get(key string) string { return c.h.Get(key) }
func (c headerCarrier) Set(key, value string) { c.h.Set(key, value) }

func (c headerCarrier) Keys() []string {
	var keys []string
	c.h.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// unwrapEnvelope 兼容 {code, message, data: {...}} 外层包装
func unwrapEnvelope(body []byte) []byte {
	var env struct {
		Code *json.RawMessage `json:"code"`
		Data json.RawMessage  `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Code == nil {
		return body
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '{' {
		return body
	}
	return data
}

func decodeCount(raw json.RawMessage, fallback int) int {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return fallback
		}
		n = json.Number(s)
	}
	v, err := n.Int64()
	if err != nil {
		return fallback
	}
	return int(v)
}
