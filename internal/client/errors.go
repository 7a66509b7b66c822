package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"resume-intake/internal/tracing"
)

// ErrNotFound 后端返回 404
var ErrNotFound = errors.New("简历不存在")

// APIError 后端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("后端返回错误 (HTTP %d): %s", e.StatusCode, e.Message)
}

// Is 让 errors.Is(err, ErrNotFound) 对 404 生效
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == consts.StatusNotFound
}

// newAPIError 从响应体中提取最合适的错误信息
func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Message: errorMessage(status, body)}
}

func errorMessage(status int, body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"message", "msg", "detail", "error"} {
			var s string
			if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return consts.StatusMessage(status)
}

// Message 返回适合展示给用户的错误信息
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// recordCallError 后端返回的错误按 HTTP 状态记录，其余按外部系统错误记录
func recordCallError(span trace.Span, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		tracing.RecordHTTPError(span, err, apiErr.StatusCode)
		return
	}
	tracing.RecordError(span, err, tracing.ErrorTypeExternal)
}
