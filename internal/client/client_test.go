package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"resume-intake/internal/config"
	"resume-intake/internal/source"
	"resume-intake/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cacheSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.BackendConfig{BaseURL: srv.URL, Token: "secret", Timeout: "5s", DetailCacheSize: cacheSize})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(config.BackendConfig{})
	assert.Error(t, err)
}

func TestUploadSendsAllFilesUnderOneField(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/headhunter/upload_resume", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2, "所有文件应放在同一个字段下")
		assert.Equal(t, "a.pdf", files[0].Filename)
		assert.Equal(t, "b.docx", files[1].Filename)

		f, err := files[0].Open()
		require.NoError(t, err)
		content, _ := io.ReadAll(f)
		_ = f.Close()
		assert.Equal(t, "pdf-content", string(content))

		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"file_name":"a.pdf","file_size":11,"status":20,"struct_info":null},
			{"id":2,"file_name":"b.docx","file_size":"9","status":30,"status_msg":"解析失败"}
		],"count":2}`))
	}, 0)

	now := time.Now()
	resp, err := c.Upload(t.Context(), []source.File{
		&source.MemoryFile{FileName: "a.pdf", Content: []byte("pdf-content"), Modified: now, ContentMIME: "application/pdf"},
		&source.MemoryFile{FileName: "b.docx", Content: []byte("docx-body"), Modified: now},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "整批只发一次请求")
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, types.StatusSuccess, resp.Items[0].Status)
	assert.Equal(t, int64(9), resp.Items[1].FileSize)
	assert.Equal(t, "解析失败", resp.Items[1].StatusMsg)
}

func TestUploadUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"message":"ok","data":{"data":[{"id":5,"file_name":"x.pdf","status":0}]}}`))
	}, 0)

	resp, err := c.Upload(t.Context(), []source.File{&source.MemoryFile{FileName: "x.pdf", Content: []byte("x")}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(5), resp.Items[0].ID)
	assert.Equal(t, 1, resp.Count, "缺少 count 时按记录条数计算")
}

func TestAPIErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message字段", http.StatusBadRequest, `{"message":"文件过大"}`, "文件过大"},
		{"detail字段", http.StatusUnprocessableEntity, `{"detail":"参数错误"}`, "参数错误"},
		{"msg字段", http.StatusInternalServerError, `{"msg":"服务繁忙"}`, "服务繁忙"},
		{"纯文本", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"空响应体", http.StatusServiceUnavailable, ``, "Service Unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, 0)

			_, err := c.Upload(t.Context(), []source.File{&source.MemoryFile{FileName: "a.pdf", Content: []byte("x")}})
			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, tc.want, Message(err))
		})
	}
}

func TestFetchByIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/headhunter/resumes", r.URL.Path)
		assert.Equal(t, "1,2", r.URL.Query().Get("resume_ids"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"status":20},{"id":2,"status":10}],"count":2}`))
	}, 0)

	items, err := c.FetchByIDs(t.Context(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, types.StatusParsing, items[1].Status)

	items, err = c.FetchByIDs(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("skip"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "30", q.Get("status"))
		_, _ = w.Write([]byte(`{"data":[{"id":9,"status":30}],"count":"41","average_parse_time":3.5}`))
	}, 0)

	status := int(types.StatusFailed)
	resp, err := c.List(t.Context(), ListQuery{Skip: 20, Limit: 10, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 41, resp.Count)
	assert.Equal(t, 3.5, resp.AverageParseTime)
	require.Len(t, resp.Items, 1)
}

func TestDetailAcceptsWrappedAndBareBodies(t *testing.T) {
	bodies := map[string]string{
		"/headhunter/resume_detail/1": `{"data":{"id":1,"file_name":"a.pdf","struct_info":{"basic_info":{"name":"张三"}}}}`,
		"/headhunter/resume_detail/2": `{"id":2,"file_name":"b.pdf","struct_info":{"basic_info":{"name":"李四"}}}`,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}, 0)

	item, err := c.Detail(t.Context(), 1)
	require.NoError(t, err)
	require.NotNil(t, item.StructInfo)
	assert.Equal(t, "张三", types.Deref(item.StructInfo.BasicInfo.Name))

	item, err = c.Detail(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, "李四", types.Deref(item.StructInfo.BasicInfo.Name))

	_, err = c.Detail(t.Context(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDetailCacheInvalidatedByUpdate(t *testing.T) {
	var gets, patches int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			_, _ = w.Write([]byte(`{"id":7,"file_name":"c.pdf","status":20}`))
		case http.MethodPatch:
			atomic.AddInt32(&patches, 1)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var payload map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Contains(t, payload, "struct_info")
			var info types.StructInfo
			require.NoError(t, json.Unmarshal(payload["struct_info"], &info))
			assert.Equal(t, "王五", types.Deref(info.BasicInfo.Name))
			_, _ = w.Write([]byte(`{"code":0,"message":"ok"}`))
		}
	}, 8)

	_, err := c.Detail(t.Context(), 7)
	require.NoError(t, err)
	_, err = c.Detail(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gets), "第二次读取命中缓存")

	require.NoError(t, c.UpdateDetail(t.Context(), 7, types.StructInfo{BasicInfo: &types.BasicInfo{Name: types.Str("王五")}}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&patches))

	_, err = c.Detail(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets), "回写后缓存失效")
}

func TestDetailCacheSkipsUnfinishedParsing(t *testing.T) {
	var gets int32
	var status atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/headhunter/resumes" {
			_, _ = w.Write([]byte(`{"data":[{"id":7,"status":20}],"count":1}`))
			return
		}
		atomic.AddInt32(&gets, 1)
		_, _ = fmt.Fprintf(w, `{"id":7,"file_name":"c.pdf","status":%d}`, status.Load())
	}, 8)

	item, err := c.Detail(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, item.Status)

	status.Store(int32(types.StatusSuccess))
	item, err = c.Detail(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, item.Status, "待解析的详情不应被缓存")
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))

	_, err = c.Detail(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets), "解析结束后命中缓存")

	_, err = c.FetchByIDs(t.Context(), []int64{7})
	require.NoError(t, err)
	_, err = c.Detail(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&gets), "刷新看到的记录清除缓存")
}

func TestRequestCarriesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("traceparent"))
		_, _ = w.Write([]byte(`{"id":1,"status":20}`))
	}, 0)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(t.Context(), "parent")
	defer span.End()

	_, err := c.Detail(ctx, 1)
	require.NoError(t, err, "未安装全局 TracerProvider 时请求也应正常完成")
	got, _ := traceparent.Load().(string)
	assert.Contains(t, got, span.SpanContext().TraceID().String(), "请求头应带上调用方的 trace id")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(config.BackendConfig{BaseURL: url, Timeout: "1s"})
	require.NoError(t, err)
	_, err = c.FetchByIDs(t.Context(), []int64{1})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
