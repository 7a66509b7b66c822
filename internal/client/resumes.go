package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/attribute"

	"resume-intake/internal/constants"
	"resume-intake/internal/logger"
	"resume-intake/internal/source"
	"resume-intake/internal/tracing"
	"resume-intake/internal/types"
)

// UploadResponse 批量上传的响应
type UploadResponse struct {
	Items []types.BackendItem
	Count int
}

// ListQuery 简历列表查询条件
type ListQuery struct {
	Skip   int
	Limit  int
	Status *int
}

// ListResponse 简历列表
type ListResponse struct {
	Items            []types.BackendItem
	Count            int
	AverageParseTime float64
}

type listWire struct {
	Data             json.RawMessage `json:"data"`
	Count            json.RawMessage `json:"count"`
	AverageParseTime float64         `json:"average_parse_time"`
}

// Upload 把整批文件放在同一个字段下，一次 multipart 请求提交
func (c *Client) Upload(ctx context.Context, files []source.File) (*UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "client.Upload")
	defer span.End()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	span.SetAttributes(
		attribute.Int("upload.file_count", len(files)),
		attribute.StringSlice("upload.file_names", tracing.SafeFileNames(names)),
	)

	req := protocol.AcquireRequest()
	defer protocol.ReleaseRequest(req)
	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.url(constants.PathUploadResume))

	fields := make([]*protocol.MultipartField, 0, len(files))
	for _, f := range files {
		rc, err := f.Open(ctx)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
			return nil, fmt.Errorf("打开文件 %s 失败: %w", f.Name(), err)
		}
		defer rc.Close()

		contentType := f.ContentType()
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fields = append(fields, &protocol.MultipartField{
			Param:       c.fieldName,
			FileName:    f.Name(),
			ContentType: contentType,
			Reader:      rc,
		})
	}
	req.SetMultipartFields(fields...)

	body, err := c.do(ctx, req)
	if err != nil {
		recordCallError(span, err)
		return nil, err
	}

	var wire listWire
	if err := json.Unmarshal(unwrapEnvelope(body), &wire); err != nil {
		recordCallError(span, err)
		return nil, fmt.Errorf("解析上传响应失败: %w", err)
	}
	items := types.DecodeBackendItems(wire.Data)
	resp := &UploadResponse{Items: items, Count: decodeCount(wire.Count, len(items))}
	span.SetAttributes(attribute.Int("upload.result_count", resp.Count))
	if resp.Count != len(items) {
		logger.Warn().Int("count", resp.Count).Int("items", len(items)).Msg("上传响应中的数量与记录条数不一致")
	}
	return resp, nil
}

// FetchByIDs 按ID批量刷新简历状态
func (c *Client) FetchByIDs(ctx context.Context, ids []int64) ([]types.BackendItem, error) {
	if len(ids) == 0 {
		return []types.BackendItem{}, nil
	}
	ctx, span := tracer.Start(ctx, "client.FetchByIDs")
	defer span.End()
	span.SetAttributes(attribute.Int("resume.id_count", len(ids)))

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{}
	q.Set("resume_ids", strings.Join(parts, ","))

	resp, err := c.list(ctx, q)
	if err != nil {
		recordCallError(span, err)
		return nil, err
	}
	return resp.Items, nil
}

// List 分页查询简历
func (c *Client) List(ctx context.Context, query ListQuery) (*ListResponse, error) {
	ctx, span := tracer.Start(ctx, "client.List")
	defer span.End()

	q := url.Values{}
	q.Set("skip", strconv.Itoa(query.Skip))
	if query.Limit > 0 {
		q.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Status != nil {
		q.Set("status", strconv.Itoa(*query.Status))
	}

	resp, err := c.list(ctx, q)
	if err != nil {
		recordCallError(span, err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) list(ctx context.Context, q url.Values) (*ListResponse, error) {
	req := protocol.AcquireRequest()
	defer protocol.ReleaseRequest(req)
	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.url(constants.PathResumes) + "?" + q.Encode())

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var wire listWire
	if err := json.Unmarshal(unwrapEnvelope(body), &wire); err != nil {
		return nil, fmt.Errorf("解析简历列表失败: %w", err)
	}
	items := types.DecodeBackendItems(wire.Data)
	c.forget(items)
	return &ListResponse{
		Items:            items,
		Count:            decodeCount(wire.Count, len(items)),
		AverageParseTime: wire.AverageParseTime,
	}, nil
}

// Detail 获取单份简历详情，命中缓存时不发请求
func (c *Client) Detail(ctx context.Context, id int64) (types.BackendItem, error) {
	if c.cache != nil {
		if item, ok := c.cache.Get(id); ok {
			return item, nil
		}
	}

	ctx, span := tracer.Start(ctx, "client.Detail")
	defer span.End()
	span.SetAttributes(attribute.Int64("resume.id", id))

	req := protocol.AcquireRequest()
	defer protocol.ReleaseRequest(req)
	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.url(fmt.Sprintf(constants.PathResumeDetail, id)))

	body, err := c.do(ctx, req)
	if err != nil {
		recordCallError(span, err)
		return types.BackendItem{}, err
	}

	item, err := decodeDetail(body)
	if err != nil {
		recordCallError(span, err)
		return types.BackendItem{}, err
	}
	c.cacheDetail(id, item)
	return item, nil
}

// cacheDetail 只缓存解析已结束的详情，待解析和解析中的状态还会变化
func (c *Client) cacheDetail(id int64, item types.BackendItem) {
	if c.cache == nil {
		return
	}
	switch item.Status {
	case types.StatusSuccess, types.StatusFailed:
		c.cache.Add(id, item)
	default:
		c.cache.Remove(id)
	}
}

// forget 列表或刷新看到的记录可能比缓存新，清除对应详情
func (c *Client) forget(items []types.BackendItem) {
	if c.cache == nil {
		return
	}
	for _, it := range items {
		c.cache.Remove(it.ID)
	}
}

// decodeDetail 详情可能是 {data: item} 也可能直接是 item
func decodeDetail(body []byte) (types.BackendItem, error) {
	body = unwrapEnvelope(body)
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return types.BackendItem{}, fmt.Errorf("解析简历详情失败: %w", err)
	}
	if data := bytes.TrimSpace(probe.Data); len(data) > 0 && data[0] == '{' {
		body = data
	}

	var item types.BackendItem
	if err := json.Unmarshal(body, &item); err != nil {
		return types.BackendItem{}, fmt.Errorf("解析简历详情失败: %w", err)
	}
	return item, nil
}

// UpdateDetail 回写结构化简历，成功后清除该条缓存
func (c *Client) UpdateDetail(ctx context.Context, id int64, info types.StructInfo) error {
	ctx, span := tracer.Start(ctx, "client.UpdateDetail")
	defer span.End()
	span.SetAttributes(attribute.Int64("resume.id", id))

	payload, err := json.Marshal(struct {
		StructInfo types.StructInfo `json:"struct_info"`
	}{StructInfo: info})
	if err != nil {
		return fmt.Errorf("序列化结构化简历失败: %w", err)
	}

	req := protocol.AcquireRequest()
	defer protocol.ReleaseRequest(req)
	req.SetMethod(consts.MethodPatch)
	req.SetRequestURI(c.url(fmt.Sprintf(constants.PathResumeDetail, id)))
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(payload)

	if _, err := c.do(ctx, req); err != nil {
		recordCallError(span, err)
		return err
	}
	if c.cache != nil {
		c.cache.Remove(id)
	}
	return nil
}
