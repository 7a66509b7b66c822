// Package handler 本地网关的 HTTP 处理器
package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-intake/internal/constants"
	"resume-intake/internal/logger"
	"resume-intake/internal/source"
	"resume-intake/internal/types"
	"resume-intake/internal/uploader"
)

// Submitter 批量上传处理器
type Submitter interface {
	Submit(ctx context.Context, files []source.File) (*uploader.Batch, error)
	State() uploader.State
}

// IntakeHandler 批量上传入口
type IntakeHandler struct {
	proc      Submitter
	fieldName string
}

// NewIntakeHandler 创建上传处理器，fieldName 为空时使用 files
func NewIntakeHandler(proc Submitter, fieldName string) *IntakeHandler {
	if fieldName == "" {
		fieldName = constants.DefaultUploadFieldName
	}
	return &IntakeHandler{proc: proc, fieldName: fieldName}
}

// HandleUpload 接收一批文件并等待批次结束后返回汇总
func (h *IntakeHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	form, err := c.MultipartForm()
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("解析上传表单失败")
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体必须是 multipart/form-data"})
		return
	}
	headers := form.File[h.fieldName]
	modified := form.Value["last_modified"]
	files := make([]source.File, 0, len(headers))
	for i, fh := range headers {
		f, err := source.ReadMultipartFile(fh, lastModifiedAt(modified, i))
		if err != nil {
			c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		files = append(files, f)
	}

	batch, err := h.proc.Submit(ctx, files)
	if errors.Is(err, uploader.ErrUploadInProgress) {
		c.JSON(consts.StatusConflict, utils.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("提交批次失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	if batch == nil {
		c.JSON(consts.StatusOK, uploader.Summary{
			Results:       []types.IngestionResult{},
			Notifications: []uploader.Notification{},
		})
		return
	}

	summary, err := batch.Wait(ctx)
	if err != nil {
		// 请求已断开，批次继续在后台完成
		logger.Ctx(ctx).Warn().Err(err).Str("batch_id", batch.ID).Msg("等待批次结果时请求已结束")
		c.JSON(consts.StatusAccepted, utils.H{"batch_id": batch.ID})
		return
	}
	c.JSON(consts.StatusOK, summary)
}

// HandleState 返回当前上传进度
func (h *IntakeHandler) HandleState(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.proc.State())
}

// lastModifiedAt 第 i 个文件的修改时间（毫秒），缺失或非法时为零值
func lastModifiedAt(values []string, i int) time.Time {
	if i >= len(values) {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(values[i], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
