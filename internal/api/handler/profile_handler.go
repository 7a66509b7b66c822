package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"resume-intake/internal/client"
	"resume-intake/internal/logger"
	"resume-intake/internal/profile"
	"resume-intake/internal/storage"
	"resume-intake/internal/storage/models"
	"resume-intake/internal/tracing"
	"resume-intake/internal/types"
)

var tracer = otel.Tracer("resume-intake/api")

// ProfileBackend 回写结构化简历的后端
type ProfileBackend interface {
	UpdateDetail(ctx context.Context, id int64, info types.StructInfo) error
}

// DraftStore 编辑草稿存储
type DraftStore interface {
	SaveDraft(ctx context.Context, resumeID int64, fileName string, values *types.ResumeFormValues,
		info types.StructInfo, synced bool, target storage.DraftTarget) (*models.ProfileDraft, error)
}

// ProfileHandler 结构化简历与表单之间的转换和保存
type ProfileHandler struct {
	backend ProfileBackend
	drafts  DraftStore
	target  storage.DraftTarget
}

// NewProfileHandler drafts 可以为 nil，此时只回写后端
func NewProfileHandler(backend ProfileBackend, drafts DraftStore, target storage.DraftTarget) *ProfileHandler {
	return &ProfileHandler{backend: backend, drafts: drafts, target: target}
}

type toFormRequest struct {
	StructInfo   json.RawMessage `json:"struct_info"`
	FallbackName *string         `json:"fallback_name"`
}

// ToStructResponse 表单转结构化的结果，errors 为空表示校验通过
type ToStructResponse struct {
	StructInfo types.StructInfo     `json:"struct_info"`
	Errors     []profile.FieldError `json:"errors"`
}

// SaveResponse 保存结果
type SaveResponse struct {
	StructInfo   types.StructInfo `json:"struct_info"`
	Synced       bool             `json:"synced"`
	DraftVersion int              `json:"draft_version,omitempty"`
}

// HandleToForm 结构化简历转表单，struct_info 缺失或为 null 时返回空表单
func (h *ProfileHandler) HandleToForm(_ context.Context, c *app.RequestContext) {
	var req toFormRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
		return
	}
	c.JSON(consts.StatusOK, profile.ToForm(types.DecodeStructInfo(req.StructInfo), req.FallbackName))
}

// HandleToStruct 表单转结构化简历，同时返回校验结果
func (h *ProfileHandler) HandleToStruct(_ context.Context, c *app.RequestContext) {
	var values types.ResumeFormValues
	if err := json.Unmarshal(c.Request.Body(), &values); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
		return
	}
	c.JSON(consts.StatusOK, ToStructResponse{
		StructInfo: profile.ToStruct(values),
		Errors:     fieldErrors(profile.Validate(values)),
	})
}

// HandleSave 校验表单，回写后端并保存草稿。回写失败时草稿仍以未同步状态保存。
func (h *ProfileHandler) HandleSave(ctx context.Context, c *app.RequestContext) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "无效的简历ID"})
		return
	}

	var values types.ResumeFormValues
	if err := json.Unmarshal(c.Request.Body(), &values); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
		return
	}

	ctx, span := tracer.Start(ctx, "profile.Save")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("resume.id", id),
		attribute.String("profile.name", tracing.SafeAttributeValue("profile.name", values.Name, tracing.DefaultMaxLength)),
	)

	if errs := fieldErrors(profile.Validate(values)); len(errs) > 0 {
		tracing.RecordError(span, errors.New("表单校验失败"), tracing.ErrorTypeValidation)
		c.JSON(consts.StatusUnprocessableEntity, utils.H{"error": "表单校验失败", "errors": errs})
		return
	}

	info := profile.ToStruct(values)
	updateErr := h.backend.UpdateDetail(ctx, id, info)
	resp := SaveResponse{StructInfo: info, Synced: updateErr == nil}

	if h.drafts != nil {
		draft, err := h.drafts.SaveDraft(ctx, id, "", &values, info, resp.Synced, h.target)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Int64("resume_id", id).Msg("保存草稿失败")
		} else {
			resp.DraftVersion = draft.Version
		}
	}

	if updateErr != nil {
		logger.Ctx(ctx).Warn().Err(updateErr).Int64("resume_id", id).Msg("回写后端失败")
		status := consts.StatusBadGateway
		if errors.Is(updateErr, client.ErrNotFound) {
			status = consts.StatusNotFound
		}
		c.JSON(status, utils.H{
			"error":         client.Message(updateErr),
			"draft_version": resp.DraftVersion,
		})
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// fieldErrors 展开校验错误，nil 返回空切片
func fieldErrors(err error) []profile.FieldError {
	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	if err != nil {
		return []profile.FieldError{{Field: "", Message: err.Error()}}
	}
	return []profile.FieldError{}
}
