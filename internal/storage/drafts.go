package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resume-intake/internal/constants"
	"resume-intake/internal/events"
	"resume-intake/internal/storage/models"
	"resume-intake/internal/tracing"
	"resume-intake/internal/types"
)

// ErrDraftNotFound 没有保存过草稿
var ErrDraftNotFound = errors.New("草稿不存在")

// DraftTarget 编辑事件投递的交换机和路由键，Exchange 为空时不写发件箱
type DraftTarget struct {
	Exchange   string
	RoutingKey string
}

// SaveDraft 在同一事务中写入新版本草稿和对应的发件箱消息
func (m *MySQL) SaveDraft(ctx context.Context, resumeID int64, fileName string, values *types.ResumeFormValues, info types.StructInfo, synced bool, target DraftTarget) (*models.ProfileDraft, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveDraft", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int64("resume.id", resumeID))

	structJSON, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("序列化结构化简历失败: %w", err)
	}
	var formJSON datatypes.JSON
	if values != nil {
		if formJSON, err = json.Marshal(values); err != nil {
			return nil, fmt.Errorf("序列化表单失败: %w", err)
		}
	}

	draft := &models.ProfileDraft{
		ResumeID:   resumeID,
		FileName:   fileName,
		FormValues: formJSON,
		StructInfo: datatypes.JSON(structJSON),
		Synced:     synced,
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.ProfileDraft{}).
			Where("resume_id = ?", resumeID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("查询草稿版本失败: %w", err)
		}
		draft.Version = maxVersion + 1

		if err := tx.Create(draft).Error; err != nil {
			return fmt.Errorf("写入草稿失败: %w", err)
		}

		if target.Exchange == "" {
			return nil
		}
		payload, err := json.Marshal(events.NewProfileEdited(resumeID, draft.ID, info))
		if err != nil {
			return fmt.Errorf("序列化编辑事件失败: %w", err)
		}
		msg := &models.OutboxMessage{
			AggregateID:      strconv.FormatInt(resumeID, 10),
			EventType:        constants.EventProfileEdited,
			Payload:          string(payload),
			TargetExchange:   target.Exchange,
			TargetRoutingKey: target.RoutingKey,
			Status:           constants.OutboxStatusPending,
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入发件箱失败: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}
	span.SetAttributes(attribute.Int("draft.version", draft.Version))
	return draft, nil
}

// LatestDraft 返回某份简历最新版本的草稿
func (m *MySQL) LatestDraft(ctx context.Context, resumeID int64) (*models.ProfileDraft, error) {
	var draft models.ProfileDraft
	err := m.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("version desc").
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询草稿失败: %w", err)
	}
	return &draft, nil
}

// DraftStructInfo 解析草稿中的结构化简历
func DraftStructInfo(d *models.ProfileDraft) *types.StructInfo {
	if d == nil {
		return nil
	}
	return types.DecodeStructInfo(json.RawMessage(d.StructInfo))
}
