// Package events 定义上传与编辑流程对外发布的消息。
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"resume-intake/internal/constants"
	"resume-intake/internal/types"
)

// JSONPublisher 以JSON发布消息的最小接口，storage.RabbitMQ 实现了它
type JSONPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// BatchUploadedEvent 一个批次成功提交到后端
type BatchUploadedEvent struct {
	EventID    string                  `json:"event_id"`
	Type       string                  `json:"type"`
	BatchID    string                  `json:"batch_id"`
	SessionID  string                  `json:"session_id,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
	Results    []types.IngestionResult `json:"results"`
}

// ProfileEditedEvent 一份简历的结构化数据被编辑并回写
type ProfileEditedEvent struct {
	EventID    string           `json:"event_id"`
	Type       string           `json:"type"`
	ResumeID   int64            `json:"resume_id"`
	DraftID    uint64           `json:"draft_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	StructInfo types.StructInfo `json:"struct_info"`
}

// NewBatchUploaded 构造批次事件
func NewBatchUploaded(batchID, sessionID string, results []types.IngestionResult) BatchUploadedEvent {
	return BatchUploadedEvent{
		EventID:    newEventID(),
		Type:       constants.EventBatchUploaded,
		BatchID:    batchID,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
		Results:    results,
	}
}

// NewProfileEdited 构造编辑事件
func NewProfileEdited(resumeID int64, draftID uint64, info types.StructInfo) ProfileEditedEvent {
	return ProfileEditedEvent{
		EventID:    newEventID(),
		Type:       constants.EventProfileEdited,
		ResumeID:   resumeID,
		DraftID:    draftID,
		OccurredAt: time.Now().UTC(),
		StructInfo: info,
	}
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

// BatchPublisher 把批次事件发布到固定的交换机和路由键
type BatchPublisher struct {
	pub        JSONPublisher
	exchange   string
	routingKey string
}

// NewBatchPublisher exchange 为空时返回 nil，调用方据此跳过发布
func NewBatchPublisher(pub JSONPublisher, exchange, routingKey string) *BatchPublisher {
	if pub == nil || exchange == "" {
		return nil
	}
	return &BatchPublisher{pub: pub, exchange: exchange, routingKey: routingKey}
}

// PublishBatchUploaded 持久化发布批次事件
func (p *BatchPublisher) PublishBatchUploaded(ctx context.Context, evt BatchUploadedEvent) error {
	if err := p.pub.PublishJSON(ctx, p.exchange, p.routingKey, evt, true); err != nil {
		return fmt.Errorf("发布批次事件失败: %w", err)
	}
	return nil
}
