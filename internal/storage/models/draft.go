package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileDraft 一次编辑保存的快照，同一份简历按版本递增
type ProfileDraft struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	ResumeID   int64          `gorm:"not null;uniqueIndex:idx_draft_resume_version"`
	Version    int            `gorm:"not null;uniqueIndex:idx_draft_resume_version"`
	FileName   string         `gorm:"type:varchar(255)"`
	FormValues datatypes.JSON `gorm:"type:json"`
	StructInfo datatypes.JSON `gorm:"type:json;not null"`
	Synced     bool           `gorm:"default:false"` // 是否已成功回写后端
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

// TableName 草稿表名
func (ProfileDraft) TableName() string {
	return "profile_drafts"
}
