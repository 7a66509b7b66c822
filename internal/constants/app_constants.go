package constants

import "time"

const (
	// ServiceName 服务名，用于追踪和日志
	ServiceName = "resume-intake"

	// DefaultUploadFieldName 批量上传时所有文件共用的表单字段名
	DefaultUploadFieldName = "files"

	// DefaultProgressInterval 模拟上传进度的刷新间隔
	DefaultProgressInterval = 200 * time.Millisecond
	// DefaultProgressMaxIncrement 每次刷新最多增加的进度百分比
	DefaultProgressMaxIncrement = 15.0
	// DefaultProgressCeiling 真实响应返回前进度不能达到的上限
	DefaultProgressCeiling = 90.0

	// DefaultFileName 后端未返回文件名时的占位名
	DefaultFileName = "文件"

	// DefaultDetailCacheSize 简历详情本地缓存容量
	DefaultDetailCacheSize = 256
)

// 后端接口路径
const (
	PathUploadResume = "/headhunter/upload_resume"
	PathResumes      = "/headhunter/resumes"
	PathResumeDetail = "/headhunter/resume_detail/%d"
)

// 消息事件类型
const (
	EventBatchUploaded = "intake.batch_uploaded"
	EventProfileEdited = "intake.profile_edited"
)

// 草稿与发件箱状态
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)
