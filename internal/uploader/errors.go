package uploader

import (
	"errors"
	"fmt"
)

// ErrUploadInProgress 已有批次在上传中
var ErrUploadInProgress = errors.New("已有文件正在上传，请稍候")

// BatchError 批次提交失败
type BatchError struct {
	BatchID string
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("批次 %s 上传失败: %v", e.BatchID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
