// Package ingest 把后端各种形态的简历记录规范化为统一的入库结果。
package ingest

import (
	"strings"

	"resume-intake/internal/constants"
	"resume-intake/internal/types"
)

// Normalize 逐条转换后端记录。纯函数，不会失败。
func Normalize(items []types.BackendItem) []types.IngestionResult {
	results := make([]types.IngestionResult, len(items))
	for i, item := range items {
		results[i] = NormalizeOne(item)
	}
	return results
}

// NormalizeOne 转换单条记录
func NormalizeOne(item types.BackendItem) types.IngestionResult {
	fileName := item.FileName
	if fileName == "" {
		fileName = constants.DefaultFileName
	}
	size := item.FileSize
	if size < 0 {
		size = 0
	}

	return types.IngestionResult{
		Success: item.Status == types.StatusSuccess,
		Status:  item.Status,
		Error:   item.StatusMsg,
		Data: &types.FileMeta{
			FileName:     fileName,
			OriginalName: fileName,
			URL:          "",
			Size:         size,
			Ext:          extension(fileName),
		},
		FileName: fileName,
		Backend: types.BackendSubset{
			Source:     item.Source,
			Status:     item.Status,
			StructInfo: item.StructInfo,
			IsInPool:   item.IsInPool,
			IsDel:      item.IsDel,
			ID:         item.ID,
			UserID:     item.UserID,
		},
	}
}

// extension 最后一个点之后的内容，大小写保持原样
func extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

// IDs 提取结果中的后端记录ID，用于后续刷新状态
func IDs(results []types.IngestionResult) []int64 {
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		if r.Backend.ID != 0 {
			ids = append(ids, r.Backend.ID)
		}
	}
	return ids
}
