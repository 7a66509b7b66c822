package types

// IngestionResult 单个文件的入库结果，由结果适配器生成后不再修改
type IngestionResult struct {
	Success  bool          `json:"success"`
	Status   BackendStatus `json:"status"`
	Data     *FileMeta     `json:"data,omitempty"`
	FileName string        `json:"fileName,omitempty"`
	Error    string        `json:"error,omitempty"`
	Backend  BackendSubset `json:"backend"`
}

// FileMeta 规范化的文件元数据
type FileMeta struct {
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	Ext          string `json:"ext"`
}

// BackendSubset 后端记录中调用方关心的子集
type BackendSubset struct {
	Source     int64         `json:"source"`
	Status     BackendStatus `json:"status"`
	StructInfo *StructInfo   `json:"struct_info"`
	IsInPool   bool          `json:"is_in_pool"`
	IsDel      bool          `json:"is_del"`
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
}
