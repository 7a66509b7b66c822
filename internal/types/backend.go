package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// BackendStatus 后端解析状态码
type BackendStatus int

const (
	// StatusPending 已接收，等待解析
	StatusPending BackendStatus = 0
	// StatusParsing 解析中
	StatusParsing BackendStatus = 10
	// StatusSuccess 解析成功
	StatusSuccess BackendStatus = 20
	// StatusFailed 解析失败
	StatusFailed BackendStatus = 30
)

// String 返回状态的中文描述
func (s BackendStatus) String() string {
	switch s {
	case StatusPending:
		return "待解析"
	case StatusParsing:
		return "解析中"
	case StatusSuccess:
		return "解析成功"
	case StatusFailed:
		return "解析失败"
	default:
		return "未知状态(" + strconv.Itoa(int(s)) + ")"
	}
}

// BackendItem 后端返回的单条简历记录。
// 通过 UnmarshalJSON 宽松解析：数字可能以字符串出现，布尔可能以 0/1 出现，
// 单个字段格式错误时取零值而不是让整批解析失败。
type BackendItem struct {
	FileName    string
	FileSize    int64
	BucketID    string
	FileKey     string
	ContentHash string
	Source      int64
	Status      BackendStatus
	StatusMsg   string
	StructInfo  *StructInfo
	IsInPool    bool
	IsDel       bool
	ID          int64
	UserID      int64
}

// backendItemWire 输出时使用的线上格式
type backendItemWire struct {
	FileName    string      `json:"file_name"`
	FileSize    int64       `json:"file_size"`
	BucketID    string      `json:"bucket_id,omitempty"`
	FileKey     string      `json:"file_key,omitempty"`
	ContentHash string      `json:"content_hash,omitempty"`
	Source      int64       `json:"source"`
	Status      int         `json:"status"`
	StatusMsg   string      `json:"status_msg,omitempty"`
	StructInfo  *StructInfo `json:"struct_info"`
	IsInPool    bool        `json:"is_in_pool"`
	IsDel       bool        `json:"is_del"`
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
}

// MarshalJSON 按后端字段名输出
func (b BackendItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(backendItemWire{
		FileName:    b.FileName,
		FileSize:    b.FileSize,
		BucketID:    b.BucketID,
		FileKey:     b.FileKey,
		ContentHash: b.ContentHash,
		Source:      b.Source,
		Status:      int(b.Status),
		StatusMsg:   b.StatusMsg,
		StructInfo:  b.StructInfo,
		IsInPool:    b.IsInPool,
		IsDel:       b.IsDel,
		ID:          b.ID,
		UserID:      b.UserID,
	})
}

// UnmarshalJSON 宽松解析，非对象输入得到零值记录
func (b *BackendItem) UnmarshalJSON(data []byte) error {
	*b = BackendItem{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	b.FileName = flexString(fields["file_name"])
	b.FileSize = flexInt(fields["file_size"])
	b.BucketID = flexString(fields["bucket_id"])
	b.FileKey = flexString(fields["file_key"])
	b.ContentHash = flexString(fields["content_hash"])
	b.Source = flexInt(fields["source"])
	b.Status = BackendStatus(flexInt(fields["status"]))
	b.StatusMsg = flexString(fields["status_msg"])
	b.StructInfo = DecodeStructInfo(fields["struct_info"])
	b.IsInPool = flexBool(fields["is_in_pool"])
	b.IsDel = flexBool(fields["is_del"])
	b.ID = flexInt(fields["id"])
	b.UserID = flexInt(fields["user_id"])
	return nil
}

// DecodeBackendItems 逐条解析记录数组，非数组输入返回空切片
func DecodeBackendItems(raw json.RawMessage) []BackendItem {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []BackendItem{}
	}
	items := make([]BackendItem, len(elems))
	for i, elem := range elems {
		_ = items[i].UnmarshalJSON(elem)
	}
	return items
}

// flexString 字符串原样返回，数字和布尔转为文本，其余为空
func flexString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return string(trimmed)
}

// flexInt 接受数字、数字字符串和布尔，无法识别时为0
func flexInt(raw json.RawMessage) int64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	switch string(trimmed) {
	case "true":
		return 1
	case "false", "null":
		return 0
	}

	text := flexString(trimmed)
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int64(f)
	}
	return 0
}

// flexBool 按 JavaScript 的真值规则解析
func flexBool(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case 't':
		return string(trimmed) == "true"
	case 'f', 'n':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false":
			return false
		}
		return true
	case '{', '[':
		return true
	}
	f, err := strconv.ParseFloat(string(trimmed), 64)
	return err == nil && f != 0
}
