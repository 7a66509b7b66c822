package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxFileNameLength 文件名最大长度
	MaxFileNameLength = 80

	// MaxFileNameCount span 上最多记录的文件名个数
	MaxFileNameCount = 20
)

// piiKeywords 属性名包含这些关键字时值需要掩码
var piiKeywords = []string{
	"email",
	"phone",
	"name",
	"姓名",
	"电话",
	"邮箱",
	"token",
	"password",
}

// SafeAttributeValue 敏感属性掩码，其余按 maxLength 截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)

	switch {
	case length <= 1:
		return "*"
	case length == 2:
		// "张三" -> "张*"
		return string(runes[0:1]) + "*"
	case length <= 4:
		// "王小明" -> "王*明"
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}
	// "13812345678" -> "13*******78"
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString 截断字符串，保留首尾，中间用省略号连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := max((maxLength-3)/2, 1)
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeFileNames 截断文件名列表，超过 MaxFileNameCount 的部分丢弃
func SafeFileNames(names []string) []string {
	if len(names) > MaxFileNameCount {
		names = names[:MaxFileNameCount]
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = TruncateString(n, MaxFileNameLength)
	}
	return out
}
