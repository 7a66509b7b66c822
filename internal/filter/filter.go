// Package filter 按扩展名或声明的MIME类型筛选可上传的简历文件。
// 这里只做客户端提示性过滤，后端仍可能拒绝文件。
package filter

import (
	"mime"
	"strings"

	"resume-intake/internal/config"
	"resume-intake/internal/source"
)

// Filter 文件类型白名单
type Filter struct {
	extensions map[string]struct{}
	mimeTypes  map[string]struct{}
}

// New 创建过滤器，扩展名不区分大小写，可带或不带前导点
func New(extensions, mimeTypes []string) *Filter {
	f := &Filter{
		extensions: make(map[string]struct{}, len(extensions)),
		mimeTypes:  make(map[string]struct{}, len(mimeTypes)),
	}
	for _, ext := range extensions {
		f.extensions[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")] = struct{}{}
	}
	for _, mt := range mimeTypes {
		f.mimeTypes[baseMediaType(mt)] = struct{}{}
	}
	return f
}

// Default 只允许 PDF、DOC、DOCX
func Default() *Filter {
	return New(config.DefaultAllowedExtensions(), config.DefaultAllowedMIMETypes())
}

// FromConfig 根据上传配置创建过滤器
func FromConfig(cfg config.UploadConfig) *Filter {
	return New(cfg.AllowedExtensions, cfg.AllowedMIMETypes)
}

// IsAllowed 扩展名或声明的MIME类型任一命中即可
func (f *Filter) IsAllowed(file source.File) bool {
	if _, ok := f.extensions[Extension(file.Name())]; ok {
		return true
	}
	if ct := baseMediaType(file.ContentType()); ct != "" {
		_, ok := f.mimeTypes[ct]
		return ok
	}
	return false
}

// Partition 按原顺序拆分为允许和拒绝两组
func (f *Filter) Partition(files []source.File) (allowed, rejected []source.File) {
	for _, file := range files {
		if f.IsAllowed(file) {
			allowed = append(allowed, file)
		} else {
			rejected = append(rejected, file)
		}
	}
	return allowed, rejected
}

// Extension 返回最后一个点之后的小写扩展名，没有点时为空
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// baseMediaType 去掉参数部分，如 "text/plain; charset=utf-8" -> "text/plain"
func baseMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
