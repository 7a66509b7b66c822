// Package fingerprint 计算文件指纹并记录会话内已成功提交的文件。
//
// 指纹由文件名、字节大小和最后修改时间组成，不是内容哈希：
// 三项完全相同的两个不同文件会被视为同一次上传。
package fingerprint

import (
	"context"
	"strconv"
	"sync"

	"resume-intake/internal/source"
)

// Separator 指纹各字段之间的分隔符
const Separator = "__"

// Key 文件指纹
type Key string

// Compute 计算文件指纹：名称__大小__最后修改毫秒，修改时间未知时记为 0
func Compute(f source.File) Key {
	var millis int64
	if t := f.LastModified(); !t.IsZero() {
		millis = t.UnixMilli()
	}
	return Key(f.Name() + Separator +
		strconv.FormatInt(f.Size(), 10) + Separator +
		strconv.FormatInt(millis, 10))
}

// Registry 会话级指纹登记表，只增不减，没有过期
type Registry interface {
	// Has 指纹是否已被登记
	Has(ctx context.Context, key Key) (bool, error)
	// Remember 登记指纹，仅在批次成功提交后调用
	Remember(ctx context.Context, keys ...Key) error
	// Reset 会话开始时清空登记表
	Reset(ctx context.Context) error
}

// MemoryRegistry 进程内登记表
type MemoryRegistry struct {
	mu   sync.RWMutex
	keys map[Key]struct{}
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry 创建空的进程内登记表
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{keys: make(map[Key]struct{})}
}

func (r *MemoryRegistry) Has(_ context.Context, key Key) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[key]
	return ok, nil
}

func (r *MemoryRegistry) Remember(_ context.Context, keys ...Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		r.keys[k] = struct{}{}
	}
	return nil
}

func (r *MemoryRegistry) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = make(map[Key]struct{})
	return nil
}

// Len 已登记的指纹数量
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
