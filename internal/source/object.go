package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ObjectInfo 对象存储中一个对象的元数据
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ObjectStore 可列举并读取对象的存储
type ObjectStore interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	OpenObject(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectFile 对象存储中的文件
type ObjectFile struct {
	store ObjectStore
	info  ObjectInfo
}

// ListObjectFiles 列出前缀下的全部对象，忽略目录占位对象
func ListObjectFiles(ctx context.Context, store ObjectStore, prefix string) ([]File, error) {
	infos, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("列举对象失败: %w", err)
	}
	files := make([]File, 0, len(infos))
	for _, info := range infos {
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		files = append(files, &ObjectFile{store: store, info: info})
	}
	return files, nil
}

func (f *ObjectFile) Name() string            { return path.Base(f.info.Key) }
func (f *ObjectFile) Size() int64             { return f.info.Size }
func (f *ObjectFile) LastModified() time.Time { return f.info.LastModified }
func (f *ObjectFile) ContentType() string     { return f.info.ContentType }
func (f *ObjectFile) Key() string             { return f.info.Key }

func (f *ObjectFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.store.OpenObject(ctx, f.info.Key)
}

var _ File = (*ObjectFile)(nil)
