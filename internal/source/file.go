// Package source 提供批量上传的文件来源：本地磁盘、multipart 表单和 MinIO 对象。
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// File 待上传文件的最小抽象
type File interface {
	// Name 展示用文件名
	Name() string
	// Size 字节大小
	Size() int64
	// LastModified 最后修改时间
	LastModified() time.Time
	// ContentType 声明的MIME类型，可能为空
	ContentType() string
	// Open 打开文件内容，调用方负责关闭
	Open(ctx context.Context) (io.ReadCloser, error)
}

// LocalFile 本地磁盘文件
type LocalFile struct {
	path    string
	info    os.FileInfo
	mimeOne sync.Once
	mime    string
}

// NewLocalFile 读取文件元数据，目录会返回错误
func NewLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件信息失败: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s 是目录", path)
	}
	return &LocalFile{path: path, info: info}, nil
}

// ExpandPaths 展开命令行给出的路径，目录只展开一层
func ExpandPaths(paths []string) ([]File, error) {
	var files []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("读取路径 %s 失败: %w", p, err)
		}
		if !info.IsDir() {
			f, err := NewLocalFile(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("读取目录 %s 失败: %w", p, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			f, err := NewLocalFile(filepath.Join(p, entry.Name()))
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func (f *LocalFile) Name() string            { return f.info.Name() }
func (f *LocalFile) Size() int64             { return f.info.Size() }
func (f *LocalFile) LastModified() time.Time { return f.info.ModTime() }
func (f *LocalFile) Path() string            { return f.path }

// ContentType 通过内容嗅探得到的MIME类型，嗅探失败时为空
func (f *LocalFile) ContentType() string {
	f.mimeOne.Do(func() {
		mtype, err := mimetype.DetectFile(f.path)
		if err == nil {
			f.mime = mtype.String()
		}
	})
	return f.mime
}

func (f *LocalFile) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// ReadMultipartFile 把表单文件读入内存。请求结束后表单会被释放，而上传可能仍在后台进行。
// 浏览器提供的 lastModified 毫秒值通过单独字段传入。
func ReadMultipartFile(header *multipart.FileHeader, lastModified time.Time) (*MemoryFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("打开表单文件 %s 失败: %w", header.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("读取表单文件 %s 失败: %w", header.Filename, err)
	}
	return &MemoryFile{
		FileName:    header.Filename,
		Content:     content,
		Modified:    lastModified,
		ContentMIME: header.Header.Get("Content-Type"),
	}, nil
}

// MemoryFile 内存中的文件，主要用于测试和小文件
type MemoryFile struct {
	FileName    string
	Content     []byte
	Modified    time.Time
	ContentMIME string
}

func (f *MemoryFile) Name() string            { return f.FileName }
func (f *MemoryFile) Size() int64             { return int64(len(f.Content)) }
func (f *MemoryFile) LastModified() time.Time { return f.Modified }
func (f *MemoryFile) ContentType() string     { return f.ContentMIME }

func (f *MemoryFile) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Content)), nil
}

var (
	_ File = (*LocalFile)(nil)
	_ File = (*MemoryFile)(nil)
)
