package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileMetadata(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "简历.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n%test\n"), 0644))
	modTime := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(p, modTime, modTime))

	f, err := NewLocalFile(p)
	require.NoError(t, err)
	assert.Equal(t, "简历.pdf", f.Name())
	assert.Equal(t, int64(15), f.Size())
	assert.True(t, f.LastModified().Equal(modTime))
	assert.Equal(t, "application/pdf", f.ContentType(), "应通过内容嗅探识别PDF")

	rc, err := f.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestNewLocalFileRejectsDirectory(t *testing.T) {
	_, err := NewLocalFile(t.TempDir())
	require.Error(t, err)
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.docx"), []byte("bb"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	single := filepath.Join(t.TempDir(), "c.doc")
	require.NoError(t, os.WriteFile(single, []byte("ccc"), 0644))

	files, err := ExpandPaths([]string{dir, single})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"a.pdf", "b.docx", "c.doc"}, names, "隐藏文件和子目录应被跳过")

	_, err = ExpandPaths([]string{filepath.Join(dir, "missing.pdf")})
	require.Error(t, err)
}

type fakeObjectStore struct {
	objects map[string]string
	infos   []ObjectInfo
	listErr error
}

func (s *fakeObjectStore) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []ObjectInfo
	for _, info := range s.infos {
		if strings.HasPrefix(info.Key, prefix) {
			out = append(out, info)
		}
	}
	return out, nil
}

func (s *fakeObjectStore) OpenObject(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := s.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func TestListObjectFiles(t *testing.T) {
	modified := time.UnixMilli(1714550400000)
	store := &fakeObjectStore{
		objects: map[string]string{"inbox/2024/张三.pdf": "pdf-bytes"},
		infos: []ObjectInfo{
			{Key: "inbox/2024/", Size: 0},
			{Key: "inbox/2024/张三.pdf", Size: 9, LastModified: modified, ContentType: "application/pdf"},
			{Key: "other/李四.pdf", Size: 3},
		},
	}

	files, err := ListObjectFiles(context.Background(), store, "inbox/")
	require.NoError(t, err)
	require.Len(t, files, 1, "目录占位对象和其他前缀应被忽略")

	f := files[0]
	assert.Equal(t, "张三.pdf", f.Name())
	assert.Equal(t, int64(9), f.Size())
	assert.Equal(t, modified, f.LastModified())
	assert.Equal(t, "application/pdf", f.ContentType())

	rc, err := f.Open(context.Background())
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf-bytes", string(data))

	store.listErr = errors.New("boom")
	_, err = ListObjectFiles(context.Background(), store, "inbox/")
	require.Error(t, err)
}

func TestReadMultipartFile(t *testing.T) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("files", "简历.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	defer form.RemoveAll()

	modified := time.UnixMilli(1700000000000)
	f, err := ReadMultipartFile(form.File["files"][0], modified)
	require.NoError(t, err)
	assert.Equal(t, "简历.pdf", f.Name())
	assert.Equal(t, int64(8), f.Size())
	assert.Equal(t, modified, f.LastModified())
	assert.Equal(t, "application/octet-stream", f.ContentType())
}
