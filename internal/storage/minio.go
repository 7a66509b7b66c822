package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resume-intake/internal/config"
	"resume-intake/internal/logger"
	"resume-intake/internal/source"
)

// 确保MinIO可以作为批量上传的文件来源
var _ source.ObjectStore = (*MinIO)(nil)

// MinIO 待导入简历所在的对象存储
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
}

// NewMinIO 创建MinIO客户端并确认存储桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint不能为空")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("MinIO存储桶名称不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{client: client, cfg: cfg, bucket: cfg.BucketName}

	exists, err := client.BucketExists(context.Background(), m.bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("存储桶 %s 不存在", m.bucket)
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", m.bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

// Bucket 存储桶名称
func (m *MinIO) Bucket() string {
	return m.bucket
}

// ListObjects 递归列出前缀下的对象
func (m *MinIO) ListObjects(ctx context.Context, prefix string) ([]source.ObjectInfo, error) {
	var infos []source.ObjectInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:       strings.TrimPrefix(prefix, "/"),
		Recursive:    true,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("列举存储桶 %s 失败: %w", m.bucket, obj.Err)
		}
		infos = append(infos, source.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  obj.ContentType,
		})
	}
	logger.Debug().Str("bucket", m.bucket).Str("prefix", prefix).Int("count", len(infos)).Msg("已列举MinIO对象")
	return infos, nil
}

// OpenObject 以流的方式读取对象
func (m *MinIO) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.bucket, key, err)
	}
	return obj, nil
}
