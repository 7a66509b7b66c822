package fingerprint

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"resume-intake/internal/constants"
)

// RedisRegistry 把会话指纹保存在 Redis SET 中，多个网关实例可共享同一会话的历史。
// key 不设置过期时间，会话结束时由 Close 删除。
type RedisRegistry struct {
	client    redis.UniversalClient
	sessionID string
	key       string
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry 为指定会话创建登记表
func NewRedisRegistry(client redis.UniversalClient, sessionID string) (*RedisRegistry, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client 不能为空")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("会话ID不能为空")
	}
	return &RedisRegistry{
		client:    client,
		sessionID: sessionID,
		key:       fmt.Sprintf(constants.KeySessionFingerprints, sessionID),
	}, nil
}

// Key 返回登记表使用的 Redis key
func (r *RedisRegistry) Key() string {
	return r.key
}

func (r *RedisRegistry) Has(ctx context.Context, key Key) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, string(key)).Result()
	if err != nil {
		return false, fmt.Errorf("查询指纹失败: %w", err)
	}
	return ok, nil
}

func (r *RedisRegistry) Remember(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = string(k)
	}
	if err := r.client.SAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("登记指纹失败: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("清空会话指纹失败: %w", err)
	}
	return nil
}

// Close 结束会话并删除其指纹集合
func (r *RedisRegistry) Close(ctx context.Context) error {
	return r.Reset(ctx)
}
