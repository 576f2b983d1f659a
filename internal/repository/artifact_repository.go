// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"testops-assistant-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrArtifactNotFound 表示产物缓存中不存在该 ID。
var ErrArtifactNotFound = fmt.Errorf("artifact not found")

// ArtifactRepository 定义了代码产物缓存的操作接口。
// 产物按 ID 缓存在 Redis 中，供 openArtifact 按需取回。
type ArtifactRepository interface {
	CacheArtifacts(ctx context.Context, artifacts []model.CodeArtifact) error
	GetArtifact(ctx context.Context, id string) (*model.CodeArtifact, error)
}

type redisArtifactRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewArtifactRepository 创建一个新的 ArtifactRepository 实例。
// ttl 为零时使用默认 24 小时。
func NewArtifactRepository(redisClient *redis.Client, ttl time.Duration) ArtifactRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisArtifactRepository{redisClient: redisClient, ttl: ttl}
}

func artifactKey(id string) string {
	return fmt.Sprintf("artifact:%s", id)
}

// CacheArtifacts 将一轮生成的全部产物写入缓存。
func (r *redisArtifactRepository) CacheArtifacts(ctx context.Context, artifacts []model.CodeArtifact) error {
	for _, a := range artifacts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal artifact: %w", err)
		}
		if err := r.redisClient.Set(ctx, artifactKey(a.ID), data, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to cache artifact: %w", err)
		}
	}
	return nil
}

// GetArtifact 按 ID 取回一个产物；不存在时返回 ErrArtifactNotFound。
func (r *redisArtifactRepository) GetArtifact(ctx context.Context, id string) (*model.CodeArtifact, error) {
	data, err := r.redisClient.Get(ctx, artifactKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	var artifact model.CodeArtifact
	if err := json.Unmarshal([]byte(data), &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return &artifact, nil
}
