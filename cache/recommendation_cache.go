package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playpod/model"

	"github.com/go-redis/redis/v8"
)

// GetRecommendationKey 根据用户ID生成推荐结果的Redis键
func GetRecommendationKey(userID string) string {
	return fmt.Sprintf("recommendations:%s", userID)
}

// RecommendationCache 按用户缓存推荐列表
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecommendationCache 创建推荐缓存
func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

// Get 未命中时返回 false
func (c *RecommendationCache) Get(ctx context.Context, userID string) ([]model.DeezerTrack, bool, error) {
	raw, err := c.client.Get(ctx, GetRecommendationKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendations: %w", err)
	}

	var tracks []model.DeezerTrack
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	return tracks, true, nil
}

func (c *RecommendationCache) Set(ctx context.Context, userID string, tracks []model.DeezerTrack) error {
	raw, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	if err := c.client.Set(ctx, GetRecommendationKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache recommendations: %w", err)
	}
	return nil
}

// Invalidate 播放历史变化后调用
func (c *RecommendationCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, GetRecommendationKey(userID)).Err()
}
