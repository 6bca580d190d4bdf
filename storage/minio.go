package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"playpod/config"
	"playpod/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// coverPrefix 歌单封面对象前缀
const coverPrefix = "covers/"

// CoverStore 把歌单封面保存在 MinIO 存储桶中
type CoverStore struct {
	client *minio.Client
	bucket string
}

// ObjectInfo 封面对象信息
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type"`
}

// BucketStats 封面统计
type BucketStats struct {
	TotalObjects int       `json:"total_objects"`
	TotalSize    int64     `json:"total_size"`
	LastModified time.Time `json:"last_modified"`
}

// NewCoverStore 连接 MinIO，存储桶不存在时创建
func NewCoverStore(ctx context.Context, cfg *config.Config) (*CoverStore, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is not set")
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("[MinIO] 创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	return &CoverStore{client: client, bucket: cfg.MinioBucket}, nil
}

// PutCover 上传封面，返回对象名
func (s *CoverStore) PutCover(ctx context.Context, playlistID string, body io.Reader, size int64, contentType string) (string, error) {
	object := coverObjectName(playlistID, contentType)
	_, err := s.client.PutObject(ctx, s.bucket, object, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传封面失败: %w", err)
	}
	logger.Debug("[MinIO] 上传封面", logger.String("object", object), logger.Int64("size", size))
	return object, nil
}

// RemoveCover 删除封面对象
func (s *CoverStore) RemoveCover(ctx context.Context, object string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除封面失败: %w", err)
	}
	return nil
}

// ListCovers 列出封面对象及统计信息
func (s *CoverStore) ListCovers(ctx context.Context) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    coverPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		stats.add(object.Size, object.LastModified)
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, stats, nil
}

func (b *BucketStats) add(size int64, modified time.Time) {
	b.TotalObjects++
	b.TotalSize += size
	if modified.After(b.LastModified) {
		b.LastModified = modified
	}
}

// coverObjectName covers/{playlistID}/{uuid}{ext}
func coverObjectName(playlistID, contentType string) string {
	return path.Join(coverPrefix, playlistID, uuid.NewString()+imageExtension(contentType))
}

// imageExtension 由 Content-Type 推断扩展名
func imageExtension(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
