package images

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisImageKeyPrefix = "img:"
	cacheTTL            = 15 * time.Minute
)

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrInvalidFileType = errors.New("invalid file type")
)

type IImageService interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Collect(ctx context.Context, id string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, id string) error
}

// imageService keeps uploaded background images on the local filesystem and
// fronts reads with a Redis cache.
type imageService struct {
	rdc      *redis.Client
	basePath string
}

func NewImageService(rdc *redis.Client, uploadsPath string) IImageService {
	return &imageService{
		rdc:      rdc,
		basePath: filepath.Join(uploadsPath, "images"),
	}
}

func (svc *imageService) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	suffix, ok := strings.CutPrefix(contentType, "image/")
	if !ok || suffix == "" {
		return "", ErrInvalidFileType
	}

	if err := os.MkdirAll(svc.basePath, 0o755); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := os.WriteFile(svc.filePath(id, suffix), data, 0o644); err != nil {
		return "", err
	}

	svc.cacheFill(ctx, id, data, contentType)
	return id, nil
}

func (svc *imageService) Collect(ctx context.Context, id string) ([]byte, string, error) {
	// Cache fast path.
	if cached, err := svc.rdc.HGetAll(ctx, redisImageKeyPrefix+id).Result(); err == nil && len(cached) != 0 {
		return []byte(cached["data"]), cached["mime"], nil
	}

	name, err := svc.findFile(id)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(filepath.Join(svc.basePath, name))
	if err != nil {
		return nil, "", err
	}

	contentType := "image/" + strings.TrimPrefix(filepath.Ext(name), ".")
	svc.cacheFill(ctx, id, data, contentType)
	return data, contentType, nil
}

// Delete purges the cache entry and the stored file. Deleting an image that
// is already gone is not an error.
func (svc *imageService) Delete(ctx context.Context, id string) error {
	if err := svc.rdc.Del(ctx, redisImageKeyPrefix+id).Err(); err != nil {
		zap.L().Warn("image.cache_del", zap.String("id", id), zap.Error(err))
	}

	name, err := svc.findFile(id)
	if errors.Is(err, ErrImageNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(svc.basePath, name))
}

// ─────────────────────────────── helpers ─────────────────────────────────────

func (svc *imageService) filePath(id, suffix string) string {
	return filepath.Join(svc.basePath, id+"."+suffix)
}

// findFile locates the stored file for an image id regardless of extension.
func (svc *imageService) findFile(id string) (string, error) {
	entries, err := os.ReadDir(svc.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrImageNotFound
		}
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == id {
			return name, nil
		}
	}
	return "", ErrImageNotFound
}

func (svc *imageService) cacheFill(ctx context.Context, id string, data []byte, contentType string) {
	key := redisImageKeyPrefix + id
	pipe := svc.rdc.TxPipeline()
	pipe.HSet(ctx, key, "data", data, "mime", contentType)
	pipe.Expire(ctx, key, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("image.cache_fill", zap.String("id", id), zap.Error(err))
	}
}
