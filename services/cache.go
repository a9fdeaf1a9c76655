package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"backend_firerms/database"
	"backend_firerms/models"
)

// CacheService предоставляет методы для кэширования
type CacheService struct {
	redis  *redis.Client
	logger *log.Logger
}

// NewCacheService создает новый экземпляр CacheService
func NewCacheService(redisClient *redis.Client, logger *log.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// Константы для TTL кэша
const (
	CacheTTLShort  = 5 * time.Minute  // Для часто изменяемых данных
	CacheTTLMedium = 15 * time.Minute // Для умеренно изменяемых данных
	CacheTTLLong   = 1 * time.Hour    // Для редко изменяемых данных
	CacheTTLStatic = 24 * time.Hour   // Для статических данных
)

// Get получает значение из кэша
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	if cs.redis == nil {
		return "", fmt.Errorf("Redis не подключен")
	}

	val, err := cs.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("ключ не найден")
	}
	return val, err
}

// Set сохраняет значение в кэш
func (cs *CacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if cs.redis == nil {
		if cs.logger != nil {
			cs.logger.Printf("Redis не подключен, пропускаем кэширование для ключа: %s", key)
		}
		return nil // Не возвращаем ошибку, просто пропускаем кэширование
	}

	return cs.redis.Set(ctx, key, value, ttl).Err()
}

// Del удаляет значение из кэша
func (cs *CacheService) Del(ctx context.Context, key string) error {
	if cs.redis == nil {
		return nil
	}

	return cs.redis.Del(ctx, key).Err()
}

// CacheAsset кэширует карточку имущества. TTL короткий: массовые перемещения
// (правка раскладки, удаление техники) кэш поштучно не сбрасывают.
func (cs *CacheService) CacheAsset(asset *models.Asset) error {
	key := database.GenerateAssetCacheKey(asset.ID)
	return database.CacheSetJSON(key, asset, CacheTTLShort)
}

// GetCachedAsset получает карточку имущества из кэша
func (cs *CacheService) GetCachedAsset(assetID uint) (*models.Asset, error) {
	key := database.GenerateAssetCacheKey(assetID)
	var asset models.Asset
	if err := database.CacheGetJSON(key, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// InvalidateAsset удаляет карточку имущества из кэша
func (cs *CacheService) InvalidateAsset(assetID uint) error {
	return database.CacheDel(database.GenerateAssetCacheKey(assetID))
}

// CacheDashboardStats кэширует статистику дашборда
func (cs *CacheService) CacheDashboardStats(stats interface{}) error {
	return database.CacheSetJSON(database.DashboardStatsCacheKey, stats, CacheTTLShort)
}

// GetCachedDashboardStats получает статистику дашборда из кэша
func (cs *CacheService) GetCachedDashboardStats(out interface{}) error {
	return database.CacheGetJSON(database.DashboardStatsCacheKey, out)
}

// InvalidateDashboardStats сбрасывает кэш статистики дашборда
func (cs *CacheService) InvalidateDashboardStats() error {
	return database.CacheDel(database.DashboardStatsCacheKey)
}
