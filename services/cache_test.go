package services

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"backend_firerms/models"
)

// TestCacheServiceWithoutRedis тестирует деградацию кэша без подключения к Redis
func TestCacheServiceWithoutRedis(t *testing.T) {
	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	cache := NewCacheService(nil, logger)

	t.Run("Запись пропускается без ошибки", func(t *testing.T) {
		err := cache.Set(context.Background(), "key", "value", CacheTTLShort)
		assert.NoError(t, err)
	})

	t.Run("Чтение возвращает ошибку", func(t *testing.T) {
		_, err := cache.Get(context.Background(), "key")
		assert.Error(t, err)
	})

	t.Run("Карточка имущества не читается из кэша", func(t *testing.T) {
		asset, err := cache.GetCachedAsset(1)
		assert.Error(t, err)
		assert.Nil(t, asset)
	})

	t.Run("Кэширование карточки возвращает ошибку, но не паникует", func(t *testing.T) {
		err := cache.CacheAsset(&models.Asset{Name: "Фонарь"})
		assert.Error(t, err)
	})

	t.Run("Сброс кэша без Redis безопасен", func(t *testing.T) {
		assert.NoError(t, cache.InvalidateAsset(1))
		assert.NoError(t, cache.InvalidateDashboardStats())
	})
}
