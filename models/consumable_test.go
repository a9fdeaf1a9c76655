package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestConsumableStockStatus тестирует определение статуса остатков
func TestConsumableStockStatus(t *testing.T) {
	now := time.Now()

	t.Run("Достаточный остаток без срока годности", func(t *testing.T) {
		c := Consumable{Quantity: 50, ReorderLevel: 10}
		assert.Equal(t, StockStatusOK, c.StockStatus(now))
	})

	t.Run("Остаток на пороге дозаказа считается низким", func(t *testing.T) {
		c := Consumable{Quantity: 10, ReorderLevel: 10}
		assert.Equal(t, StockStatusLow, c.StockStatus(now))
	})

	t.Run("Просроченный материал", func(t *testing.T) {
		expired := now.AddDate(0, 0, -1)
		c := Consumable{Quantity: 50, ReorderLevel: 10, ExpirationDate: &expired}
		assert.Equal(t, StockStatusExpired, c.StockStatus(now))
	})

	t.Run("Срок годности истекает в ближайшие 30 дней", func(t *testing.T) {
		expiring := now.AddDate(0, 0, 15)
		c := Consumable{Quantity: 50, ReorderLevel: 10, ExpirationDate: &expiring}
		assert.Equal(t, StockStatusExpiring, c.StockStatus(now))
	})

	t.Run("Просрочка имеет приоритет над низким остатком", func(t *testing.T) {
		expired := now.AddDate(0, 0, -5)
		c := Consumable{Quantity: 2, ReorderLevel: 10, ExpirationDate: &expired}
		assert.Equal(t, StockStatusExpired, c.StockStatus(now))
	})
}
