package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы остатков расходных материалов. Проверки сроков годности имеют
// приоритет над проверкой уровня запаса.
const (
	StockStatusExpired  = "expired"
	StockStatusExpiring = "expiring"
	StockStatusLow      = "low"
	StockStatusOK       = "ok"
)

// Consumable представляет расходный материал на складе. Поле Quantity —
// кэшированная проекция журнала: в любой момент оно равно начальному
// остатку плюс сумма всех изменений в UsageHistory.
type Consumable struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Name     string `json:"name" gorm:"not null;type:varchar(150)"`
	Category string `json:"category" gorm:"type:varchar(50)"` // medical, foam, fuel, cleaning, etc.
	Barcode  string `json:"barcode" gorm:"uniqueIndex;type:varchar(100)"`

	Quantity     int `json:"quantity" gorm:"default:0"`
	ReorderLevel int `json:"reorder_level" gorm:"default:0"`

	ExpirationDate *time.Time `json:"expiration_date"`

	// Журнал расхода: только добавление, записи не изменяются
	UsageHistory []UsageEntry `json:"usage_history,omitempty" gorm:"foreignKey:ConsumableID"`

	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели Consumable
func (Consumable) TableName() string {
	return "consumables"
}

// UsageEntry представляет запись журнала расхода: подписанное изменение
// количества с обязательной причиной
type UsageEntry struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	ConsumableID uint      `json:"consumable_id" gorm:"not null;index"`
	Change       int       `json:"change" gorm:"not null"` // Положительное = приход, отрицательное = расход
	Reason       string    `json:"reason" gorm:"not null;type:varchar(255)"`
	UserID       *uint     `json:"user_id" gorm:"index"`
	UserName     string    `json:"user_name" gorm:"type:varchar(100)"`
}

// TableName задает имя таблицы для модели UsageEntry
func (UsageEntry) TableName() string {
	return "usage_entries"
}

// StockStatus возвращает статус позиции для группировки на дашборде.
// Сначала проверяется срок годности, затем уровень запаса.
func (c *Consumable) StockStatus(now time.Time) string {
	if c.ExpirationDate != nil {
		if c.ExpirationDate.Before(now) {
			return StockStatusExpired
		}
		if c.ExpirationDate.Before(now.AddDate(0, 0, 30)) {
			return StockStatusExpiring
		}
	}
	if c.Quantity <= c.ReorderLevel {
		return StockStatusLow
	}
	return StockStatusOK
}
