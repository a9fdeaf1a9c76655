package models

import (
	"time"

	"gorm.io/gorm"
)

// Alert представляет уведомление о проблеме с имуществом или запасами:
// просроченные сроки СИЗ, низкие остатки, истекающие расходники
type Alert struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Информация об оповещении
	Type        string `json:"type" gorm:"not null;type:varchar(50)"` // ppe_overdue, ppe_due_soon, low_stock, expiring_stock
	Title       string `json:"title" gorm:"not null;type:varchar(200)"`
	Description string `json:"description" gorm:"type:text"`
	Severity    string `json:"severity" gorm:"default:'medium';type:varchar(20)"` // low, medium, high, critical

	// Связанное имущество или расходник
	AssetID      *uint       `json:"asset_id"`
	Asset        *Asset      `json:"asset,omitempty" gorm:"foreignKey:AssetID"`
	ConsumableID *uint       `json:"consumable_id"`
	Consumable   *Consumable `json:"consumable,omitempty" gorm:"foreignKey:ConsumableID"`

	// Статус и обработка
	Status     string     `json:"status" gorm:"default:'active';type:varchar(20)"` // active, acknowledged, resolved
	ReadAt     *time.Time `json:"read_at"`
	ResolvedAt *time.Time `json:"resolved_at"`

	AssignedUserID *uint `json:"assigned_user_id"`
	AssignedUser   *User `json:"assigned_user,omitempty" gorm:"foreignKey:AssignedUserID"`
}

// TableName задает имя таблицы для модели Alert
func (Alert) TableName() string {
	return "alerts"
}

// IsActive проверяет, активно ли уведомление
func (a *Alert) IsActive() bool {
	return a.Status == "active"
}
