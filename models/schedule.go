package models

import (
	"time"

	"gorm.io/gorm"
)

// ShiftEntry представляет запись графика дежурств: кто, когда и на какой
// должности заступает на смену
type ShiftEntry struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Date        time.Time `json:"date" gorm:"not null;index"`
	ShiftLetter string    `json:"shift_letter" gorm:"not null;type:varchar(5)"` // A, B, C
	Station     string    `json:"station" gorm:"type:varchar(50)"`

	PersonnelID uint       `json:"personnel_id" gorm:"not null;index"`
	Personnel   *Personnel `json:"personnel,omitempty" gorm:"foreignKey:PersonnelID"`

	Role string `json:"role" gorm:"type:varchar(50)"` // officer, driver, firefighter

	// Тип записи: обычное дежурство, подмена, сверхурочные, отпуск
	Kind string `json:"kind" gorm:"default:'duty';type:varchar(20)"` // duty, trade, overtime, leave

	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели ShiftEntry
func (ShiftEntry) TableName() string {
	return "shift_entries"
}
