package models

import (
	"time"

	"gorm.io/gorm"
)

// Apparatus представляет пожарный автомобиль или иную технику части
type Apparatus struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные характеристики
	UnitDesignation string `json:"unit_designation" gorm:"not null;uniqueIndex;type:varchar(20)"` // Engine 1, Ladder 2, etc.
	Type            string `json:"type" gorm:"not null;type:varchar(50)"`                         // engine, ladder, rescue, tanker, brush, ambulance
	Make            string `json:"make" gorm:"type:varchar(100)"`
	Model           string `json:"model" gorm:"type:varchar(100)"`
	Year            int    `json:"year"`
	VIN             string `json:"vin" gorm:"uniqueIndex;type:varchar(30)"`

	// Статус техники
	Status  string `json:"status" gorm:"default:'in_service';type:varchar(20)"` // in_service, reserve, out_of_service
	Station string `json:"station" gorm:"type:varchar(50)"`

	// Технические данные
	PumpCapacityGPM int `json:"pump_capacity_gpm"` // Производительность насоса
	TankCapacityGal int `json:"tank_capacity_gal"` // Объем цистерны
	Mileage         int `json:"mileage"`

	// Геопозиция для карты обстановки
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Отсеки для хранения имущества
	Compartments []Compartment `json:"compartments,omitempty" gorm:"foreignKey:ApparatusID"`

	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели Apparatus
func (Apparatus) TableName() string {
	return "apparatus"
}

// IsAvailable проверяет, находится ли техника в строю
func (a *Apparatus) IsAvailable() bool {
	return a.Status == "in_service" || a.Status == "reserve"
}

// Compartment представляет отсек на технике. Отсек принадлежит ровно одной
// единице техники и содержит упорядоченный список подотсеков.
type Compartment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ApparatusID uint   `json:"apparatus_id" gorm:"not null;index"`
	Name        string `json:"name" gorm:"not null;type:varchar(100)"`
	Side        string `json:"side" gorm:"type:varchar(20)"` // driver, officer, rear, top

	// Сетка раскладки внутри отсека
	LayoutRows int `json:"layout_rows" gorm:"default:1"`
	LayoutCols int `json:"layout_cols" gorm:"default:1"`

	// Положение на схеме борта в процентах (для отрисовки диаграммы)
	SchematicX      float64 `json:"schematic_x"`
	SchematicY      float64 `json:"schematic_y"`
	SchematicWidth  float64 `json:"schematic_width" gorm:"default:20"`
	SchematicHeight float64 `json:"schematic_height" gorm:"default:30"`

	Position int `json:"position" gorm:"default:0"` // Порядок отображения

	SubCompartments []SubCompartment `json:"sub_compartments,omitempty" gorm:"foreignKey:CompartmentID"`
}

// TableName задает имя таблицы для модели Compartment
func (Compartment) TableName() string {
	return "compartments"
}

// SubCompartment представляет подотсек — конкретное место хранения.
// Имущество ссылается на подотсек через пару (assigned_to_type,
// assigned_to_id), поэтому одна единица имущества физически не может
// числиться в двух подотсеках одновременно.
type SubCompartment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompartmentID uint   `json:"compartment_id" gorm:"not null;index"`
	Name          string `json:"name" gorm:"not null;type:varchar(100)"`
	Position      int    `json:"position" gorm:"default:0"`
}

// TableName задает имя таблицы для модели SubCompartment
func (SubCompartment) TableName() string {
	return "sub_compartments"
}
