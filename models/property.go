package models

import (
	"time"

	"gorm.io/gorm"
)

// Property представляет объект с планом тушения (pre-incident plan)
type Property struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Name    string `json:"name" gorm:"not null;type:varchar(150)"`
	Address string `json:"address" gorm:"not null;type:text"`

	// Координаты для карты обстановки
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Характеристики объекта
	OccupancyType string `json:"occupancy_type" gorm:"type:varchar(50)"` // residential, commercial, industrial, assembly
	Stories       int    `json:"stories"`
	Construction  string `json:"construction" gorm:"type:varchar(100)"`
	HasSprinklers bool   `json:"has_sprinklers" gorm:"default:false"`
	KnoxBox       string `json:"knox_box" gorm:"type:varchar(100)"` // Расположение ключницы

	// Опасности и контакты
	Hazards      string `json:"hazards" gorm:"type:text"`
	ContactName  string `json:"contact_name" gorm:"type:varchar(100)"`
	ContactPhone string `json:"contact_phone" gorm:"type:varchar(20)"`

	LastSurveyAt *time.Time `json:"last_survey_at"` // Последнее обследование объекта

	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели Property
func (Property) TableName() string {
	return "properties"
}

// Hydrant представляет пожарный гидрант
type Hydrant struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	HydrantNumber string  `json:"hydrant_number" gorm:"uniqueIndex;type:varchar(30)"`
	Latitude      float64 `json:"latitude" gorm:"not null"`
	Longitude     float64 `json:"longitude" gorm:"not null"`
	Address       string  `json:"address" gorm:"type:text"`

	FlowRateGPM int    `json:"flow_rate_gpm"`
	MainSizeIn  int    `json:"main_size_in"`
	Status      string `json:"status" gorm:"default:'in_service';type:varchar(20)"` // in_service, out_of_service

	LastFlowTestAt *time.Time `json:"last_flow_test_at"`
}

// TableName задает имя таблицы для модели Hydrant
func (Hydrant) TableName() string {
	return "hydrants"
}
