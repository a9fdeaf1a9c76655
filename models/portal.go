package models

import (
	"time"

	"gorm.io/gorm"
)

// Типы обращений граждан через публичный портал
const (
	PortalRequestBurnPermit    = "burn_permit"     // Разрешение на сжигание
	PortalRequestSmokeAlarm    = "smoke_alarm"     // Установка дымового извещателя
	PortalRequestStationTour   = "station_tour"    // Экскурсия по части
	PortalRequestRecordCopy    = "record_copy"     // Копия акта о пожаре
	PortalRequestGeneral       = "general"         // Общее обращение
	PortalRequestFireInspector = "fire_inspection" // Вызов инспектора
)

// PortalRequest представляет обращение гражданина с публичного портала
type PortalRequest struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Номер для отслеживания, выдается заявителю при подаче
	TrackingNumber string `json:"tracking_number" gorm:"not null;uniqueIndex;type:varchar(40)"`

	Type    string `json:"type" gorm:"not null;type:varchar(30)"`
	Subject string `json:"subject" gorm:"not null;type:varchar(200)"`
	Message string `json:"message" gorm:"type:text"`

	// Контакты заявителя
	RequesterName  string `json:"requester_name" gorm:"not null;type:varchar(100)"`
	RequesterEmail string `json:"requester_email" gorm:"type:varchar(100)"`
	RequesterPhone string `json:"requester_phone" gorm:"type:varchar(20)"`
	Address        string `json:"address" gorm:"type:text"`

	// Обработка
	Status         string `json:"status" gorm:"default:'new';type:varchar(20)"` // new, in_review, completed, rejected
	AssignedUserID *uint  `json:"assigned_user_id"`
	AssignedUser   *User  `json:"assigned_user,omitempty" gorm:"foreignKey:AssignedUserID"`
	Resolution     string `json:"resolution" gorm:"type:text"`

	ResolvedAt *time.Time `json:"resolved_at"`
}

// TableName задает имя таблицы для модели PortalRequest
func (PortalRequest) TableName() string {
	return "portal_requests"
}

// IsOpen проверяет, находится ли обращение в работе
func (pr *PortalRequest) IsOpen() bool {
	return pr.Status == "new" || pr.Status == "in_review"
}
