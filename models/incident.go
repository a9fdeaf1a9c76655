package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Incident представляет карточку выезда по схеме NFIRS
type Incident struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Идентификация по NFIRS
	IncidentNumber string `json:"incident_number" gorm:"not null;uniqueIndex;type:varchar(30)"`
	NFIRSTypeCode  string `json:"nfirs_type_code" gorm:"type:varchar(10)"` // 111 - building fire, 321 - EMS call, etc.
	TypeDescr      string `json:"type_descr" gorm:"type:varchar(150)"`
	AidGivenCode   string `json:"aid_given_code" gorm:"type:varchar(5)"`

	// Хронология выезда
	AlarmAt      time.Time  `json:"alarm_at" gorm:"not null;index"`
	ArrivalAt    *time.Time `json:"arrival_at"`
	ControlledAt *time.Time `json:"controlled_at"`
	ClearedAt    *time.Time `json:"cleared_at"`

	// Место вызова
	Address   string   `json:"address" gorm:"type:text"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	PropertyID *uint     `json:"property_id" gorm:"index"`
	Property   *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`

	// Ущерб
	PropertyLoss decimal.Decimal `json:"property_loss" gorm:"type:decimal(12,2)"`
	ContentsLoss decimal.Decimal `json:"contents_loss" gorm:"type:decimal(12,2)"`
	Casualties   int             `json:"casualties"`

	// Участники
	Apparatus []Apparatus `json:"apparatus,omitempty" gorm:"many2many:incident_apparatus;"`
	Personnel []Personnel `json:"personnel,omitempty" gorm:"many2many:incident_personnel;"`

	// Описание
	Narrative string `json:"narrative" gorm:"type:text"`
	Status    string `json:"status" gorm:"default:'open';type:varchar(20)"` // open, closed

	CreatedByUserID *uint `json:"created_by_user_id" gorm:"index"`
	CreatedByUser   *User `json:"created_by_user,omitempty" gorm:"foreignKey:CreatedByUserID"`
}

// TableName задает имя таблицы для модели Incident
func (Incident) TableName() string {
	return "incidents"
}

// ResponseTime возвращает время от тревоги до прибытия
func (i *Incident) ResponseTime() time.Duration {
	if i.ArrivalAt == nil {
		return 0
	}
	return i.ArrivalAt.Sub(i.AlarmAt)
}

// TotalLoss возвращает суммарный ущерб по выезду
func (i *Incident) TotalLoss() decimal.Decimal {
	return i.PropertyLoss.Add(i.ContentsLoss)
}

// IsClosed проверяет, закрыта ли карточка
func (i *Incident) IsClosed() bool {
	return i.Status == "closed"
}
