package models

import (
	"time"

	"gorm.io/gorm"
)

// Personnel представляет сотрудника пожарной части
type Personnel struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основная информация
	FirstName  string `json:"first_name" gorm:"not null;type:varchar(50)"`
	LastName   string `json:"last_name" gorm:"not null;type:varchar(50)"`
	MiddleName string `json:"middle_name" gorm:"type:varchar(50)"`

	BadgeNumber string `json:"badge_number" gorm:"uniqueIndex;type:varchar(20)"`
	Rank        string `json:"rank" gorm:"type:varchar(50)"` // firefighter, engineer, lieutenant, captain, chief
	ShiftLetter string `json:"shift_letter" gorm:"type:varchar(5)"`
	Station     string `json:"station" gorm:"type:varchar(50)"`

	// Контактная информация
	Phone string `json:"phone" gorm:"type:varchar(20)"`
	Email string `json:"email" gorm:"uniqueIndex;type:varchar(100)"`

	// Служебные даты
	HireDate        *time.Time `json:"hire_date"`
	LastMedicalExam *time.Time `json:"last_medical_exam"`
	LastFitTest     *time.Time `json:"last_fit_test"`

	// Статус
	Status   string `json:"status" gorm:"default:'active';type:varchar(20)"` // active, leave, light_duty, retired
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Аттестации
	Certifications []Certification `json:"certifications,omitempty" gorm:"foreignKey:PersonnelID"`

	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели Personnel
func (Personnel) TableName() string {
	return "personnel"
}

// GetFullName возвращает полное имя сотрудника
func (p *Personnel) GetFullName() string {
	fullName := p.FirstName
	if p.MiddleName != "" {
		fullName += " " + p.MiddleName
	}
	fullName += " " + p.LastName
	return fullName
}

// GetDisplayName возвращает короткое отображаемое имя
func (p *Personnel) GetDisplayName() string {
	return p.FirstName + " " + p.LastName
}

// CanBeAssigned проверяет, можно ли закрепить имущество за сотрудником
func (p *Personnel) CanBeAssigned() bool {
	return p.IsActive && p.Status != "retired"
}

// Certification представляет аттестацию или допуск сотрудника
type Certification struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time  `json:"created_at"`
	PersonnelID uint       `json:"personnel_id" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null;type:varchar(150)"` // EMT-B, Firefighter II, Hazmat Ops, etc.
	IssuedBy    string     `json:"issued_by" gorm:"type:varchar(150)"`
	IssuedAt    *time.Time `json:"issued_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// TableName задает имя таблицы для модели Certification
func (Certification) TableName() string {
	return "certifications"
}

// IsExpired проверяет, истек ли срок действия аттестации
func (c *Certification) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
