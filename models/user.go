package models

import (
	"time"

	"gorm.io/gorm"
)

// User представляет учетную запись сотрудника в системе
type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные поля
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"` // Пароль не возвращается в JSON

	// Дополнительные поля
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" gorm:"default:'user'"` // user, quartermaster, officer, admin
	IsActive  bool   `json:"is_active" gorm:"default:true"`

	// Связь с личной карточкой, если учетная запись принадлежит
	// действующему сотруднику части
	PersonnelID *uint      `json:"personnel_id" gorm:"index"`
	Personnel   *Personnel `json:"personnel,omitempty" gorm:"foreignKey:PersonnelID"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}

// GetDisplayName возвращает отображаемое имя пользователя
func (u *User) GetDisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
