package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// AuditLog модель для аудит логов
type AuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     *uint     `json:"user_id" gorm:"index"`
	UserName   string    `json:"user_name" gorm:"size:100"`
	Action     string    `json:"action" gorm:"not null;index"`
	Resource   string    `json:"resource" gorm:"not null;index"`
	ResourceID *uint     `json:"resource_id" gorm:"index"`
	// Место хранения до и после операции (для перемещений имущества)
	FromLocation string    `json:"from_location" gorm:"size:200"`
	ToLocation   string    `json:"to_location" gorm:"size:200"`
	Details      string    `json:"details" gorm:"type:text"`
	OldValues    string    `json:"old_values" gorm:"type:text"`
	NewValues    string    `json:"new_values" gorm:"type:text"`
	Success      bool      `json:"success" gorm:"default:true;index"`
	ErrorMsg     string    `json:"error_message" gorm:"size:1000"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// TableName задает имя таблицы для аудит логов
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditAction типы действий для аудита
type AuditAction string

const (
	// Имущество
	ActionAssetCreate   AuditAction = "asset.create"
	ActionAssetUpdate   AuditAction = "asset.update"
	ActionAssetRetire   AuditAction = "asset.retire"
	ActionAssetCheckout AuditAction = "asset.checkout"
	ActionAssetCheckin  AuditAction = "asset.checkin"
	ActionAssetAssign   AuditAction = "asset.assign"
	ActionAssetUnassign AuditAction = "asset.unassign"

	// Отсеки
	ActionCompartmentCreate  AuditAction = "compartment.create"
	ActionCompartmentDelete  AuditAction = "compartment.delete"
	ActionCompartmentReplace AuditAction = "compartment.replace"

	// Расходные материалы
	ActionConsumableCreate AuditAction = "consumable.create"
	ActionConsumableUsage  AuditAction = "consumable.usage"
	ActionInventoryAudit   AuditAction = "inventory.audit"

	// Выезды
	ActionIncidentCreate AuditAction = "incident.create"
	ActionIncidentUpdate AuditAction = "incident.update"
	ActionIncidentClose  AuditAction = "incident.close"

	// Личный состав
	ActionPersonnelCreate AuditAction = "personnel.create"
	ActionPersonnelUpdate AuditAction = "personnel.update"
)

// AuditService сервис для аудит логов
type AuditService struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewAuditService создает новый сервис аудита. Таблица аудит логов
// мигрируется здесь: модель живет в пакете services и недоступна
// автомиграции пакета database.
func NewAuditService(db *gorm.DB, logger *log.Logger) *AuditService {
	if err := db.AutoMigrate(&AuditLog{}); err != nil && logger != nil {
		logger.Printf("Ошибка миграции таблицы аудита: %v", err)
	}
	return &AuditService{
		db:     db,
		logger: logger,
	}
}

// AuditContext контекст для аудита
type AuditContext struct {
	UserID       *uint
	UserName     string
	Action       AuditAction
	Resource     string
	ResourceID   *uint
	FromLocation string
	ToLocation   string
	OldValues    interface{}
	NewValues    interface{}
	Details      map[string]interface{}
	Success      bool
	ErrorMsg     string
}

// Log записывает аудит лог
func (as *AuditService) Log(ctx AuditContext) error {
	auditLog := &AuditLog{
		UserID:       ctx.UserID,
		UserName:     ctx.UserName,
		Action:       string(ctx.Action),
		Resource:     ctx.Resource,
		ResourceID:   ctx.ResourceID,
		FromLocation: ctx.FromLocation,
		ToLocation:   ctx.ToLocation,
		Success:      ctx.Success,
		ErrorMsg:     ctx.ErrorMsg,
		CreatedAt:    time.Now(),
	}

	if ctx.OldValues != nil {
		if data, err := json.Marshal(ctx.OldValues); err == nil {
			auditLog.OldValues = string(data)
		}
	}
	if ctx.NewValues != nil {
		if data, err := json.Marshal(ctx.NewValues); err == nil {
			auditLog.NewValues = string(data)
		}
	}
	if ctx.Details != nil {
		if data, err := json.Marshal(ctx.Details); err == nil {
			auditLog.Details = string(data)
		}
	}

	if err := as.db.Create(auditLog).Error; err != nil {
		if as.logger != nil {
			as.logger.Printf("Ошибка записи аудит лога: %v", err)
		}
		return fmt.Errorf("ошибка записи аудит лога: %w", err)
	}

	return nil
}

// LogTx записывает аудит лог в рамках переданной транзакции, чтобы запись
// о перемещении фиксировалась атомарно вместе с самим перемещением
func (as *AuditService) LogTx(tx *gorm.DB, ctx AuditContext) error {
	entry := &AuditLog{
		UserID:       ctx.UserID,
		UserName:     ctx.UserName,
		Action:       string(ctx.Action),
		Resource:     ctx.Resource,
		ResourceID:   ctx.ResourceID,
		FromLocation: ctx.FromLocation,
		ToLocation:   ctx.ToLocation,
		Success:      ctx.Success,
		CreatedAt:    time.Now(),
	}
	if ctx.Details != nil {
		if data, err := json.Marshal(ctx.Details); err == nil {
			entry.Details = string(data)
		}
	}
	return tx.Create(entry).Error
}

// GetResourceHistory возвращает историю операций по конкретному ресурсу
func (as *AuditService) GetResourceHistory(resource string, resourceID uint, limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []AuditLog
	if err := as.db.Where("resource = ? AND resource_id = ?", resource, resourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении истории: %w", err)
	}

	return logs, nil
}

// GetRecentActivity возвращает последние записи аудита для дашборда
func (as *AuditService) GetRecentActivity(limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 20
	}

	var logs []AuditLog
	if err := as.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении активности: %w", err)
	}

	return logs, nil
}
