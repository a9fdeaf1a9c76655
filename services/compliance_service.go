package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"backend_firerms/models"
)

// ComplianceService проверяет сроки СИЗ и состояние запасов и создает
// уведомления
type ComplianceService struct {
	DB                  *gorm.DB
	NotificationService *NotificationService
}

// NewComplianceService создает новый экземпляр ComplianceService
func NewComplianceService(db *gorm.DB, notificationService *NotificationService) *ComplianceService {
	return &ComplianceService{
		DB:                  db,
		NotificationService: notificationService,
	}
}

// CheckPPECompliance проверяет сроки списания, проверки и чистки СИЗ
func (cs *ComplianceService) CheckPPECompliance() error {
	var assets []models.Asset
	if err := cs.DB.Where("category = ? AND status != 'retired'", models.AssetCategoryPPE).
		Find(&assets).Error; err != nil {
		return fmt.Errorf("ошибка при получении СИЗ: %w", err)
	}

	now := time.Now()
	for _, asset := range assets {
		info := asset.ComplianceStatus(now)
		if info == nil || info.Status == models.ComplianceOK {
			continue
		}

		alertType := "ppe_due_soon"
		severity := "medium"
		if info.Status == models.ComplianceOverdue {
			alertType = "ppe_overdue"
			severity = "high"
		}

		if err := cs.createAssetAlert(asset, alertType, severity, info.Details); err != nil {
			log.Printf("Ошибка при создании уведомления для имущества %d: %v", asset.ID, err)
		}
	}

	return nil
}

// createAssetAlert создает уведомление по имуществу, если активного еще нет
func (cs *ComplianceService) createAssetAlert(asset models.Asset, alertType, severity, details string) error {
	var existingAlert models.Alert
	err := cs.DB.Where("asset_id = ? AND type = ? AND status = 'active'", asset.ID, alertType).
		First(&existingAlert).Error

	if err == nil {
		// Уведомление уже существует, обновляем описание
		existingAlert.Description = details
		existingAlert.UpdatedAt = time.Now()
		return cs.DB.Save(&existingAlert).Error
	}

	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("ошибка при проверке существующих уведомлений: %w", err)
	}

	alert := models.Alert{
		Type:        alertType,
		Title:       fmt.Sprintf("СИЗ: %s", asset.Name),
		Description: details,
		Severity:    severity,
		AssetID:     &asset.ID,
		Status:      "active",
	}

	if err := cs.DB.Create(&alert).Error; err != nil {
		return fmt.Errorf("ошибка при создании уведомления: %w", err)
	}

	if cs.NotificationService != nil {
		go cs.NotificationService.SendAlert(alert)
	}

	return nil
}

// CheckExpiringConsumables проверяет истекающие и просроченные расходники
func (cs *ComplianceService) CheckExpiringConsumables() error {
	cutoff := time.Now().AddDate(0, 0, 30)
	var consumables []models.Consumable
	if err := cs.DB.Where("expiration_date IS NOT NULL AND expiration_date < ?", cutoff).
		Find(&consumables).Error; err != nil {
		return fmt.Errorf("ошибка при поиске истекающих материалов: %w", err)
	}

	now := time.Now()
	for _, c := range consumables {
		severity := "medium"
		details := fmt.Sprintf("Срок годности %s истекает %s", c.Name, c.ExpirationDate.Format("02.01.2006"))
		if c.ExpirationDate.Before(now) {
			severity = "high"
			details = fmt.Sprintf("Срок годности %s истек %s", c.Name, c.ExpirationDate.Format("02.01.2006"))
		}

		if err := cs.createConsumableAlert(c, "expiring_stock", severity, details); err != nil {
			log.Printf("Ошибка при создании уведомления для материала %d: %v", c.ID, err)
		}
	}

	return nil
}

// CheckLowStock проверяет остатки ниже порога дозаказа
func (cs *ComplianceService) CheckLowStock() error {
	var consumables []models.Consumable
	if err := cs.DB.Where("quantity <= reorder_level").Find(&consumables).Error; err != nil {
		return fmt.Errorf("ошибка при поиске низких остатков: %w", err)
	}

	for _, c := range consumables {
		severity := cs.determineSeverity(c.Quantity, c.ReorderLevel)
		details := fmt.Sprintf("Остаток %s: %d шт. (порог дозаказа: %d шт.)", c.Name, c.Quantity, c.ReorderLevel)

		if err := cs.createConsumableAlert(c, "low_stock", severity, details); err != nil {
			log.Printf("Ошибка при создании уведомления о низком остатке для материала %d: %v", c.ID, err)
		}
	}

	return nil
}

// createConsumableAlert создает уведомление по расходнику, если активного
// еще нет
func (cs *ComplianceService) createConsumableAlert(consumable models.Consumable, alertType, severity, details string) error {
	var existingAlert models.Alert
	err := cs.DB.Where("consumable_id = ? AND type = ? AND status = 'active'", consumable.ID, alertType).
		First(&existingAlert).Error

	if err == nil {
		existingAlert.Description = details
		existingAlert.Severity = severity
		existingAlert.UpdatedAt = time.Now()
		return cs.DB.Save(&existingAlert).Error
	}

	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("ошибка при проверке существующих уведомлений: %w", err)
	}

	alert := models.Alert{
		Type:         alertType,
		Title:        fmt.Sprintf("Запасы: %s", consumable.Name),
		Description:  details,
		Severity:     severity,
		ConsumableID: &consumable.ID,
		Status:       "active",
	}

	if err := cs.DB.Create(&alert).Error; err != nil {
		return fmt.Errorf("ошибка при создании уведомления: %w", err)
	}

	if cs.NotificationService != nil {
		go cs.NotificationService.SendAlert(alert)
	}

	return nil
}

// determineSeverity определяет уровень важности уведомления по остатку
func (cs *ComplianceService) determineSeverity(currentStock, reorderLevel int) string {
	if currentStock == 0 {
		return "critical"
	}
	if currentStock < reorderLevel/2 {
		return "high"
	}
	return "medium"
}

// RunPeriodicChecks запускает периодические проверки имущества и запасов
func (cs *ComplianceService) RunPeriodicChecks() {
	log.Println("Запуск периодических проверок имущества и запасов...")

	if err := cs.CheckPPECompliance(); err != nil {
		log.Printf("Ошибка при проверке сроков СИЗ: %v", err)
	}

	if err := cs.CheckExpiringConsumables(); err != nil {
		log.Printf("Ошибка при проверке сроков годности: %v", err)
	}

	if err := cs.CheckLowStock(); err != nil {
		log.Printf("Ошибка при проверке остатков: %v", err)
	}

	log.Println("Периодические проверки завершены")
}
