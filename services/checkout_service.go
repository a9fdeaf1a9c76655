package services

import (
	"fmt"

	"gorm.io/gorm"

	"backend_firerms/models"
)

// StorageLabel подпись места хранения по умолчанию (имущество на складе)
const StorageLabel = "Склад"

// CheckoutService управляет выдачей имущества: перемещением между складом,
// сотрудником и техникой. Место хранения у имущества всегда ровно одно,
// перезапись пары (assigned_to_type, assigned_to_id) выполняется одним
// обновлением.
type CheckoutService struct {
	DB    *gorm.DB
	Audit *AuditService
}

// NewCheckoutService создает новый экземпляр CheckoutService
func NewCheckoutService(db *gorm.DB, audit *AuditService) *CheckoutService {
	return &CheckoutService{DB: db, Audit: audit}
}

// Checkout выдает имущество сотруднику или закрепляет за техникой
func (cs *CheckoutService) Checkout(assetID uint, targetType string, targetID uint, userID *uint, userName string) error {
	if targetType != models.AssignmentPersonnel && targetType != models.AssignmentApparatus {
		return fmt.Errorf("недопустимый тип получателя: %s", targetType)
	}
	if targetID == 0 {
		return fmt.Errorf("получатель не выбран")
	}

	var asset models.Asset
	if err := cs.DB.First(&asset, assetID).Error; err != nil {
		return fmt.Errorf("имущество не найдено: %w", err)
	}
	if asset.Status == "retired" {
		return fmt.Errorf("имущество списано и не может быть выдано")
	}

	// Проверяем получателя
	toLabel := ""
	switch targetType {
	case models.AssignmentPersonnel:
		var person models.Personnel
		if err := cs.DB.First(&person, targetID).Error; err != nil {
			return fmt.Errorf("сотрудник не найден: %w", err)
		}
		if !person.CanBeAssigned() {
			return fmt.Errorf("за сотрудником %s нельзя закрепить имущество", person.GetDisplayName())
		}
		toLabel = person.GetDisplayName()
	case models.AssignmentApparatus:
		var apparatus models.Apparatus
		if err := cs.DB.First(&apparatus, targetID).Error; err != nil {
			return fmt.Errorf("техника не найдена: %w", err)
		}
		toLabel = apparatus.UnitDesignation
	}

	fromLabel := cs.LocationLabel(&asset)

	tx := cs.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&asset).Updates(map[string]interface{}{
		"assigned_to_type": targetType,
		"assigned_to_id":   targetID,
	}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при выдаче имущества: %w", err)
	}

	if err := cs.Audit.LogTx(tx, AuditContext{
		UserID:       userID,
		UserName:     userName,
		Action:       ActionAssetCheckout,
		Resource:     "asset",
		ResourceID:   &asset.ID,
		FromLocation: fromLabel,
		ToLocation:   toLabel,
		Success:      true,
	}); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при записи истории перемещения: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

// CheckIn возвращает имущество на склад. Прежнее место не восстанавливается,
// но остается в истории перемещений.
func (cs *CheckoutService) CheckIn(assetID uint, userID *uint, userName string) error {
	var asset models.Asset
	if err := cs.DB.First(&asset, assetID).Error; err != nil {
		return fmt.Errorf("имущество не найдено: %w", err)
	}

	if asset.IsInStorage() {
		return fmt.Errorf("имущество уже находится на складе")
	}

	fromLabel := cs.LocationLabel(&asset)

	tx := cs.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&asset).Updates(map[string]interface{}{
		"assigned_to_type": models.AssignmentStorage,
		"assigned_to_id":   nil,
	}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при возврате имущества: %w", err)
	}

	if err := cs.Audit.LogTx(tx, AuditContext{
		UserID:       userID,
		UserName:     userName,
		Action:       ActionAssetCheckin,
		Resource:     "asset",
		ResourceID:   &asset.ID,
		FromLocation: fromLabel,
		ToLocation:   StorageLabel,
		Success:      true,
	}); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при записи истории перемещения: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

// LocationLabel возвращает читаемую подпись текущего места хранения
func (cs *CheckoutService) LocationLabel(asset *models.Asset) string {
	if asset.IsInStorage() {
		return StorageLabel
	}

	switch asset.AssignedToType {
	case models.AssignmentPersonnel:
		var person models.Personnel
		if err := cs.DB.First(&person, *asset.AssignedToID).Error; err == nil {
			return person.GetDisplayName()
		}
	case models.AssignmentApparatus:
		var apparatus models.Apparatus
		if err := cs.DB.First(&apparatus, *asset.AssignedToID).Error; err == nil {
			return apparatus.UnitDesignation
		}
	case models.AssignmentSubCompartment:
		var sub models.SubCompartment
		if err := cs.DB.First(&sub, *asset.AssignedToID).Error; err == nil {
			var compartment models.Compartment
			if err := cs.DB.First(&compartment, sub.CompartmentID).Error; err == nil {
				var apparatus models.Apparatus
				if err := cs.DB.First(&apparatus, compartment.ApparatusID).Error; err == nil {
					return fmt.Sprintf("%s / %s / %s", apparatus.UnitDesignation, compartment.Name, sub.Name)
				}
				return fmt.Sprintf("%s / %s", compartment.Name, sub.Name)
			}
		}
	}

	// Оборванная ссылка на место хранения не считается ошибкой
	return "N/A"
}
