package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"backend_firerms/models"
)

// DefaultSubCompartmentName имя подотсека, создаваемого автоматически при
// размещении имущества в отсек без подотсеков
const DefaultSubCompartmentName = "Основной"

// CompartmentService управляет раскладкой отсеков техники и размещением
// имущества по подотсекам
type CompartmentService struct {
	DB    *gorm.DB
	Audit *AuditService
}

// NewCompartmentService создает новый экземпляр CompartmentService
func NewCompartmentService(db *gorm.DB, audit *AuditService) *CompartmentService {
	return &CompartmentService{DB: db, Audit: audit}
}

// AssignAssetToCompartment размещает имущество в отсек. Если у отсека нет
// ни одного подотсека, создается подотсек по умолчанию. Размещение — это
// перемещение: прежнее место хранения перезаписывается атомарно.
func (cs *CompartmentService) AssignAssetToCompartment(compartmentID, assetID uint, userID *uint, userName string) error {
	var compartment models.Compartment
	if err := cs.DB.Preload("SubCompartments").First(&compartment, compartmentID).Error; err != nil {
		return fmt.Errorf("отсек не найден: %w", err)
	}

	if len(compartment.SubCompartments) == 0 {
		sub := models.SubCompartment{
			CompartmentID: compartment.ID,
			Name:          DefaultSubCompartmentName,
		}
		if err := cs.DB.Create(&sub).Error; err != nil {
			return fmt.Errorf("ошибка при создании подотсека: %w", err)
		}
		return cs.AssignAssetToSubCompartment(sub.ID, assetID, userID, userName)
	}

	return cs.AssignAssetToSubCompartment(compartment.SubCompartments[0].ID, assetID, userID, userName)
}

// AssignAssetToSubCompartment размещает имущество в конкретный подотсек
func (cs *CompartmentService) AssignAssetToSubCompartment(subCompartmentID, assetID uint, userID *uint, userName string) error {
	var sub models.SubCompartment
	if err := cs.DB.First(&sub, subCompartmentID).Error; err != nil {
		return fmt.Errorf("подотсек не найден: %w", err)
	}

	var asset models.Asset
	if err := cs.DB.First(&asset, assetID).Error; err != nil {
		return fmt.Errorf("имущество не найдено: %w", err)
	}
	if asset.Status == "retired" {
		return fmt.Errorf("имущество списано и не может быть размещено")
	}

	checkout := &CheckoutService{DB: cs.DB, Audit: cs.Audit}
	fromLabel := checkout.LocationLabel(&asset)

	tx := cs.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&asset).Updates(map[string]interface{}{
		"assigned_to_type": models.AssignmentSubCompartment,
		"assigned_to_id":   sub.ID,
	}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при размещении имущества: %w", err)
	}

	if err := cs.Audit.LogTx(tx, AuditContext{
		UserID:       userID,
		UserName:     userName,
		Action:       ActionAssetAssign,
		Resource:     "asset",
		ResourceID:   &asset.ID,
		FromLocation: fromLabel,
		ToLocation:   checkout.LocationLabel(&models.Asset{AssignedToType: models.AssignmentSubCompartment, AssignedToID: &sub.ID}),
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

// UnassignAsset убирает имущество из подотсека обратно на склад
func (cs *CompartmentService) UnassignAsset(assetID uint, userID *uint, userName string) error {
	var asset models.Asset
	if err := cs.DB.First(&asset, assetID).Error; err != nil {
		return fmt.Errorf("имущество не найдено: %w", err)
	}

	if asset.AssignedToType != models.AssignmentSubCompartment {
		return fmt.Errorf("имущество не размещено в отсеке")
	}

	checkout := &CheckoutService{DB: cs.DB, Audit: cs.Audit}
	fromLabel := checkout.LocationLabel(&asset)

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
		return fmt.Errorf("ошибка при изъятии имущества из отсека: %w", err)
	}

	if err := cs.Audit.LogTx(tx, AuditContext{
		UserID:       userID,
		UserName:     userName,
		Action:       ActionAssetUnassign,
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

// AddCompartment создает новый отсек с пустым списком подотсеков и
// положением на схеме по умолчанию
func (cs *CompartmentService) AddCompartment(apparatusID uint, name, side string) (*models.Compartment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("название отсека не может быть пустым")
	}

	var apparatus models.Apparatus
	if err := cs.DB.First(&apparatus, apparatusID).Error; err != nil {
		return nil, fmt.Errorf("техника не найдена: %w", err)
	}

	var position int64
	cs.DB.Model(&models.Compartment{}).Where("apparatus_id = ?", apparatusID).Count(&position)

	compartment := models.Compartment{
		ApparatusID:     apparatusID,
		Name:            strings.TrimSpace(name),
		Side:            side,
		LayoutRows:      1,
		LayoutCols:      1,
		SchematicX:      5,
		SchematicY:      5,
		SchematicWidth:  20,
		SchematicHeight: 30,
		Position:        int(position),
	}

	if err := cs.DB.Create(&compartment).Error; err != nil {
		return nil, fmt.Errorf("ошибка при создании отсека: %w", err)
	}

	return &compartment, nil
}

// DeleteCompartment удаляет отсек вместе с подотсеками. Размещенное в нем
// имущество возвращается на склад, сами записи имущества не удаляются.
func (cs *CompartmentService) DeleteCompartment(compartmentID uint, userID *uint, userName string) error {
	var compartment models.Compartment
	if err := cs.DB.Preload("SubCompartments").First(&compartment, compartmentID).Error; err != nil {
		return fmt.Errorf("отсек не найден: %w", err)
	}

	tx := cs.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := cs.clearSubCompartmentsTx(tx, compartment.SubCompartments); err != nil {
		tx.Rollback()
		return err
	}

	if len(compartment.SubCompartments) > 0 {
		if err := tx.Where("compartment_id = ?", compartment.ID).Delete(&models.SubCompartment{}).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка при удалении подотсеков: %w", err)
		}
	}

	if err := tx.Delete(&compartment).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при удалении отсека: %w", err)
	}

	if err := cs.Audit.LogTx(tx, AuditContext{
		UserID:     userID,
		UserName:   userName,
		Action:     ActionCompartmentDelete,
		Resource:   "compartment",
		ResourceID: &compartment.ID,
		Details:    map[string]interface{}{"name": compartment.Name},
		Success:    true,
	}); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при записи аудита: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

// ReplaceCompartments сохраняет раскладку отсеков техники целиком. Черновик
// редактируется на клиенте, сохранение присылает итоговый список. Отсеки и
// подотсеки с известными ID обновляются на месте, поэтому размещенное в них
// имущество переживает правку раскладки; на склад возвращается только
// имущество из подотсеков, которых в новой раскладке больше нет.
func (cs *CompartmentService) ReplaceCompartments(apparatusID uint, compartments []models.Compartment, userID *uint, userName string) ([]models.Compartment, error) {
	var apparatus models.Apparatus
	if err := cs.DB.First(&apparatus, apparatusID).Error; err != nil {
		return nil, fmt.Errorf("техника не найдена: %w", err)
	}

	for _, c := range compartments {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("название отсека не может быть пустым")
		}
	}

	var existing []models.Compartment
	if err := cs.DB.Preload("SubCompartments").Where("apparatus_id = ?", apparatusID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("ошибка при загрузке текущей раскладки: %w", err)
	}

	existingComps := make(map[uint]bool, len(existing))
	existingSubs := make(map[uint]bool)
	for _, c := range existing {
		existingComps[c.ID] = true
		for _, s := range c.SubCompartments {
			existingSubs[s.ID] = true
		}
	}

	tx := cs.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	keptComps := make(map[uint]bool)
	keptSubs := make(map[uint]bool)

	created := make([]models.Compartment, 0, len(compartments))
	for i, c := range compartments {
		compartment := models.Compartment{
			ApparatusID:     apparatusID,
			Name:            strings.TrimSpace(c.Name),
			Side:            c.Side,
			LayoutRows:      c.LayoutRows,
			LayoutCols:      c.LayoutCols,
			SchematicX:      c.SchematicX,
			SchematicY:      c.SchematicY,
			SchematicWidth:  c.SchematicWidth,
			SchematicHeight: c.SchematicHeight,
			Position:        i,
		}

		if c.ID != 0 && existingComps[c.ID] {
			compartment.ID = c.ID
			keptComps[c.ID] = true
			if err := tx.Model(&models.Compartment{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
				"name":             compartment.Name,
				"side":             compartment.Side,
				"layout_rows":      compartment.LayoutRows,
				"layout_cols":      compartment.LayoutCols,
				"schematic_x":      compartment.SchematicX,
				"schematic_y":      compartment.SchematicY,
				"schematic_width":  compartment.SchematicWidth,
				"schematic_height": compartment.SchematicHeight,
				"position":         i,
			}).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("ошибка при обновлении отсека: %w", err)
			}
		} else {
			compartment.ID = 0
			if err := tx.Create(&compartment).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("ошибка при создании отсека: %w", err)
			}
		}

		for j, s := range c.SubCompartments {
			sub := models.SubCompartment{
				CompartmentID: compartment.ID,
				Name:          s.Name,
				Position:      j,
			}

			if s.ID != 0 && existingSubs[s.ID] {
				sub.ID = s.ID
				keptSubs[s.ID] = true
				if err := tx.Model(&models.SubCompartment{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
					"compartment_id": compartment.ID,
					"name":           sub.Name,
					"position":       j,
				}).Error; err != nil {
					tx.Rollback()
					return nil, fmt.Errorf("ошибка при обновлении подотсека: %w", err)
				}
			} else {
				sub.ID = 0
				if err := tx.Create(&sub).Error; err != nil {
					tx.Rollback()
					return nil, fmt.Errorf("ошибка при создании подотсека: %w", err)
				}
			}

			compartment.SubCompartments = append(compartment.SubCompartments, sub)
		}

		created = append(created, compartment)
	}

	// Исчезнувшие подотсеки освобождаются, их имущество уходит на склад
	for _, c := range existing {
		removed := make([]models.SubCompartment, 0)
		for _, s := range c.SubCompartments {
			if !keptSubs[s.ID] {
				removed = append(removed, s)
			}
		}
		if err := cs.clearSubCompartmentsTx(tx, removed); err != nil {
			tx.Rollback()
			return nil, err
		}
		for _, s := range removed {
			if err := tx.Where("id = ?", s.ID).Delete(&models.SubCompartment{}).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("ошибка при удалении подотсека: %w", err)
			}
		}
		if !keptComps[c.ID] {
			if err := tx.Where("id = ?", c.ID).Delete(&models.Compartment{}).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("ошибка при удалении отсека: %w", err)
			}
		}
	}

	if err := cs.Audit.LogTx(tx, AuditContext{
		UserID:     userID,
		UserName:   userName,
		Action:     ActionCompartmentReplace,
		Resource:   "apparatus",
		ResourceID: &apparatus.ID,
		Details:    map[string]interface{}{"compartments": len(created)},
		Success:    true,
	}); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("ошибка при записи аудита: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return created, nil
}

// GetCompartmentContents возвращает имущество, размещенное в подотсеке
func (cs *CompartmentService) GetCompartmentContents(subCompartmentID uint) ([]models.Asset, error) {
	var assets []models.Asset
	if err := cs.DB.Where("assigned_to_type = ? AND assigned_to_id = ?",
		models.AssignmentSubCompartment, subCompartmentID).
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении содержимого подотсека: %w", err)
	}
	return assets, nil
}

// clearSubCompartmentsTx возвращает на склад все имущество из перечисленных
// подотсеков в рамках транзакции
func (cs *CompartmentService) clearSubCompartmentsTx(tx *gorm.DB, subs []models.SubCompartment) error {
	for _, sub := range subs {
		if err := tx.Model(&models.Asset{}).
			Where("assigned_to_type = ? AND assigned_to_id = ?", models.AssignmentSubCompartment, sub.ID).
			Updates(map[string]interface{}{
				"assigned_to_type": models.AssignmentStorage,
				"assigned_to_id":   nil,
			}).Error; err != nil {
			return fmt.Errorf("ошибка при освобождении подотсека: %w", err)
		}
	}
	return nil
}
