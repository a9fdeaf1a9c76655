package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backend_firerms/models"
)

// InventoryService управляет журналом расхода материалов и сверкой остатков.
// Количество на складе — кэшированная проекция журнала: каждое изменение
// проходит через LogUsage и фиксируется записью в журнале.
type InventoryService struct {
	DB    *gorm.DB
	Audit *AuditService

	// Активная сессия сверки. Сессия живет в памяти процесса: оператор
	// проводит пересчет за один заход.
	mu      sync.Mutex
	session *AuditSession
}

// NewInventoryService создает новый экземпляр InventoryService
func NewInventoryService(db *gorm.DB, audit *AuditService) *InventoryService {
	return &InventoryService{DB: db, Audit: audit}
}

// AuditSession представляет сессию сверки остатков: оператор сканирует
// позиции по одной, счетчики накапливаются в памяти
type AuditSession struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	Counts       map[uint]int   `json:"counts"`       // ConsumableID -> отсканировано
	Unrecognized []string       `json:"unrecognized"` // Неопознанные коды
}

// AuditDiscrepancy представляет расхождение между системой и пересчетом
type AuditDiscrepancy struct {
	ConsumableID uint   `json:"consumable_id"`
	Name         string `json:"name"`
	SystemQty    int    `json:"system_qty"`
	AuditQty     int    `json:"audit_qty"`
	Diff         int    `json:"diff"`
}

// LogUsage записывает расход или приход материала. Причина обязательна,
// нулевое изменение не создает записи, уход количества в минус отклоняется.
func (is *InventoryService) LogUsage(consumableID uint, change int, reason string, userID *uint, userName string) (*models.Consumable, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("причина изменения обязательна")
	}

	var consumable models.Consumable
	if err := is.DB.First(&consumable, consumableID).Error; err != nil {
		return nil, fmt.Errorf("материал не найден: %w", err)
	}

	if change == 0 {
		// Нулевое изменение не меняет остаток и не засоряет журнал
		return &consumable, nil
	}

	newQuantity := consumable.Quantity + change
	if newQuantity < 0 {
		return nil, fmt.Errorf("недостаточно остатка: на складе %d, списание %d", consumable.Quantity, -change)
	}

	tx := is.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	entry := models.UsageEntry{
		ConsumableID: consumable.ID,
		Change:       change,
		Reason:       strings.TrimSpace(reason),
		UserID:       userID,
		UserName:     userName,
	}
	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("ошибка при записи в журнал расхода: %w", err)
	}

	if err := tx.Model(&consumable).Update("quantity", newQuantity).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("ошибка при обновлении остатка: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	consumable.Quantity = newQuantity
	return &consumable, nil
}

// GetUsageHistory возвращает журнал расхода материала
func (is *InventoryService) GetUsageHistory(consumableID uint) ([]models.UsageEntry, error) {
	var entries []models.UsageEntry
	if err := is.DB.Where("consumable_id = ?", consumableID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала: %w", err)
	}
	return entries, nil
}

// StartAuditSession начинает новую сессию сверки, отбрасывая прежнюю
func (is *InventoryService) StartAuditSession() *AuditSession {
	is.mu.Lock()
	defer is.mu.Unlock()

	is.session = &AuditSession{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Counts:    make(map[uint]int),
	}
	return is.session
}

// RecordScan засчитывает одно сканирование. Код ищется по штрихкоду, затем
// по числовому идентификатору. Неопознанный код запоминается и не считается
// ошибкой.
func (is *InventoryService) RecordScan(code string) (*AuditSession, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.session == nil {
		return nil, fmt.Errorf("сессия сверки не начата")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return is.session, nil
	}

	var consumable models.Consumable
	err := is.DB.Where("barcode = ?", code).First(&consumable).Error
	if err == gorm.ErrRecordNotFound {
		err = is.DB.Where("id = ?", code).First(&consumable).Error
	}
	if err != nil {
		is.session.Unrecognized = append(is.session.Unrecognized, code)
		return is.session, nil
	}

	is.session.Counts[consumable.ID]++
	return is.session, nil
}

// FinishAudit сравнивает счетчики сессии с системными остатками и
// возвращает расхождения. Данные сканирования сохраняются: отчет можно
// строить повторно, пока сверка не проведена.
func (is *InventoryService) FinishAudit() ([]AuditDiscrepancy, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.session == nil {
		return nil, fmt.Errorf("сессия сверки не начата")
	}

	discrepancies := make([]AuditDiscrepancy, 0)
	for consumableID, auditQty := range is.session.Counts {
		var consumable models.Consumable
		if err := is.DB.First(&consumable, consumableID).Error; err != nil {
			continue
		}
		if diff := auditQty - consumable.Quantity; diff != 0 {
			discrepancies = append(discrepancies, AuditDiscrepancy{
				ConsumableID: consumable.ID,
				Name:         consumable.Name,
				SystemQty:    consumable.Quantity,
				AuditQty:     auditQty,
				Diff:         diff,
			})
		}
	}

	return discrepancies, nil
}

// ReconcileAudit проводит сверку: для каждого расхождения записывается
// корректирующее изменение в журнал, после чего сессия закрывается.
// Позиции без расхождений не трогаются.
func (is *InventoryService) ReconcileAudit(userID *uint, userName string) (int, error) {
	discrepancies, err := is.FinishAudit()
	if err != nil {
		return 0, err
	}

	reason := fmt.Sprintf("Корректировка по итогам сверки %s", time.Now().Format("02.01.2006"))
	corrected := 0
	for _, d := range discrepancies {
		if _, err := is.LogUsage(d.ConsumableID, d.Diff, reason, userID, userName); err != nil {
			return corrected, fmt.Errorf("ошибка при корректировке позиции %d: %w", d.ConsumableID, err)
		}
		corrected++
	}

	is.mu.Lock()
	sessionID := ""
	if is.session != nil {
		sessionID = is.session.ID
	}
	is.session = nil
	is.mu.Unlock()

	if is.Audit != nil {
		_ = is.Audit.Log(AuditContext{
			UserID:   userID,
			UserName: userName,
			Action:   ActionInventoryAudit,
			Resource: "inventory",
			Details: map[string]interface{}{
				"session_id":  sessionID,
				"corrections": corrected,
			},
			Success: true,
		})
	}

	return corrected, nil
}

// GetActiveSession возвращает текущую сессию сверки или nil
func (is *InventoryService) GetActiveSession() *AuditSession {
	is.mu.Lock()
	defer is.mu.Unlock()
	return is.session
}
