package services

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"backend_firerms/models"
)

func setupServiceTestDB(t *testing.T) (*gorm.DB, *AuditService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Asset{},
		&models.KitItem{},
		&models.Consumable{},
		&models.UsageEntry{},
		&models.Personnel{},
		&models.Apparatus{},
		&models.Compartment{},
		&models.SubCompartment{},
	)
	require.NoError(t, err)

	audit := NewAuditService(db, log.New(os.Stdout, "[test] ", log.LstdFlags))
	return db, audit
}

// TestLogUsage тестирует журнал расхода материалов
func TestLogUsage(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewInventoryService(db, audit)

	consumable := models.Consumable{Name: "Пенообразователь", Quantity: 20, ReorderLevel: 5}
	require.NoError(t, db.Create(&consumable).Error)

	t.Run("Списание уменьшает остаток и создает запись", func(t *testing.T) {
		updated, err := service.LogUsage(consumable.ID, -5, "Выезд 2026-000123", nil, "Дежурный")
		require.NoError(t, err)
		assert.Equal(t, 15, updated.Quantity)

		var entries []models.UsageEntry
		db.Where("consumable_id = ?", consumable.ID).Find(&entries)
		require.Len(t, entries, 1)
		assert.Equal(t, -5, entries[0].Change)
		assert.Equal(t, "Выезд 2026-000123", entries[0].Reason)
	})

	t.Run("Нулевое изменение не создает записи", func(t *testing.T) {
		updated, err := service.LogUsage(consumable.ID, 0, "Проверка", nil, "Дежурный")
		require.NoError(t, err)
		assert.Equal(t, 15, updated.Quantity)

		var count int64
		db.Model(&models.UsageEntry{}).Where("consumable_id = ?", consumable.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("Пустая причина отклоняется", func(t *testing.T) {
		_, err := service.LogUsage(consumable.ID, -1, "   ", nil, "Дежурный")
		assert.Error(t, err)
	})

	t.Run("Уход остатка в минус отклоняется", func(t *testing.T) {
		_, err := service.LogUsage(consumable.ID, -100, "Списание", nil, "Дежурный")
		require.Error(t, err)

		// Остаток не изменился
		var check models.Consumable
		db.First(&check, consumable.ID)
		assert.Equal(t, 15, check.Quantity)
	})

	t.Run("Приход увеличивает остаток", func(t *testing.T) {
		updated, err := service.LogUsage(consumable.ID, 10, "Поставка", nil, "Кладовщик")
		require.NoError(t, err)
		assert.Equal(t, 25, updated.Quantity)
	})

	t.Run("Несуществующий материал", func(t *testing.T) {
		_, err := service.LogUsage(99999, -1, "Списание", nil, "Дежурный")
		assert.Error(t, err)
	})
}

// TestAuditSession тестирует сверку остатков
func TestAuditSession(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewInventoryService(db, audit)

	bandages := models.Consumable{Name: "Бинты", Barcode: "CON-001", Quantity: 5, ReorderLevel: 2}
	gloves := models.Consumable{Name: "Перчатки", Barcode: "CON-002", Quantity: 3, ReorderLevel: 1}
	require.NoError(t, db.Create(&bandages).Error)
	require.NoError(t, db.Create(&gloves).Error)

	t.Run("Сверка без сессии отклоняется", func(t *testing.T) {
		_, err := service.FinishAudit()
		assert.Error(t, err)

		_, err = service.RecordScan("CON-001")
		assert.Error(t, err)
	})

	t.Run("Совпадающий пересчет не дает расхождений", func(t *testing.T) {
		session := service.StartAuditSession()
		assert.NotEmpty(t, session.ID)

		for i := 0; i < 5; i++ {
			_, err := service.RecordScan("CON-001")
			require.NoError(t, err)
		}
		for i := 0; i < 3; i++ {
			_, err := service.RecordScan("CON-002")
			require.NoError(t, err)
		}

		discrepancies, err := service.FinishAudit()
		require.NoError(t, err)
		assert.Empty(t, discrepancies)

		// Отчет не закрывает сессию
		assert.NotNil(t, service.GetActiveSession())
	})

	t.Run("Недостача выявляется и проводится", func(t *testing.T) {
		service.StartAuditSession()

		// Отсканировано 3 при системном остатке 5
		for i := 0; i < 3; i++ {
			_, err := service.RecordScan("CON-001")
			require.NoError(t, err)
		}

		discrepancies, err := service.FinishAudit()
		require.NoError(t, err)
		require.Len(t, discrepancies, 1)
		assert.Equal(t, bandages.ID, discrepancies[0].ConsumableID)
		assert.Equal(t, 5, discrepancies[0].SystemQty)
		assert.Equal(t, 3, discrepancies[0].AuditQty)
		assert.Equal(t, -2, discrepancies[0].Diff)

		corrected, err := service.ReconcileAudit(nil, "Кладовщик")
		require.NoError(t, err)
		assert.Equal(t, 1, corrected)

		// Остаток скорректирован, в журнале корректирующая запись
		var check models.Consumable
		db.First(&check, bandages.ID)
		assert.Equal(t, 3, check.Quantity)

		var entries []models.UsageEntry
		db.Where("consumable_id = ?", bandages.ID).Find(&entries)
		require.Len(t, entries, 1)
		assert.Equal(t, -2, entries[0].Change)

		// Сверка закрывает сессию
		assert.Nil(t, service.GetActiveSession())
	})

	t.Run("Неопознанный код запоминается и не считается ошибкой", func(t *testing.T) {
		service.StartAuditSession()

		session, err := service.RecordScan("UNKNOWN-CODE")
		require.NoError(t, err)
		assert.Contains(t, session.Unrecognized, "UNKNOWN-CODE")
		assert.Empty(t, session.Counts)
	})

	t.Run("Новая сессия отбрасывает прежнюю", func(t *testing.T) {
		first := service.StartAuditSession()
		_, err := service.RecordScan("CON-002")
		require.NoError(t, err)

		second := service.StartAuditSession()
		assert.NotEqual(t, first.ID, second.ID)
		assert.Empty(t, second.Counts)
	})
}
