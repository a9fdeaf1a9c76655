package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&Asset{},
		&KitItem{},
		&MaintenanceRecord{},
		&PMSchedule{},
		&InspectionRecord{},
		&Consumable{},
		&UsageEntry{},
	)
	require.NoError(t, err)

	return db
}

// TestAssetModel тестирует модель Asset
func TestAssetModel(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Создание имущества", func(t *testing.T) {
		purchaseDate := time.Now().AddDate(-1, 0, 0)

		asset := Asset{
			Name:          "SCBA Scott Air-Pak X3",
			AssetType:     "SCBA",
			Category:      AssetCategoryEquipment,
			SerialNumber:  "X3-001234",
			Barcode:       "AST-0001",
			Status:        "in_service",
			PurchasePrice: decimal.NewFromFloat(6500.0),
			PurchaseDate:  &purchaseDate,
			LifespanYears: 15,
		}

		err := db.Create(&asset).Error
		require.NoError(t, err)
		assert.NotZero(t, asset.ID)
		assert.True(t, asset.IsInStorage())
	})

	t.Run("Уникальность штрихкода", func(t *testing.T) {
		asset1 := Asset{Name: "Топор", Barcode: "AST-UNIQ-01"}
		require.NoError(t, db.Create(&asset1).Error)

		asset2 := Asset{Name: "Багор", Barcode: "AST-UNIQ-01"}
		err := db.Create(&asset2).Error
		assert.Error(t, err, "Должна быть ошибка из-за дублирования штрихкода")
	})
}

// TestAssetCurrentValue тестирует расчет остаточной стоимости
func TestAssetCurrentValue(t *testing.T) {
	now := time.Now()

	t.Run("Без срока службы амортизация не определена", func(t *testing.T) {
		purchaseDate := now.AddDate(-2, 0, 0)
		asset := Asset{
			PurchasePrice: decimal.NewFromFloat(1000.0),
			PurchaseDate:  &purchaseDate,
			LifespanYears: 0,
		}
		assert.Nil(t, asset.CurrentValue(now))
	})

	t.Run("Без даты закупки амортизация не определена", func(t *testing.T) {
		asset := Asset{
			PurchasePrice: decimal.NewFromFloat(1000.0),
			LifespanYears: 10,
		}
		assert.Nil(t, asset.CurrentValue(now))
	})

	t.Run("Линейное снижение стоимости", func(t *testing.T) {
		// 10 лет службы, прошло ровно 5 лет: остается около половины
		purchaseDate := now.AddDate(-5, 0, 0)
		asset := Asset{
			PurchasePrice: decimal.NewFromFloat(1000.0),
			PurchaseDate:  &purchaseDate,
			LifespanYears: 10,
		}

		value := asset.CurrentValue(now)
		require.NotNil(t, value)
		assert.True(t, value.GreaterThan(decimal.NewFromFloat(480.0)), "остаток %s", value)
		assert.True(t, value.LessThan(decimal.NewFromFloat(520.0)), "остаток %s", value)
	})

	t.Run("После окончания срока службы стоимость равна нулю", func(t *testing.T) {
		purchaseDate := now.AddDate(-11, 0, 0)
		asset := Asset{
			PurchasePrice: decimal.NewFromFloat(1000.0),
			PurchaseDate:  &purchaseDate,
			LifespanYears: 10,
		}

		value := asset.CurrentValue(now)
		require.NotNil(t, value)
		assert.True(t, value.IsZero(), "остаток %s", value)
	})
}

// TestAssetTotalCostOfOwnership тестирует расчет полной стоимости владения
func TestAssetTotalCostOfOwnership(t *testing.T) {
	t.Run("Без истории обслуживания равна закупочной цене", func(t *testing.T) {
		asset := Asset{PurchasePrice: decimal.NewFromFloat(2500.0)}
		assert.True(t, asset.TotalCostOfOwnership().Equal(decimal.NewFromFloat(2500.0)))
	})

	t.Run("Стоимость ремонтов суммируется", func(t *testing.T) {
		asset := Asset{
			PurchasePrice: decimal.NewFromFloat(2500.0),
			MaintenanceRecords: []MaintenanceRecord{
				{Cost: decimal.NewFromFloat(150.0)},
				{Cost: decimal.NewFromFloat(320.50)},
			},
		}
		assert.True(t, asset.TotalCostOfOwnership().Equal(decimal.NewFromFloat(2970.50)))
	})
}

// TestAssetComplianceStatus тестирует контроль сроков СИЗ
func TestAssetComplianceStatus(t *testing.T) {
	now := time.Now()

	t.Run("Для обычного оборудования не применяется", func(t *testing.T) {
		asset := Asset{Category: AssetCategoryEquipment}
		assert.Nil(t, asset.ComplianceStatus(now))
	})

	t.Run("СИЗ без дат считается в порядке", func(t *testing.T) {
		asset := Asset{Category: AssetCategoryPPE}
		info := asset.ComplianceStatus(now)
		require.NotNil(t, info)
		assert.Equal(t, ComplianceOK, info.Status)
	})

	t.Run("Боевая одежда старше 10 лет подлежит списанию", func(t *testing.T) {
		manufactured := now.AddDate(-11, 0, 0)
		asset := Asset{Category: AssetCategoryPPE, ManufactureDate: &manufactured}

		info := asset.ComplianceStatus(now)
		require.NotNil(t, info)
		assert.Equal(t, ComplianceOverdue, info.Status)
	})

	t.Run("За год до списания выдается предупреждение", func(t *testing.T) {
		manufactured := now.AddDate(-9, -6, 0)
		asset := Asset{Category: AssetCategoryPPE, ManufactureDate: &manufactured}

		info := asset.ComplianceStatus(now)
		require.NotNil(t, info)
		assert.Equal(t, ComplianceNearingRetirement, info.Status)
	})

	t.Run("Просрочка ежегодной проверки", func(t *testing.T) {
		tested := now.AddDate(-1, -1, 0)
		asset := Asset{Category: AssetCategoryPPE, LastTestedDate: &tested}

		info := asset.ComplianceStatus(now)
		require.NotNil(t, info)
		assert.Equal(t, ComplianceOverdue, info.Status)
	})

	t.Run("Приближение чистки", func(t *testing.T) {
		cleaned := now.AddDate(0, -5, 0)
		asset := Asset{Category: AssetCategoryPPE, LastCleaningDate: &cleaned}

		info := asset.ComplianceStatus(now)
		require.NotNil(t, info)
		assert.Equal(t, ComplianceDueSoon, info.Status)
	})

	t.Run("Списание имеет приоритет над остальными проверками", func(t *testing.T) {
		manufactured := now.AddDate(-11, 0, 0)
		tested := now.AddDate(0, -1, 0) // проверка пройдена недавно
		asset := Asset{
			Category:        AssetCategoryPPE,
			ManufactureDate: &manufactured,
			LastTestedDate:  &tested,
		}

		info := asset.ComplianceStatus(now)
		require.NotNil(t, info)
		assert.Equal(t, ComplianceOverdue, info.Status)
	})
}

// TestAssetKitSummary тестирует сводку по укладке
func TestAssetKitSummary(t *testing.T) {
	now := time.Now()

	t.Run("Для обычного оборудования сводка пустая", func(t *testing.T) {
		asset := Asset{Category: AssetCategoryEquipment}
		assert.Empty(t, asset.KitSummary(now))
	})

	t.Run("Подсчет позиций и истекающих расходников", func(t *testing.T) {
		expiringSoon := now.AddDate(0, 0, 10)
		expiringLater := now.AddDate(1, 0, 0)

		asset := Asset{
			Category: AssetCategoryKit,
			KitItems: []KitItem{
				{Quantity: 2, Consumable: &Consumable{Name: "Бинт", ExpirationDate: &expiringSoon}},
				{Quantity: 3, Consumable: &Consumable{Name: "Физраствор", ExpirationDate: &expiringLater}},
			},
		}

		assert.Equal(t, "5 items (2 expiring soon)", asset.KitSummary(now))
	})

	t.Run("Без истекающих позиций счетчик не показывается", func(t *testing.T) {
		later := now.AddDate(1, 0, 0)
		asset := Asset{
			Category: AssetCategoryKit,
			KitItems: []KitItem{
				{Quantity: 4, Consumable: &Consumable{Name: "Перчатки", ExpirationDate: &later}},
			},
		}

		assert.Equal(t, "4 items", asset.KitSummary(now))
	})
}
