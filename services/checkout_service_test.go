package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend_firerms/models"
)

// TestCheckout тестирует выдачу имущества
func TestCheckout(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCheckoutService(db, audit)

	person := models.Personnel{FirstName: "John", LastName: "Smith", IsActive: true, Status: "active"}
	require.NoError(t, db.Create(&person).Error)

	engine := models.Apparatus{UnitDesignation: "Engine 1", Type: "engine", Status: "in_service"}
	require.NoError(t, db.Create(&engine).Error)

	t.Run("Выдача сотруднику", func(t *testing.T) {
		asset := models.Asset{Name: "Фонарь", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.Checkout(asset.ID, models.AssignmentPersonnel, person.ID, nil, "Кладовщик")
		require.NoError(t, err)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.Equal(t, models.AssignmentPersonnel, check.AssignedToType)
		require.NotNil(t, check.AssignedToID)
		assert.Equal(t, person.ID, *check.AssignedToID)

		// Перемещение зафиксировано в истории
		history, err := audit.GetResourceHistory("asset", asset.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, string(ActionAssetCheckout), history[0].Action)
		assert.Equal(t, StorageLabel, history[0].FromLocation)
		assert.Equal(t, "John Smith", history[0].ToLocation)
	})

	t.Run("Повторная выдача перезаписывает место хранения", func(t *testing.T) {
		asset := models.Asset{Name: "Радиостанция", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		require.NoError(t, service.Checkout(asset.ID, models.AssignmentPersonnel, person.ID, nil, "Кладовщик"))
		require.NoError(t, service.Checkout(asset.ID, models.AssignmentApparatus, engine.ID, nil, "Кладовщик"))

		var check models.Asset
		db.First(&check, asset.ID)
		assert.Equal(t, models.AssignmentApparatus, check.AssignedToType)
		assert.Equal(t, engine.ID, *check.AssignedToID)
	})

	t.Run("Списанное имущество не выдается", func(t *testing.T) {
		asset := models.Asset{Name: "Старый ствол", Status: "retired"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.Checkout(asset.ID, models.AssignmentPersonnel, person.ID, nil, "Кладовщик")
		assert.Error(t, err)
	})

	t.Run("Недопустимый тип получателя", func(t *testing.T) {
		asset := models.Asset{Name: "Лом", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.Checkout(asset.ID, "warehouse", 1, nil, "Кладовщик")
		assert.Error(t, err)
	})

	t.Run("Несуществующий получатель", func(t *testing.T) {
		asset := models.Asset{Name: "Лопата", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.Checkout(asset.ID, models.AssignmentPersonnel, 99999, nil, "Кладовщик")
		assert.Error(t, err)
	})

	t.Run("Уволенному сотруднику имущество не выдается", func(t *testing.T) {
		retired := models.Personnel{FirstName: "Иван", LastName: "Петров", IsActive: false, Status: "retired"}
		require.NoError(t, db.Create(&retired).Error)

		asset := models.Asset{Name: "Каска", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.Checkout(asset.ID, models.AssignmentPersonnel, retired.ID, nil, "Кладовщик")
		assert.Error(t, err)
	})
}

// TestCheckIn тестирует возврат имущества на склад
func TestCheckIn(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCheckoutService(db, audit)

	person := models.Personnel{FirstName: "Jane", LastName: "Doe", IsActive: true, Status: "active"}
	require.NoError(t, db.Create(&person).Error)

	t.Run("Возврат выданного имущества", func(t *testing.T) {
		asset := models.Asset{Name: "Теплак", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)
		require.NoError(t, service.Checkout(asset.ID, models.AssignmentPersonnel, person.ID, nil, "Кладовщик"))

		err := service.CheckIn(asset.ID, nil, "Кладовщик")
		require.NoError(t, err)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.True(t, check.IsInStorage())

		history, err := audit.GetResourceHistory("asset", asset.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, string(ActionAssetCheckin), history[0].Action)
		assert.Equal(t, "Jane Doe", history[0].FromLocation)
		assert.Equal(t, StorageLabel, history[0].ToLocation)
	})

	t.Run("Имущество на складе не возвращается повторно", func(t *testing.T) {
		asset := models.Asset{Name: "Крюк", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.CheckIn(asset.ID, nil, "Кладовщик")
		assert.Error(t, err)
	})
}

// TestLocationLabel тестирует подписи мест хранения
func TestLocationLabel(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCheckoutService(db, audit)

	t.Run("Склад", func(t *testing.T) {
		asset := models.Asset{Name: "Ствол"}
		assert.Equal(t, StorageLabel, service.LocationLabel(&asset))
	})

	t.Run("Полный путь до подотсека", func(t *testing.T) {
		engine := models.Apparatus{UnitDesignation: "Ladder 2", Type: "ladder"}
		require.NoError(t, db.Create(&engine).Error)

		compartment := models.Compartment{ApparatusID: engine.ID, Name: "Driver Side 1"}
		require.NoError(t, db.Create(&compartment).Error)

		sub := models.SubCompartment{CompartmentID: compartment.ID, Name: "Top Shelf"}
		require.NoError(t, db.Create(&sub).Error)

		asset := models.Asset{
			Name:           "Бензорез",
			AssignedToType: models.AssignmentSubCompartment,
			AssignedToID:   &sub.ID,
		}
		assert.Equal(t, "Ladder 2 / Driver Side 1 / Top Shelf", service.LocationLabel(&asset))
	})

	t.Run("Оборванная ссылка не считается ошибкой", func(t *testing.T) {
		missing := uint(99999)
		asset := models.Asset{
			Name:           "Призрак",
			AssignedToType: models.AssignmentSubCompartment,
			AssignedToID:   &missing,
		}
		assert.Equal(t, "N/A", service.LocationLabel(&asset))
	})
}
