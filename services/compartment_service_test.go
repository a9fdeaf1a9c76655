package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend_firerms/models"
)

// TestAssignAssetToCompartment тестирует размещение имущества по отсекам
func TestAssignAssetToCompartment(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCompartmentService(db, audit)

	engine := models.Apparatus{UnitDesignation: "Engine 3", Type: "engine"}
	require.NoError(t, db.Create(&engine).Error)

	t.Run("В пустом отсеке создается подотсек по умолчанию", func(t *testing.T) {
		compartment := models.Compartment{ApparatusID: engine.ID, Name: "Rear"}
		require.NoError(t, db.Create(&compartment).Error)

		asset := models.Asset{Name: "Рукав 77мм", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.AssignAssetToCompartment(compartment.ID, asset.ID, nil, "Кладовщик")
		require.NoError(t, err)

		var subs []models.SubCompartment
		db.Where("compartment_id = ?", compartment.ID).Find(&subs)
		require.Len(t, subs, 1)
		assert.Equal(t, DefaultSubCompartmentName, subs[0].Name)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.Equal(t, models.AssignmentSubCompartment, check.AssignedToType)
		assert.Equal(t, subs[0].ID, *check.AssignedToID)
	})

	t.Run("Место хранения у имущества всегда одно", func(t *testing.T) {
		compartment := models.Compartment{ApparatusID: engine.ID, Name: "Officer Side 1"}
		require.NoError(t, db.Create(&compartment).Error)
		subA := models.SubCompartment{CompartmentID: compartment.ID, Name: "Shelf A"}
		subB := models.SubCompartment{CompartmentID: compartment.ID, Name: "Shelf B"}
		require.NoError(t, db.Create(&subA).Error)
		require.NoError(t, db.Create(&subB).Error)

		asset := models.Asset{Name: "Гидравлические ножницы", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		require.NoError(t, service.AssignAssetToSubCompartment(subA.ID, asset.ID, nil, "Кладовщик"))
		require.NoError(t, service.AssignAssetToSubCompartment(subB.ID, asset.ID, nil, "Кладовщик"))

		// Числится только во втором подотсеке
		contentsA, err := service.GetCompartmentContents(subA.ID)
		require.NoError(t, err)
		assert.Empty(t, contentsA)

		contentsB, err := service.GetCompartmentContents(subB.ID)
		require.NoError(t, err)
		require.Len(t, contentsB, 1)
		assert.Equal(t, asset.ID, contentsB[0].ID)
	})

	t.Run("Списанное имущество не размещается", func(t *testing.T) {
		compartment := models.Compartment{ApparatusID: engine.ID, Name: "Top"}
		require.NoError(t, db.Create(&compartment).Error)
		sub := models.SubCompartment{CompartmentID: compartment.ID, Name: "Box"}
		require.NoError(t, db.Create(&sub).Error)

		asset := models.Asset{Name: "Старый рукав", Status: "retired"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.AssignAssetToSubCompartment(sub.ID, asset.ID, nil, "Кладовщик")
		assert.Error(t, err)
	})
}

// TestUnassignAsset тестирует изъятие имущества из отсека
func TestUnassignAsset(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCompartmentService(db, audit)

	engine := models.Apparatus{UnitDesignation: "Rescue 1", Type: "rescue"}
	require.NoError(t, db.Create(&engine).Error)
	compartment := models.Compartment{ApparatusID: engine.ID, Name: "Driver Side 2"}
	require.NoError(t, db.Create(&compartment).Error)
	sub := models.SubCompartment{CompartmentID: compartment.ID, Name: "Drawer"}
	require.NoError(t, db.Create(&sub).Error)

	t.Run("Изъятие возвращает имущество на склад", func(t *testing.T) {
		asset := models.Asset{Name: "Домкрат", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)
		require.NoError(t, service.AssignAssetToSubCompartment(sub.ID, asset.ID, nil, "Кладовщик"))

		err := service.UnassignAsset(asset.ID, nil, "Кладовщик")
		require.NoError(t, err)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.True(t, check.IsInStorage())
	})

	t.Run("Имущество вне отсека не изымается", func(t *testing.T) {
		asset := models.Asset{Name: "Кувалда", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		err := service.UnassignAsset(asset.ID, nil, "Кладовщик")
		assert.Error(t, err)
	})
}

// TestDeleteCompartment тестирует удаление отсека
func TestDeleteCompartment(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCompartmentService(db, audit)

	engine := models.Apparatus{UnitDesignation: "Tanker 1", Type: "tanker"}
	require.NoError(t, db.Create(&engine).Error)

	t.Run("Имущество возвращается на склад, записи сохраняются", func(t *testing.T) {
		compartment := models.Compartment{ApparatusID: engine.ID, Name: "Rear Hose Bed"}
		require.NoError(t, db.Create(&compartment).Error)
		sub := models.SubCompartment{CompartmentID: compartment.ID, Name: "Bed"}
		require.NoError(t, db.Create(&sub).Error)

		asset := models.Asset{Name: "Рукав 51мм", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)
		require.NoError(t, service.AssignAssetToSubCompartment(sub.ID, asset.ID, nil, "Кладовщик"))

		err := service.DeleteCompartment(compartment.ID, nil, "Офицер")
		require.NoError(t, err)

		// Отсек и подотсек удалены
		var compCount, subCount int64
		db.Model(&models.Compartment{}).Where("id = ?", compartment.ID).Count(&compCount)
		db.Model(&models.SubCompartment{}).Where("compartment_id = ?", compartment.ID).Count(&subCount)
		assert.EqualValues(t, 0, compCount)
		assert.EqualValues(t, 0, subCount)

		// Имущество цело и вернулось на склад
		var check models.Asset
		require.NoError(t, db.First(&check, asset.ID).Error)
		assert.True(t, check.IsInStorage())
	})
}

// TestReplaceCompartments тестирует сохранение раскладки целиком
func TestReplaceCompartments(t *testing.T) {
	db, audit := setupServiceTestDB(t)
	service := NewCompartmentService(db, audit)

	engine := models.Apparatus{UnitDesignation: "Brush 1", Type: "brush"}
	require.NoError(t, db.Create(&engine).Error)

	t.Run("Прежняя раскладка заменяется новой", func(t *testing.T) {
		old := models.Compartment{ApparatusID: engine.ID, Name: "Old Layout"}
		require.NoError(t, db.Create(&old).Error)
		oldSub := models.SubCompartment{CompartmentID: old.ID, Name: "Old Shelf"}
		require.NoError(t, db.Create(&oldSub).Error)

		asset := models.Asset{Name: "Ранцевый огнетушитель", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)
		require.NoError(t, service.AssignAssetToSubCompartment(oldSub.ID, asset.ID, nil, "Кладовщик"))

		created, err := service.ReplaceCompartments(engine.ID, []models.Compartment{
			{Name: "Left Front", Side: "driver", LayoutRows: 2, LayoutCols: 2,
				SubCompartments: []models.SubCompartment{{Name: "Upper"}, {Name: "Lower"}}},
			{Name: "Right Front", Side: "officer", LayoutRows: 1, LayoutCols: 1},
		}, nil, "Офицер")
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, 0, created[0].Position)
		assert.Equal(t, 1, created[1].Position)
		assert.Len(t, created[0].SubCompartments, 2)

		// Прежний отсек удален
		var oldCount int64
		db.Model(&models.Compartment{}).Where("id = ?", old.ID).Count(&oldCount)
		assert.EqualValues(t, 0, oldCount)

		// Имущество из прежней раскладки вернулось на склад
		var check models.Asset
		db.First(&check, asset.ID)
		assert.True(t, check.IsInStorage())
	})

	t.Run("Размещение переживает правку раскладки", func(t *testing.T) {
		compartment := models.Compartment{ApparatusID: engine.ID, Name: "Driver Side 1", Side: "driver"}
		require.NoError(t, db.Create(&compartment).Error)
		sub := models.SubCompartment{CompartmentID: compartment.ID, Name: "Top Shelf"}
		require.NoError(t, db.Create(&sub).Error)

		asset := models.Asset{Name: "Бензорез", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)
		require.NoError(t, service.AssignAssetToSubCompartment(sub.ID, asset.ID, nil, "Кладовщик"))

		// Сохранение той же раскладки без изменений
		_, err := service.ReplaceCompartments(engine.ID, []models.Compartment{
			{ID: compartment.ID, Name: "Driver Side 1", Side: "driver",
				SubCompartments: []models.SubCompartment{{ID: sub.ID, Name: "Top Shelf"}}},
		}, nil, "Офицер")
		require.NoError(t, err)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.Equal(t, models.AssignmentSubCompartment, check.AssignedToType)
		require.NotNil(t, check.AssignedToID)
		assert.Equal(t, sub.ID, *check.AssignedToID)

		// Переименование отсека и подотсека тоже не трогает размещение
		_, err = service.ReplaceCompartments(engine.ID, []models.Compartment{
			{ID: compartment.ID, Name: "Driver Side A", Side: "driver",
				SubCompartments: []models.SubCompartment{
					{ID: sub.ID, Name: "Upper Shelf"},
					{Name: "Lower Shelf"},
				}},
		}, nil, "Офицер")
		require.NoError(t, err)

		db.First(&check, asset.ID)
		assert.Equal(t, models.AssignmentSubCompartment, check.AssignedToType)
		require.NotNil(t, check.AssignedToID)
		assert.Equal(t, sub.ID, *check.AssignedToID)

		var renamed models.SubCompartment
		require.NoError(t, db.First(&renamed, sub.ID).Error)
		assert.Equal(t, "Upper Shelf", renamed.Name)

		// Удаление подотсека из раскладки возвращает его имущество на склад
		_, err = service.ReplaceCompartments(engine.ID, []models.Compartment{
			{ID: compartment.ID, Name: "Driver Side A", Side: "driver",
				SubCompartments: []models.SubCompartment{{Name: "Lower Shelf"}}},
		}, nil, "Офицер")
		require.NoError(t, err)

		db.First(&check, asset.ID)
		assert.True(t, check.IsInStorage())
	})

	t.Run("Пустое название отсека отклоняется", func(t *testing.T) {
		_, err := service.ReplaceCompartments(engine.ID, []models.Compartment{
			{Name: "   "},
		}, nil, "Офицер")
		assert.Error(t, err)
	})

	t.Run("Несуществующая техника", func(t *testing.T) {
		_, err := service.ReplaceCompartments(99999, nil, nil, "Офицер")
		assert.Error(t, err)
	})
}
