package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend_firerms/middleware"
	"backend_firerms/models"
	"backend_firerms/services"
)

// ApparatusAPI представляет API для работы с техникой и отсеками
type ApparatusAPI struct {
	DB           *gorm.DB
	Compartments *services.CompartmentService
	Cache        *services.CacheService
}

// NewApparatusAPI создает новый экземпляр ApparatusAPI
func NewApparatusAPI(db *gorm.DB, compartments *services.CompartmentService, cache *services.CacheService) *ApparatusAPI {
	return &ApparatusAPI{DB: db, Compartments: compartments, Cache: cache}
}

// CreateApparatus создает новую единицу техники
func (api *ApparatusAPI) CreateApparatus(c *gin.Context) {
	var apparatus models.Apparatus
	if err := c.ShouldBindJSON(&apparatus); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if apparatus.UnitDesignation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Позывной техники обязателен"})
		return
	}

	// Проверяем уникальность позывного
	var existing models.Apparatus
	if err := api.DB.Where("unit_designation = ?", apparatus.UnitDesignation).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Техника с таким позывным уже существует"})
		return
	}

	if apparatus.Status == "" {
		apparatus.Status = "in_service"
	}

	if err := api.DB.Create(&apparatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании техники: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Техника успешно создана",
		"data":    apparatus,
	})
}

// GetApparatusList возвращает список техники с фильтрами
func (api *ApparatusAPI) GetApparatusList(c *gin.Context) {
	var list []models.Apparatus
	query := api.DB.Model(&models.Apparatus{}).Preload("Compartments.SubCompartments")

	if apparatusType := c.Query("type"); apparatusType != "" {
		query = query.Where("type = ?", apparatusType)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if station := c.Query("station"); station != "" {
		query = query.Where("station = ?", station)
	}

	if err := query.Order("unit_designation ASC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка техники"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": list})
}

// GetApparatus возвращает карточку техники с раскладкой отсеков и
// закрепленным имуществом
func (api *ApparatusAPI) GetApparatus(c *gin.Context) {
	id := c.Param("id")

	var apparatus models.Apparatus
	if err := api.DB.Preload("Compartments", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Compartments.SubCompartments", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&apparatus, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Техника не найдена"})
		return
	}

	// Имущество, закрепленное за техникой напрямую (вне отсеков)
	var directAssets []models.Asset
	api.DB.Where("assigned_to_type = ? AND assigned_to_id = ?",
		models.AssignmentApparatus, apparatus.ID).Find(&directAssets)

	// Содержимое подотсеков одним запросом
	subIDs := make([]uint, 0)
	for _, compartment := range apparatus.Compartments {
		for _, sub := range compartment.SubCompartments {
			subIDs = append(subIDs, sub.ID)
		}
	}

	contents := make(map[uint][]models.Asset)
	if len(subIDs) > 0 {
		var assets []models.Asset
		api.DB.Where("assigned_to_type = ? AND assigned_to_id IN ?",
			models.AssignmentSubCompartment, subIDs).Find(&assets)
		for _, asset := range assets {
			contents[*asset.AssignedToID] = append(contents[*asset.AssignedToID], asset)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"apparatus":     apparatus,
			"direct_assets": directAssets,
			"contents":      contents,
		},
	})
}

// UpdateApparatus обновляет данные техники
func (api *ApparatusAPI) UpdateApparatus(c *gin.Context) {
	id := c.Param("id")

	var apparatus models.Apparatus
	if err := api.DB.First(&apparatus, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Техника не найдена"})
		return
	}

	var updateData models.Apparatus
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	// Раскладка отсеков меняется только через ReplaceCompartments
	updateData.Compartments = nil
	updateData.ID = apparatus.ID

	if err := api.DB.Model(&apparatus).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении техники: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Техника успешно обновлена",
		"data":    apparatus,
	})
}

// DeleteApparatus удаляет технику. Имущество из отсеков возвращается на склад.
func (api *ApparatusAPI) DeleteApparatus(c *gin.Context) {
	id := c.Param("id")

	var apparatus models.Apparatus
	if err := api.DB.Preload("Compartments.SubCompartments").First(&apparatus, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Техника не найдена"})
		return
	}

	userID := middleware.CurrentUserID(c)
	userName := middleware.CurrentUserName(c)

	for _, compartment := range apparatus.Compartments {
		if err := api.Compartments.DeleteCompartment(compartment.ID, userID, userName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении отсека: " + err.Error()})
			return
		}
	}

	// Имущество, закрепленное за техникой напрямую, возвращается на склад
	if err := api.DB.Model(&models.Asset{}).
		Where("assigned_to_type = ? AND assigned_to_id = ?", models.AssignmentApparatus, apparatus.ID).
		Updates(map[string]interface{}{
			"assigned_to_type": models.AssignmentStorage,
			"assigned_to_id":   nil,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при освобождении имущества: " + err.Error()})
		return
	}

	if err := api.DB.Delete(&apparatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении техники: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Техника удалена"})
}

// ReplaceCompartments заменяет раскладку отсеков техники целиком
func (api *ApparatusAPI) ReplaceCompartments(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID техники"})
		return
	}

	var req struct {
		Compartments []models.Compartment `json:"compartments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	created, err := api.Compartments.ReplaceCompartments(uint(id), req.Compartments,
		middleware.CurrentUserID(c), middleware.CurrentUserName(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Раскладка отсеков сохранена",
		"data":    created,
	})
}

// AddCompartment добавляет отсек к технике
func (api *ApparatusAPI) AddCompartment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID техники"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
		Side string `json:"side"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	compartment, err := api.Compartments.AddCompartment(uint(id), req.Name, req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Отсек успешно создан",
		"data":    compartment,
	})
}

// DeleteCompartment удаляет отсек, возвращая имущество на склад
func (api *ApparatusAPI) DeleteCompartment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("compartment_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID отсека"})
		return
	}

	if err := api.Compartments.DeleteCompartment(uint(id),
		middleware.CurrentUserID(c), middleware.CurrentUserName(c)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Отсек удален"})
}

// AssignAssetToCompartment размещает имущество в отсек
func (api *ApparatusAPI) AssignAssetToCompartment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("compartment_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID отсека"})
		return
	}

	var req struct {
		AssetID          uint  `json:"asset_id" binding:"required"`
		SubCompartmentID *uint `json:"sub_compartment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	userID := middleware.CurrentUserID(c)
	userName := middleware.CurrentUserName(c)

	if req.SubCompartmentID != nil {
		err = api.Compartments.AssignAssetToSubCompartment(*req.SubCompartmentID, req.AssetID, userID, userName)
	} else {
		err = api.Compartments.AssignAssetToCompartment(uint(id), req.AssetID, userID, userName)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(req.AssetID)

	c.JSON(http.StatusOK, gin.H{"message": "Имущество размещено в отсек"})
}

// UnassignAsset убирает имущество из отсека на склад
func (api *ApparatusAPI) UnassignAsset(c *gin.Context) {
	var req struct {
		AssetID uint `json:"asset_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := api.Compartments.UnassignAsset(req.AssetID,
		middleware.CurrentUserID(c), middleware.CurrentUserName(c)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(req.AssetID)

	c.JSON(http.StatusOK, gin.H{"message": "Имущество возвращено на склад"})
}

// GetSubCompartmentContents возвращает имущество подотсека
func (api *ApparatusAPI) GetSubCompartmentContents(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("sub_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID подотсека"})
		return
	}

	assets, err := api.Compartments.GetCompartmentContents(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": assets})
}

// GetMapPositions возвращает технику с координатами для карты обстановки
func (api *ApparatusAPI) GetMapPositions(c *gin.Context) {
	var list []models.Apparatus
	if err := api.DB.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении позиций техники"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       list,
		"updated_at": time.Now(),
	})
}
