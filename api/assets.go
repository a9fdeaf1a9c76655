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

// AssetAPI представляет API для работы с имуществом части
type AssetAPI struct {
	DB       *gorm.DB
	Checkout *services.CheckoutService
	Audit    *services.AuditService
	Cache    *services.CacheService
}

// NewAssetAPI создает новый экземпляр AssetAPI
func NewAssetAPI(db *gorm.DB, checkout *services.CheckoutService, audit *services.AuditService, cache *services.CacheService) *AssetAPI {
	return &AssetAPI{DB: db, Checkout: checkout, Audit: audit, Cache: cache}
}

// assetView карточка имущества с расчетными полями для ответа API
type assetView struct {
	models.Asset
	Location             string                 `json:"location"`
	CurrentValue         *string                `json:"current_value"`
	TotalCostOfOwnership string                 `json:"total_cost_of_ownership"`
	Compliance           *models.ComplianceInfo `json:"compliance,omitempty"`
	KitSummary           string                 `json:"kit_summary,omitempty"`
}

// buildAssetView собирает карточку с расчетными полями. Расчетные значения
// не хранятся в базе и вычисляются на каждый запрос.
func (api *AssetAPI) buildAssetView(asset models.Asset, now time.Time) assetView {
	view := assetView{
		Asset:                asset,
		Location:             api.Checkout.LocationLabel(&asset),
		TotalCostOfOwnership: asset.TotalCostOfOwnership().StringFixed(2),
		Compliance:           asset.ComplianceStatus(now),
		KitSummary:           asset.KitSummary(now),
	}
	if value := asset.CurrentValue(now); value != nil {
		s := value.StringFixed(2)
		view.CurrentValue = &s
	}
	return view
}

// CreateAsset создает новую единицу имущества
func (api *AssetAPI) CreateAsset(c *gin.Context) {
	var asset models.Asset
	if err := c.ShouldBindJSON(&asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if asset.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Наименование имущества обязательно"})
		return
	}

	// Проверяем уникальность штрихкода
	if asset.Barcode != "" {
		var existing models.Asset
		if err := api.DB.Where("barcode = ?", asset.Barcode).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Имущество с таким штрихкодом уже существует"})
			return
		}
	}

	// Значения по умолчанию
	if asset.Category == "" {
		asset.Category = models.AssetCategoryEquipment
	}
	if asset.Status == "" {
		asset.Status = "in_service"
	}

	// Новое имущество всегда поступает на склад
	asset.AssignedToType = models.AssignmentStorage
	asset.AssignedToID = nil

	if err := api.DB.Create(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании имущества: " + err.Error()})
		return
	}

	id := asset.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionAssetCreate,
		Resource:   "asset",
		ResourceID: &id,
		NewValues:  asset,
		Success:    true,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Имущество успешно создано",
		"data":    asset,
	})
}

// GetAssets возвращает список имущества с фильтрами и пагинацией
func (api *AssetAPI) GetAssets(c *gin.Context) {
	var assets []models.Asset
	query := api.DB.Model(&models.Asset{}).Preload("MaintenanceRecords").Preload("KitItems.Consumable")

	// Фильтры
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if assignedType := c.Query("assigned_to_type"); assignedType != "" {
		if assignedType == "storage" {
			query = query.Where("assigned_to_type = '' OR assigned_to_id IS NULL")
		} else {
			query = query.Where("assigned_to_type = ?", assignedType)
		}
	}
	if assignedID := c.Query("assigned_to_id"); assignedID != "" {
		query = query.Where("assigned_to_id = ?", assignedID)
	}
	if barcode := c.Query("barcode"); barcode != "" {
		query = query.Where("barcode = ?", barcode)
	}
	if search := c.Query("search"); search != "" {
		searchPattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR serial_number ILIKE ? OR asset_type ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	// Сортировка
	sortBy := c.DefaultQuery("sort_by", "name")
	sortOrder := c.DefaultQuery("sort_order", "asc")
	query = query.Order(sortBy + " " + sortOrder)

	// Пагинация
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Limit(limit).Offset(offset).Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка имущества"})
		return
	}

	now := time.Now()
	views := make([]assetView, 0, len(assets))
	for _, asset := range assets {
		views = append(views, api.buildAssetView(asset, now))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": views,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetAsset возвращает карточку имущества с расчетными полями. Карточка
// кэшируется; расчетные поля вычисляются на каждый запрос поверх кэша.
func (api *AssetAPI) GetAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	if cached, err := api.Cache.GetCachedAsset(uint(id)); err == nil && cached != nil {
		c.JSON(http.StatusOK, gin.H{"data": api.buildAssetView(*cached, time.Now()), "cached": true})
		return
	}

	var asset models.Asset
	if err := api.DB.Preload("MaintenanceRecords").Preload("PMSchedules").
		Preload("InspectionRecords").Preload("KitItems.Consumable").Preload("Parent").
		First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Имущество не найдено"})
		return
	}

	_ = api.Cache.CacheAsset(&asset)

	c.JSON(http.StatusOK, gin.H{"data": api.buildAssetView(asset, time.Now())})
}

// UpdateAsset обновляет данные имущества. Место хранения через этот метод не
// меняется: перемещения идут только через выдачу, возврат и размещение.
func (api *AssetAPI) UpdateAsset(c *gin.Context) {
	id := c.Param("id")

	var asset models.Asset
	if err := api.DB.First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Имущество не найдено"})
		return
	}

	var updateData models.Asset
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	// Пара места хранения защищена от прямой записи
	updateData.AssignedToType = asset.AssignedToType
	updateData.AssignedToID = asset.AssignedToID
	updateData.ID = asset.ID

	oldValues := asset

	if err := api.DB.Model(&asset).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении имущества: " + err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(asset.ID)

	assetID := asset.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionAssetUpdate,
		Resource:   "asset",
		ResourceID: &assetID,
		OldValues:  oldValues,
		NewValues:  asset,
		Success:    true,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Имущество успешно обновлено",
		"data":    asset,
	})
}

// RetireAsset списывает имущество. Запись не удаляется: история перемещений
// и обслуживания сохраняется.
func (api *AssetAPI) RetireAsset(c *gin.Context) {
	id := c.Param("id")

	var asset models.Asset
	if err := api.DB.First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Имущество не найдено"})
		return
	}

	if asset.Status == "retired" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Имущество уже списано"})
		return
	}

	now := time.Now()
	if err := api.DB.Model(&asset).Updates(map[string]interface{}{
		"status":           "retired",
		"retirement_date":  now,
		"assigned_to_type": models.AssignmentStorage,
		"assigned_to_id":   nil,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при списании имущества: " + err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(asset.ID)

	assetID := asset.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionAssetRetire,
		Resource:   "asset",
		ResourceID: &assetID,
		Success:    true,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Имущество списано"})
}

// CheckoutAsset выдает имущество сотруднику или закрепляет за техникой
func (api *AssetAPI) CheckoutAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required"`
		TargetID   uint   `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := api.Checkout.Checkout(uint(id), req.TargetType, req.TargetID,
		middleware.CurrentUserID(c), middleware.CurrentUserName(c)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(uint(id))

	var asset models.Asset
	api.DB.First(&asset, id)

	c.JSON(http.StatusOK, gin.H{
		"message": "Имущество успешно выдано",
		"data":    api.buildAssetView(asset, time.Now()),
	})
}

// CheckinAsset возвращает имущество на склад
func (api *AssetAPI) CheckinAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	if err := api.Checkout.CheckIn(uint(id),
		middleware.CurrentUserID(c), middleware.CurrentUserName(c)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(uint(id))

	var asset models.Asset
	api.DB.First(&asset, id)

	c.JSON(http.StatusOK, gin.H{
		"message": "Имущество возвращено на склад",
		"data":    api.buildAssetView(asset, time.Now()),
	})
}

// GetAssetHistory возвращает историю перемещений и операций по имуществу
func (api *AssetAPI) GetAssetHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := api.Audit.GetResourceHistory("asset", uint(id), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении истории"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

// AddMaintenanceRecord добавляет запись о ремонте или обслуживании
func (api *AssetAPI) AddMaintenanceRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	var asset models.Asset
	if err := api.DB.First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Имущество не найдено"})
		return
	}

	var record models.MaintenanceRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	record.AssetID = asset.ID
	if record.Date.IsZero() {
		record.Date = time.Now()
	}

	if err := api.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании записи: " + err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(asset.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Запись об обслуживании добавлена",
		"data":    record,
	})
}

// AddInspectionRecord добавляет запись о проверке имущества. Для СИЗ успешная
// проверка сдвигает дату последней проверки.
func (api *AssetAPI) AddInspectionRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	var asset models.Asset
	if err := api.DB.First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Имущество не найдено"})
		return
	}

	var record models.InspectionRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	record.AssetID = asset.ID
	if record.Date.IsZero() {
		record.Date = time.Now()
	}
	if record.InspectedBy == "" {
		record.InspectedBy = middleware.CurrentUserName(c)
	}

	if err := api.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании записи: " + err.Error()})
		return
	}

	if asset.Category == models.AssetCategoryPPE && record.Result == "pass" {
		api.DB.Model(&asset).Update("last_tested_date", record.Date)
	}

	_ = api.Cache.InvalidateAsset(asset.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Запись о проверке добавлена",
		"data":    record,
	})
}

// AddKitItem добавляет позицию в состав укладки
func (api *AssetAPI) AddKitItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID имущества"})
		return
	}

	var asset models.Asset
	if err := api.DB.First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Имущество не найдено"})
		return
	}
	if asset.Category != models.AssetCategoryKit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Позиции можно добавлять только в укладку"})
		return
	}

	var item models.KitItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	var consumable models.Consumable
	if err := api.DB.First(&consumable, item.ConsumableID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Материал не найден"})
		return
	}

	item.AssetID = asset.ID
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	if err := api.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при добавлении позиции: " + err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(asset.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Позиция добавлена в укладку",
		"data":    item,
	})
}

// RemoveKitItem убирает позицию из состава укладки
func (api *AssetAPI) RemoveKitItem(c *gin.Context) {
	assetID := c.Param("id")
	itemID := c.Param("item_id")

	var item models.KitItem
	if err := api.DB.Where("asset_id = ?", assetID).First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Позиция укладки не найдена"})
		return
	}

	if err := api.DB.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении позиции: " + err.Error()})
		return
	}

	_ = api.Cache.InvalidateAsset(item.AssetID)

	c.JSON(http.StatusOK, gin.H{"message": "Позиция убрана из укладки"})
}
