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

// ConsumableAPI представляет API для работы с расходными материалами,
// журналом расхода и сверкой остатков
type ConsumableAPI struct {
	DB        *gorm.DB
	Inventory *services.InventoryService
	Audit     *services.AuditService
}

// NewConsumableAPI создает новый экземпляр ConsumableAPI
func NewConsumableAPI(db *gorm.DB, inventory *services.InventoryService, audit *services.AuditService) *ConsumableAPI {
	return &ConsumableAPI{DB: db, Inventory: inventory, Audit: audit}
}

// CreateConsumable создает новый расходный материал
func (api *ConsumableAPI) CreateConsumable(c *gin.Context) {
	var consumable models.Consumable
	if err := c.ShouldBindJSON(&consumable); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if consumable.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Наименование материала обязательно"})
		return
	}
	if consumable.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Начальный остаток не может быть отрицательным"})
		return
	}

	if consumable.Barcode != "" {
		var existing models.Consumable
		if err := api.DB.Where("barcode = ?", consumable.Barcode).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Материал с таким штрихкодом уже существует"})
			return
		}
	}

	if err := api.DB.Create(&consumable).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании материала: " + err.Error()})
		return
	}

	id := consumable.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionConsumableCreate,
		Resource:   "consumable",
		ResourceID: &id,
		NewValues:  consumable,
		Success:    true,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Материал успешно создан",
		"data":    consumable,
	})
}

// GetConsumables возвращает список материалов с фильтрами и статусом остатков
func (api *ConsumableAPI) GetConsumables(c *gin.Context) {
	var consumables []models.Consumable
	query := api.DB.Model(&models.Consumable{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if barcode := c.Query("barcode"); barcode != "" {
		query = query.Where("barcode = ?", barcode)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if c.Query("low_stock") == "true" {
		query = query.Where("quantity <= reorder_level")
	}

	// Пагинация
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&consumables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка материалов"})
		return
	}

	now := time.Now()
	type consumableView struct {
		models.Consumable
		StockStatus string `json:"stock_status"`
	}
	views := make([]consumableView, 0, len(consumables))
	for _, consumable := range consumables {
		views = append(views, consumableView{
			Consumable:  consumable,
			StockStatus: consumable.StockStatus(now),
		})
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

// GetConsumable возвращает карточку материала
func (api *ConsumableAPI) GetConsumable(c *gin.Context) {
	id := c.Param("id")

	var consumable models.Consumable
	if err := api.DB.First(&consumable, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Материал не найден"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"consumable":   consumable,
			"stock_status": consumable.StockStatus(time.Now()),
		},
	})
}

// UpdateConsumable обновляет данные материала. Остаток через этот метод не
// меняется: изменения количества идут только через журнал расхода.
func (api *ConsumableAPI) UpdateConsumable(c *gin.Context) {
	id := c.Param("id")

	var consumable models.Consumable
	if err := api.DB.First(&consumable, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Материал не найден"})
		return
	}

	var updateData models.Consumable
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	// Остаток защищен от прямой записи
	updateData.Quantity = consumable.Quantity
	updateData.ID = consumable.ID

	if err := api.DB.Model(&consumable).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении материала: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Материал успешно обновлен",
		"data":    consumable,
	})
}

// DeleteConsumable удаляет материал (мягкое удаление, журнал сохраняется)
func (api *ConsumableAPI) DeleteConsumable(c *gin.Context) {
	id := c.Param("id")

	var consumable models.Consumable
	if err := api.DB.First(&consumable, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Материал не найден"})
		return
	}

	// Материал из состава укладки удалить нельзя
	var kitCount int64
	api.DB.Model(&models.KitItem{}).Where("consumable_id = ?", consumable.ID).Count(&kitCount)
	if kitCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Материал входит в состав укладки и не может быть удален"})
		return
	}

	if err := api.DB.Delete(&consumable).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении материала: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Материал удален"})
}

// LogUsage записывает расход или приход материала
func (api *ConsumableAPI) LogUsage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID материала"})
		return
	}

	var req struct {
		Change int    `json:"change"`
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	consumable, err := api.Inventory.LogUsage(uint(id), req.Change, req.Reason,
		middleware.CurrentUserID(c), middleware.CurrentUserName(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Изменение остатка записано",
		"data":    consumable,
	})
}

// GetUsageHistory возвращает журнал расхода материала
func (api *ConsumableAPI) GetUsageHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID материала"})
		return
	}

	entries, err := api.Inventory.GetUsageHistory(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// StartAuditSession начинает сессию сверки остатков
func (api *ConsumableAPI) StartAuditSession(c *gin.Context) {
	session := api.Inventory.StartAuditSession()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Сессия сверки начата",
		"data":    session,
	})
}

// GetAuditSession возвращает активную сессию сверки
func (api *ConsumableAPI) GetAuditSession(c *gin.Context) {
	session := api.Inventory.GetActiveSession()
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сессия сверки не начата"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}

// RecordScan засчитывает одно сканирование в сессии сверки
func (api *ConsumableAPI) RecordScan(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	session, err := api.Inventory.RecordScan(req.Code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}

// FinishAudit возвращает отчет о расхождениях без проведения сверки
func (api *ConsumableAPI) FinishAudit(c *gin.Context) {
	discrepancies, err := api.Inventory.FinishAudit()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"discrepancies": discrepancies,
			"count":         len(discrepancies),
		},
	})
}

// ReconcileAudit проводит сверку: корректирующие записи попадают в журнал,
// сессия закрывается
func (api *ConsumableAPI) ReconcileAudit(c *gin.Context) {
	corrected, err := api.Inventory.ReconcileAudit(
		middleware.CurrentUserID(c), middleware.CurrentUserName(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Сверка проведена",
		"data":    gin.H{"corrections": corrected},
	})
}
