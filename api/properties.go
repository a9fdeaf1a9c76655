package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend_firerms/models"
)

// PropertyAPI представляет API для работы с объектами, планами тушения и
// гидрантами
type PropertyAPI struct {
	DB *gorm.DB
}

// NewPropertyAPI создает новый экземпляр PropertyAPI
func NewPropertyAPI(db *gorm.DB) *PropertyAPI {
	return &PropertyAPI{DB: db}
}

// CreateProperty создает объект с планом тушения
func (api *PropertyAPI) CreateProperty(c *gin.Context) {
	var property models.Property
	if err := c.ShouldBindJSON(&property); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if property.Name == "" || property.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название и адрес объекта обязательны"})
		return
	}

	if err := api.DB.Create(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании объекта: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Объект успешно создан",
		"data":    property,
	})
}

// GetProperties возвращает список объектов с фильтрами
func (api *PropertyAPI) GetProperties(c *gin.Context) {
	var properties []models.Property
	query := api.DB.Model(&models.Property{})

	if occupancy := c.Query("occupancy_type"); occupancy != "" {
		query = query.Where("occupancy_type = ?", occupancy)
	}
	if sprinklers := c.Query("has_sprinklers"); sprinklers == "true" {
		query = query.Where("has_sprinklers = ?", true)
	}
	if search := c.Query("search"); search != "" {
		searchPattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR address ILIKE ?", searchPattern, searchPattern)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&properties).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка объектов"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": properties,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetProperty возвращает карточку объекта с историей выездов
func (api *PropertyAPI) GetProperty(c *gin.Context) {
	id := c.Param("id")

	var property models.Property
	if err := api.DB.First(&property, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Объект не найден"})
		return
	}

	var incidents []models.Incident
	api.DB.Where("property_id = ?", property.ID).Order("alarm_at DESC").Limit(20).Find(&incidents)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"property":  property,
			"incidents": incidents,
		},
	})
}

// UpdateProperty обновляет карточку объекта
func (api *PropertyAPI) UpdateProperty(c *gin.Context) {
	id := c.Param("id")

	var property models.Property
	if err := api.DB.First(&property, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Объект не найден"})
		return
	}

	var updateData models.Property
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	updateData.ID = property.ID

	if err := api.DB.Model(&property).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении объекта: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Объект успешно обновлен",
		"data":    property,
	})
}

// DeleteProperty удаляет объект (мягкое удаление)
func (api *PropertyAPI) DeleteProperty(c *gin.Context) {
	id := c.Param("id")

	var property models.Property
	if err := api.DB.First(&property, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Объект не найден"})
		return
	}

	if err := api.DB.Delete(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении объекта: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Объект удален"})
}

// CreateHydrant создает гидрант
func (api *PropertyAPI) CreateHydrant(c *gin.Context) {
	var hydrant models.Hydrant
	if err := c.ShouldBindJSON(&hydrant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if hydrant.HydrantNumber != "" {
		var existing models.Hydrant
		if err := api.DB.Where("hydrant_number = ?", hydrant.HydrantNumber).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Гидрант с таким номером уже существует"})
			return
		}
	}

	if hydrant.Status == "" {
		hydrant.Status = "in_service"
	}

	if err := api.DB.Create(&hydrant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании гидранта: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Гидрант успешно создан",
		"data":    hydrant,
	})
}

// GetHydrants возвращает список гидрантов
func (api *PropertyAPI) GetHydrants(c *gin.Context) {
	var hydrants []models.Hydrant
	query := api.DB.Model(&models.Hydrant{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if minFlow := c.Query("min_flow_gpm"); minFlow != "" {
		query = query.Where("flow_rate_gpm >= ?", minFlow)
	}

	if err := query.Order("hydrant_number ASC").Find(&hydrants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка гидрантов"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hydrants})
}

// UpdateHydrant обновляет данные гидранта
func (api *PropertyAPI) UpdateHydrant(c *gin.Context) {
	id := c.Param("id")

	var hydrant models.Hydrant
	if err := api.DB.First(&hydrant, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Гидрант не найден"})
		return
	}

	var updateData models.Hydrant
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	updateData.ID = hydrant.ID

	if err := api.DB.Model(&hydrant).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении гидранта: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Гидрант успешно обновлен",
		"data":    hydrant,
	})
}

// DeleteHydrant удаляет гидрант
func (api *PropertyAPI) DeleteHydrant(c *gin.Context) {
	id := c.Param("id")

	var hydrant models.Hydrant
	if err := api.DB.First(&hydrant, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Гидрант не найден"})
		return
	}

	if err := api.DB.Delete(&hydrant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении гидранта: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Гидрант удален"})
}

// GetMapFeatures возвращает объекты и гидранты с координатами для карты
// обстановки одним запросом
func (api *PropertyAPI) GetMapFeatures(c *gin.Context) {
	var properties []models.Property
	api.DB.Where("latitude IS NOT NULL AND longitude IS NOT NULL").Find(&properties)

	var hydrants []models.Hydrant
	api.DB.Find(&hydrants)

	var incidents []models.Incident
	api.DB.Where("status = 'open' AND latitude IS NOT NULL AND longitude IS NOT NULL").
		Find(&incidents)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"properties":     properties,
			"hydrants":       hydrants,
			"open_incidents": incidents,
		},
	})
}
