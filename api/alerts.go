package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend_firerms/middleware"
	"backend_firerms/models"
)

// AlertAPI представляет API для работы с уведомлениями
type AlertAPI struct {
	DB *gorm.DB
}

// NewAlertAPI создает новый экземпляр AlertAPI
func NewAlertAPI(db *gorm.DB) *AlertAPI {
	return &AlertAPI{DB: db}
}

// GetAlerts возвращает список уведомлений с фильтрами
func (api *AlertAPI) GetAlerts(c *gin.Context) {
	var alerts []models.Alert
	query := api.DB.Model(&models.Alert{}).Preload("Asset").Preload("Consumable")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status = 'active'")
	}
	if alertType := c.Query("type"); alertType != "" {
		query = query.Where("type = ?", alertType)
	}
	if severity := c.Query("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&alerts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении уведомлений"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": alerts,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// AcknowledgeAlert отмечает уведомление как прочитанное
func (api *AlertAPI) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")

	var alert models.Alert
	if err := api.DB.First(&alert, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
		return
	}

	if !alert.IsActive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Уведомление уже обработано"})
		return
	}

	now := time.Now()
	if err := api.DB.Model(&alert).Updates(map[string]interface{}{
		"status":           "acknowledged",
		"read_at":          now,
		"assigned_user_id": middleware.CurrentUserID(c),
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обработке уведомления: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Уведомление отмечено как прочитанное"})
}

// ResolveAlert закрывает уведомление
func (api *AlertAPI) ResolveAlert(c *gin.Context) {
	id := c.Param("id")

	var alert models.Alert
	if err := api.DB.First(&alert, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
		return
	}

	if alert.Status == "resolved" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Уведомление уже закрыто"})
		return
	}

	now := time.Now()
	if err := api.DB.Model(&alert).Updates(map[string]interface{}{
		"status":      "resolved",
		"resolved_at": now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при закрытии уведомления: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Уведомление закрыто"})
}
