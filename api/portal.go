package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"backend_firerms/middleware"
	"backend_firerms/models"
	"backend_firerms/services"
)

// PortalAPI представляет API публичного портала для обращений граждан
type PortalAPI struct {
	DB            *gorm.DB
	Notifications *services.NotificationService
}

// NewPortalAPI создает новый экземпляр PortalAPI
func NewPortalAPI(db *gorm.DB, notifications *services.NotificationService) *PortalAPI {
	return &PortalAPI{DB: db, Notifications: notifications}
}

// validRequestTypes допустимые типы обращений с портала
var validRequestTypes = map[string]bool{
	models.PortalRequestBurnPermit:    true,
	models.PortalRequestSmokeAlarm:    true,
	models.PortalRequestStationTour:   true,
	models.PortalRequestRecordCopy:    true,
	models.PortalRequestGeneral:       true,
	models.PortalRequestFireInspector: true,
}

// generateTrackingNumber формирует номер для отслеживания обращения
func generateTrackingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("FD-%s-%s", now.Format("2006"), suffix)
}

// SubmitRequest принимает обращение гражданина. Публичный метод, без
// авторизации, защищен ограничением частоты запросов.
func (api *PortalAPI) SubmitRequest(c *gin.Context) {
	var req struct {
		Type           string `json:"type" binding:"required"`
		Subject        string `json:"subject" binding:"required"`
		Message        string `json:"message"`
		RequesterName  string `json:"requester_name" binding:"required"`
		RequesterEmail string `json:"requester_email"`
		RequesterPhone string `json:"requester_phone"`
		Address        string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if !validRequestTypes[req.Type] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный тип обращения"})
		return
	}

	request := models.PortalRequest{
		TrackingNumber: generateTrackingNumber(time.Now()),
		Type:           req.Type,
		Subject:        strings.TrimSpace(req.Subject),
		Message:        req.Message,
		RequesterName:  strings.TrimSpace(req.RequesterName),
		RequesterEmail: req.RequesterEmail,
		RequesterPhone: req.RequesterPhone,
		Address:        req.Address,
		Status:         "new",
	}

	if err := api.DB.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при регистрации обращения"})
		return
	}

	if api.Notifications != nil {
		go api.Notifications.SendPortalRequestNotice(request)
	}

	// Заявителю возвращается только номер для отслеживания
	c.JSON(http.StatusCreated, gin.H{
		"message": "Обращение зарегистрировано",
		"data": gin.H{
			"tracking_number": request.TrackingNumber,
			"status":          request.Status,
		},
	})
}

// TrackRequest возвращает статус обращения по номеру отслеживания.
// Публичный метод: контакты заявителя и служебные поля не раскрываются.
func (api *PortalAPI) TrackRequest(c *gin.Context) {
	trackingNumber := c.Param("tracking_number")

	var request models.PortalRequest
	if err := api.DB.Where("tracking_number = ?", trackingNumber).First(&request).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Обращение не найдено"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"tracking_number": request.TrackingNumber,
			"type":            request.Type,
			"subject":         request.Subject,
			"status":          request.Status,
			"resolution":      request.Resolution,
			"created_at":      request.CreatedAt,
			"resolved_at":     request.ResolvedAt,
		},
	})
}

// GetRequests возвращает список обращений для дежурного (служебный метод)
func (api *PortalAPI) GetRequests(c *gin.Context) {
	var requests []models.PortalRequest
	query := api.DB.Model(&models.PortalRequest{}).Preload("AssignedUser")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if requestType := c.Query("type"); requestType != "" {
		query = query.Where("type = ?", requestType)
	}
	if c.Query("open") == "true" {
		query = query.Where("status IN ('new', 'in_review')")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка обращений"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": requests,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetRequest возвращает полную карточку обращения (служебный метод)
func (api *PortalAPI) GetRequest(c *gin.Context) {
	id := c.Param("id")

	var request models.PortalRequest
	if err := api.DB.Preload("AssignedUser").First(&request, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Обращение не найдено"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": request})
}

// UpdateRequestStatus меняет статус обращения и назначает исполнителя
func (api *PortalAPI) UpdateRequestStatus(c *gin.Context) {
	id := c.Param("id")

	var request models.PortalRequest
	if err := api.DB.First(&request, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Обращение не найдено"})
		return
	}

	var req struct {
		Status     string `json:"status" binding:"required"`
		Resolution string `json:"resolution"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	switch req.Status {
	case "new", "in_review", "completed", "rejected":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый статус обращения"})
		return
	}

	updates := map[string]interface{}{
		"status":     req.Status,
		"resolution": req.Resolution,
	}

	// Взятие в работу закрепляет обращение за дежурным
	if req.Status == "in_review" && request.AssignedUserID == nil {
		updates["assigned_user_id"] = middleware.CurrentUserID(c)
	}

	if req.Status == "completed" || req.Status == "rejected" {
		now := time.Now()
		updates["resolved_at"] = now
	} else {
		updates["resolved_at"] = nil
	}

	if err := api.DB.Model(&request).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении обращения: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Обращение обновлено",
		"data":    request,
	})
}
