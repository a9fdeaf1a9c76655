package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend_firerms/middleware"
	"backend_firerms/models"
	"backend_firerms/services"
)

// IncidentAPI представляет API для работы с карточками выездов NFIRS
type IncidentAPI struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

// NewIncidentAPI создает новый экземпляр IncidentAPI
func NewIncidentAPI(db *gorm.DB, audit *services.AuditService) *IncidentAPI {
	return &IncidentAPI{DB: db, Audit: audit}
}

// generateIncidentNumber формирует следующий номер выезда в формате
// ГГГГ-NNNNNN в пределах календарного года
func (api *IncidentAPI) generateIncidentNumber(now time.Time) string {
	year := now.Format("2006")
	var count int64
	api.DB.Model(&models.Incident{}).Unscoped().
		Where("incident_number LIKE ?", year+"-%").Count(&count)
	return fmt.Sprintf("%s-%06d", year, count+1)
}

// CreateIncident создает карточку выезда
func (api *IncidentAPI) CreateIncident(c *gin.Context) {
	var incident models.Incident
	if err := c.ShouldBindJSON(&incident); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if incident.AlarmAt.IsZero() {
		incident.AlarmAt = time.Now()
	}
	if incident.IncidentNumber == "" {
		incident.IncidentNumber = api.generateIncidentNumber(incident.AlarmAt)
	} else {
		var existing models.Incident
		if err := api.DB.Where("incident_number = ?", incident.IncidentNumber).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Выезд с таким номером уже существует"})
			return
		}
	}
	if incident.Status == "" {
		incident.Status = "open"
	}
	incident.CreatedByUserID = middleware.CurrentUserID(c)

	if err := api.DB.Create(&incident).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании карточки выезда: " + err.Error()})
		return
	}

	id := incident.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionIncidentCreate,
		Resource:   "incident",
		ResourceID: &id,
		NewValues:  incident,
		Success:    true,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Карточка выезда создана",
		"data":    incident,
	})
}

// GetIncidents возвращает список выездов с фильтрами и пагинацией
func (api *IncidentAPI) GetIncidents(c *gin.Context) {
	var incidents []models.Incident
	query := api.DB.Model(&models.Incident{}).Preload("Property")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if typeCode := c.Query("nfirs_type_code"); typeCode != "" {
		query = query.Where("nfirs_type_code = ?", typeCode)
	}
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		query = query.Where("alarm_at >= ?", dateFrom)
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		query = query.Where("alarm_at <= ?", dateTo)
	}
	if search := c.Query("search"); search != "" {
		searchPattern := "%" + search + "%"
		query = query.Where("incident_number ILIKE ? OR address ILIKE ?", searchPattern, searchPattern)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("alarm_at DESC").Limit(limit).Offset(offset).Find(&incidents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка выездов"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": incidents,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetIncident возвращает карточку выезда с участниками
func (api *IncidentAPI) GetIncident(c *gin.Context) {
	id := c.Param("id")

	var incident models.Incident
	if err := api.DB.Preload("Property").Preload("Apparatus").
		Preload("Personnel").Preload("CreatedByUser").
		First(&incident, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Карточка выезда не найдена"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"incident":              incident,
			"response_time_seconds": int(incident.ResponseTime().Seconds()),
			"total_loss":            incident.TotalLoss().StringFixed(2),
		},
	})
}

// UpdateIncident обновляет карточку выезда. Закрытая карточка правится
// только после повторного открытия.
func (api *IncidentAPI) UpdateIncident(c *gin.Context) {
	id := c.Param("id")

	var incident models.Incident
	if err := api.DB.First(&incident, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Карточка выезда не найдена"})
		return
	}

	if incident.IsClosed() {
		c.JSON(http.StatusConflict, gin.H{"error": "Закрытая карточка не подлежит изменению"})
		return
	}

	var updateData models.Incident
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	// Номер и участники через этот метод не меняются
	updateData.IncidentNumber = incident.IncidentNumber
	updateData.Apparatus = nil
	updateData.Personnel = nil
	updateData.ID = incident.ID

	oldValues := incident

	if err := api.DB.Model(&incident).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении карточки: " + err.Error()})
		return
	}

	incidentID := incident.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionIncidentUpdate,
		Resource:   "incident",
		ResourceID: &incidentID,
		OldValues:  oldValues,
		NewValues:  incident,
		Success:    true,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Карточка выезда обновлена",
		"data":    incident,
	})
}

// CloseIncident закрывает карточку выезда
func (api *IncidentAPI) CloseIncident(c *gin.Context) {
	id := c.Param("id")

	var incident models.Incident
	if err := api.DB.First(&incident, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Карточка выезда не найдена"})
		return
	}

	if incident.IsClosed() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Карточка уже закрыта"})
		return
	}

	updates := map[string]interface{}{"status": "closed"}
	if incident.ClearedAt == nil {
		now := time.Now()
		updates["cleared_at"] = now
	}

	if err := api.DB.Model(&incident).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при закрытии карточки: " + err.Error()})
		return
	}

	incidentID := incident.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionIncidentClose,
		Resource:   "incident",
		ResourceID: &incidentID,
		Success:    true,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Карточка выезда закрыта"})
}

// ReopenIncident возвращает карточку в работу
func (api *IncidentAPI) ReopenIncident(c *gin.Context) {
	id := c.Param("id")

	var incident models.Incident
	if err := api.DB.First(&incident, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Карточка выезда не найдена"})
		return
	}

	if !incident.IsClosed() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Карточка не закрыта"})
		return
	}

	if err := api.DB.Model(&incident).Update("status", "open").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при открытии карточки: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Карточка выезда открыта повторно"})
}

// SetRespondingUnits задает список техники, выезжавшей по вызову
func (api *IncidentAPI) SetRespondingUnits(c *gin.Context) {
	id := c.Param("id")

	var incident models.Incident
	if err := api.DB.First(&incident, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Карточка выезда не найдена"})
		return
	}

	var req struct {
		ApparatusIDs []uint `json:"apparatus_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	var units []models.Apparatus
	if len(req.ApparatusIDs) > 0 {
		if err := api.DB.Find(&units, req.ApparatusIDs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении техники"})
			return
		}
		if len(units) != len(req.ApparatusIDs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Часть техники не найдена"})
			return
		}
	}

	if err := api.DB.Model(&incident).Association("Apparatus").Replace(units); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при сохранении списка техники: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Список техники сохранен"})
}

// SetRespondingPersonnel задает список личного состава на выезде
func (api *IncidentAPI) SetRespondingPersonnel(c *gin.Context) {
	id := c.Param("id")

	var incident models.Incident
	if err := api.DB.First(&incident, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Карточка выезда не найдена"})
		return
	}

	var req struct {
		PersonnelIDs []uint `json:"personnel_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	var people []models.Personnel
	if len(req.PersonnelIDs) > 0 {
		if err := api.DB.Find(&people, req.PersonnelIDs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении личного состава"})
			return
		}
		if len(people) != len(req.PersonnelIDs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Часть сотрудников не найдена"})
			return
		}
	}

	if err := api.DB.Model(&incident).Association("Personnel").Replace(people); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при сохранении списка личного состава: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Список личного состава сохранен"})
}

// GetIncidentStats возвращает сводку по выездам за период
func (api *IncidentAPI) GetIncidentStats(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, -12, 0)

	if dateFrom := c.Query("date_from"); dateFrom != "" {
		if parsed, err := time.Parse("2006-01-02", dateFrom); err == nil {
			from = parsed
		}
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		if parsed, err := time.Parse("2006-01-02", dateTo); err == nil {
			to = parsed
		}
	}

	var incidents []models.Incident
	if err := api.DB.Where("alarm_at >= ? AND alarm_at <= ?", from, to).Find(&incidents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении выездов"})
		return
	}

	byType := make(map[string]int)
	var totalResponse time.Duration
	responded := 0
	for _, incident := range incidents {
		code := incident.NFIRSTypeCode
		if code == "" {
			code = "unknown"
		}
		byType[code]++
		if rt := incident.ResponseTime(); rt > 0 {
			totalResponse += rt
			responded++
		}
	}

	avgResponseSeconds := 0
	if responded > 0 {
		avgResponseSeconds = int(totalResponse.Seconds()) / responded
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"count":                len(incidents),
			"by_type":              byType,
			"avg_response_seconds": avgResponseSeconds,
			"period": gin.H{
				"from": from.Format("2006-01-02"),
				"to":   to.Format("2006-01-02"),
			},
		},
	})
}
