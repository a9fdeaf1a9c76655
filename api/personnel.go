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

// PersonnelAPI представляет API для работы с личным составом
type PersonnelAPI struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

// NewPersonnelAPI создает новый экземпляр PersonnelAPI
func NewPersonnelAPI(db *gorm.DB, audit *services.AuditService) *PersonnelAPI {
	return &PersonnelAPI{DB: db, Audit: audit}
}

// CreatePersonnel создает карточку сотрудника
func (api *PersonnelAPI) CreatePersonnel(c *gin.Context) {
	var person models.Personnel
	if err := c.ShouldBindJSON(&person); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if person.FirstName == "" || person.LastName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Имя и фамилия обязательны"})
		return
	}

	if person.BadgeNumber != "" {
		var existing models.Personnel
		if err := api.DB.Where("badge_number = ?", person.BadgeNumber).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Сотрудник с таким номером жетона уже существует"})
			return
		}
	}

	if person.Status == "" {
		person.Status = "active"
	}

	if err := api.DB.Create(&person).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании карточки: " + err.Error()})
		return
	}

	id := person.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionPersonnelCreate,
		Resource:   "personnel",
		ResourceID: &id,
		NewValues:  person,
		Success:    true,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Карточка сотрудника создана",
		"data":    person,
	})
}

// GetPersonnelList возвращает список личного состава с фильтрами
func (api *PersonnelAPI) GetPersonnelList(c *gin.Context) {
	var people []models.Personnel
	query := api.DB.Model(&models.Personnel{}).Preload("Certifications")

	if rank := c.Query("rank"); rank != "" {
		query = query.Where("rank = ?", rank)
	}
	if shift := c.Query("shift"); shift != "" {
		query = query.Where("shift_letter = ?", shift)
	}
	if station := c.Query("station"); station != "" {
		query = query.Where("station = ?", station)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if active := c.Query("active"); active == "true" {
		query = query.Where("is_active = ?", true)
	}
	if search := c.Query("search"); search != "" {
		searchPattern := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR badge_number ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("last_name ASC, first_name ASC").
		Limit(limit).Offset(offset).Find(&people).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка личного состава"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": people,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetPersonnel возвращает карточку сотрудника с аттестациями и закрепленным
// имуществом
func (api *PersonnelAPI) GetPersonnel(c *gin.Context) {
	id := c.Param("id")

	var person models.Personnel
	if err := api.DB.Preload("Certifications").First(&person, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
		return
	}

	var assets []models.Asset
	api.DB.Where("assigned_to_type = ? AND assigned_to_id = ?",
		models.AssignmentPersonnel, person.ID).Find(&assets)

	// Истекшие аттестации подсвечиваются отдельно
	now := time.Now()
	expired := make([]models.Certification, 0)
	for _, cert := range person.Certifications {
		if cert.IsExpired(now) {
			expired = append(expired, cert)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"personnel":              person,
			"assigned_assets":        assets,
			"expired_certifications": expired,
		},
	})
}

// UpdatePersonnel обновляет карточку сотрудника
func (api *PersonnelAPI) UpdatePersonnel(c *gin.Context) {
	id := c.Param("id")

	var person models.Personnel
	if err := api.DB.First(&person, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
		return
	}

	var updateData models.Personnel
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	updateData.Certifications = nil
	updateData.ID = person.ID

	oldValues := person

	if err := api.DB.Model(&person).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении карточки: " + err.Error()})
		return
	}

	personID := person.ID
	_ = api.Audit.Log(services.AuditContext{
		UserID:     middleware.CurrentUserID(c),
		UserName:   middleware.CurrentUserName(c),
		Action:     services.ActionPersonnelUpdate,
		Resource:   "personnel",
		ResourceID: &personID,
		OldValues:  oldValues,
		NewValues:  person,
		Success:    true,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Карточка сотрудника обновлена",
		"data":    person,
	})
}

// DeletePersonnel убирает сотрудника из списков. Закрепленное имущество
// возвращается на склад.
func (api *PersonnelAPI) DeletePersonnel(c *gin.Context) {
	id := c.Param("id")

	var person models.Personnel
	if err := api.DB.First(&person, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
		return
	}

	if err := api.DB.Model(&models.Asset{}).
		Where("assigned_to_type = ? AND assigned_to_id = ?", models.AssignmentPersonnel, person.ID).
		Updates(map[string]interface{}{
			"assigned_to_type": models.AssignmentStorage,
			"assigned_to_id":   nil,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при освобождении имущества: " + err.Error()})
		return
	}

	if err := api.DB.Delete(&person).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении карточки: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Карточка сотрудника удалена"})
}

// AddCertification добавляет аттестацию сотруднику
func (api *PersonnelAPI) AddCertification(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID сотрудника"})
		return
	}

	var person models.Personnel
	if err := api.DB.First(&person, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
		return
	}

	var cert models.Certification
	if err := c.ShouldBindJSON(&cert); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if cert.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название аттестации обязательно"})
		return
	}

	cert.PersonnelID = person.ID
	if err := api.DB.Create(&cert).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при добавлении аттестации: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Аттестация добавлена",
		"data":    cert,
	})
}

// DeleteCertification удаляет аттестацию сотрудника
func (api *PersonnelAPI) DeleteCertification(c *gin.Context) {
	personnelID := c.Param("id")
	certID := c.Param("cert_id")

	var cert models.Certification
	if err := api.DB.Where("personnel_id = ?", personnelID).First(&cert, certID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Аттестация не найдена"})
		return
	}

	if err := api.DB.Delete(&cert).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении аттестации: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Аттестация удалена"})
}
