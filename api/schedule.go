package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend_firerms/models"
)

// ScheduleAPI представляет API для работы с графиком дежурств
type ScheduleAPI struct {
	DB *gorm.DB
}

// NewScheduleAPI создает новый экземпляр ScheduleAPI
func NewScheduleAPI(db *gorm.DB) *ScheduleAPI {
	return &ScheduleAPI{DB: db}
}

// CreateShiftEntry создает запись в графике дежурств
func (api *ScheduleAPI) CreateShiftEntry(c *gin.Context) {
	var entry models.ShiftEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if entry.Date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Дата дежурства обязательна"})
		return
	}
	if entry.ShiftLetter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Смена обязательна"})
		return
	}

	var person models.Personnel
	if err := api.DB.First(&person, entry.PersonnelID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
		return
	}

	// Один сотрудник не ставится в график дважды на одну дату
	var existing models.ShiftEntry
	if err := api.DB.Where("personnel_id = ? AND date = ?", entry.PersonnelID, entry.Date).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Сотрудник уже стоит в графике на эту дату"})
		return
	}

	if entry.Kind == "" {
		entry.Kind = "duty"
	}

	if err := api.DB.Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании записи графика: " + err.Error()})
		return
	}

	api.DB.Preload("Personnel").First(&entry, entry.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Запись графика создана",
		"data":    entry,
	})
}

// GetSchedule возвращает график дежурств за период
func (api *ScheduleAPI) GetSchedule(c *gin.Context) {
	// По умолчанию показывается текущий месяц
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

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

	query := api.DB.Preload("Personnel").
		Where("date >= ? AND date < ?", from, to)

	if shift := c.Query("shift"); shift != "" {
		query = query.Where("shift_letter = ?", shift)
	}
	if station := c.Query("station"); station != "" {
		query = query.Where("station = ?", station)
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if personnelID := c.Query("personnel_id"); personnelID != "" {
		query = query.Where("personnel_id = ?", personnelID)
	}

	var entries []models.ShiftEntry
	if err := query.Order("date ASC, shift_letter ASC").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении графика"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": entries,
		"period": gin.H{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		},
	})
}

// GetRoster возвращает состав дежурной смены на дату
func (api *ScheduleAPI) GetRoster(c *gin.Context) {
	date := time.Now().Truncate(24 * time.Hour)
	if dateParam := c.Query("date"); dateParam != "" {
		if parsed, err := time.Parse("2006-01-02", dateParam); err == nil {
			date = parsed
		}
	}

	var entries []models.ShiftEntry
	if err := api.DB.Preload("Personnel").
		Where("date >= ? AND date < ? AND kind != 'leave'", date, date.AddDate(0, 0, 1)).
		Order("shift_letter ASC, role ASC").
		Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении состава смены"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": entries,
		"date": date.Format("2006-01-02"),
	})
}

// UpdateShiftEntry обновляет запись графика
func (api *ScheduleAPI) UpdateShiftEntry(c *gin.Context) {
	id := c.Param("id")

	var entry models.ShiftEntry
	if err := api.DB.First(&entry, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Запись графика не найдена"})
		return
	}

	var updateData models.ShiftEntry
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	updateData.ID = entry.ID
	updateData.Personnel = nil

	if err := api.DB.Model(&entry).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении записи: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Запись графика обновлена",
		"data":    entry,
	})
}

// DeleteShiftEntry удаляет запись графика
func (api *ScheduleAPI) DeleteShiftEntry(c *gin.Context) {
	id := c.Param("id")

	var entry models.ShiftEntry
	if err := api.DB.First(&entry, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Запись графика не найдена"})
		return
	}

	if err := api.DB.Delete(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при удалении записи: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Запись графика удалена"})
}
