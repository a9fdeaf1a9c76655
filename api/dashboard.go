package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"backend_firerms/models"
	"backend_firerms/services"
)

// DashboardAPI представляет API для сводки на главном экране
type DashboardAPI struct {
	DB    *gorm.DB
	Cache *services.CacheService
	Audit *services.AuditService
}

// NewDashboardAPI создает новый экземпляр DashboardAPI
func NewDashboardAPI(db *gorm.DB, cache *services.CacheService, audit *services.AuditService) *DashboardAPI {
	return &DashboardAPI{DB: db, Cache: cache, Audit: audit}
}

// dashboardStats сводные показатели для дашборда
type dashboardStats struct {
	Assets struct {
		Total      int64 `json:"total"`
		InService  int64 `json:"in_service"`
		CheckedOut int64 `json:"checked_out"`
		PPEIssues  int64 `json:"ppe_issues"`
	} `json:"assets"`
	Consumables struct {
		Total    int64 `json:"total"`
		LowStock int64 `json:"low_stock"`
		Expiring int64 `json:"expiring"`
	} `json:"consumables"`
	Apparatus struct {
		Total        int64 `json:"total"`
		InService    int64 `json:"in_service"`
		OutOfService int64 `json:"out_of_service"`
	} `json:"apparatus"`
	Incidents struct {
		Open      int64 `json:"open"`
		ThisMonth int64 `json:"this_month"`
	} `json:"incidents"`
	Portal struct {
		Open int64 `json:"open"`
	} `json:"portal"`
	Alerts struct {
		Active int64 `json:"active"`
	} `json:"alerts"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStats возвращает сводку по части. Результат кэшируется на короткий
// срок: дашборд опрашивается часто, точность до минуты достаточна.
func (api *DashboardAPI) GetStats(c *gin.Context) {
	var stats dashboardStats
	if err := api.Cache.GetCachedDashboardStats(&stats); err == nil && !stats.GeneratedAt.IsZero() {
		c.JSON(http.StatusOK, gin.H{"data": stats, "cached": true})
		return
	}

	now := time.Now()

	api.DB.Model(&models.Asset{}).Count(&stats.Assets.Total)
	api.DB.Model(&models.Asset{}).Where("status = 'in_service'").Count(&stats.Assets.InService)
	api.DB.Model(&models.Asset{}).Where("assigned_to_type = ?", models.AssignmentPersonnel).
		Count(&stats.Assets.CheckedOut)

	// Проблемы СИЗ считаются по активным уведомлениям
	api.DB.Model(&models.Alert{}).
		Where("status = 'active' AND type IN ('ppe_overdue', 'ppe_due_soon')").
		Count(&stats.Assets.PPEIssues)

	api.DB.Model(&models.Consumable{}).Count(&stats.Consumables.Total)
	api.DB.Model(&models.Consumable{}).Where("quantity <= reorder_level").
		Count(&stats.Consumables.LowStock)
	api.DB.Model(&models.Consumable{}).
		Where("expiration_date IS NOT NULL AND expiration_date < ?", now.AddDate(0, 0, 30)).
		Count(&stats.Consumables.Expiring)

	api.DB.Model(&models.Apparatus{}).Count(&stats.Apparatus.Total)
	api.DB.Model(&models.Apparatus{}).Where("status = 'in_service'").Count(&stats.Apparatus.InService)
	api.DB.Model(&models.Apparatus{}).Where("status = 'out_of_service'").Count(&stats.Apparatus.OutOfService)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	api.DB.Model(&models.Incident{}).Where("status = 'open'").Count(&stats.Incidents.Open)
	api.DB.Model(&models.Incident{}).Where("alarm_at >= ?", monthStart).Count(&stats.Incidents.ThisMonth)

	api.DB.Model(&models.PortalRequest{}).Where("status IN ('new', 'in_review')").
		Count(&stats.Portal.Open)

	api.DB.Model(&models.Alert{}).Where("status = 'active'").Count(&stats.Alerts.Active)

	stats.GeneratedAt = now

	_ = api.Cache.CacheDashboardStats(stats)

	c.JSON(http.StatusOK, gin.H{"data": stats, "cached": false})
}

// GetRecentActivity возвращает последние операции для ленты на дашборде
func (api *DashboardAPI) GetRecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	activity, err := api.Audit.GetRecentActivity(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении активности"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": activity})
}
