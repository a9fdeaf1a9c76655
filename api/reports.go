package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend_firerms/services"
)

// ReportAPI представляет API для выгрузки отчетов
type ReportAPI struct {
	Reports *services.ReportService
}

// NewReportAPI создает новый экземпляр ReportAPI
func NewReportAPI(reports *services.ReportService) *ReportAPI {
	return &ReportAPI{Reports: reports}
}

// ExportInventory выгружает отчет по имуществу в xlsx или csv
func (api *ReportAPI) ExportInventory(c *gin.Context) {
	data, err := api.Reports.BuildInventoryReport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	api.writeReport(c, data, "inventory")
}

// ExportIncidents выгружает отчет по выездам за период в xlsx или csv
func (api *ReportAPI) ExportIncidents(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, -12, 0)

	if dateFrom := c.Query("date_from"); dateFrom != "" {
		if parsed, err := time.Parse("2006-01-02", dateFrom); err == nil {
			from = parsed
		}
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		if parsed, err := time.Parse("2006-01-02", dateTo); err == nil {
			// Конец дня включительно
			to = parsed.AddDate(0, 0, 1).Add(-time.Second)
		}
	}

	data, err := api.Reports.BuildIncidentReport(from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	api.writeReport(c, data, "incidents")
}

// writeReport отдает отчет в запрошенном формате. По умолчанию xlsx.
func (api *ReportAPI) writeReport(c *gin.Context, data *services.ReportData, name string) {
	filename := fmt.Sprintf("%s_%s", name, time.Now().Format("2006-01-02"))

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		content, err := api.Reports.GenerateCSV(data)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при формировании CSV: " + err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", content)
	case "xlsx":
		content, err := api.Reports.GenerateExcel(data)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при формировании Excel: " + err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неподдерживаемый формат отчета"})
	}
}
