package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"backend_firerms/models"
)

// ReportService формирует выгрузки по имуществу и выездам
type ReportService struct {
	DB *gorm.DB
}

// NewReportService создает новый экземпляр ReportService
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{DB: db}
}

// ReportData табличные данные отчета
type ReportData struct {
	Title   string
	Headers []string
	Rows    []map[string]interface{}
}

// BuildInventoryReport собирает данные по имуществу с расчетными полями
func (rs *ReportService) BuildInventoryReport() (*ReportData, error) {
	var assets []models.Asset
	if err := rs.DB.Preload("MaintenanceRecords").Preload("KitItems.Consumable").
		Order("name ASC").
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении имущества: %w", err)
	}

	now := time.Now()
	data := &ReportData{
		Title:   "Имущество",
		Headers: []string{"ID", "Наименование", "Категория", "Статус", "Серийный номер", "Закупочная цена", "Остаточная стоимость", "Полная стоимость владения", "Состояние СИЗ"},
	}

	for _, a := range assets {
		row := map[string]interface{}{
			"ID":                        a.ID,
			"Наименование":              a.Name,
			"Категория":                 a.Category,
			"Статус":                    a.Status,
			"Серийный номер":            a.SerialNumber,
			"Закупочная цена":           a.PurchasePrice.StringFixed(2),
			"Полная стоимость владения": a.TotalCostOfOwnership().StringFixed(2),
		}

		if value := a.CurrentValue(now); value != nil {
			row["Остаточная стоимость"] = value.StringFixed(2)
		} else {
			row["Остаточная стоимость"] = "N/A"
		}

		if info := a.ComplianceStatus(now); info != nil {
			row["Состояние СИЗ"] = info.Status
		} else {
			row["Состояние СИЗ"] = ""
		}

		data.Rows = append(data.Rows, row)
	}

	return data, nil
}

// BuildIncidentReport собирает данные по выездам за период
func (rs *ReportService) BuildIncidentReport(from, to time.Time) (*ReportData, error) {
	var incidents []models.Incident
	if err := rs.DB.Where("alarm_at >= ? AND alarm_at <= ?", from, to).
		Order("alarm_at ASC").
		Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении выездов: %w", err)
	}

	data := &ReportData{
		Title:   "Выезды",
		Headers: []string{"Номер", "Код NFIRS", "Тревога", "Прибытие", "Адрес", "Ущерб", "Статус"},
	}

	for _, i := range incidents {
		row := map[string]interface{}{
			"Номер":     i.IncidentNumber,
			"Код NFIRS": i.NFIRSTypeCode,
			"Тревога":   i.AlarmAt.Format("02.01.2006 15:04"),
			"Адрес":     i.Address,
			"Ущерб":     i.TotalLoss().StringFixed(2),
			"Статус":    i.Status,
		}
		if i.ArrivalAt != nil {
			row["Прибытие"] = i.ArrivalAt.Format("02.01.2006 15:04")
		} else {
			row["Прибытие"] = ""
		}
		data.Rows = append(data.Rows, row)
	}

	return data, nil
}

// GenerateExcel формирует xlsx файл отчета в памяти
func (rs *ReportService) GenerateExcel(data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close Excel file: %v", err)
		}
	}()

	sheetName := "Отчет"
	f.SetSheetName("Sheet1", sheetName)

	// Записываем заголовки
	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	// Записываем данные
	for rowIdx, row := range data.Rows {
		for colIdx, header := range data.Headers {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if value, ok := row[header]; ok {
				f.SetCellValue(sheetName, cell, value)
			}
		}
	}

	// Добавляем автофильтр
	endCell, _ := excelize.CoordinatesToCellName(len(data.Headers), len(data.Rows)+1)
	f.AutoFilter(sheetName, "A1:"+endCell, []excelize.AutoFilterOptions{})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("ошибка при записи Excel файла: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateCSV формирует csv файл отчета в памяти
func (rs *ReportService) GenerateCSV(data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(data.Headers); err != nil {
		return nil, err
	}

	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			if value, ok := row[header]; ok {
				record[i] = fmt.Sprintf("%v", value)
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
