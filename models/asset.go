package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Категории имущества
const (
	AssetCategoryEquipment = "equipment" // Инструмент и оборудование
	AssetCategoryPPE       = "ppe"       // Боевая одежда и СИЗ
	AssetCategoryKit       = "kit"       // Укладка (комплект расходников)
)

// Типы местоположения имущества. Пара (assigned_to_type, assigned_to_id)
// описывает единственное место хранения: пустой тип означает склад.
const (
	AssignmentStorage        = ""
	AssignmentPersonnel      = "personnel"
	AssignmentApparatus      = "apparatus"
	AssignmentSubCompartment = "subcompartment"
)

// Горизонт списания боевой одежды по NFPA 1851 — 10 лет с даты изготовления
const PPERetirementYears = 10

// Asset представляет единицу имущества пожарной части
type Asset struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Основные характеристики
	Name         string `json:"name" gorm:"not null;type:varchar(150)"`
	AssetType    string `json:"asset_type" gorm:"type:varchar(100)"` // SCBA, Hose, Nozzle, Turnout Coat, etc.
	Category     string `json:"category" gorm:"not null;default:'equipment';type:varchar(20)"`
	SerialNumber string `json:"serial_number" gorm:"index;type:varchar(100)"`
	Barcode      string `json:"barcode" gorm:"uniqueIndex;type:varchar(100)"` // Код для сканирования

	// Статус: имущество не удаляется физически, а переводится в retired
	Status string `json:"status" gorm:"default:'in_service';type:varchar(20)"` // in_service, maintenance, retired

	// Единственное место хранения. Пустой тип = склад.
	AssignedToType string `json:"assigned_to_type" gorm:"index;type:varchar(20)"`
	AssignedToID   *uint  `json:"assigned_to_id" gorm:"index"`

	// Составное имущество: баллон входит в состав дыхательного аппарата
	// независимо от того, где аппарат физически хранится
	ParentID *uint  `json:"parent_id" gorm:"index"`
	Parent   *Asset `json:"parent,omitempty" gorm:"foreignKey:ParentID"`

	// Финансовая информация
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(12,2)"`
	PurchaseDate  *time.Time      `json:"purchase_date"`
	LifespanYears int             `json:"lifespan_years"` // Срок службы для амортизации, 0 = не задан

	// Даты для контроля СИЗ (только category = ppe)
	ManufactureDate  *time.Time `json:"manufacture_date"`
	LastTestedDate   *time.Time `json:"last_tested_date"`
	LastCleaningDate *time.Time `json:"last_cleaning_date"`
	RetirementDate   *time.Time `json:"retirement_date"`

	// Состав укладки (только category = kit)
	KitItems []KitItem `json:"kit_items,omitempty" gorm:"foreignKey:AssetID"`

	// История (только добавление, записи не изменяются)
	MaintenanceRecords []MaintenanceRecord `json:"maintenance_records,omitempty" gorm:"foreignKey:AssetID"`
	PMSchedules        []PMSchedule        `json:"pm_schedules,omitempty" gorm:"foreignKey:AssetID"`
	InspectionRecords  []InspectionRecord  `json:"inspection_records,omitempty" gorm:"foreignKey:AssetID"`

	Notes string `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели Asset
func (Asset) TableName() string {
	return "assets"
}

// KitItem описывает позицию укладки: расходный материал и его количество
type KitItem struct {
	ID           uint        `json:"id" gorm:"primarykey"`
	AssetID      uint        `json:"asset_id" gorm:"not null;index"`
	ConsumableID uint        `json:"consumable_id" gorm:"not null;index"`
	Consumable   *Consumable `json:"consumable,omitempty" gorm:"foreignKey:ConsumableID"`
	Quantity     int         `json:"quantity" gorm:"default:1"`
}

// TableName задает имя таблицы для модели KitItem
func (KitItem) TableName() string {
	return "kit_items"
}

// MaintenanceRecord представляет запись о ремонте или обслуживании
type MaintenanceRecord struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time       `json:"created_at"`
	AssetID     uint            `json:"asset_id" gorm:"not null;index"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description" gorm:"type:text"`
	Cost        decimal.Decimal `json:"cost" gorm:"type:decimal(12,2)"`
	PerformedBy string          `json:"performed_by" gorm:"type:varchar(100)"`
}

// TableName задает имя таблицы для модели MaintenanceRecord
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

// PMSchedule представляет график планового обслуживания
type PMSchedule struct {
	ID            uint       `json:"id" gorm:"primarykey"`
	CreatedAt     time.Time  `json:"created_at"`
	AssetID       uint       `json:"asset_id" gorm:"not null;index"`
	Name          string     `json:"name" gorm:"type:varchar(150)"`
	IntervalDays  int        `json:"interval_days"`
	LastPerformed *time.Time `json:"last_performed"`
	NextDue       *time.Time `json:"next_due"`
}

// TableName задает имя таблицы для модели PMSchedule
func (PMSchedule) TableName() string {
	return "pm_schedules"
}

// InspectionRecord представляет запись о проверке имущества
type InspectionRecord struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time `json:"created_at"`
	AssetID     uint      `json:"asset_id" gorm:"not null;index"`
	Date        time.Time `json:"date"`
	Result      string    `json:"result" gorm:"type:varchar(20)"` // pass, fail
	InspectedBy string    `json:"inspected_by" gorm:"type:varchar(100)"`
	Notes       string    `json:"notes" gorm:"type:text"`
}

// TableName задает имя таблицы для модели InspectionRecord
func (InspectionRecord) TableName() string {
	return "inspection_records"
}

// ComplianceInfo описывает результат проверки сроков СИЗ
type ComplianceInfo struct {
	Status  string `json:"status"` // OK, Overdue, Due Soon, Nearing Retirement
	Details string `json:"details"`
}

// Статусы проверки сроков СИЗ
const (
	ComplianceOK                = "OK"
	ComplianceOverdue           = "Overdue"
	ComplianceDueSoon           = "Due Soon"
	ComplianceNearingRetirement = "Nearing Retirement"
)

// IsInStorage проверяет, находится ли имущество на складе
func (a *Asset) IsInStorage() bool {
	return a.AssignedToType == AssignmentStorage || a.AssignedToID == nil
}

// TotalCostOfOwnership возвращает закупочную цену плюс стоимость всех
// ремонтов. История должна быть загружена через Preload, пустая история
// дает просто закупочную цену.
func (a *Asset) TotalCostOfOwnership() decimal.Decimal {
	total := a.PurchasePrice
	for _, r := range a.MaintenanceRecords {
		total = total.Add(r.Cost)
	}
	return total
}

// CurrentValue возвращает остаточную стоимость по линейной амортизации.
// Возвращает nil, если срок службы или дата закупки не заданы: амортизация
// в этом случае не определена. После окончания срока службы стоимость равна
// нулю и никогда не бывает отрицательной.
func (a *Asset) CurrentValue(now time.Time) *decimal.Decimal {
	if a.LifespanYears <= 0 || a.PurchaseDate == nil {
		return nil
	}

	elapsedYears := now.Sub(*a.PurchaseDate).Hours() / 24 / 365.25
	if elapsedYears >= float64(a.LifespanYears) {
		zero := decimal.Zero
		return &zero
	}

	yearly := a.PurchasePrice.Div(decimal.NewFromInt(int64(a.LifespanYears)))
	value := a.PurchasePrice.Sub(yearly.Mul(decimal.NewFromFloat(elapsedYears)))
	if value.IsNegative() {
		value = decimal.Zero
	}
	return &value
}

// ComplianceStatus проверяет сроки по NFPA для СИЗ. Для остальных категорий
// возвращает nil. Проверки идут по приоритету: списание (10 лет с даты
// изготовления), затем ежегодная проверка, затем чистка раз в полгода.
// Если ни одна дата не задана или все проверки пройдены — статус OK.
func (a *Asset) ComplianceStatus(now time.Time) *ComplianceInfo {
	if a.Category != AssetCategoryPPE {
		return nil
	}

	if a.ManufactureDate != nil {
		retireAt := a.ManufactureDate.AddDate(PPERetirementYears, 0, 0)
		if now.After(retireAt) {
			return &ComplianceInfo{
				Status:  ComplianceOverdue,
				Details: fmt.Sprintf("Срок списания истек %s", retireAt.Format("02.01.2006")),
			}
		}
		if now.After(retireAt.AddDate(-1, 0, 0)) {
			return &ComplianceInfo{
				Status:  ComplianceNearingRetirement,
				Details: fmt.Sprintf("Списание %s", retireAt.Format("02.01.2006")),
			}
		}
	}

	if a.LastTestedDate != nil {
		testDueAt := a.LastTestedDate.AddDate(1, 0, 0)
		if now.After(testDueAt) {
			return &ComplianceInfo{
				Status:  ComplianceOverdue,
				Details: fmt.Sprintf("Ежегодная проверка просрочена с %s", testDueAt.Format("02.01.2006")),
			}
		}
		if now.After(testDueAt.AddDate(0, 0, -90)) {
			return &ComplianceInfo{
				Status:  ComplianceDueSoon,
				Details: fmt.Sprintf("Ежегодная проверка до %s", testDueAt.Format("02.01.2006")),
			}
		}
	}

	if a.LastCleaningDate != nil {
		cleanDueAt := a.LastCleaningDate.AddDate(0, 6, 0)
		if now.After(cleanDueAt) {
			return &ComplianceInfo{
				Status:  ComplianceOverdue,
				Details: fmt.Sprintf("Чистка просрочена с %s", cleanDueAt.Format("02.01.2006")),
			}
		}
		if now.After(cleanDueAt.AddDate(0, 0, -90)) {
			return &ComplianceInfo{
				Status:  ComplianceDueSoon,
				Details: fmt.Sprintf("Чистка до %s", cleanDueAt.Format("02.01.2006")),
			}
		}
	}

	return &ComplianceInfo{Status: ComplianceOK}
}

// KitSummary возвращает сводку по укладке: общее количество позиций и
// сколько из них истекает в ближайшие 30 дней. Для остальных категорий
// возвращает пустую строку. Состав должен быть загружен вместе с
// расходниками (Preload("KitItems.Consumable")).
func (a *Asset) KitSummary(now time.Time) string {
	if a.Category != AssetCategoryKit {
		return ""
	}

	totalItems := 0
	expiringSoon := 0
	expiryWindow := now.AddDate(0, 0, 30)

	for _, item := range a.KitItems {
		totalItems += item.Quantity
		if item.Consumable != nil && item.Consumable.ExpirationDate != nil {
			if item.Consumable.ExpirationDate.Before(expiryWindow) {
				expiringSoon += item.Quantity
			}
		}
	}

	if expiringSoon > 0 {
		return fmt.Sprintf("%d items (%d expiring soon)", totalItems, expiringSoon)
	}
	return fmt.Sprintf("%d items", totalItems)
}
