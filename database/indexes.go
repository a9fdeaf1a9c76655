package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// DatabaseIndex представляет индекс базы данных
type DatabaseIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	Type    string // btree, hash, gin, gist
}

// PerformanceIndexes индексы для оптимизации производительности
var PerformanceIndexes = []DatabaseIndex{
	// Индексы для таблицы assets: поиск по месту хранения — самый частый
	// запрос при отрисовке отсеков и списков выдачи
	{
		Name:    "idx_assets_location",
		Table:   "assets",
		Columns: []string{"assigned_to_type", "assigned_to_id"},
		Type:    "btree",
	},
	{
		Name:    "idx_assets_category_status",
		Table:   "assets",
		Columns: []string{"category", "status"},
		Type:    "btree",
	},
	{
		Name:    "idx_assets_parent",
		Table:   "assets",
		Columns: []string{"parent_id"},
		Type:    "btree",
	},

	// Журнал расхода читается всегда в порядке добавления по материалу
	{
		Name:    "idx_usage_entries_consumable_created",
		Table:   "usage_entries",
		Columns: []string{"consumable_id", "created_at"},
		Type:    "btree",
	},

	// История перемещений по конкретной единице имущества
	{
		Name:    "idx_audit_logs_resource",
		Table:   "audit_logs",
		Columns: []string{"resource", "resource_id", "created_at"},
		Type:    "btree",
	},

	// Выезды фильтруются по времени тревоги и коду NFIRS
	{
		Name:    "idx_incidents_alarm_at",
		Table:   "incidents",
		Columns: []string{"alarm_at"},
		Type:    "btree",
	},
	{
		Name:    "idx_incidents_type_code",
		Table:   "incidents",
		Columns: []string{"nfirs_type_code"},
		Type:    "btree",
	},

	// График дежурств выбирается по дате и смене
	{
		Name:    "idx_shift_entries_date_shift",
		Table:   "shift_entries",
		Columns: []string{"date", "shift_letter"},
		Type:    "btree",
	},

	// Активные уведомления для дашборда
	{
		Name:    "idx_alerts_status_severity",
		Table:   "alerts",
		Columns: []string{"status", "severity"},
		Type:    "btree",
	},

	// Обращения с портала по статусу
	{
		Name:    "idx_portal_requests_status",
		Table:   "portal_requests",
		Columns: []string{"status"},
		Type:    "btree",
	},
}

// CreatePerformanceIndexes создает индексы производительности
func CreatePerformanceIndexes(db *gorm.DB) error {
	log.Println("🔧 Создание индексов производительности...")

	for _, index := range PerformanceIndexes {
		if err := createIndex(db, index); err != nil {
			log.Printf("⚠️  Не удалось создать индекс %s: %v", index.Name, err)
			continue
		}
	}

	log.Println("✅ Индексы производительности созданы")
	return nil
}

// createIndex создает один индекс, если он еще не существует
func createIndex(db *gorm.DB, index DatabaseIndex) error {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}

	indexType := index.Type
	if indexType == "" {
		indexType = "btree"
	}

	columns := ""
	for i, col := range index.Columns {
		if i > 0 {
			columns += ", "
		}
		columns += col
	}

	query := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s USING %s (%s);",
		unique, index.Name, index.Table, indexType, columns)

	return db.Exec(query).Error
}
