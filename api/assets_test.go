package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"backend_firerms/models"
	"backend_firerms/services"
)

func setupTestAPI(t *testing.T) (*gorm.DB, *gin.Engine) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Personnel{},
		&models.Certification{},
		&models.Apparatus{},
		&models.Compartment{},
		&models.SubCompartment{},
		&models.Asset{},
		&models.KitItem{},
		&models.MaintenanceRecord{},
		&models.PMSchedule{},
		&models.InspectionRecord{},
		&models.Consumable{},
		&models.UsageEntry{},
		&models.Incident{},
		&models.Property{},
		&models.Hydrant{},
		&models.ShiftEntry{},
		&models.PortalRequest{},
		&models.Alert{},
	)
	require.NoError(t, err)

	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	auditService := services.NewAuditService(db, logger)
	checkoutService := services.NewCheckoutService(db, auditService)
	compartmentService := services.NewCompartmentService(db, auditService)
	inventoryService := services.NewInventoryService(db, auditService)
	cacheService := services.NewCacheService(nil, logger)

	assetAPI := NewAssetAPI(db, checkoutService, auditService, cacheService)
	apparatusAPI := NewApparatusAPI(db, compartmentService, cacheService)
	consumableAPI := NewConsumableAPI(db, inventoryService, auditService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api")
	{
		api.POST("/assets", assetAPI.CreateAsset)
		api.GET("/assets", assetAPI.GetAssets)
		api.GET("/assets/:id", assetAPI.GetAsset)
		api.PUT("/assets/:id", assetAPI.UpdateAsset)
		api.DELETE("/assets/:id", assetAPI.RetireAsset)
		api.POST("/assets/:id/checkout", assetAPI.CheckoutAsset)
		api.POST("/assets/:id/checkin", assetAPI.CheckinAsset)
		api.GET("/assets/:id/history", assetAPI.GetAssetHistory)
		api.POST("/assets/:id/maintenance", assetAPI.AddMaintenanceRecord)
		api.POST("/assets/:id/inspections", assetAPI.AddInspectionRecord)

		api.POST("/apparatus", apparatusAPI.CreateApparatus)
		api.GET("/apparatus/:id", apparatusAPI.GetApparatus)
		api.PUT("/apparatus/:id/compartments", apparatusAPI.ReplaceCompartments)
		api.POST("/compartments/:compartment_id/assign", apparatusAPI.AssignAssetToCompartment)
		api.POST("/compartments/unassign", apparatusAPI.UnassignAsset)

		api.POST("/consumables", consumableAPI.CreateConsumable)
		api.GET("/consumables", consumableAPI.GetConsumables)
		api.POST("/consumables/:id/usage", consumableAPI.LogUsage)
		api.GET("/consumables/:id/usage", consumableAPI.GetUsageHistory)
		api.POST("/inventory/audit/start", consumableAPI.StartAuditSession)
		api.POST("/inventory/audit/scan", consumableAPI.RecordScan)
		api.POST("/inventory/audit/finish", consumableAPI.FinishAudit)
		api.POST("/inventory/audit/reconcile", consumableAPI.ReconcileAudit)
	}

	return db, router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestCreateAsset тестирует создание имущества
func TestCreateAsset(t *testing.T) {
	db, router := setupTestAPI(t)

	t.Run("Создание с корректными данными", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets", gin.H{
			"name":       "SCBA Scott X3",
			"asset_type": "SCBA",
			"category":   "equipment",
			"barcode":    "AST-1001",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var asset models.Asset
		require.NoError(t, db.Where("barcode = ?", "AST-1001").First(&asset).Error)
		assert.True(t, asset.IsInStorage())
		assert.Equal(t, "in_service", asset.Status)
	})

	t.Run("Без наименования отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets", gin.H{"barcode": "AST-1002"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Дублирование штрихкода отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets", gin.H{
			"name":    "Второй аппарат",
			"barcode": "AST-1001",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

// TestAssetCheckoutFlow тестирует выдачу и возврат через API
func TestAssetCheckoutFlow(t *testing.T) {
	db, router := setupTestAPI(t)

	person := models.Personnel{FirstName: "John", LastName: "Smith", IsActive: true, Status: "active"}
	require.NoError(t, db.Create(&person).Error)

	asset := models.Asset{Name: "Фонарь групповой", Status: "in_service"}
	require.NoError(t, db.Create(&asset).Error)

	t.Run("Выдача сотруднику", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets/1/checkout", gin.H{
			"target_type": "personnel",
			"target_id":   person.ID,
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data assetView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "John Smith", response.Data.Location)
	})

	t.Run("Возврат на склад", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets/1/checkin", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.True(t, check.IsInStorage())
	})

	t.Run("Повторный возврат отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets/1/checkin", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("История перемещений доступна", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/assets/1/history", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []services.AuditLog `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)
	})
}

// TestGetAssetDerivedFields тестирует расчетные поля карточки
func TestGetAssetDerivedFields(t *testing.T) {
	db, router := setupTestAPI(t)

	purchaseDate := time.Now().AddDate(-2, 0, 0)
	manufactured := time.Now().AddDate(-11, 0, 0)
	asset := models.Asset{
		Name:            "Боевка Globe G-Xtreme",
		Category:        models.AssetCategoryPPE,
		Status:          "in_service",
		PurchasePrice:   decimal.NewFromFloat(3000.0),
		PurchaseDate:    &purchaseDate,
		LifespanYears:   10,
		ManufactureDate: &manufactured,
	}
	require.NoError(t, db.Create(&asset).Error)

	w := performRequest(router, "GET", "/api/assets/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data assetView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	require.NotNil(t, response.Data.CurrentValue)
	require.NotNil(t, response.Data.Compliance)
	assert.Equal(t, models.ComplianceOverdue, response.Data.Compliance.Status)
	assert.Equal(t, services.StorageLabel, response.Data.Location)
	assert.Equal(t, "3000.00", response.Data.TotalCostOfOwnership)
}

// TestRetireAsset тестирует списание имущества
func TestRetireAsset(t *testing.T) {
	db, router := setupTestAPI(t)

	person := models.Personnel{FirstName: "Jane", LastName: "Doe", IsActive: true, Status: "active"}
	require.NoError(t, db.Create(&person).Error)

	asset := models.Asset{
		Name:           "Старая радиостанция",
		Status:         "in_service",
		AssignedToType: models.AssignmentPersonnel,
		AssignedToID:   &person.ID,
	}
	require.NoError(t, db.Create(&asset).Error)

	t.Run("Списание возвращает имущество на склад", func(t *testing.T) {
		w := performRequest(router, "DELETE", "/api/assets/1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var check models.Asset
		require.NoError(t, db.First(&check, asset.ID).Error)
		assert.Equal(t, "retired", check.Status)
		assert.NotNil(t, check.RetirementDate)
		assert.True(t, check.IsInStorage())
	})

	t.Run("Повторное списание отклоняется", func(t *testing.T) {
		w := performRequest(router, "DELETE", "/api/assets/1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Списанное имущество не выдается", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets/1/checkout", gin.H{
			"target_type": "personnel",
			"target_id":   person.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestAddInspectionRecord тестирует записи о проверках
func TestAddInspectionRecord(t *testing.T) {
	db, router := setupTestAPI(t)

	lastTested := time.Now().AddDate(-2, 0, 0)
	asset := models.Asset{
		Name:           "Боевка",
		Category:       models.AssetCategoryPPE,
		Status:         "in_service",
		LastTestedDate: &lastTested,
	}
	require.NoError(t, db.Create(&asset).Error)

	t.Run("Успешная проверка сдвигает дату последней проверки", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/assets/1/inspections", gin.H{
			"result":       "pass",
			"inspected_by": "Капитан Иванов",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var check models.Asset
		db.First(&check, asset.ID)
		require.NotNil(t, check.LastTestedDate)
		assert.True(t, check.LastTestedDate.After(lastTested))
	})

	t.Run("Неуспешная проверка дату не сдвигает", func(t *testing.T) {
		var before models.Asset
		db.First(&before, asset.ID)

		w := performRequest(router, "POST", "/api/assets/1/inspections", gin.H{
			"result": "fail",
			"notes":  "Разрыв наружного слоя",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.True(t, check.LastTestedDate.Equal(*before.LastTestedDate))
	})
}
