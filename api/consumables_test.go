package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend_firerms/models"
	"backend_firerms/services"
)

// TestCreateConsumable тестирует создание расходных материалов
func TestCreateConsumable(t *testing.T) {
	_, router := setupTestAPI(t)

	t.Run("Создание с корректными данными", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/consumables", gin.H{
			"name":          "Пенообразователь AFFF",
			"category":      "foam",
			"barcode":       "CON-100",
			"quantity":      40,
			"reorder_level": 10,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Отрицательный начальный остаток отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/consumables", gin.H{
			"name":     "Бензин",
			"quantity": -5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Дублирование штрихкода отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/consumables", gin.H{
			"name":    "Другая пена",
			"barcode": "CON-100",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

// TestLogUsageAPI тестирует журнал расхода через API
func TestLogUsageAPI(t *testing.T) {
	db, router := setupTestAPI(t)

	consumable := models.Consumable{Name: "Салфетки дезинфицирующие", Quantity: 30, ReorderLevel: 5}
	require.NoError(t, db.Create(&consumable).Error)

	t.Run("Списание с причиной", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/consumables/1/usage", gin.H{
			"change": -10,
			"reason": "Выезд 2026-000042",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data models.Consumable `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 20, response.Data.Quantity)
	})

	t.Run("Без причины отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/consumables/1/usage", gin.H{
			"change": -1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Списание сверх остатка отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/consumables/1/usage", gin.H{
			"change": -500,
			"reason": "Списание",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Журнал отдается в обратном хронологическом порядке", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/consumables/1/usage", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []models.UsageEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, -10, response.Data[0].Change)
	})
}

// TestInventoryAuditAPI тестирует сверку остатков через API
func TestInventoryAuditAPI(t *testing.T) {
	db, router := setupTestAPI(t)

	consumable := models.Consumable{Name: "Бинты", Barcode: "CON-201", Quantity: 5, ReorderLevel: 2}
	require.NoError(t, db.Create(&consumable).Error)

	t.Run("Сканирование без сессии отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/inventory/audit/scan", gin.H{"code": "CON-201"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Полный цикл сверки", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/inventory/audit/start", nil)
		assert.Equal(t, http.StatusCreated, w.Code)

		// Отсканировано 3 при системном остатке 5
		for i := 0; i < 3; i++ {
			w = performRequest(router, "POST", "/api/inventory/audit/scan", gin.H{"code": "CON-201"})
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w = performRequest(router, "POST", "/api/inventory/audit/finish", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var finishResponse struct {
			Data struct {
				Discrepancies []services.AuditDiscrepancy `json:"discrepancies"`
				Count         int                         `json:"count"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &finishResponse))
		require.Equal(t, 1, finishResponse.Data.Count)
		assert.Equal(t, -2, finishResponse.Data.Discrepancies[0].Diff)

		w = performRequest(router, "POST", "/api/inventory/audit/reconcile", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var check models.Consumable
		db.First(&check, consumable.ID)
		assert.Equal(t, 3, check.Quantity)

		// Повторная сверка без сессии отклоняется
		w = performRequest(router, "POST", "/api/inventory/audit/reconcile", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
