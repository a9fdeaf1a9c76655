package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend_firerms/models"
)

// TestCreateApparatus тестирует создание техники
func TestCreateApparatus(t *testing.T) {
	_, router := setupTestAPI(t)

	t.Run("Создание с корректными данными", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/apparatus", gin.H{
			"unit_designation":  "Engine 1",
			"type":              "engine",
			"make":              "Pierce",
			"model":             "Enforcer",
			"year":              2021,
			"pump_capacity_gpm": 1500,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Дублирование позывного отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/apparatus", gin.H{
			"unit_designation": "Engine 1",
			"type":             "engine",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Без позывного отклоняется", func(t *testing.T) {
		w := performRequest(router, "POST", "/api/apparatus", gin.H{"type": "ladder"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestCompartmentLayout тестирует раскладку отсеков через API
func TestCompartmentLayout(t *testing.T) {
	db, router := setupTestAPI(t)

	engine := models.Apparatus{UnitDesignation: "Ladder 5", Type: "ladder"}
	require.NoError(t, db.Create(&engine).Error)

	t.Run("Сохранение раскладки целиком", func(t *testing.T) {
		w := performRequest(router, "PUT", fmt.Sprintf("/api/apparatus/%d/compartments", engine.ID), gin.H{
			"compartments": []gin.H{
				{"name": "Driver Side 1", "side": "driver", "layout_rows": 2, "layout_cols": 1,
					"sub_compartments": []gin.H{{"name": "Top"}, {"name": "Bottom"}}},
				{"name": "Rear", "side": "rear"},
			},
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []models.Compartment `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 2)
		assert.Len(t, response.Data[0].SubCompartments, 2)
	})

	t.Run("Размещение и изъятие имущества", func(t *testing.T) {
		asset := models.Asset{Name: "Пила цепная", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		var compartment models.Compartment
		require.NoError(t, db.Where("apparatus_id = ? AND name = ?", engine.ID, "Driver Side 1").
			First(&compartment).Error)

		w := performRequest(router, "POST",
			fmt.Sprintf("/api/compartments/%d/assign", compartment.ID),
			gin.H{"asset_id": asset.ID})
		assert.Equal(t, http.StatusOK, w.Code)

		var check models.Asset
		db.First(&check, asset.ID)
		assert.Equal(t, models.AssignmentSubCompartment, check.AssignedToType)

		w = performRequest(router, "POST", "/api/compartments/unassign", gin.H{"asset_id": asset.ID})
		assert.Equal(t, http.StatusOK, w.Code)

		db.First(&check, asset.ID)
		assert.True(t, check.IsInStorage())
	})

	t.Run("Карточка техники содержит содержимое отсеков", func(t *testing.T) {
		asset := models.Asset{Name: "Ствол лафетный", Status: "in_service"}
		require.NoError(t, db.Create(&asset).Error)

		var compartment models.Compartment
		require.NoError(t, db.Where("apparatus_id = ? AND name = ?", engine.ID, "Driver Side 1").
			First(&compartment).Error)

		w := performRequest(router, "POST",
			fmt.Sprintf("/api/compartments/%d/assign", compartment.ID),
			gin.H{"asset_id": asset.ID})
		require.Equal(t, http.StatusOK, w.Code)

		w = performRequest(router, "GET", fmt.Sprintf("/api/apparatus/%d", engine.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data struct {
				Contents map[string][]models.Asset `json:"contents"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		found := false
		for _, assets := range response.Data.Contents {
			for _, a := range assets {
				if a.ID == asset.ID {
					found = true
				}
			}
		}
		assert.True(t, found, "имущество должно отображаться в содержимом отсека")
	})
}
