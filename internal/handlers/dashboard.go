package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

// Summary aggregates the counts the dashboard landing page renders.
func (h *DashboardHandler) Summary(c echo.Context) error {
	counts := map[string]int64{}

	type countQuery struct {
		key   string
		model interface{}
		where []interface{}
	}
	queries := []countQuery{
		{"vehicles", &models.Vehicle{}, nil},
		{"vehicles_available", &models.Vehicle{}, []interface{}{"status = ?", "available"}},
		{"drivers", &models.Driver{}, nil},
		{"drivers_active", &models.Driver{}, []interface{}{"status = ?", "active"}},
		{"trips_scheduled", &models.Trip{}, []interface{}{"status = ?", models.TripScheduled}},
		{"trips_in_progress", &models.Trip{}, []interface{}{"status = ?", models.TripInProgress}},
		{"trips_completed", &models.Trip{}, []interface{}{"status = ?", models.TripCompleted}},
		{"devices", &models.GPSDevice{}, nil},
	}

	for _, q := range queries {
		var n int64
		db := h.DB.Model(q.model)
		if q.where != nil {
			db = db.Where(q.where[0], q.where[1:]...)
		}
		if err := db.Count(&n).Error; err != nil {
			c.Logger().Errorf("dashboard count %s: %v", q.key, err)
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}
		counts[q.key] = n
	}

	var recentTrips []models.Trip
	if err := h.DB.Order("id DESC").Limit(10).Find(&recentTrips).Error; err != nil {
		c.Logger().Errorf("dashboard recent trips: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var maintenanceCost struct{ Total float64 }
	if err := h.DB.Model(&models.MaintenanceRecord{}).
		Select("COALESCE(SUM(cost), 0) AS total").
		Scan(&maintenanceCost).Error; err != nil {
		c.Logger().Errorf("dashboard maintenance cost: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"counts":                 counts,
		"recent_trips":           recentTrips,
		"maintenance_cost_total": maintenanceCost.Total,
	})
}
