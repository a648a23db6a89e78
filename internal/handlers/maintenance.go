package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/models"
	"github.com/mkuznetsov/petrofleet/internal/util"
)

type MaintenanceHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type maintenanceRequest struct {
	VehicleID   uint       `json:"vehicle_id"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Cost        float64    `json:"cost"`
	Odometer    int        `json:"odometer"`
	ServicedAt  *time.Time `json:"serviced_at"`
}

func (h *MaintenanceHandler) Create(c echo.Context) error {
	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.VehicleID == 0 || req.Type == "" {
		return errorJSON(c, http.StatusBadRequest, "vehicle_id and type are required")
	}

	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, req.VehicleID).Error; err != nil {
		return errorJSON(c, http.StatusBadRequest, "unknown vehicle")
	}

	rec := models.MaintenanceRecord{
		VehicleID:   req.VehicleID,
		Type:        req.Type,
		Description: req.Description,
		Cost:        req.Cost,
		Odometer:    req.Odometer,
		ServicedAt:  time.Now(),
	}
	if req.ServicedAt != nil {
		rec.ServicedAt = *req.ServicedAt
	}

	if err := h.DB.Create(&rec).Error; err != nil {
		c.Logger().Errorf("create maintenance record: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "maintenance_recorded", fmt.Sprint(rec.VehicleID), rec)

	return c.JSON(http.StatusCreated, rec)
}

func (h *MaintenanceHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var rec models.MaintenanceRecord
	if err := h.DB.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "maintenance record not found")
		}
		c.Logger().Errorf("get maintenance record: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *MaintenanceHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.MaintenanceRecord{})
	if vehicle := c.QueryParam("vehicle_id"); vehicle != "" {
		q = q.Where("vehicle_id = ?", parseIntDefault(vehicle, 0))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.Logger().Errorf("count maintenance records: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var items []models.MaintenanceRecord
	if err := q.Order("serviced_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.Logger().Errorf("list maintenance records: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": listMeta(page, limit, offset, total),
	})
}

func (h *MaintenanceHandler) Patch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var rec models.MaintenanceRecord
	if err := h.DB.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "maintenance record not found")
		}
		c.Logger().Errorf("patch maintenance record: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Type != "" {
		rec.Type = req.Type
	}
	if req.Description != "" {
		rec.Description = req.Description
	}
	if req.Cost != 0 {
		rec.Cost = req.Cost
	}
	if req.Odometer != 0 {
		rec.Odometer = req.Odometer
	}
	if req.ServicedAt != nil {
		rec.ServicedAt = *req.ServicedAt
	}

	if err := h.DB.Save(&rec).Error; err != nil {
		c.Logger().Errorf("save maintenance record: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "maintenance_updated", fmt.Sprint(rec.VehicleID), rec)

	return c.JSON(http.StatusOK, rec)
}

func (h *MaintenanceHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.MaintenanceRecord{}, id).Error; err != nil {
		c.Logger().Errorf("delete maintenance record: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "maintenance_deleted", fmt.Sprint(id), map[string]any{"record_id": id})

	return c.NoContent(http.StatusNoContent)
}
