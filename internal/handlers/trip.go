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

type TripHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type tripRequest struct {
	VehicleID    uint    `json:"vehicle_id"`
	DriverID     uint    `json:"driver_id"`
	RouteID      uint    `json:"route_id"`
	CargoVolumeL float64 `json:"cargo_volume_l"`
}

func (h *TripHandler) Create(c echo.Context) error {
	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.VehicleID == 0 || req.DriverID == 0 || req.RouteID == 0 {
		return errorJSON(c, http.StatusBadRequest, "vehicle_id, driver_id and route_id are required")
	}

	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, req.VehicleID).Error; err != nil {
		return errorJSON(c, http.StatusBadRequest, "unknown vehicle")
	}
	var driver models.Driver
	if err := h.DB.First(&driver, req.DriverID).Error; err != nil {
		return errorJSON(c, http.StatusBadRequest, "unknown driver")
	}
	var route models.RouteDef
	if err := h.DB.First(&route, req.RouteID).Error; err != nil {
		return errorJSON(c, http.StatusBadRequest, "unknown route")
	}

	if req.CargoVolumeL > vehicle.TankCapacityL && vehicle.TankCapacityL > 0 {
		return errorJSON(c, http.StatusBadRequest, "cargo volume exceeds tank capacity")
	}

	trip := models.Trip{
		VehicleID:    req.VehicleID,
		DriverID:     req.DriverID,
		RouteID:      req.RouteID,
		CargoVolumeL: req.CargoVolumeL,
		Status:       models.TripScheduled,
		CreatedAt:    time.Now(),
	}

	if err := h.DB.Create(&trip).Error; err != nil {
		c.Logger().Errorf("create trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "trip_created", fmt.Sprint(trip.ID), trip)

	return c.JSON(http.StatusCreated, trip)
}

func (h *TripHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var trip models.Trip
	if err := h.DB.First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "trip not found")
		}
		c.Logger().Errorf("get trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Trip{})
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if vehicle := c.QueryParam("vehicle_id"); vehicle != "" {
		q = q.Where("vehicle_id = ?", parseIntDefault(vehicle, 0))
	}
	if driver := c.QueryParam("driver_id"); driver != "" {
		q = q.Where("driver_id = ?", parseIntDefault(driver, 0))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.Logger().Errorf("count trips: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var items []models.Trip
	if err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.Logger().Errorf("list trips: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": listMeta(page, limit, offset, total),
	})
}

// Patch reassigns a scheduled trip (vehicle, driver, route, cargo). Once a
// trip has departed its record is history, not a plan, so edits are refused.
func (h *TripHandler) Patch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var trip models.Trip
	if err := h.DB.First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "trip not found")
		}
		c.Logger().Errorf("patch trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	if trip.Status != models.TripScheduled {
		return errorJSON(c, http.StatusConflict, "only scheduled trips can be edited")
	}

	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.VehicleID != 0 {
		if err := h.DB.First(&models.Vehicle{}, req.VehicleID).Error; err != nil {
			return errorJSON(c, http.StatusBadRequest, "unknown vehicle")
		}
		trip.VehicleID = req.VehicleID
	}
	if req.DriverID != 0 {
		if err := h.DB.First(&models.Driver{}, req.DriverID).Error; err != nil {
			return errorJSON(c, http.StatusBadRequest, "unknown driver")
		}
		trip.DriverID = req.DriverID
	}
	if req.RouteID != 0 {
		if err := h.DB.First(&models.RouteDef{}, req.RouteID).Error; err != nil {
			return errorJSON(c, http.StatusBadRequest, "unknown route")
		}
		trip.RouteID = req.RouteID
	}
	if req.CargoVolumeL != 0 {
		trip.CargoVolumeL = req.CargoVolumeL
	}

	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, trip.VehicleID).Error; err != nil {
		c.Logger().Errorf("patch trip: load vehicle: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	if trip.CargoVolumeL > vehicle.TankCapacityL && vehicle.TankCapacityL > 0 {
		return errorJSON(c, http.StatusBadRequest, "cargo volume exceeds tank capacity")
	}

	if err := h.DB.Save(&trip).Error; err != nil {
		c.Logger().Errorf("save trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "trip_updated", fmt.Sprint(trip.ID), trip)

	return c.JSON(http.StatusOK, trip)
}

// Delete removes a trip that never ran. Departed and completed trips are
// retained as operational history and refuse deletion.
func (h *TripHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var trip models.Trip
	if err := h.DB.First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "trip not found")
		}
		c.Logger().Errorf("delete trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	if trip.Status == models.TripInProgress || trip.Status == models.TripCompleted {
		return errorJSON(c, http.StatusConflict, "departed trips are retained")
	}

	if err := h.DB.Delete(&models.Trip{}, id).Error; err != nil {
		c.Logger().Errorf("delete trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "trip_deleted", fmt.Sprint(id), map[string]any{"trip_id": id})

	return c.NoContent(http.StatusNoContent)
}

// transition moves a trip between lifecycle states. Allowed moves:
// scheduled->in_progress, in_progress->completed, and cancel from either
// non-terminal state.
func (h *TripHandler) transition(c echo.Context, target string) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var trip models.Trip
	if err := h.DB.First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "trip not found")
		}
		c.Logger().Errorf("load trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	allowed := false
	switch target {
	case models.TripInProgress:
		allowed = trip.Status == models.TripScheduled
	case models.TripCompleted:
		allowed = trip.Status == models.TripInProgress
	case models.TripCancelled:
		allowed = trip.Status == models.TripScheduled || trip.Status == models.TripInProgress
	}
	if !allowed {
		return errorJSON(c, http.StatusConflict,
			fmt.Sprintf("cannot move trip from %s to %s", trip.Status, target))
	}

	now := time.Now()
	trip.Status = target
	switch target {
	case models.TripInProgress:
		trip.DepartedAt = &now
	case models.TripCompleted:
		trip.ArrivedAt = &now
	}

	if err := h.DB.Save(&trip).Error; err != nil {
		c.Logger().Errorf("save trip: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "trip_"+target, fmt.Sprint(trip.ID), trip)

	return c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) Start(c echo.Context) error {
	return h.transition(c, models.TripInProgress)
}

func (h *TripHandler) Complete(c echo.Context) error {
	return h.transition(c, models.TripCompleted)
}

func (h *TripHandler) Cancel(c echo.Context) error {
	return h.transition(c, models.TripCancelled)
}
