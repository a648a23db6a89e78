package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/models"
	"github.com/mkuznetsov/petrofleet/internal/service/search"
	"github.com/mkuznetsov/petrofleet/internal/util"
)

type VehicleHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

type vehicleRequest struct {
	Plate         string  `json:"plate"`
	Make          string  `json:"make"`
	Model         string  `json:"model"`
	Year          int     `json:"year"`
	TankCapacityL float64 `json:"tank_capacity_l"`
	Status        string  `json:"status"`
}

func (h *VehicleHandler) index(c echo.Context, v *models.Vehicle) {
	if h.ES == nil {
		return
	}
	if err := search.IndexVehicle(c.Request().Context(), h.ES, h.Index, v); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *VehicleHandler) Create(c echo.Context) error {
	var req vehicleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Plate == "" || req.Make == "" || req.Model == "" {
		return errorJSON(c, http.StatusBadRequest, "plate, make and model are required")
	}

	v := models.Vehicle{
		Plate:         req.Plate,
		Make:          req.Make,
		Model:         req.Model,
		Year:          req.Year,
		TankCapacityL: req.TankCapacityL,
		Status:        req.Status,
	}
	if v.Status == "" {
		v.Status = "available"
	}

	var existing models.Vehicle
	if err := h.DB.Where("plate = ?", req.Plate).First(&existing).Error; err == nil {
		return errorJSON(c, http.StatusConflict, "plate already registered")
	}

	if err := h.DB.Create(&v).Error; err != nil {
		c.Logger().Errorf("create vehicle: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	h.index(c, &v)
	publishEvent(c, h.Producer, events.TopicFleetEvents, "vehicle_created", fmt.Sprint(v.ID), v)

	return c.JSON(http.StatusCreated, v)
}

func (h *VehicleHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var v models.Vehicle
	if err := h.DB.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "vehicle not found")
		}
		c.Logger().Errorf("get vehicle: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *VehicleHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Vehicle{})
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.Logger().Errorf("count vehicles: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var items []models.Vehicle
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.Logger().Errorf("list vehicles: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": listMeta(page, limit, offset, total),
	})
}

func (h *VehicleHandler) Patch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var v models.Vehicle
	if err := h.DB.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "vehicle not found")
		}
		c.Logger().Errorf("patch vehicle: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var req vehicleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Plate != "" {
		v.Plate = req.Plate
	}
	if req.Make != "" {
		v.Make = req.Make
	}
	if req.Model != "" {
		v.Model = req.Model
	}
	if req.Year != 0 {
		v.Year = req.Year
	}
	if req.TankCapacityL != 0 {
		v.TankCapacityL = req.TankCapacityL
	}
	if req.Status != "" {
		v.Status = req.Status
	}

	if err := h.DB.Save(&v).Error; err != nil {
		c.Logger().Errorf("save vehicle: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	h.index(c, &v)
	publishEvent(c, h.Producer, events.TopicFleetEvents, "vehicle_updated", fmt.Sprint(v.ID), v)

	return c.JSON(http.StatusOK, v)
}

func (h *VehicleHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Vehicle{}, id).Error; err != nil {
		c.Logger().Errorf("delete vehicle: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteVehicle(c.Request().Context(), h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	publishEvent(c, h.Producer, events.TopicFleetEvents, "vehicle_deleted", fmt.Sprint(id), map[string]any{"vehicle_id": id})

	return c.NoContent(http.StatusNoContent)
}
