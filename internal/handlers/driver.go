package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/models"
	"github.com/mkuznetsov/petrofleet/internal/util"
)

type DriverHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type driverRequest struct {
	Name      string `json:"name"`
	LicenseNo string `json:"license_no"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

func (h *DriverHandler) Create(c echo.Context) error {
	var req driverRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.LicenseNo == "" {
		return errorJSON(c, http.StatusBadRequest, "name and license_no are required")
	}

	var existing models.Driver
	if err := h.DB.Where("license_no = ?", req.LicenseNo).First(&existing).Error; err == nil {
		return errorJSON(c, http.StatusConflict, "license already registered")
	}

	d := models.Driver{
		Name:      req.Name,
		LicenseNo: req.LicenseNo,
		Phone:     req.Phone,
		Status:    req.Status,
	}
	if d.Status == "" {
		d.Status = "active"
	}

	if err := h.DB.Create(&d).Error; err != nil {
		c.Logger().Errorf("create driver: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "driver_created", fmt.Sprint(d.ID), d)

	return c.JSON(http.StatusCreated, d)
}

func (h *DriverHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var d models.Driver
	if err := h.DB.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "driver not found")
		}
		c.Logger().Errorf("get driver: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DriverHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Driver{})
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.Logger().Errorf("count drivers: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var items []models.Driver
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.Logger().Errorf("list drivers: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": listMeta(page, limit, offset, total),
	})
}

func (h *DriverHandler) Patch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var d models.Driver
	if err := h.DB.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "driver not found")
		}
		c.Logger().Errorf("patch driver: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var req driverRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		d.Name = req.Name
	}
	if req.LicenseNo != "" {
		d.LicenseNo = req.LicenseNo
	}
	if req.Phone != "" {
		d.Phone = req.Phone
	}
	if req.Status != "" {
		d.Status = req.Status
	}

	if err := h.DB.Save(&d).Error; err != nil {
		c.Logger().Errorf("save driver: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "driver_updated", fmt.Sprint(d.ID), d)

	return c.JSON(http.StatusOK, d)
}

func (h *DriverHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Driver{}, id).Error; err != nil {
		c.Logger().Errorf("delete driver: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "driver_deleted", fmt.Sprint(id), map[string]any{"driver_id": id})

	return c.NoContent(http.StatusNoContent)
}
