package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/devicetoken"
	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/models"
	"github.com/mkuznetsov/petrofleet/internal/util"
)

type DeviceHandler struct {
	DB           *gorm.DB
	Producer     *events.Producer
	DeviceSecret []byte
}

// Register enrolls a GPS unit against a vehicle and hands back the signed
// credential the unit will present on ingestion. The credential is returned
// once; re-enrolling means deleting the device and registering again.
func (h *DeviceHandler) Register(c echo.Context) error {
	var req struct {
		Serial    string `json:"serial"`
		VehicleID uint   `json:"vehicle_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Serial == "" || req.VehicleID == 0 {
		return errorJSON(c, http.StatusBadRequest, "serial and vehicle_id are required")
	}

	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, req.VehicleID).Error; err != nil {
		return errorJSON(c, http.StatusBadRequest, "unknown vehicle")
	}

	var existing models.GPSDevice
	if err := h.DB.Where("serial = ?", req.Serial).First(&existing).Error; err == nil {
		return errorJSON(c, http.StatusConflict, "serial already registered")
	}

	device := models.GPSDevice{
		Serial:    req.Serial,
		VehicleID: req.VehicleID,
		CreatedAt: time.Now(),
	}
	if err := h.DB.Create(&device).Error; err != nil {
		c.Logger().Errorf("create device: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	credential, err := devicetoken.Sign(device.ID, device.Serial, h.DeviceSecret)
	if err != nil {
		c.Logger().Errorf("sign device token: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "device_registered", fmt.Sprint(device.ID), device)

	return c.JSON(http.StatusCreated, echo.Map{
		"device":     device,
		"credential": credential,
	})
}

func (h *DeviceHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.GPSDevice{}).Count(&total).Error; err != nil {
		c.Logger().Errorf("count devices: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var items []models.GPSDevice
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.Logger().Errorf("list devices: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": listMeta(page, limit, offset, total),
	})
}

func (h *DeviceHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var device models.GPSDevice
	if err := h.DB.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "device not found")
		}
		c.Logger().Errorf("get device: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, device)
}

// Delete revokes the device: ingestion rejects credentials whose device row
// is gone.
func (h *DeviceHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.GPSDevice{}, id).Error; err != nil {
		c.Logger().Errorf("delete device: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "device_deleted", fmt.Sprint(id), map[string]any{"device_id": id})

	return c.NoContent(http.StatusNoContent)
}
