package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/devicetoken"
	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/models"
)

// GPSHandler is the device-facing ingestion endpoint. Devices authenticate
// with the bearer credential issued at registration, not with a session
// cookie, so this handler sits outside the session perimeter.
type GPSHandler struct {
	DB           *gorm.DB
	Producer     *events.Producer
	DeviceSecret []byte
}

func (h *GPSHandler) Ingest(c echo.Context) error {
	raw := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(raw, "Bearer ") {
		return errorJSON(c, http.StatusUnauthorized, "device credential required")
	}

	deviceID, serial, err := devicetoken.Verify(strings.TrimPrefix(raw, "Bearer "), h.DeviceSecret)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid device credential")
	}

	var device models.GPSDevice
	if err := h.DB.First(&device, deviceID).Error; err != nil || device.Serial != serial {
		return errorJSON(c, http.StatusUnauthorized, "invalid device credential")
	}

	var req struct {
		Lat        float64    `json:"lat"`
		Lon        float64    `json:"lon"`
		SpeedKmh   float64    `json:"speed_kmh"`
		RecordedAt *time.Time `json:"recorded_at"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		return errorJSON(c, http.StatusBadRequest, "coordinates out of range")
	}

	point := models.GPSPoint{
		DeviceID:   device.ID,
		Lat:        req.Lat,
		Lon:        req.Lon,
		SpeedKmh:   req.SpeedKmh,
		RecordedAt: time.Now(),
	}
	if req.RecordedAt != nil {
		point.RecordedAt = *req.RecordedAt
	}

	if err := h.DB.Create(&point).Error; err != nil {
		c.Logger().Errorf("store gps point: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicGPSEvents, "gps_point", fmt.Sprint(device.ID), point)

	return c.JSON(http.StatusAccepted, echo.Map{"success": true})
}

// Points returns the recorded track for a device, newest first.
func (h *GPSHandler) Points(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	limit := parseIntDefault(c.QueryParam("limit"), 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var points []models.GPSPoint
	if err := h.DB.Where("device_id = ?", id).
		Order("recorded_at DESC").Limit(limit).Find(&points).Error; err != nil {
		c.Logger().Errorf("list gps points: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"data": points})
}
