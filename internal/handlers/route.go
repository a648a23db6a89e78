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

type RouteHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type routeRequest struct {
	Name        string  `json:"name"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
}

func (h *RouteHandler) Create(c echo.Context) error {
	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Origin == "" || req.Destination == "" {
		return errorJSON(c, http.StatusBadRequest, "name, origin and destination are required")
	}

	var existing models.RouteDef
	if err := h.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return errorJSON(c, http.StatusConflict, "route name already exists")
	}

	r := models.RouteDef{
		Name:        req.Name,
		Origin:      req.Origin,
		Destination: req.Destination,
		DistanceKm:  req.DistanceKm,
	}

	if err := h.DB.Create(&r).Error; err != nil {
		c.Logger().Errorf("create route: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "route_created", fmt.Sprint(r.ID), r)

	return c.JSON(http.StatusCreated, r)
}

func (h *RouteHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var r models.RouteDef
	if err := h.DB.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "route not found")
		}
		c.Logger().Errorf("get route: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RouteHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.RouteDef{}).Count(&total).Error; err != nil {
		c.Logger().Errorf("count routes: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var items []models.RouteDef
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.Logger().Errorf("list routes: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": listMeta(page, limit, offset, total),
	})
}

func (h *RouteHandler) Patch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	var r models.RouteDef
	if err := h.DB.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "route not found")
		}
		c.Logger().Errorf("patch route: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		r.Name = req.Name
	}
	if req.Origin != "" {
		r.Origin = req.Origin
	}
	if req.Destination != "" {
		r.Destination = req.Destination
	}
	if req.DistanceKm != 0 {
		r.DistanceKm = req.DistanceKm
	}

	if err := h.DB.Save(&r).Error; err != nil {
		c.Logger().Errorf("save route: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "route_updated", fmt.Sprint(r.ID), r)

	return c.JSON(http.StatusOK, r)
}

func (h *RouteHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.RouteDef{}, id).Error; err != nil {
		c.Logger().Errorf("delete route: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	publishEvent(c, h.Producer, events.TopicFleetEvents, "route_deleted", fmt.Sprint(id), map[string]any{"route_id": id})

	return c.NoContent(http.StatusNoContent)
}
