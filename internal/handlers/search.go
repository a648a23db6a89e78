package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/mkuznetsov/petrofleet/internal/service/search"
	"github.com/mkuznetsov/petrofleet/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return errorJSON(c, http.StatusBadRequest, "query parameter q is required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 20)
	from, limit := util.Calculate(page, size)

	total, vehicles, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		c.Logger().Errorf("vehicle search: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "vehicles": vehicles})
}
