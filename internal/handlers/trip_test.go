package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/models"
)

func seedFleet(t *testing.T, db *gorm.DB) (models.Vehicle, models.Driver, models.RouteDef) {
	v := models.Vehicle{Plate: "B 333 TK", Make: "KamAZ", Model: "65115", TankCapacityL: 12000, Status: "available"}
	require.NoError(t, db.Create(&v).Error)
	d := models.Driver{Name: "P. Ivanov", LicenseNo: "AB 123456", Status: "active"}
	require.NoError(t, db.Create(&d).Error)
	r := models.RouteDef{Name: "Depot-Terminal", Origin: "Depot 4", Destination: "Rail terminal", DistanceKm: 118}
	require.NoError(t, db.Create(&r).Error)
	return v, d, r
}

func newTripHandler(t *testing.T) (*TripHandler, *gorm.DB) {
	db := initTestDB(t)
	return &TripHandler{DB: db, Producer: &events.Producer{}}, db
}

func tripAction(t *testing.T, e *echo.Echo, fn echo.HandlerFunc, id uint) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips/action", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(id))
	require.NoError(t, fn(c))
	return rec
}

func TestTripCreate(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	c, rec := postJSON(t, e, "/api/v1/trips", map[string]interface{}{
		"vehicle_id":     v.ID,
		"driver_id":      d.ID,
		"route_id":       r.ID,
		"cargo_volume_l": 9500.0,
	})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var trip models.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trip))
	require.Equal(t, models.TripScheduled, trip.Status)
	require.Nil(t, trip.DepartedAt)
}

func TestTripCreateUnknownReferences(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, _ := seedFleet(t, db)
	e := echo.New()

	c, rec := postJSON(t, e, "/api/v1/trips", map[string]interface{}{
		"vehicle_id": v.ID,
		"driver_id":  d.ID,
		"route_id":   999,
	})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTripCargoExceedsCapacity(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	c, rec := postJSON(t, e, "/api/v1/trips", map[string]interface{}{
		"vehicle_id":     v.ID,
		"driver_id":      d.ID,
		"route_id":       r.ID,
		"cargo_volume_l": 20000.0,
	})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTripLifecycle(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	// completing a scheduled trip is illegal
	rec := tripAction(t, e, h.Complete, trip.ID)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = tripAction(t, e, h.Start, trip.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var started models.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.Equal(t, models.TripInProgress, started.Status)
	require.NotNil(t, started.DepartedAt)

	// starting twice is illegal
	rec = tripAction(t, e, h.Start, trip.ID)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = tripAction(t, e, h.Complete, trip.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed models.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	require.Equal(t, models.TripCompleted, completed.Status)
	require.NotNil(t, completed.ArrivedAt)

	// completed is terminal
	rec = tripAction(t, e, h.Cancel, trip.ID)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTripPatchReassignsWhileScheduled(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	spare := models.Driver{Name: "S. Orlov", LicenseNo: "CD 654321", Status: "active"}
	require.NoError(t, db.Create(&spare).Error)

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, CargoVolumeL: 9000, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	c, rec := postJSON(t, e, "/api/v1/trips/1", map[string]interface{}{
		"driver_id":      spare.ID,
		"cargo_volume_l": 11000.0,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(trip.ID))
	require.NoError(t, h.Patch(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, spare.ID, updated.DriverID)
	require.Equal(t, v.ID, updated.VehicleID)
	require.Equal(t, 11000.0, updated.CargoVolumeL)
}

func TestTripPatchUnknownReference(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	c, rec := postJSON(t, e, "/api/v1/trips/1", map[string]interface{}{"vehicle_id": 999})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(trip.ID))
	require.NoError(t, h.Patch(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTripPatchRejectedAfterDeparture(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	rec := tripAction(t, e, h.Start, trip.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec := postJSON(t, e, "/api/v1/trips/1", map[string]interface{}{"cargo_volume_l": 5000.0})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(trip.ID))
	require.NoError(t, h.Patch(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTripPatchCargoExceedsCapacity(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, CargoVolumeL: 9000, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	c, rec := postJSON(t, e, "/api/v1/trips/1", map[string]interface{}{"cargo_volume_l": 20000.0})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(trip.ID))
	require.NoError(t, h.Patch(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTripDeleteScheduled(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/trips/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(trip.ID))
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	err := db.First(&models.Trip{}, trip.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTripDeleteDepartedRefused(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	rec := tripAction(t, e, h.Start, trip.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/trips/1", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(trip.ID))
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	// the record stays put
	require.NoError(t, db.First(&models.Trip{}, trip.ID).Error)
}

func TestTripCancelFromScheduled(t *testing.T) {
	h, db := newTripHandler(t)
	v, d, r := seedFleet(t, db)
	e := echo.New()

	trip := models.Trip{VehicleID: v.ID, DriverID: d.ID, RouteID: r.ID, Status: models.TripScheduled}
	require.NoError(t, db.Create(&trip).Error)

	rec := tripAction(t, e, h.Cancel, trip.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled models.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	require.Equal(t, models.TripCancelled, cancelled.Status)
}
