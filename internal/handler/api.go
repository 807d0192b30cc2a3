package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/iliyamo/carshare-console/internal/clock"
	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/service"
	"github.com/iliyamo/carshare-console/internal/validation"
)

// APIHandler exposes the same operations as the console as JSON.
type APIHandler struct {
	Tx              Transactions
	ZoneTypes       ZoneTypeLister
	Clock           clock.Clock
	Log             logger.ILogger
	DefaultZoneType string
}

// jsonValues lets a decoded JSON object go through the form validators.
// Numbers and booleans are accepted where the forms expect their text.
type jsonValues map[string]interface{}

func (v jsonValues) Get(key string) string {
	raw, ok := v[key]
	if !ok || raw == nil {
		return ""
	}
	return cast.ToString(raw)
}

// requestValues reads a JSON object body, or the form otherwise.
func requestValues(c echo.Context) (validation.Values, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		body := jsonValues{}
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return nil, &validation.FieldError{Field: "body", Message: "Request body must be a JSON object."}
		}
		return body, nil
	}
	return formValues(c)
}

func (h *APIHandler) zoneTypeOr(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v != "":
		return v
	case h.DefaultZoneType != "":
		return h.DefaultZoneType
	default:
		return validation.DefaultZoneType
	}
}

func (h *APIHandler) fail(c echo.Context, op string, err error) error {
	if msg, field, invalid := userMessage(err); invalid {
		body := echo.Map{"error": msg}
		if field != "" {
			body["field"] = field
		}
		return c.JSON(http.StatusUnprocessableEntity, body)
	}
	h.Log.Error("api: "+op+" failed", logger.String("op", errorOp(err)), logger.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": GenericDBMessage})
}

// Locations handles GET /api/v1/locations?zone_type=.
func (h *APIHandler) Locations(c echo.Context) error {
	zoneType := h.zoneTypeOr(c.QueryParam("zone_type"))
	items, err := h.Tx.ListLatestLocations(c.Request().Context(), zoneType)
	if err != nil {
		return h.fail(c, "locations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"zone_type": zoneType, "items": items})
}

// ZoneTypeList handles GET /api/v1/zone-types.
func (h *APIHandler) ZoneTypeList(c echo.Context) error {
	items, err := h.ZoneTypes.GetDistinctZoneTypes(c.Request().Context())
	if err != nil {
		return h.fail(c, "zone types", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateReservation handles POST /api/v1/reservations.
func (h *APIHandler) CreateReservation(c echo.Context) error {
	vals, err := requestValues(c)
	if err != nil {
		return h.fail(c, "create reservation", err)
	}
	in, zoneType, err := validation.ValidateTxn1Form(vals)
	if err != nil {
		return h.fail(c, "create reservation", err)
	}
	if validation.OptionalString(vals.Get("zone_type")) == nil {
		zoneType = h.zoneTypeOr("")
	}
	res, err := h.Tx.RunTxn1(c.Request().Context(), zoneType, in)
	if err != nil {
		return h.fail(c, "create reservation", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"result": res})
}

// CloseTicket handles POST /api/v1/maintenance-tickets/close.
func (h *APIHandler) CloseTicket(c echo.Context) error {
	vals, err := requestValues(c)
	if err != nil {
		return h.fail(c, "close ticket", err)
	}
	f, err := validation.ValidateTxn2Form(vals, h.Clock)
	if err != nil {
		return h.fail(c, "close ticket", err)
	}
	res, err := h.Tx.RunTxn2(c.Request().Context(), f.VehicleID, f.TicketNo, f.ClosedAt)
	if err != nil {
		return h.fail(c, "close ticket", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": res, "trigger_note": res.TriggerNote()})
}

// GetReservation handles GET /api/v1/reservations.  The key comes from the
// query string, as for DeleteReservation.
func (h *APIHandler) GetReservation(c echo.Context) error {
	key, err := validation.ValidateTxn3Form(c.QueryParams())
	if err != nil {
		return h.fail(c, "get reservation", err)
	}
	res, err := h.Tx.FindReservation(c.Request().Context(), key)
	if errors.Is(err, service.ErrReservationNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No reservation matches that key."})
	}
	if err != nil {
		return h.fail(c, "get reservation", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": res})
}

// DeleteReservation handles DELETE /api/v1/reservations.  The key comes
// from the query string.
func (h *APIHandler) DeleteReservation(c echo.Context) error {
	key, err := validation.ValidateTxn3Form(c.QueryParams())
	if err != nil {
		return h.fail(c, "delete reservation", err)
	}
	res, err := h.Tx.RunTxn3(c.Request().Context(), key)
	if err != nil {
		return h.fail(c, "delete reservation", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": res})
}
