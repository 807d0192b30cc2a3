package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carshare-console/internal/clock"
	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/service"
	"github.com/iliyamo/carshare-console/internal/validation"
)

// IndexTemplate is the name the dashboard template is registered under.
const IndexTemplate = "index.html"

// Page is the data the dashboard template renders.
type Page struct {
	service.Dashboard
	Proof  *service.Proof
	Notice string
	Error  string
}

// ConsoleHandler serves the dashboard and the three transaction forms.
type ConsoleHandler struct {
	Tx              Transactions
	Dashboard       DashboardLoader
	Proofs          ProofKeeper // nil renders proofs inline instead of redirecting
	Clock           clock.Clock
	Log             logger.ILogger
	DefaultZoneType string
}

func (h *ConsoleHandler) zoneTypeOr(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	if h.DefaultZoneType != "" {
		return h.DefaultZoneType
	}
	return validation.DefaultZoneType
}

func (h *ConsoleHandler) render(c echo.Context, status int, zoneType string, page Page) error {
	page.Dashboard = h.Dashboard.Load(c.Request().Context(), zoneType)
	return c.Render(status, IndexTemplate, page)
}

// Index renders GET /.  A proof token in the query is redeemed once.
func (h *ConsoleHandler) Index(c echo.Context) error {
	zoneType := h.zoneTypeOr(c.QueryParam("zone_type"))
	var page Page

	if token := c.QueryParam("proof"); token != "" && h.Proofs != nil {
		p, err := h.Proofs.Take(c.Request().Context(), token)
		switch {
		case err == nil:
			page.Proof = &p
		case errors.Is(err, service.ErrProofNotFound):
			page.Notice = "That result has already been shown or has expired."
		default:
			h.Log.Warning("proof lookup failed", logger.Error(err))
		}
	}
	return h.render(c, http.StatusOK, zoneType, page)
}

// Txn1 handles POST /txn1: view snapshot and reservation insert.
func (h *ConsoleHandler) Txn1(c echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return h.fail(c, "txn1", h.zoneTypeOr(""), err)
	}
	in, zoneType, err := validation.ValidateTxn1Form(form)
	if validation.OptionalString(form.Get("zone_type")) == nil {
		zoneType = h.zoneTypeOr("")
	}
	if err != nil {
		return h.fail(c, "txn1", zoneType, err)
	}
	res, err := h.Tx.RunTxn1(c.Request().Context(), zoneType, in)
	if err != nil {
		return h.fail(c, "txn1", zoneType, err)
	}
	return h.succeed(c, zoneType, service.Proof{
		Kind:    "txn1",
		Message: fmt.Sprintf("Txn1 OK: inserted Reservation (reservation_id=%d).", res.ReservationID),
		Txn1:    &res,
	})
}

// Txn2 handles POST /txn2: close a maintenance ticket.
func (h *ConsoleHandler) Txn2(c echo.Context) error {
	zoneType := h.zoneTypeOr("")
	form, err := formValues(c)
	if err != nil {
		return h.fail(c, "txn2", zoneType, err)
	}
	f, err := validation.ValidateTxn2Form(form, h.Clock)
	if err != nil {
		return h.fail(c, "txn2", zoneType, err)
	}
	res, err := h.Tx.RunTxn2(c.Request().Context(), f.VehicleID, f.TicketNo, f.ClosedAt)
	if err != nil {
		return h.fail(c, "txn2", zoneType, err)
	}

	msg := "Txn2: no matching maintenance ticket was updated."
	if res.MaintenanceRowsAffected > 0 {
		status := "unknown"
		if res.VehicleStatusAfter != nil {
			status = res.VehicleStatusAfter.Status
		}
		msg = fmt.Sprintf("Txn2 OK: updated MaintenanceTicket rows=%d. Vehicle status now: %s",
			res.MaintenanceRowsAffected, status)
	}
	return h.succeed(c, zoneType, service.Proof{Kind: "txn2", Message: msg, Txn2: &res})
}

// Txn3 handles POST /txn3: delete a reservation by its business key.
func (h *ConsoleHandler) Txn3(c echo.Context) error {
	zoneType := h.zoneTypeOr("")
	form, err := formValues(c)
	if err != nil {
		return h.fail(c, "txn3", zoneType, err)
	}
	key, err := validation.ValidateTxn3Form(form)
	if err != nil {
		return h.fail(c, "txn3", zoneType, err)
	}
	res, err := h.Tx.RunTxn3(c.Request().Context(), key)
	if err != nil {
		return h.fail(c, "txn3", zoneType, err)
	}

	msg := "Txn3: no matching reservation found."
	if res.DeletedRows > 0 {
		msg = fmt.Sprintf("Txn3 OK: deleted rows=%d.", res.DeletedRows)
	}
	return h.succeed(c, zoneType, service.Proof{Kind: "txn3", Message: msg, Txn3: &res})
}

// succeed hands the proof to GET / through the proof store, or renders it
// directly when there is no store or storing fails.
func (h *ConsoleHandler) succeed(c echo.Context, zoneType string, p service.Proof) error {
	if h.Proofs != nil {
		token, err := h.Proofs.Put(c.Request().Context(), p)
		if err == nil {
			q := url.Values{"zone_type": {zoneType}, "proof": {token}}
			return c.Redirect(http.StatusSeeOther, "/?"+q.Encode())
		}
		h.Log.Warning("proof store unavailable, rendering inline", logger.String("kind", p.Kind), logger.Error(err))
	}
	return h.render(c, http.StatusOK, zoneType, Page{Proof: &p})
}

func (h *ConsoleHandler) fail(c echo.Context, kind, zoneType string, err error) error {
	msg, _, invalid := userMessage(err)
	if invalid {
		return h.render(c, http.StatusUnprocessableEntity, zoneType, Page{Error: msg})
	}
	h.Log.Error(kind+" failed", logger.String("op", errorOp(err)), logger.Error(err))
	return h.render(c, http.StatusInternalServerError, zoneType, Page{Error: msg})
}

func formValues(c echo.Context) (url.Values, error) {
	form, err := c.FormParams()
	if err != nil {
		return nil, &validation.FieldError{Field: "form", Message: "Malformed form submission."}
	}
	return form, nil
}
