package repository

import (
	"context"

	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/model"
)

// Limits for the dashboard pickers.
const (
	OpenTicketsLimit         = 200
	ReservationDropdownLimit = 200
	CustomerDropdownLimit    = 500
)

const (
	openTicketsSQL = `SELECT vehicle_id, ticket_no FROM MaintenanceTicket
         WHERE status <> ? OR status IS NULL
         ORDER BY vehicle_id, ticket_no
         LIMIT ?`

	reservationOptionsSQL = `SELECT customer_id, vehicle_id, start_time, status
         FROM Reservation ORDER BY start_time DESC LIMIT ?`

	customerOptionsSQL = `SELECT customer_id FROM Customer ORDER BY customer_id LIMIT ?`
)

// GetOpenMaintenanceTickets lists tickets that are not closed yet.
func (r *CarSharingRepo) GetOpenMaintenanceTickets(ctx context.Context) ([]model.OpenTicket, error) {
	out := []model.OpenTicket{}
	err := r.db.Do(ctx, func(s *database.Session) error {
		rows, err := s.QueryContext(ctx, openTicketsSQL, model.TicketStatusClosed, OpenTicketsLimit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t model.OpenTicket
			if err := rows.Scan(&t.VehicleID, &t.TicketNo); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrap("get open maintenance tickets", err)
	}
	return out, nil
}

// GetReservationsForDropdown lists recent reservations by start time,
// newest first.  A non-positive limit means ReservationDropdownLimit.
func (r *CarSharingRepo) GetReservationsForDropdown(ctx context.Context, limit int) ([]model.ReservationOption, error) {
	if limit <= 0 {
		limit = ReservationDropdownLimit
	}
	out := []model.ReservationOption{}
	err := r.db.Do(ctx, func(s *database.Session) error {
		rows, err := s.QueryContext(ctx, reservationOptionsSQL, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var o model.ReservationOption
			if err := rows.Scan(&o.CustomerID, &o.VehicleID, &o.StartTime, &o.Status); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrap("get reservations for dropdown", err)
	}
	return out, nil
}

// GetCustomersForDropdown lists customer ids.  Deployments without a
// Customer table get an error here, which the dashboard tolerates.
func (r *CarSharingRepo) GetCustomersForDropdown(ctx context.Context) ([]model.CustomerOption, error) {
	out := []model.CustomerOption{}
	err := r.db.Do(ctx, func(s *database.Session) error {
		rows, err := s.QueryContext(ctx, customerOptionsSQL, CustomerDropdownLimit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c model.CustomerOption
			if err := rows.Scan(&c.CustomerID); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrap("get customers for dropdown", err)
	}
	return out, nil
}
