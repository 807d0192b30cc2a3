package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/model"
)

const (
	closeTicketSQL = `UPDATE MaintenanceTicket
         SET status = ?, closed_at = ?
         WHERE vehicle_id = ? AND ticket_no = ?`

	ticketByKeySQL = `SELECT vehicle_id, ticket_no, status, description, opened_at, closed_at
         FROM MaintenanceTicket
         WHERE vehicle_id = ? AND ticket_no = ?`

	vehicleStatusSQL = `SELECT vehicle_id, status FROM Vehicle WHERE vehicle_id = ?`
)

// CloseMaintenanceTicket sets status and closed_at on the ticket keyed by
// (vehicleID, ticketNo), commits, and returns the number of rows matched:
// 0 when no such ticket exists, otherwise 1.  An empty status means
// model.TicketStatusClosed.  Any database-side trigger on the ticket table
// fires inside this transaction.
func (r *CarSharingRepo) CloseMaintenanceTicket(ctx context.Context, vehicleID, ticketNo int64, closedAt, status string) (int64, error) {
	if status == "" {
		status = model.TicketStatusClosed
	}
	var affected int64
	err := r.db.Do(ctx, func(s *database.Session) error {
		res, err := s.ExecContext(ctx, closeTicketSQL, status, closedAt, vehicleID, ticketNo)
		if err != nil {
			return err
		}
		if affected, err = res.RowsAffected(); err != nil {
			return err
		}
		return s.Commit()
	})
	if err != nil {
		return 0, wrap("close maintenance ticket", err)
	}
	return affected, nil
}

// GetMaintenanceTicket returns the full ticket row, or nil.
func (r *CarSharingRepo) GetMaintenanceTicket(ctx context.Context, vehicleID, ticketNo int64) (*model.MaintenanceTicket, error) {
	var out *model.MaintenanceTicket
	err := r.db.Do(ctx, func(s *database.Session) error {
		var (
			t           model.MaintenanceTicket
			status      sql.NullString
			description sql.NullString
			openedAt    sql.NullTime
			closedAt    sql.NullTime
		)
		err := s.QueryRowContext(ctx, ticketByKeySQL, vehicleID, ticketNo).Scan(
			&t.VehicleID, &t.TicketNo, &status, &description, &openedAt, &closedAt,
		)
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return err
		}
		t.Status = nullStringPtr(status)
		t.Description = nullStringPtr(description)
		t.OpenedAt = nullTimePtr(openedAt)
		t.ClosedAt = nullTimePtr(closedAt)
		out = &t
		return nil
	})
	if err != nil {
		return nil, wrap("get maintenance ticket", err)
	}
	return out, nil
}

// GetVehicleStatus returns the vehicle's id and current status, or nil.
func (r *CarSharingRepo) GetVehicleStatus(ctx context.Context, vehicleID int64) (*model.VehicleStatus, error) {
	var out *model.VehicleStatus
	err := r.db.Do(ctx, func(s *database.Session) error {
		var v model.VehicleStatus
		err := s.QueryRowContext(ctx, vehicleStatusSQL, vehicleID).Scan(&v.VehicleID, &v.Status)
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &v
		return nil
	})
	if err != nil {
		return nil, wrap("get vehicle status", err)
	}
	return out, nil
}
