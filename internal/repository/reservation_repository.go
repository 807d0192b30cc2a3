package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/model"
)

const reservationColumns = `reservation_id, customer_id, vehicle_id, start_time, end_time, status,
       placed_time, channel, promo_code, assigned_at, pickup_condition, pickup_odometer`

const (
	insertReservationSQL = `INSERT INTO Reservation (
          customer_id, vehicle_id, start_time, end_time, status,
          placed_time, channel, promo_code, assigned_at, pickup_condition, pickup_odometer
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	reservationByIDSQL = `SELECT ` + reservationColumns + ` FROM Reservation WHERE reservation_id = ?`

	reservationByKeysSQL = `SELECT ` + reservationColumns + ` FROM Reservation
         WHERE customer_id = ? AND vehicle_id = ? AND start_time = ? AND status = ?
         ORDER BY reservation_id LIMIT 1`

	// lock every row the delete will touch so the proof row cannot change
	// between the read and the delete
	reservationByKeysForUpdateSQL = `SELECT ` + reservationColumns + ` FROM Reservation
         WHERE customer_id = ? AND vehicle_id = ? AND start_time = ? AND status = ?
         ORDER BY reservation_id FOR UPDATE`

	reservationExistsSQL = `SELECT EXISTS (SELECT 1 FROM Reservation
         WHERE customer_id = ? AND vehicle_id = ? AND start_time = ? AND status = ?)`

	deleteReservationSQL = `DELETE FROM Reservation
         WHERE customer_id = ? AND vehicle_id = ? AND start_time = ? AND status = ?`

	recentReservationsSQL = `SELECT ` + reservationColumns + ` FROM Reservation ORDER BY reservation_id DESC LIMIT ?`
)

func scanReservation(row scanner) (*model.Reservation, error) {
	var (
		res             model.Reservation
		endTime         sql.NullTime
		promoCode       sql.NullString
		assignedAt      sql.NullTime
		pickupCondition sql.NullString
		pickupOdometer  sql.NullInt64
	)
	err := row.Scan(
		&res.ReservationID, &res.CustomerID, &res.VehicleID, &res.StartTime, &endTime, &res.Status,
		&res.PlacedTime, &res.Channel, &promoCode, &assignedAt, &pickupCondition, &pickupOdometer,
	)
	if err != nil {
		return nil, err
	}
	res.EndTime = nullTimePtr(endTime)
	res.PromoCode = nullStringPtr(promoCode)
	res.AssignedAt = nullTimePtr(assignedAt)
	res.PickupCondition = nullStringPtr(pickupCondition)
	res.PickupOdometer = nullInt64Ptr(pickupOdometer)
	return &res, nil
}

func keyArgs(k model.ReservationKey) []any {
	return []any{k.CustomerID, k.VehicleID, k.StartTime, k.Status}
}

// RunTxn1ViewAndInsert reads the latest-location view for zoneType and
// inserts the reservation in one transaction, commits, then re-reads the
// new row by its generated id on the same connection.  The snapshot is
// therefore the state immediately before the insert.
func (r *CarSharingRepo) RunTxn1ViewAndInsert(ctx context.Context, zoneType string, in model.ReservationInput) (model.Txn1Result, error) {
	var result model.Txn1Result
	err := r.db.Do(ctx, func(s *database.Session) error {
		latest, err := queryLatestLocations(ctx, s, zoneType)
		if err != nil {
			return err
		}
		res, err := s.ExecContext(ctx, insertReservationSQL,
			in.CustomerID, in.VehicleID, in.StartTime, nullable(in.EndTime), in.Status,
			in.PlacedTime, in.Channel, nullable(in.PromoCode), nullable(in.AssignedAt),
			nullable(in.PickupCondition), nullable(in.PickupOdometer),
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := s.Commit(); err != nil {
			return err
		}
		result = model.Txn1Result{ReservationID: id, Latest: latest}

		// The insert is durable from here on; a failed proof read must not
		// turn a committed reservation into a reported failure.
		inserted, err := scanReservation(s.QueryRowContext(ctx, reservationByIDSQL, id))
		if err != nil {
			r.log.Warning("txn1: re-read of inserted reservation failed",
				logger.Int64("reservation_id", id), logger.Error(err))
			return nil
		}
		result.InsertedRecord = inserted
		return nil
	})
	if err != nil {
		return model.Txn1Result{}, wrap("txn1 view and insert", err)
	}
	return result, nil
}

// GetReservationByKeys returns the first reservation matching the
// composite key, or nil.
func (r *CarSharingRepo) GetReservationByKeys(ctx context.Context, key model.ReservationKey) (*model.Reservation, error) {
	var res *model.Reservation
	err := r.db.Do(ctx, func(s *database.Session) error {
		var err error
		res, err = scanReservation(s.QueryRowContext(ctx, reservationByKeysSQL, keyArgs(key)...))
		if isNoRows(err) {
			res = nil
			return nil
		}
		return err
	})
	return res, wrap("get reservation by keys", err)
}

// ReservationExists reports whether any reservation matches the key.
func (r *CarSharingRepo) ReservationExists(ctx context.Context, key model.ReservationKey) (bool, error) {
	var exists bool
	err := r.db.Do(ctx, func(s *database.Session) error {
		return s.QueryRowContext(ctx, reservationExistsSQL, keyArgs(key)...).Scan(&exists)
	})
	if err != nil {
		return false, wrap("reservation exists", err)
	}
	return exists, nil
}

// DeleteReservation deletes every reservation matching the key and returns
// the number removed together with the first matching row as it was just
// before the delete (nil when nothing matched).  The proof read locks the
// rows and runs in the same transaction as the delete.
func (r *CarSharingRepo) DeleteReservation(ctx context.Context, key model.ReservationKey) (int64, *model.Reservation, error) {
	var (
		affected int64
		deleted  *model.Reservation
	)
	err := r.db.Do(ctx, func(s *database.Session) error {
		rows, err := s.QueryContext(ctx, reservationByKeysForUpdateSQL, keyArgs(key)...)
		if err != nil {
			return err
		}
		for rows.Next() {
			res, err := scanReservation(rows)
			if err != nil {
				rows.Close()
				return err
			}
			if deleted == nil {
				deleted = res
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		result, err := s.ExecContext(ctx, deleteReservationSQL, keyArgs(key)...)
		if err != nil {
			return err
		}
		if affected, err = result.RowsAffected(); err != nil {
			return err
		}
		return s.Commit()
	})
	if err != nil {
		return 0, nil, wrap("delete reservation", err)
	}
	return affected, deleted, nil
}

// SelectRecentReservations lists the newest reservations first.
func (r *CarSharingRepo) SelectRecentReservations(ctx context.Context, limit int) ([]model.Reservation, error) {
	out := []model.Reservation{}
	err := r.db.Do(ctx, func(s *database.Session) error {
		rows, err := s.QueryContext(ctx, recentReservationsSQL, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			res, err := scanReservation(rows)
			if err != nil {
				return err
			}
			out = append(out, *res)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrap("select recent reservations", err)
	}
	return out, nil
}
