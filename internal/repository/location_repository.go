package repository

import (
	"context"

	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/model"
)

const (
	latestLocationsSQL = `SELECT vehicle_id, zone_id, zone_name, zone_type, latitude, longitude, recorded_at
         FROM v_vehicle_latest_location
         WHERE zone_type = ?
         ORDER BY vehicle_id`

	distinctZoneTypesSQL = `SELECT DISTINCT zone_type FROM v_vehicle_latest_location ORDER BY zone_type`
)

// SelectLatestLocationsByZoneType returns the latest known location of every
// vehicle currently in a zone of the given type, ordered by vehicle id.
func (r *CarSharingRepo) SelectLatestLocationsByZoneType(ctx context.Context, zoneType string) ([]model.LatestLocation, error) {
	var out []model.LatestLocation
	err := r.db.Do(ctx, func(s *database.Session) error {
		var err error
		out, err = queryLatestLocations(ctx, s, zoneType)
		return err
	})
	if err != nil {
		return nil, wrap("select latest locations", err)
	}
	return out, nil
}

// queryLatestLocations runs the view query on an already acquired session
// so Txn1 can take its snapshot inside its own transaction.
func queryLatestLocations(ctx context.Context, s *database.Session, zoneType string) ([]model.LatestLocation, error) {
	rows, err := s.QueryContext(ctx, latestLocationsSQL, zoneType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.LatestLocation{}
	for rows.Next() {
		var l model.LatestLocation
		if err := rows.Scan(&l.VehicleID, &l.ZoneID, &l.ZoneName, &l.ZoneType, &l.Latitude, &l.Longitude, &l.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDistinctZoneTypes lists the zone types present in the view.
func (r *CarSharingRepo) GetDistinctZoneTypes(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.Do(ctx, func(s *database.Session) error {
		rows, err := s.QueryContext(ctx, distinctZoneTypesSQL)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var zt string
			if err := rows.Scan(&zt); err != nil {
				return err
			}
			out = append(out, zt)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrap("get distinct zone types", err)
	}
	return out, nil
}
