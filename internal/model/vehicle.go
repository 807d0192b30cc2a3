package model

import "time"

// VehicleStatus is the (vehicle_id, status) pair read back after Txn2.
type VehicleStatus struct {
	VehicleID int64  `json:"vehicle_id"`
	Status    string `json:"status"`
}

// LatestLocation is a row of the v_vehicle_latest_location view: the most
// recent position recorded for a vehicle, tagged with the zone it fell in.
type LatestLocation struct {
	VehicleID  int64     `json:"vehicle_id"`
	ZoneID     int64     `json:"zone_id"`
	ZoneName   string    `json:"zone_name"`
	ZoneType   string    `json:"zone_type"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}
