package model

import "time"

// OpenTicket is a dropdown entry for Txn2.
type OpenTicket struct {
	VehicleID int64 `json:"vehicle_id"`
	TicketNo  int64 `json:"ticket_no"`
}

// ReservationOption is a dropdown entry for Txn3; its fields are exactly
// the delete key.
type ReservationOption struct {
	CustomerID int64     `json:"customer_id"`
	VehicleID  int64     `json:"vehicle_id"`
	StartTime  time.Time `json:"start_time"`
	Status     string    `json:"status"`
}

// Key converts the option to the key Txn3 deletes by.
func (o ReservationOption) Key() ReservationKey {
	return ReservationKey{
		CustomerID: o.CustomerID,
		VehicleID:  o.VehicleID,
		StartTime:  o.StartTime.Format(DateTimeLayout),
		Status:     o.Status,
	}
}

// CustomerOption is a dropdown entry for Txn1.
type CustomerOption struct {
	CustomerID int64 `json:"customer_id"`
}
