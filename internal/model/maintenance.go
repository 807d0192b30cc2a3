package model

import "time"

// TicketStatusClosed is written by Txn2.
const TicketStatusClosed = "closed"

// MaintenanceTicket mirrors a row of the MaintenanceTicket table, keyed by
// (vehicle_id, ticket_no).
type MaintenanceTicket struct {
	VehicleID   int64      `json:"vehicle_id"`
	TicketNo    int64      `json:"ticket_no"`
	Status      *string    `json:"status"` // nullable; NULL counts as open
	Description *string    `json:"description"`
	OpenedAt    *time.Time `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at"`
}
