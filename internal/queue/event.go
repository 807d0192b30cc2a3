// Package queue defines the audit messages exchanged over RabbitMQ and the
// consumer that persists them.
package queue

// AuditQueueName is the durable queue audit events are published to.
const AuditQueueName = "carshare.audit"

// Event kinds.
const (
	KindReservationCreated = "reservation.created"
	KindTicketClosed       = "maintenance_ticket.closed"
	KindReservationDeleted = "reservation.deleted"
)

// AuditEvent is published after a console transaction commits.  Fields that
// do not apply to a kind are left zero and omitted.
type AuditEvent struct {
	Kind            string `json:"kind"`
	ReservationID   int64  `json:"reservation_id,omitempty"`
	CustomerID      int64  `json:"customer_id,omitempty"`
	VehicleID       int64  `json:"vehicle_id"`
	TicketNo        int64  `json:"ticket_no,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	RowsAffected    int64  `json:"rows_affected"`
	VehicleStatus   string `json:"vehicle_status,omitempty"`
	TriggerObserved bool   `json:"trigger_observed,omitempty"`
	VerifiedGone    bool   `json:"verified_gone,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}
