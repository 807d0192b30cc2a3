package model

// Txn1Result is the proof of a created reservation: the view snapshot taken
// in the same transaction right before the insert, the generated id and
// the row as re-read after commit.
type Txn1Result struct {
	ReservationID  int64            `json:"reservation_id"`
	Latest         []LatestLocation `json:"latest"`
	InsertedRecord *Reservation     `json:"inserted_record"`
}

// TriggerObservation records that, after closing a ticket, the vehicle was
// seen in the "available" state.  It is inferred from end state only; the
// service cannot tell whether the trigger or something else set it.
type TriggerObservation struct {
	ObservedStatus string `json:"observed_status"`
	Note           string `json:"note"`
}

// Txn2Result is the proof of a closed maintenance ticket.
type Txn2Result struct {
	MaintenanceRowsAffected int64               `json:"maintenance_rows_affected"`
	VehicleStatusAfter      *VehicleStatus      `json:"vehicle_status_after"`
	MaintenanceTicketAfter  *MaintenanceTicket  `json:"maintenance_ticket_after"`
	Trigger                 *TriggerObservation `json:"trigger,omitempty"`
}

// TriggerNote returns the observation note, or "" when none was made.
func (r Txn2Result) TriggerNote() string {
	if r.Trigger == nil {
		return ""
	}
	return r.Trigger.Note
}

// Txn3Result is the proof of a deleted reservation.
type Txn3Result struct {
	DeletedRows   int64        `json:"deleted_rows"`
	DeletedRecord *Reservation `json:"deleted_record"`
	VerifiedGone  bool         `json:"verified_gone"`
}
