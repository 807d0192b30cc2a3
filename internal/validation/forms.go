package validation

import (
	"github.com/iliyamo/carshare-console/internal/clock"
	"github.com/iliyamo/carshare-console/internal/model"
)

// DefaultZoneType is used when a form carries no zone type.
const DefaultZoneType = "SERVICE_AREA"

const (
	defaultReservationStatus = "confirmed"
	defaultChannel           = "app"
)

// Values is the read side of url.Values.
type Values interface {
	Get(key string) string
}

// Txn2Form is a validated close-ticket submission.
type Txn2Form struct {
	VehicleID int64
	TicketNo  int64
	ClosedAt  string
}

// ValidateTxn1Form validates a create-reservation submission.  Fields are
// checked in a fixed order and the first failure is returned.  The zone
// type is returned even on failure so the page can be re-rendered with it.
func ValidateTxn1Form(data Values) (model.ReservationInput, string, error) {
	zoneType := StringOr(data.Get("zone_type"), DefaultZoneType)

	var (
		in  model.ReservationInput
		err error
	)
	if in.CustomerID, err = PositiveInt(data.Get("customer_id"), "Customer ID"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	if in.VehicleID, err = PositiveInt(data.Get("vehicle_id"), "Vehicle ID"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	if in.StartTime, err = Datetime(data.Get("start_time"), "Start time"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	if in.PlacedTime, err = Datetime(data.Get("placed_time"), "Placed time"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	if in.EndTime, err = OptionalDatetime(data.Get("end_time"), "End time"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	if in.AssignedAt, err = OptionalDatetime(data.Get("assigned_at"), "Assigned at"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	if in.PickupOdometer, err = OptionalNonNegativeInt(data.Get("pickup_odometer"), "Pickup odometer"); err != nil {
		return model.ReservationInput{}, zoneType, err
	}
	in.Status = StringOr(data.Get("status"), defaultReservationStatus)
	in.Channel = StringOr(data.Get("channel"), defaultChannel)
	in.PromoCode = OptionalString(data.Get("promo_code"))
	in.PickupCondition = OptionalString(data.Get("pickup_condition"))
	return in, zoneType, nil
}

// ValidateTxn2Form validates a close-ticket submission.  A missing
// closed_at defaults to the clock's current time.
func ValidateTxn2Form(data Values, clk clock.Clock) (Txn2Form, error) {
	var (
		f   Txn2Form
		err error
	)
	if f.VehicleID, err = PositiveInt(data.Get("vehicle_id"), "Vehicle ID"); err != nil {
		return Txn2Form{}, err
	}
	if f.TicketNo, err = PositiveInt(data.Get("ticket_no"), "Ticket number"); err != nil {
		return Txn2Form{}, err
	}
	closedAt, err := OptionalDatetime(data.Get("closed_at"), "Closed at")
	if err != nil {
		return Txn2Form{}, err
	}
	if closedAt != nil {
		f.ClosedAt = *closedAt
	} else {
		f.ClosedAt = clk.Now().Format(model.DateTimeLayout)
	}
	return f, nil
}

// ValidateTxn3Form validates a delete-reservation submission.
func ValidateTxn3Form(data Values) (model.ReservationKey, error) {
	var (
		k   model.ReservationKey
		err error
	)
	if k.CustomerID, err = PositiveInt(data.Get("customer_id"), "Customer ID"); err != nil {
		return model.ReservationKey{}, err
	}
	if k.VehicleID, err = PositiveInt(data.Get("vehicle_id"), "Vehicle ID"); err != nil {
		return model.ReservationKey{}, err
	}
	if k.StartTime, err = Datetime(data.Get("start_time"), "Start time"); err != nil {
		return model.ReservationKey{}, err
	}
	k.Status = StringOr(data.Get("status"), defaultReservationStatus)
	return k, nil
}
