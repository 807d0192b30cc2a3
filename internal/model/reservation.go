package model

import "time"

// DateTimeLayout is the normalized datetime form the validation layer
// produces and the Reservation columns store.
const DateTimeLayout = "2006-01-02 15:04:05"

// ReservationInput is a validated Txn1 submission.  Datetime fields hold
// normalized "YYYY-MM-DD HH:MM:SS" strings; optional fields are nil when
// the form left them empty.
type ReservationInput struct {
	CustomerID      int64   `json:"customer_id" validate:"gt=0"`
	VehicleID       int64   `json:"vehicle_id" validate:"gt=0"`
	StartTime       string  `json:"start_time" validate:"required,datetime=2006-01-02 15:04:05"`
	EndTime         *string `json:"end_time,omitempty" validate:"omitempty,datetime=2006-01-02 15:04:05"`
	Status          string  `json:"status" validate:"required"`
	PlacedTime      string  `json:"placed_time" validate:"required,datetime=2006-01-02 15:04:05"`
	Channel         string  `json:"channel" validate:"required"`
	PromoCode       *string `json:"promo_code,omitempty"`
	AssignedAt      *string `json:"assigned_at,omitempty" validate:"omitempty,datetime=2006-01-02 15:04:05"`
	PickupCondition *string `json:"pickup_condition,omitempty"`
	PickupOdometer  *int64  `json:"pickup_odometer,omitempty" validate:"omitempty,gte=0,lte=4294967295"`
}

// Reservation mirrors a row of the Reservation table.
type Reservation struct {
	ReservationID   int64      `json:"reservation_id"`   // Reservation.reservation_id
	CustomerID      int64      `json:"customer_id"`      // Reservation.customer_id
	VehicleID       int64      `json:"vehicle_id"`       // Reservation.vehicle_id
	StartTime       time.Time  `json:"start_time"`       // Reservation.start_time
	EndTime         *time.Time `json:"end_time"`         // nullable
	Status          string     `json:"status"`           // Reservation.status
	PlacedTime      time.Time  `json:"placed_time"`      // Reservation.placed_time
	Channel         string     `json:"channel"`          // Reservation.channel
	PromoCode       *string    `json:"promo_code"`       // nullable
	AssignedAt      *time.Time `json:"assigned_at"`      // nullable
	PickupCondition *string    `json:"pickup_condition"` // nullable
	PickupOdometer  *int64     `json:"pickup_odometer"`  // nullable
}

// Matches reports whether the stored row carries exactly the values of in.
// Times are compared in their normalized text form since the input never
// carried a zone.
func (r Reservation) Matches(in ReservationInput) bool {
	return r.CustomerID == in.CustomerID &&
		r.VehicleID == in.VehicleID &&
		r.StartTime.Format(DateTimeLayout) == in.StartTime &&
		sameTime(r.EndTime, in.EndTime) &&
		r.Status == in.Status &&
		r.PlacedTime.Format(DateTimeLayout) == in.PlacedTime &&
		r.Channel == in.Channel &&
		sameString(r.PromoCode, in.PromoCode) &&
		sameTime(r.AssignedAt, in.AssignedAt) &&
		sameString(r.PickupCondition, in.PickupCondition) &&
		sameInt(r.PickupOdometer, in.PickupOdometer)
}

// ReservationKey is the composite business key used to find and delete a
// reservation from the dashboard.
type ReservationKey struct {
	CustomerID int64  `json:"customer_id"`
	VehicleID  int64  `json:"vehicle_id"`
	StartTime  string `json:"start_time"`
	Status     string `json:"status"`
}

func sameTime(stored *time.Time, in *string) bool {
	if stored == nil || in == nil {
		return stored == nil && in == nil
	}
	return stored.Format(DateTimeLayout) == *in
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
