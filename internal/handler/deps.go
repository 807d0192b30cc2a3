// Package handler exposes the console pages, the JSON API and the health
// probes.  Handlers validate input, call the transaction service and
// translate its errors: validation messages are shown verbatim, database
// failures are logged in full and replaced by a generic message.
package handler

import (
	"context"
	"errors"

	"github.com/iliyamo/carshare-console/internal/model"
	"github.com/iliyamo/carshare-console/internal/repository"
	"github.com/iliyamo/carshare-console/internal/service"
	"github.com/iliyamo/carshare-console/internal/validation"
)

// GenericDBMessage is all a client ever learns about a database failure.
const GenericDBMessage = "A database error occurred. Please try again later."

// InvalidInputMessage is shown when input passed the form validators but
// not the service's own checks.
const InvalidInputMessage = "The submitted reservation is invalid. Please check the fields and try again."

// Transactions is implemented by *service.TransactionsService.
type Transactions interface {
	ListLatestLocations(ctx context.Context, zoneType string) ([]model.LatestLocation, error)
	RunTxn1(ctx context.Context, zoneType string, in model.ReservationInput) (model.Txn1Result, error)
	RunTxn2(ctx context.Context, vehicleID, ticketNo int64, closedAt string) (model.Txn2Result, error)
	RunTxn3(ctx context.Context, key model.ReservationKey) (model.Txn3Result, error)
	FindReservation(ctx context.Context, key model.ReservationKey) (model.Reservation, error)
}

// DashboardLoader is implemented by *service.DashboardService.
type DashboardLoader interface {
	Load(ctx context.Context, zoneType string) service.Dashboard
}

// ProofKeeper is implemented by *service.ProofStore.
type ProofKeeper interface {
	Put(ctx context.Context, p service.Proof) (string, error)
	Take(ctx context.Context, token string) (service.Proof, error)
}

// ZoneTypeLister is implemented by *repository.CarSharingRepo.
type ZoneTypeLister interface {
	GetDistinctZoneTypes(ctx context.Context) ([]string, error)
}

// Pinger is implemented by *repository.CarSharingRepo.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// userMessage returns the text safe to show for err, the offending field
// when known, and whether err was a validation failure.
func userMessage(err error) (msg, field string, invalid bool) {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return fe.Message, fe.Field, true
	}
	if errors.Is(err, service.ErrInvalidInput) {
		return InvalidInputMessage, "", true
	}
	return GenericDBMessage, "", false
}

// errorOp names the failing repository operation for logs.
func errorOp(err error) string {
	var dbErr *repository.DBError
	if errors.As(err, &dbErr) {
		return dbErr.Op
	}
	return "unknown"
}
