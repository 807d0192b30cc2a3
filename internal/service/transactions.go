package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/carshare-console/internal/clock"
	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/model"
	"github.com/iliyamo/carshare-console/internal/queue"
)

// triggerNote is attached to Txn2 proofs when the vehicle is seen available.
const triggerNote = "Trigger executed: vehicle status set to 'available'."

// ErrInvalidInput is returned when a ReservationInput reaches the service
// without having gone through the form validators.
var ErrInvalidInput = errors.New("invalid reservation input")

// Repository is the subset of the data access layer the transactions use.
type Repository interface {
	SelectLatestLocationsByZoneType(ctx context.Context, zoneType string) ([]model.LatestLocation, error)
	RunTxn1ViewAndInsert(ctx context.Context, zoneType string, in model.ReservationInput) (model.Txn1Result, error)
	CloseMaintenanceTicket(ctx context.Context, vehicleID, ticketNo int64, closedAt, status string) (int64, error)
	GetVehicleStatus(ctx context.Context, vehicleID int64) (*model.VehicleStatus, error)
	GetMaintenanceTicket(ctx context.Context, vehicleID, ticketNo int64) (*model.MaintenanceTicket, error)
	DeleteReservation(ctx context.Context, key model.ReservationKey) (int64, *model.Reservation, error)
	ReservationExists(ctx context.Context, key model.ReservationKey) (bool, error)
	GetReservationByKeys(ctx context.Context, key model.ReservationKey) (*model.Reservation, error)
}

// ErrReservationNotFound is returned by FindReservation when no row has the
// key.
var ErrReservationNotFound = errors.New("reservation not found")

// EventPublisher delivers audit events.  Implementations may fail; the
// service logs and moves on.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

// TransactionsService turns repository calls into the three console
// transactions and assembles their proofs.
type TransactionsService struct {
	repo     Repository
	events   EventPublisher
	validate *validator.Validate
	clock    clock.Clock
	log      logger.ILogger
}

// NewTransactionsService wires the service.  events may be nil.
func NewTransactionsService(repo Repository, events EventPublisher, clk clock.Clock, log logger.ILogger) *TransactionsService {
	if repo == nil {
		panic("nil repository passed to NewTransactionsService")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TransactionsService{
		repo:     repo,
		events:   events,
		validate: validator.New(),
		clock:    clk,
		log:      log,
	}
}

// ListLatestLocations returns the latest-location view for a zone type.
func (s *TransactionsService) ListLatestLocations(ctx context.Context, zoneType string) ([]model.LatestLocation, error) {
	return s.repo.SelectLatestLocationsByZoneType(ctx, zoneType)
}

// RunTxn1 creates a reservation.  The repository does all of the work in a
// single transaction; the result is returned as is.
func (s *TransactionsService) RunTxn1(ctx context.Context, zoneType string, in model.ReservationInput) (model.Txn1Result, error) {
	if err := s.validate.Struct(in); err != nil {
		return model.Txn1Result{}, errors.Join(ErrInvalidInput, err)
	}
	res, err := s.repo.RunTxn1ViewAndInsert(ctx, zoneType, in)
	if err != nil {
		return model.Txn1Result{}, err
	}
	if rec := res.InsertedRecord; rec != nil && !rec.Matches(in) {
		s.log.Warning("txn1: stored reservation differs from submission",
			logger.Int64("reservation_id", res.ReservationID))
	}
	s.publish(ctx, queue.AuditEvent{
		Kind:          queue.KindReservationCreated,
		ReservationID: res.ReservationID,
		CustomerID:    in.CustomerID,
		VehicleID:     in.VehicleID,
		StartTime:     in.StartTime,
		RowsAffected:  1,
	})
	return res, nil
}

// RunTxn2 closes a maintenance ticket, then reads back the vehicle and the
// ticket as proof.  A vehicle found "available" afterwards is reported as
// a trigger observation.
func (s *TransactionsService) RunTxn2(ctx context.Context, vehicleID, ticketNo int64, closedAt string) (model.Txn2Result, error) {
	affected, err := s.repo.CloseMaintenanceTicket(ctx, vehicleID, ticketNo, closedAt, model.TicketStatusClosed)
	if err != nil {
		return model.Txn2Result{}, err
	}
	statusAfter, err := s.repo.GetVehicleStatus(ctx, vehicleID)
	if err != nil {
		return model.Txn2Result{}, err
	}
	ticketAfter, err := s.repo.GetMaintenanceTicket(ctx, vehicleID, ticketNo)
	if err != nil {
		return model.Txn2Result{}, err
	}

	res := model.Txn2Result{
		MaintenanceRowsAffected: affected,
		VehicleStatusAfter:      statusAfter,
		MaintenanceTicketAfter:  ticketAfter,
		Trigger:                 observeTrigger(statusAfter),
	}

	ev := queue.AuditEvent{
		Kind:            queue.KindTicketClosed,
		VehicleID:       vehicleID,
		TicketNo:        ticketNo,
		RowsAffected:    affected,
		TriggerObserved: res.Trigger != nil,
	}
	if statusAfter != nil {
		ev.VehicleStatus = statusAfter.Status
	}
	if affected > 0 {
		s.publish(ctx, ev)
	}
	return res, nil
}

// observeTrigger only looks at end state; it cannot tell whether the
// trigger fired or the vehicle was already available.
func observeTrigger(v *model.VehicleStatus) *model.TriggerObservation {
	if v == nil || !strings.EqualFold(v.Status, "available") {
		return nil
	}
	return &model.TriggerObservation{ObservedStatus: v.Status, Note: triggerNote}
}

// FindReservation looks a reservation up by its composite business key.
func (s *TransactionsService) FindReservation(ctx context.Context, key model.ReservationKey) (model.Reservation, error) {
	res, err := s.repo.GetReservationByKeys(ctx, key)
	if err != nil {
		return model.Reservation{}, err
	}
	if res == nil {
		return model.Reservation{}, ErrReservationNotFound
	}
	return *res, nil
}

// RunTxn3 deletes a reservation by its business key and then checks that
// no matching row remains.
func (s *TransactionsService) RunTxn3(ctx context.Context, key model.ReservationKey) (model.Txn3Result, error) {
	deleted, record, err := s.repo.DeleteReservation(ctx, key)
	if err != nil {
		return model.Txn3Result{}, err
	}
	exists, err := s.repo.ReservationExists(ctx, key)
	if err != nil {
		return model.Txn3Result{}, err
	}
	res := model.Txn3Result{
		DeletedRows:   deleted,
		DeletedRecord: record,
		VerifiedGone:  !exists,
	}
	if deleted > 0 {
		ev := queue.AuditEvent{
			Kind:         queue.KindReservationDeleted,
			CustomerID:   key.CustomerID,
			VehicleID:    key.VehicleID,
			StartTime:    key.StartTime,
			RowsAffected: deleted,
			VerifiedGone: res.VerifiedGone,
		}
		if record != nil {
			ev.ReservationID = record.ReservationID
		}
		s.publish(ctx, ev)
	}
	return res, nil
}

func (s *TransactionsService) publish(ctx context.Context, ev queue.AuditEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.clock.Now().UTC().Format(model.DateTimeLayout)
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warning("audit event not published",
			logger.String("kind", ev.Kind), logger.Int64("vehicle_id", ev.VehicleID), logger.Error(err))
	}
}
