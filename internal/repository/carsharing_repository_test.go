package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/model"
)

var reservationCols = []string{
	"reservation_id", "customer_id", "vehicle_id", "start_time", "end_time", "status",
	"placed_time", "channel", "promo_code", "assigned_at", "pickup_condition", "pickup_odometer",
}

var locationCols = []string{"vehicle_id", "zone_id", "zone_name", "zone_type", "latitude", "longitude", "recorded_at"}

func newTestRepo(t *testing.T) (*CarSharingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewCarSharingRepo(database.NewProvider(db), logger.NewNop()), mock
}

func ts(s string) time.Time {
	t, err := time.ParseInLocation(model.DateTimeLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSelectLatestLocationsByZoneType(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(latestLocationsSQL).WithArgs("SERVICE_AREA").WillReturnRows(
		sqlmock.NewRows(locationCols).
			AddRow(1, 10, "Downtown", "SERVICE_AREA", 52.52, 13.40, ts("2024-01-01 08:00:00")).
			AddRow(3, 11, "Harbour", "SERVICE_AREA", 52.50, 13.45, ts("2024-01-01 08:05:00")),
	)
	mock.ExpectRollback()

	got, err := repo.SelectLatestLocationsByZoneType(context.Background(), "SERVICE_AREA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].VehicleID)
	assert.Equal(t, "Harbour", got[1].ZoneName)
	assert.Equal(t, 13.45, got[1].Longitude)
}

func TestSelectLatestLocationsByZoneType_Error(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(latestLocationsSQL).WithArgs("AIRPORT").WillReturnError(errors.New("Table 'v_vehicle_latest_location' doesn't exist"))
	mock.ExpectRollback()

	got, err := repo.SelectLatestLocationsByZoneType(context.Background(), "AIRPORT")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabase))
	var dbErr *DBError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "select latest locations", dbErr.Op)
}

func TestRunTxn1ViewAndInsert(t *testing.T) {
	repo, mock := newTestRepo(t)

	in := model.ReservationInput{
		CustomerID: 1,
		VehicleID:  2,
		StartTime:  "2024-01-01 10:00:00",
		Status:     "confirmed",
		PlacedTime: "2024-01-01 09:50:00",
		Channel:    "app",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(latestLocationsSQL).WithArgs("SERVICE_AREA").WillReturnRows(
		sqlmock.NewRows(locationCols).AddRow(2, 10, "Downtown", "SERVICE_AREA", 52.52, 13.40, ts("2024-01-01 08:00:00")),
	)
	mock.ExpectExec(insertReservationSQL).
		WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", nil, "confirmed", "2024-01-01 09:50:00", "app", nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(reservationByIDSQL).WithArgs(int64(42)).WillReturnRows(
		sqlmock.NewRows(reservationCols).AddRow(
			42, 1, 2, ts("2024-01-01 10:00:00"), nil, "confirmed",
			ts("2024-01-01 09:50:00"), "app", nil, nil, nil, nil,
		),
	)

	got, err := repo.RunTxn1ViewAndInsert(context.Background(), "SERVICE_AREA", in)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ReservationID)
	require.Len(t, got.Latest, 1)
	require.NotNil(t, got.InsertedRecord)
	assert.Equal(t, "confirmed", got.InsertedRecord.Status)
	assert.True(t, got.InsertedRecord.Matches(in), "stored row should match the submission field for field")
}

func TestRunTxn1ViewAndInsert_InsertFailsRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(latestLocationsSQL).WithArgs("SERVICE_AREA").WillReturnRows(sqlmock.NewRows(locationCols))
	mock.ExpectExec(insertReservationSQL).WillReturnError(errors.New("Cannot add or update a child row: a foreign key constraint fails"))
	mock.ExpectRollback()

	_, err := repo.RunTxn1ViewAndInsert(context.Background(), "SERVICE_AREA", model.ReservationInput{
		CustomerID: 999, VehicleID: 2, StartTime: "2024-01-01 10:00:00", Status: "confirmed",
		PlacedTime: "2024-01-01 09:50:00", Channel: "app",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabase))
}

func TestRunTxn1ViewAndInsert_ProofReadFailureKeepsCommit(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(latestLocationsSQL).WithArgs("SERVICE_AREA").WillReturnRows(sqlmock.NewRows(locationCols))
	mock.ExpectExec(insertReservationSQL).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(reservationByIDSQL).WithArgs(int64(7)).WillReturnError(errors.New("Lost connection to MySQL server during query"))

	got, err := repo.RunTxn1ViewAndInsert(context.Background(), "SERVICE_AREA", model.ReservationInput{
		CustomerID: 1, VehicleID: 2, StartTime: "2024-01-01 10:00:00", Status: "confirmed",
		PlacedTime: "2024-01-01 09:50:00", Channel: "app",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ReservationID)
	assert.Nil(t, got.InsertedRecord)
}

func TestRunTxn1ViewAndInsert_OptionalFieldsBound(t *testing.T) {
	repo, mock := newTestRepo(t)

	end := "2024-01-01 12:00:00"
	promo := "WINTER"
	odo := int64(0)
	in := model.ReservationInput{
		CustomerID: 1, VehicleID: 2, StartTime: "2024-01-01 10:00:00", EndTime: &end, Status: "confirmed",
		PlacedTime: "2024-01-01 09:50:00", Channel: "web", PromoCode: &promo, PickupOdometer: &odo,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(latestLocationsSQL).WithArgs("AIRPORT").WillReturnRows(sqlmock.NewRows(locationCols))
	mock.ExpectExec(insertReservationSQL).
		WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", end, "confirmed", "2024-01-01 09:50:00", "web", promo, nil, nil, int64(0)).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(reservationByIDSQL).WithArgs(int64(8)).WillReturnRows(
		sqlmock.NewRows(reservationCols).AddRow(
			8, 1, 2, ts("2024-01-01 10:00:00"), ts(end), "confirmed",
			ts("2024-01-01 09:50:00"), "web", promo, nil, nil, 0,
		),
	)

	got, err := repo.RunTxn1ViewAndInsert(context.Background(), "AIRPORT", in)
	require.NoError(t, err)
	require.NotNil(t, got.InsertedRecord)
	assert.True(t, got.InsertedRecord.Matches(in))
	require.NotNil(t, got.InsertedRecord.PickupOdometer)
	assert.Equal(t, int64(0), *got.InsertedRecord.PickupOdometer)
}

func TestCloseMaintenanceTicket(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(closeTicketSQL).
		WithArgs("closed", "2024-05-01 12:00:00", int64(3), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.CloseMaintenanceTicket(context.Background(), 3, 11, "2024-05-01 12:00:00", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCloseMaintenanceTicket_NoMatch(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(closeTicketSQL).
		WithArgs("closed", "2024-05-01 12:00:00", int64(3), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := repo.CloseMaintenanceTicket(context.Background(), 3, 99, "2024-05-01 12:00:00", model.TicketStatusClosed)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetMaintenanceTicket(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(ticketByKeySQL).WithArgs(int64(3), int64(11)).WillReturnRows(
		sqlmock.NewRows([]string{"vehicle_id", "ticket_no", "status", "description", "opened_at", "closed_at"}).
			AddRow(3, 11, "closed", "brake pads", ts("2024-04-30 09:00:00"), ts("2024-05-01 12:00:00")),
	)
	mock.ExpectRollback()

	got, err := repo.GetMaintenanceTicket(context.Background(), 3, 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Status)
	assert.Equal(t, "closed", *got.Status)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, "2024-05-01 12:00:00", got.ClosedAt.Format(model.DateTimeLayout))
}

func TestGetMaintenanceTicket_Missing(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(ticketByKeySQL).WithArgs(int64(3), int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "ticket_no", "status", "description", "opened_at", "closed_at"}))
	mock.ExpectRollback()

	got, err := repo.GetMaintenanceTicket(context.Background(), 3, 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetVehicleStatus(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(vehicleStatusSQL).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "status"}).AddRow(3, "available"))
	mock.ExpectRollback()

	got, err := repo.GetVehicleStatus(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, &model.VehicleStatus{VehicleID: 3, Status: "available"}, got)
}

func TestReservationExists_Idempotent(t *testing.T) {
	repo, mock := newTestRepo(t)
	key := model.ReservationKey{CustomerID: 1, VehicleID: 2, StartTime: "2024-01-01 10:00:00", Status: "confirmed"}

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(reservationExistsSQL).WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", "confirmed").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()
	}

	first, err := repo.ReservationExists(context.Background(), key)
	require.NoError(t, err)
	second, err := repo.ReservationExists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, first, second)
}

func TestGetReservationByKeys(t *testing.T) {
	repo, mock := newTestRepo(t)
	key := model.ReservationKey{CustomerID: 1, VehicleID: 2, StartTime: "2024-01-01 10:00:00", Status: "confirmed"}

	mock.ExpectBegin()
	mock.ExpectQuery(reservationByKeysSQL).WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", "confirmed").
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			42, 1, 2, ts("2024-01-01 10:00:00"), nil, "confirmed",
			ts("2024-01-01 09:50:00"), "app", nil, nil, nil, nil,
		))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(reservationByKeysSQL).WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", "confirmed").
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectRollback()

	got, err := repo.GetReservationByKeys(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ReservationID)

	got, err = repo.GetReservationByKeys(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteReservation(t *testing.T) {
	repo, mock := newTestRepo(t)
	key := model.ReservationKey{CustomerID: 1, VehicleID: 2, StartTime: "2024-01-01 10:00:00", Status: "confirmed"}

	mock.ExpectBegin()
	mock.ExpectQuery(reservationByKeysForUpdateSQL).WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", "confirmed").
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			42, 1, 2, ts("2024-01-01 10:00:00"), nil, "confirmed",
			ts("2024-01-01 09:50:00"), "app", nil, nil, nil, nil,
		))
	mock.ExpectExec(deleteReservationSQL).WithArgs(int64(1), int64(2), "2024-01-01 10:00:00", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, deleted, err := repo.DeleteReservation(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NotNil(t, deleted)
	assert.Equal(t, int64(42), deleted.ReservationID)
}

func TestDeleteReservation_AlreadyGone(t *testing.T) {
	repo, mock := newTestRepo(t)
	key := model.ReservationKey{CustomerID: 1, VehicleID: 2, StartTime: "2024-01-01 10:00:00", Status: "confirmed"}

	mock.ExpectBegin()
	mock.ExpectQuery(reservationByKeysForUpdateSQL).WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(deleteReservationSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, deleted, err := repo.DeleteReservation(context.Background(), key)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, deleted)
}

func TestDeleteReservation_ErrorRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(reservationByKeysForUpdateSQL).WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(deleteReservationSQL).WillReturnError(errors.New("Lock wait timeout exceeded"))
	mock.ExpectRollback()

	_, _, err := repo.DeleteReservation(context.Background(), model.ReservationKey{CustomerID: 1, VehicleID: 2})
	assert.True(t, errors.Is(err, ErrDatabase))
}

func TestDropdowns(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(distinctZoneTypesSQL).WillReturnRows(sqlmock.NewRows([]string{"zone_type"}).AddRow("AIRPORT").AddRow("SERVICE_AREA"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(openTicketsSQL).WithArgs("closed", OpenTicketsLimit).
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "ticket_no"}).AddRow(3, 11))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(reservationOptionsSQL).WithArgs(ReservationDropdownLimit).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "vehicle_id", "start_time", "status"}).
			AddRow(1, 2, ts("2024-01-01 10:00:00"), "confirmed"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(customerOptionsSQL).WithArgs(CustomerDropdownLimit).
		WillReturnError(errors.New("Table 'Customer' doesn't exist"))
	mock.ExpectRollback()

	zones, err := repo.GetDistinctZoneTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AIRPORT", "SERVICE_AREA"}, zones)

	tickets, err := repo.GetOpenMaintenanceTickets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.OpenTicket{{VehicleID: 3, TicketNo: 11}}, tickets)

	opts, err := repo.GetReservationsForDropdown(ctx, 0)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "2024-01-01 10:00:00", opts[0].Key().StartTime)

	customers, err := repo.GetCustomersForDropdown(ctx)
	assert.Nil(t, customers)
	assert.True(t, errors.Is(err, ErrDatabase))
}

func TestSelectRecentReservations(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(recentReservationsSQL).WithArgs(2).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(43, 1, 2, ts("2024-01-02 10:00:00"), nil, "confirmed", ts("2024-01-01 09:00:00"), "app", nil, nil, nil, int64(120)).
			AddRow(42, 1, 3, ts("2024-01-01 10:00:00"), nil, "cancelled", ts("2024-01-01 08:00:00"), "web", nil, nil, nil, nil))
	mock.ExpectRollback()

	got, err := repo.SelectRecentReservations(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(43), got[0].ReservationID)
	require.NotNil(t, got[0].PickupOdometer)
	assert.Equal(t, int64(120), *got[0].PickupOdometer)
	assert.Equal(t, "cancelled", got[1].Status)
	assert.Nil(t, got[1].PickupOdometer)
}

func TestSelectRecentReservations_Error(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(recentReservationsSQL).WithArgs(5).WillReturnError(errors.New("Lost connection to MySQL server during query"))
	mock.ExpectRollback()

	got, err := repo.SelectRecentReservations(context.Background(), 5)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrDatabase))
}

func TestPing(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()
	assert.True(t, repo.Ping(context.Background()))

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
	assert.False(t, repo.Ping(context.Background()))
}
