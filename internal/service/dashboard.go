package service

import (
	"context"

	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/model"
)

// DashboardSource lists what the dashboard page reads besides the
// latest-location view.
type DashboardSource interface {
	SelectLatestLocationsByZoneType(ctx context.Context, zoneType string) ([]model.LatestLocation, error)
	GetDistinctZoneTypes(ctx context.Context) ([]string, error)
	GetOpenMaintenanceTickets(ctx context.Context) ([]model.OpenTicket, error)
	GetReservationsForDropdown(ctx context.Context, limit int) ([]model.ReservationOption, error)
	GetCustomersForDropdown(ctx context.Context) ([]model.CustomerOption, error)
	SelectRecentReservations(ctx context.Context, limit int) ([]model.Reservation, error)
}

// RecentReservationsLimit caps the recent reservations table.
const RecentReservationsLimit = 10

// Dashboard is everything the index page renders apart from proofs and
// messages.
type Dashboard struct {
	ZoneType     string
	Latest       []model.LatestLocation
	ZoneTypes    []string
	OpenTickets  []model.OpenTicket
	Reservations []model.ReservationOption
	Customers    []model.CustomerOption
	Recent       []model.Reservation
}

// DashboardService loads the dashboard.  Each list is independent: a failed
// query is logged and replaced by an empty list so the page still renders.
type DashboardService struct {
	src DashboardSource
	log logger.ILogger
}

// NewDashboardService reads from src.  A nil log discards warnings.
func NewDashboardService(src DashboardSource, log logger.ILogger) *DashboardService {
	if log == nil {
		log = logger.NewNop()
	}
	return &DashboardService{src: src, log: log}
}

// Load never fails.
func (d *DashboardService) Load(ctx context.Context, zoneType string) Dashboard {
	out := Dashboard{ZoneType: zoneType}

	var err error
	if out.Latest, err = d.src.SelectLatestLocationsByZoneType(ctx, zoneType); err != nil {
		d.log.Warning("dashboard: latest locations unavailable", logger.String("zone_type", zoneType), logger.Error(err))
		out.Latest = []model.LatestLocation{}
	}
	if out.ZoneTypes, err = d.src.GetDistinctZoneTypes(ctx); err != nil {
		d.log.Warning("dashboard: zone types unavailable", logger.Error(err))
		out.ZoneTypes = []string{}
	}
	if out.OpenTickets, err = d.src.GetOpenMaintenanceTickets(ctx); err != nil {
		d.log.Warning("dashboard: open maintenance tickets unavailable", logger.Error(err))
		out.OpenTickets = []model.OpenTicket{}
	}
	if out.Reservations, err = d.src.GetReservationsForDropdown(ctx, 0); err != nil {
		d.log.Warning("dashboard: reservations unavailable", logger.Error(err))
		out.Reservations = []model.ReservationOption{}
	}
	if out.Customers, err = d.src.GetCustomersForDropdown(ctx); err != nil {
		d.log.Warning("dashboard: customers unavailable", logger.Error(err))
		out.Customers = []model.CustomerOption{}
	}
	if out.Recent, err = d.src.SelectRecentReservations(ctx, RecentReservationsLimit); err != nil {
		d.log.Warning("dashboard: recent reservations unavailable", logger.Error(err))
		out.Recent = []model.Reservation{}
	}
	return out
}
