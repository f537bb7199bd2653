package services

import (
	"time"

	"artastic/internal/analytics"
	"artastic/internal/models"
	"artastic/internal/store"

	"github.com/shopspring/decimal"
)

// SnapshotSource hands out the current cached state.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

type Dashboard struct {
	PendingOrders     int               `json:"pending_orders"`
	Pieces            int               `json:"pieces"`
	Filaments         int               `json:"filaments"`
	Clients           int               `json:"clients"`
	Orders            int               `json:"orders"`
	LowStockPieces    []models.Piece    `json:"low_stock_pieces"`
	LowStockFilaments []models.Filament `json:"low_stock_filaments"`
	RecentRevenue     decimal.Decimal   `json:"recent_revenue"`
}

type SalesService interface {
	Report(timeframe, metric string) (*analytics.Report, error)
	Dashboard() Dashboard
}

type salesService struct {
	source SnapshotSource
	now    func() time.Time
}

func NewSalesService(source SnapshotSource) SalesService {
	return &salesService{source: source, now: time.Now}
}

func (s *salesService) Report(timeframe, metric string) (*analytics.Report, error) {
	g, err := analytics.ParseGranularity(timeframe)
	if err != nil {
		return nil, err
	}
	m, err := analytics.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	snap := s.source.Snapshot()
	report := analytics.Build(snap.Orders, snap.Pieces, g, m, s.now())
	return &report, nil
}

// Dashboard summarises the cache for the home screen. Recent revenue covers
// the four weekly buckets of the sales report.
func (s *salesService) Dashboard() Dashboard {
	snap := s.source.Snapshot()
	d := Dashboard{
		Pieces:            len(snap.Pieces),
		Filaments:         len(snap.Filaments),
		Clients:           len(snap.Clients),
		Orders:            len(snap.Orders),
		LowStockPieces:    []models.Piece{},
		LowStockFilaments: []models.Filament{},
		RecentRevenue:     decimal.Zero,
	}
	for _, o := range snap.Orders {
		if o.Status == models.OrderPending {
			d.PendingOrders++
		}
	}
	for _, p := range snap.Pieces {
		if p.LowStock() {
			d.LowStockPieces = append(d.LowStockPieces, p)
		}
	}
	for _, f := range snap.Filaments {
		if f.LowStock() {
			d.LowStockFilaments = append(d.LowStockFilaments, f)
		}
	}
	delivered := analytics.Delivered(snap.Orders)
	for _, b := range analytics.Buckets(delivered, analytics.Weekly, s.now()) {
		d.RecentRevenue = d.RecentRevenue.Add(b.Revenue)
	}
	return d
}
