package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

type Metric string

const (
	MetricRevenue  Metric = "revenue"
	MetricOrders   Metric = "orders"
	MetricProducts Metric = "products"
)

const (
	dailyBuckets   = 7
	weeklyBuckets  = 4
	monthlyBuckets = 6
	topN           = 5
	day            = 24 * time.Hour
)

var monthNames = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

type Bucket struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type ProductSales struct {
	PieceID uuid.UUID       `json:"piece_id"`
	Name    string          `json:"name"`
	Units   int             `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Summary struct {
	Total         decimal.Decimal `json:"total"`
	Orders        int             `json:"orders"`
	TopProduct    string          `json:"top_product"`
	PercentChange float64         `json:"percent_change"`
}

// Series is what a chart plots for the selected metric.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type Report struct {
	Granularity Granularity    `json:"granularity"`
	Metric      Metric         `json:"metric"`
	Buckets     []Bucket       `json:"buckets"`
	TopProducts []ProductSales `json:"top_products"`
	Summary     Summary        `json:"summary"`
	Chart       Series         `json:"chart"`
}

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Daily, Weekly, Monthly:
		return g, nil
	case "":
		return Weekly, nil
	}
	return "", apperr.Invalid("timeframe", fmt.Sprintf("periodo desconocido: %s", s))
}

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricRevenue, MetricOrders, MetricProducts:
		return m, nil
	case "":
		return MetricRevenue, nil
	}
	return "", apperr.Invalid("metric", fmt.Sprintf("métrica desconocida: %s", s))
}

// Build aggregates delivered orders into the report for one granularity and metric.
func Build(orders []models.Order, pieces []models.Piece, g Granularity, m Metric, now time.Time) Report {
	delivered := Delivered(orders)
	report := Report{
		Granularity: g,
		Metric:      m,
		Buckets:     Buckets(delivered, g, now),
		TopProducts: TopProducts(delivered, pieces, topN),
		Summary:     Summarize(orders, pieces, g, now),
	}
	report.Chart = chart(report, m)
	return report
}

func Delivered(orders []models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == models.OrderDelivered {
			out = append(out, o)
		}
	}
	return out
}

// Buckets groups orders into the fixed buckets of g, oldest first.
func Buckets(orders []models.Order, g Granularity, now time.Time) []Bucket {
	switch g {
	case Daily:
		return daily(orders, now)
	case Monthly:
		return monthly(orders, now)
	default:
		return weekly(orders, now)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func newBuckets(labels []string) []Bucket {
	buckets := make([]Bucket, len(labels))
	for i, l := range labels {
		buckets[i] = Bucket{Label: l, Revenue: decimal.Zero}
	}
	return buckets
}

func (b *Bucket) add(o models.Order) {
	b.Revenue = b.Revenue.Add(o.TotalPrice)
	b.Orders++
}

func daily(orders []models.Order, now time.Time) []Bucket {
	today := startOfDay(now)
	labels := make([]string, dailyBuckets)
	for i := range labels {
		d := today.AddDate(0, 0, i-(dailyBuckets-1))
		labels[i] = fmt.Sprintf("%d/%d", d.Day(), int(d.Month()))
	}
	buckets := newBuckets(labels)

	for _, o := range orders {
		created := startOfDay(o.CreatedAt.In(now.Location()))
		for i := range buckets {
			if created.Equal(today.AddDate(0, 0, i-(dailyBuckets-1))) {
				buckets[i].add(o)
				break
			}
		}
	}
	return buckets
}

// DaysAgo is the number of started days between created and now. Future
// timestamps count as today.
func DaysAgo(created, now time.Time) int {
	diff := now.Sub(created)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// WeekLabel returns the weekly bucket for an order daysAgo old, or false
// when it falls outside the last 28 days.
func WeekLabel(daysAgo int) (string, bool) {
	if daysAgo > weeklyBuckets*7 {
		return "", false
	}
	week := int(math.Ceil(float64(daysAgo) / 7))
	if week < 1 {
		week = 1
	}
	if week > weeklyBuckets {
		week = weeklyBuckets
	}
	return fmt.Sprintf("Sem %d", weeklyBuckets-week+1), true
}

func weekly(orders []models.Order, now time.Time) []Bucket {
	labels := make([]string, weeklyBuckets)
	for i := range labels {
		labels[i] = fmt.Sprintf("Sem %d", i+1)
	}
	buckets := newBuckets(labels)

	for _, o := range orders {
		label, ok := WeekLabel(DaysAgo(o.CreatedAt, now))
		if !ok {
			continue
		}
		for i := range buckets {
			if buckets[i].Label == label {
				buckets[i].add(o)
				break
			}
		}
	}
	return buckets
}

func monthDiff(created, now time.Time) int {
	return (now.Year()-created.Year())*12 + int(now.Month()) - int(created.Month())
}

func monthly(orders []models.Order, now time.Time) []Bucket {
	labels := make([]string, monthlyBuckets)
	for i := range labels {
		idx := (int(now.Month()) - 1 - (monthlyBuckets - 1) + i + 12) % 12
		labels[i] = monthNames[idx]
	}
	buckets := newBuckets(labels)

	for _, o := range orders {
		diff := monthDiff(o.CreatedAt.In(now.Location()), now)
		if diff < 0 || diff >= monthlyBuckets {
			continue
		}
		buckets[monthlyBuckets-1-diff].add(o)
	}
	return buckets
}

// TopProducts ranks pieces by units sold, then revenue, then name.
func TopProducts(orders []models.Order, pieces []models.Piece, n int) []ProductSales {
	names := make(map[uuid.UUID]string, len(pieces))
	for _, p := range pieces {
		names[p.ID] = p.Name
	}

	totals := map[uuid.UUID]*ProductSales{}
	for _, o := range orders {
		for _, item := range o.Items {
			ps, ok := totals[item.PieceID]
			if !ok {
				name, known := names[item.PieceID]
				if !known {
					name = "Producto desconocido"
				}
				ps = &ProductSales{PieceID: item.PieceID, Name: name, Revenue: decimal.Zero}
				totals[item.PieceID] = ps
			}
			ps.Units += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.Subtotal())
		}
	}

	ranked := make([]ProductSales, 0, len(totals))
	for _, ps := range totals {
		ranked = append(ranked, *ps)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Units != b.Units {
			return a.Units > b.Units
		}
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Period returns the [start, end) range of the period of g containing now.
func Period(g Granularity, now time.Time) (time.Time, time.Time) {
	today := startOfDay(now)
	switch g {
	case Daily:
		return today, today.AddDate(0, 0, 1)
	case Monthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		offset := (int(today.Weekday()) + 6) % 7 // days since Monday
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	}
}

// PreviousPeriod is the period of equal kind right before the one containing now.
func PreviousPeriod(g Granularity, now time.Time) (time.Time, time.Time) {
	start, _ := Period(g, now)
	switch g {
	case Daily:
		return start.AddDate(0, 0, -1), start
	case Monthly:
		return start.AddDate(0, -1, 0), start
	default:
		return start.AddDate(0, 0, -7), start
	}
}

func within(orders []models.Order, start, end time.Time) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if !o.CreatedAt.Before(start) && o.CreatedAt.Before(end) {
			out = append(out, o)
		}
	}
	return out
}

func revenue(orders []models.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.TotalPrice)
	}
	return sum
}

// PercentChange compares current to previous, rounded to one decimal. A
// previous value of zero yields zero.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

// Summarize reports the current period against the previous one.
func Summarize(orders []models.Order, pieces []models.Piece, g Granularity, now time.Time) Summary {
	if len(orders) == 0 {
		return Summary{Total: decimal.Zero, TopProduct: "Sin ventas"}
	}
	delivered := Delivered(orders)

	curStart, curEnd := Period(g, now)
	prevStart, prevEnd := PreviousPeriod(g, now)
	current := within(delivered, curStart, curEnd)
	previous := within(delivered, prevStart, prevEnd)

	top := "Sin datos"
	if ranked := TopProducts(current, pieces, 1); len(ranked) > 0 && ranked[0].Name != "Producto desconocido" {
		top = ranked[0].Name
	}

	total := revenue(current)
	return Summary{
		Total:         total,
		Orders:        len(current),
		TopProduct:    top,
		PercentChange: PercentChange(total, revenue(previous)),
	}
}

func chart(r Report, m Metric) Series {
	var s Series
	switch m {
	case MetricProducts:
		for _, p := range r.TopProducts {
			s.Labels = append(s.Labels, p.Name)
			s.Values = append(s.Values, float64(p.Units))
		}
	case MetricOrders:
		for _, b := range r.Buckets {
			s.Labels = append(s.Labels, b.Label)
			s.Values = append(s.Values, float64(b.Orders))
		}
	default:
		for _, b := range r.Buckets {
			s.Labels = append(s.Labels, b.Label)
			s.Values = append(s.Values, b.Revenue.InexactFloat64())
		}
	}
	return s
}
