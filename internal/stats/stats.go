package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

// lowStockThreshold is a fixed dashboard threshold, independent of each
// product's own alert threshold.
const lowStockThreshold = 5

type Bucket struct {
	Label  string  `json:"label"`
	Total  float64 `json:"total"`
	Orders int     `json:"orders"`
}

type Overview struct {
	TotalRevenue  float64  `json:"totalRevenue"`
	TotalOrders   int64    `json:"totalOrders"`
	TodayRevenue  float64  `json:"todayRevenue"`
	TodayOrders   int64    `json:"todayOrders"`
	LowStockCount int64    `json:"lowStockCount"`
	Series        []Bucket `json:"series"`
	Period        string   `json:"period"`
}

type Aggregator struct {
	DB *gorm.DB
}

// periodAliases maps the French period names the frontend sends.
var periodAliases = map[string]string{
	"jours":    "days",
	"jour":     "days",
	"semaine":  "weeks",
	"semaines": "weeks",
	"mois":     "months",
	"annee":    "years",
	"année":    "years",
}

func normalizePeriod(period string) string {
	p := strings.ToLower(period)
	if mapped, ok := periodAliases[p]; ok {
		p = mapped
	}
	switch p {
	case "weeks", "months", "years":
		return p
	default:
		return "days"
	}
}

type span struct {
	label string
	start time.Time
	end   time.Time // exclusive
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday-based
	return d.AddDate(0, 0, -offset)
}

func buildSpans(period string, today time.Time) []span {
	var spans []span
	switch period {
	case "weeks":
		for i := 11; i >= 0; i-- {
			start := startOfWeek(today).AddDate(0, 0, -7*i)
			_, week := start.ISOWeek()
			spans = append(spans, span{
				label: fmt.Sprintf("S%d", week),
				start: start,
				end:   start.AddDate(0, 0, 7),
			})
		}
	case "months":
		for i := 11; i >= 0; i-- {
			start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, -i, 0)
			spans = append(spans, span{
				label: start.Format("2006-01"),
				start: start,
				end:   start.AddDate(0, 1, 0),
			})
		}
	case "years":
		for i := 4; i >= 0; i-- {
			start := time.Date(today.Year()-i, time.January, 1, 0, 0, 0, 0, today.Location())
			spans = append(spans, span{
				label: start.Format("2006"),
				start: start,
				end:   start.AddDate(1, 0, 0),
			})
		}
	default: // days
		for i := 13; i >= 0; i-- {
			start := startOfDay(today).AddDate(0, 0, -i)
			spans = append(spans, span{
				label: start.Format("02/01"),
				start: start,
				end:   start.AddDate(0, 0, 1),
			})
		}
	}
	return spans
}

// Overview aggregates all-time and today totals plus a contiguous bucket
// series anchored to now, oldest first.
func (a *Aggregator) Overview(ctx context.Context, period string, now time.Time) (*Overview, error) {
	period = normalizePeriod(period)
	db := a.DB.WithContext(ctx)

	out := Overview{Period: period}

	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").Scan(&out.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&out.TotalOrders).Error; err != nil {
		return nil, err
	}

	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)
	if err := db.Model(&models.Order{}).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Select("COALESCE(SUM(total), 0)").Scan(&out.TodayRevenue).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Count(&out.TodayOrders).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Product{}).
		Where("stock <= ?", lowStockThreshold).
		Count(&out.LowStockCount).Error; err != nil {
		return nil, err
	}

	spans := buildSpans(period, now)

	var orders []models.Order
	if err := db.
		Where("date >= ? AND date < ?", spans[0].start, spans[len(spans)-1].end).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	out.Series = make([]Bucket, len(spans))
	for i, sp := range spans {
		out.Series[i].Label = sp.label
	}
	for _, ord := range orders {
		for i, sp := range spans {
			if !ord.Date.Before(sp.start) && ord.Date.Before(sp.end) {
				out.Series[i].Total += ord.Total
				out.Series[i].Orders++
				break
			}
		}
	}

	return &out, nil
}
