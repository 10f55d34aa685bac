package ranking

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"aptsurge/server/internal/models"
)

const dateLayout = "2006-01-02"

// ApartmentID derives the stable identifier of a (sigungu, apartment, area) cohort:
// the first 10 hex characters of the MD5 of the tab-joined parts.
func ApartmentID(sigungu, aptName string, areaM2 float64) string {
	sum := md5.Sum([]byte(sigungu + "\t" + aptName + "\t" + FormatArea(areaM2)))
	return hex.EncodeToString(sum[:])[:10]
}

// FormatArea renders an area the way identifiers have always been hashed:
// shortest round-trip form that always carries a decimal point (59 -> "59.0").
func FormatArea(areaM2 float64) string {
	s := strconv.FormatFloat(areaM2, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// BuildHistory returns the (date, price) samples on or after cutoff, oldest first.
// The input slice is not reordered.
func BuildHistory(txns []models.Transaction, cutoff string) []models.PricePoint {
	points := make([]models.PricePoint, 0, len(txns))
	for _, t := range txns {
		if t.DealDate >= cutoff {
			points = append(points, models.PricePoint{Date: t.DealDate, Price: t.PriceMan})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// FilterHistory applies the history window to an existing series
func FilterHistory(points []models.PricePoint, cutoff string) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Date >= cutoff {
			out = append(out, p)
		}
	}
	return out
}

// HistoryCutoff returns the first date inside a window of the given years ending at now
func HistoryCutoff(now time.Time, years int) string {
	return yearsBefore(now, years).Format(dateLayout)
}

// YearsBefore shifts a YYYY-MM-DD date back by whole years, clamping the day to the
// target month (2024-02-29 -> 2019-02-28). Malformed dates yield "".
func YearsBefore(date string, years int) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	return yearsBefore(t, years).Format(dateLayout)
}

func yearsBefore(t time.Time, years int) time.Time {
	year, month, day := t.Date()
	year -= years
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthOf formats a time as YYYYMM
func MonthOf(t time.Time) string {
	return t.Format("200601")
}

// ShiftMonth moves a YYYYMM period by delta months
func ShiftMonth(ym string, delta int) string {
	t, err := time.Parse("200601", ym)
	if err != nil {
		return ""
	}
	return MonthOf(t.AddDate(0, delta, 0))
}

// TrailingMonths returns the current month followed by the n-1 months before it
func TrailingMonths(current string, n int) []string {
	months := make([]string, 0, n)
	for i := 0; i < n; i++ {
		months = append(months, ShiftMonth(current, -i))
	}
	return months
}
