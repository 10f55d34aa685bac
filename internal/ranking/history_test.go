package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aptsurge/server/internal/models"
)

func TestApartmentID(t *testing.T) {
	assert.Equal(t, "17bbbdfcc1", ApartmentID("강남구", "Riverside A", 84.97))
	assert.Equal(t, "026952b5e6", ApartmentID("강남구", "Riverside A", 59))
	assert.NotEqual(t, ApartmentID("강남구", "Riverside A", 84.97), ApartmentID("서초구", "Riverside A", 84.97))
}

func TestFormatArea(t *testing.T) {
	assert.Equal(t, "84.97", FormatArea(84.97))
	assert.Equal(t, "59.0", FormatArea(59))
	assert.Equal(t, "0.0", FormatArea(0))
	assert.Equal(t, "114.8", FormatArea(114.8))
}

func TestBuildHistory(t *testing.T) {
	txns := []models.Transaction{
		{DealDate: "2024-03-10", PriceMan: 70000},
		{DealDate: "2015-01-01", PriceMan: 30000},
		{DealDate: "2022-05-01", PriceMan: 50000},
		{DealDate: "2022-05-01", PriceMan: 51000},
	}

	history := BuildHistory(txns, "2019-01-01")
	assert.Equal(t, []models.PricePoint{
		{Date: "2022-05-01", Price: 50000},
		{Date: "2022-05-01", Price: 51000},
		{Date: "2024-03-10", Price: 70000},
	}, history)

	// input order untouched
	assert.Equal(t, "2024-03-10", txns[0].DealDate)

	for i := 1; i < len(history); i++ {
		assert.LessOrEqual(t, history[i-1].Date, history[i].Date)
	}

	once := FilterHistory(history, "2023-01-01")
	assert.Equal(t, once, FilterHistory(once, "2023-01-01"))
	assert.Len(t, once, 1)

	assert.Empty(t, BuildHistory(nil, ""))
}

func TestYearsBefore(t *testing.T) {
	assert.Equal(t, "2019-02-28", YearsBefore("2024-02-29", 5))
	assert.Equal(t, "2019-03-10", YearsBefore("2024-03-10", 5))
	assert.Equal(t, "", YearsBefore("2024-13-01", 5))

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2017-03-15", HistoryCutoff(now, 7))
}

func TestTrailingMonths(t *testing.T) {
	assert.Equal(t, []string{"202402", "202401", "202312"}, TrailingMonths("202402", 3))
	assert.Equal(t, "202312", ShiftMonth("202401", -1))
	assert.Equal(t, "202403", MonthOf(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
}
