package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptsurge/server/internal/models"
)

func tx(apt, date string, price int64) models.Transaction {
	return models.Transaction{
		LawdCd:   "11680",
		Sigungu:  "강남구",
		AptName:  apt,
		AreaM2:   84.97,
		DealDate: date,
		PriceMan: price,
		DongName: "역삼동",
	}
}

func allTimeQuery() Query {
	return Query{Select: Unrestricted(), Baseline: AllTime()}
}

func TestUnrestrictedSelector(t *testing.T) {
	anchor, ok := Unrestricted()([]models.Transaction{
		tx("A", "2024-01-01", 100),
		tx("A", "2024-02-01", 120),
		tx("A", "2024-02-01", 110),
	})
	require.True(t, ok)
	assert.Equal(t, int64(120), anchor.PriceMan)

	_, ok = Unrestricted()(nil)
	assert.False(t, ok)
}

func TestPeriodSelectors(t *testing.T) {
	txns := []models.Transaction{
		tx("A", "2023-12-20", 100),
		tx("A", "2024-01-05", 110),
		tx("A", "2024-03-01", 130),
	}

	anchor, ok := ExactPeriod("202401")(txns)
	require.True(t, ok)
	assert.Equal(t, "2024-01-05", anchor.DealDate)

	anchor, ok = PeriodSet("202312", "202401")(txns)
	require.True(t, ok)
	assert.Equal(t, "2024-01-05", anchor.DealDate)

	_, ok = ExactPeriod("202402")(txns)
	assert.False(t, ok)
}

func TestBaselines(t *testing.T) {
	anchor := tx("A", "2024-02-29", 90000)
	history := []models.Transaction{
		anchor,
		tx("A", "2024-02-29", 99000), // same day, not strictly before
		tx("A", "2020-01-01", 80000),
		tx("A", "2022-01-01", 80000),
		tx("A", "2019-02-28", 85000),
		tx("A", "2019-02-27", 95000),
		tx("A", "2023-01-01", 0),
	}

	prev, ok := AllTime()(anchor, history)
	require.True(t, ok)
	assert.Equal(t, "2019-02-27", prev.DealDate)

	prev, ok = Lookback(5)(anchor, history)
	require.True(t, ok)
	assert.Equal(t, "2019-02-28", prev.DealDate)

	// equal prices resolve to the most recent sale
	prev, ok = AllTime()(anchor, history[:4])
	require.True(t, ok)
	assert.Equal(t, "2022-01-01", prev.DealDate)

	_, ok = AllTime()(anchor, []models.Transaction{anchor, tx("A", "2023-01-01", 0)})
	assert.False(t, ok)
}

func TestQueryEvaluate(t *testing.T) {
	cohorts := GroupCohorts([]models.Transaction{
		tx("Riverside A", "2022-05-01", 50000),
		tx("Riverside A", "2024-03-10", 70000),
		tx("Hillside", "2021-01-01", 50000),
		tx("Hillside", "2024-02-01", 45000),
		tx("Lonely", "2024-01-01", 30000),
		tx("Parkview", "2020-01-01", 10000),
		tx("Parkview", "2024-01-01", 11000),
	})

	matches := allTimeQuery().Evaluate(cohorts)
	require.Len(t, matches, 2)

	first := matches[0].Entry
	assert.Equal(t, "Riverside A", first.AptName)
	assert.Equal(t, 40.0, first.Pct)
	assert.Equal(t, int64(20000), first.Change)
	assert.Equal(t, "2022-05-01", first.PrevDate)
	assert.Equal(t, int64(50000), first.PrevPrice)
	assert.Equal(t, ApartmentID("강남구", "Riverside A", 84.97), first.ID)
	assert.Len(t, matches[0].Txns, 2)

	assert.Equal(t, "Parkview", matches[1].Entry.AptName)
	assert.Equal(t, 10.0, matches[1].Entry.Pct)
}

func TestQueryStableOrderOnTies(t *testing.T) {
	var records []models.Transaction
	for _, name := range []string{"C", "A", "B"} {
		records = append(records, tx(name, "2020-01-01", 100), tx(name, "2024-01-01", 110))
	}
	entries := Entries(allTimeQuery().Evaluate(GroupCohorts(records)))
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{entries[0].AptName, entries[1].AptName, entries[2].AptName})
}

func TestQueryMinTrades(t *testing.T) {
	build := func(n int) []Cohort {
		var records []models.Transaction
		for i := 0; i < n-1; i++ {
			records = append(records, tx("Busy", fmt.Sprintf("2020-01-%02d", i+1), 50000))
		}
		records = append(records, tx("Busy", "2024-01-01", 60000))
		return GroupCohorts(records)
	}

	q := allTimeQuery()
	q.MinTrades = 20
	q.CountTrades = true

	assert.Empty(t, q.Evaluate(build(19)))

	matches := q.Evaluate(build(20))
	require.Len(t, matches, 1)
	assert.Equal(t, 20, matches[0].Entry.TotalTrades)
	assert.Equal(t, 20.0, matches[0].Entry.Pct)

	// raising the threshold never grows the result
	q.MinTrades = 21
	assert.Empty(t, q.Evaluate(build(20)))
}

func TestQueryRunTruncatesAfterSorting(t *testing.T) {
	var records []models.Transaction
	for i, price := range []int64{105, 150, 110, 130, 120} {
		name := fmt.Sprintf("Apt%d", i)
		records = append(records, tx(name, "2020-01-01", 100), tx(name, "2024-01-01", price))
	}
	q := allTimeQuery()
	q.Limit = 3

	matches := q.Run(GroupCohorts(records))
	require.Len(t, matches, 3)
	assert.Equal(t, []float64{50, 30, 20}, []float64{matches[0].Entry.Pct, matches[1].Entry.Pct, matches[2].Entry.Pct})
}

func TestQueryKeepNonPositive(t *testing.T) {
	cohorts := GroupCohorts([]models.Transaction{
		tx("Hillside", "2022-01-01", 50000),
		tx("Hillside", "2024-02-01", 45000),
		tx("Lonely", "2024-01-01", 30000),
	})
	q := Query{Select: Unrestricted(), Baseline: Lookback(5), KeepNonPositive: true}

	matches := q.Evaluate(cohorts)
	require.Len(t, matches, 2)

	drop := matches[0].Entry
	assert.Equal(t, "Lonely", drop.AptName)
	assert.Equal(t, 0.0, drop.Pct)
	assert.Equal(t, int64(30000), drop.PrevPrice)
	assert.Equal(t, int64(0), drop.Change)
	assert.Empty(t, drop.PrevDate)

	assert.Equal(t, "Hillside", matches[1].Entry.AptName)
	assert.Equal(t, -10.0, matches[1].Entry.Pct)
}

func TestQueryEmbedHistory(t *testing.T) {
	cohorts := GroupCohorts([]models.Transaction{
		tx("Riverside A", "2015-05-01", 40000),
		tx("Riverside A", "2022-05-01", 50000),
		tx("Riverside A", "2024-03-10", 70000),
	})
	q := allTimeQuery()
	q.EmbedHistory = true
	q.HistoryCutoff = "2017-03-15"

	matches := q.Evaluate(cohorts)
	require.Len(t, matches, 1)
	assert.Equal(t, []models.PricePoint{
		{Date: "2022-05-01", Price: 50000},
		{Date: "2024-03-10", Price: 70000},
	}, matches[0].Entry.History)
}

func TestEvaluateArrivals(t *testing.T) {
	history := []models.Transaction{
		tx("Riverside A", "2022-05-01", 50000),
		tx("Riverside A", "2024-03-10", 70000),
		tx("Riverside A", "2024-03-12", 90000),
	}
	cohorts := GroupCohorts(history)

	// the arrival is older than the cohort's latest sale but still anchors the entry
	arrivals := []models.Transaction{history[1], tx("Brand New", "2024-03-11", 10000), tx("Brand New", "2024-03-01", 8000)}

	matches := allTimeQuery().EvaluateArrivals(cohorts, arrivals)
	require.Len(t, matches, 2)

	assert.Equal(t, "Riverside A", matches[0].Entry.AptName)
	assert.Equal(t, "2024-03-10", matches[0].Entry.LatestDate)
	assert.Equal(t, 40.0, matches[0].Entry.Pct)
	assert.Len(t, matches[0].Txns, 3)

	assert.Equal(t, "Brand New", matches[1].Entry.AptName)
	assert.Equal(t, 25.0, matches[1].Entry.Pct)
	assert.Len(t, matches[1].Txns, 2)
}

func TestSingletonCohortsNeverRank(t *testing.T) {
	cohorts := GroupCohorts([]models.Transaction{tx("Lonely", "2024-03-01", 30000)})
	engine := NewEngine(Params{CurrentMonth: "202403", MinTrades: 0})

	set, _ := engine.ReportSet(cohorts, nil)
	assert.Empty(t, set.Section1.Top3)
	assert.Empty(t, set.Section2.Top3)
	assert.Empty(t, set.Section3.Top3)
	assert.Empty(t, set.Section4.Top3)
	assert.Empty(t, set.Recent.Top3)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		change, base int64
		expected     float64
	}{
		{20000, 50000, 40},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{-1, 8, -12.5},
		{1, 16000, 0.01},
		{-1, 16000, -0.01},
		{5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.change, tt.base), func(t *testing.T) {
			assert.Equal(t, tt.expected, Percent(tt.change, tt.base))
		})
	}
}
