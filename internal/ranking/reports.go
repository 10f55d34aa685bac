package ranking

import (
	"fmt"

	"aptsurge/server/internal/models"
)

const (
	FallbackLatest = "latest"
	FallbackMonth  = "month"
)

// Params configures the report definitions
type Params struct {
	CurrentMonth   string
	TrailingMonths int
	MinTrades      int
	TopN           int
	LookbackYears  int
	RecentLimit    int
	HistoryCutoff  string

	// TodayFallback decides what today's movers uses when no new sales arrived
	TodayFallback string
}

// Outcome is a finished report plus every match evaluated for it
type Outcome struct {
	Report  models.Report
	Matches []Match
}

// Engine builds the fixed report set of a scope
type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	if params.TopN <= 0 {
		params.TopN = 3
	}
	if params.TrailingMonths <= 0 {
		params.TrailingMonths = 3
	}
	if params.LookbackYears <= 0 {
		params.LookbackYears = 5
	}
	if params.TodayFallback == "" {
		params.TodayFallback = FallbackLatest
	}
	return &Engine{params: params}
}

func (e *Engine) Params() Params {
	return e.params
}

func (e *Engine) ranked(sel Selector, minTrades int, countTrades bool) Query {
	return Query{
		Select:        sel,
		Baseline:      AllTime(),
		MinTrades:     minTrades,
		Limit:         e.params.TopN,
		CountTrades:   countTrades,
		EmbedHistory:  true,
		HistoryCutoff: e.params.HistoryCutoff,
	}
}

func (e *Engine) outcome(title string, q Query, matches []Match) Outcome {
	return Outcome{
		Report:  models.Report{Title: title, Top3: Entries(Truncate(matches, q.Limit))},
		Matches: matches,
	}
}

// Today ranks the apartments that received new sales in this run. Without arrivals
// it falls back to every cohort's latest sale, or to the current month when the
// month fallback is configured.
func (e *Engine) Today(cohorts []Cohort, arrivals []models.Transaction) Outcome {
	title := fmt.Sprintf("오늘의 실거래 TOP %d", e.params.TopN)
	q := e.ranked(Unrestricted(), 0, false)

	if len(arrivals) > 0 {
		return e.outcome(title, q, q.EvaluateArrivals(cohorts, arrivals))
	}
	if e.params.TodayFallback != FallbackMonth {
		return e.outcome(title, q, q.Evaluate(cohorts))
	}

	q.Select = ExactPeriod(e.params.CurrentMonth)
	matches := q.Evaluate(cohorts)
	if len(matches) < 3 {
		q.Select = ExactPeriod(ShiftMonth(e.params.CurrentMonth, -1))
		if prev := q.Evaluate(cohorts); len(prev) > len(matches) {
			matches = prev
		}
	}
	return e.outcome(title, q, matches)
}

// HighVolume ranks the latest sale of heavily traded cohorts
func (e *Engine) HighVolume(cohorts []Cohort) Outcome {
	q := e.ranked(Unrestricted(), e.params.MinTrades, true)
	return e.outcome(fmt.Sprintf("오늘의 실거래(거래 %d건이상 단지) TOP %d", e.params.MinTrades, e.params.TopN), q, q.Evaluate(cohorts))
}

// Trailing ranks the latest sale within the trailing months window
func (e *Engine) Trailing(cohorts []Cohort) Outcome {
	q := e.ranked(PeriodSet(TrailingMonths(e.params.CurrentMonth, e.params.TrailingMonths)...), 0, false)
	return e.outcome(fmt.Sprintf("%d개월내 실거래 TOP %d", e.params.TrailingMonths, e.params.TopN), q, q.Evaluate(cohorts))
}

// TrailingHighVolume combines the trailing window with the trade threshold
func (e *Engine) TrailingHighVolume(cohorts []Cohort) Outcome {
	q := e.ranked(PeriodSet(TrailingMonths(e.params.CurrentMonth, e.params.TrailingMonths)...), e.params.MinTrades, true)
	return e.outcome(fmt.Sprintf("%d개월내 실거래(거래 %d건이상 단지) TOP %d", e.params.TrailingMonths, e.params.MinTrades, e.params.TopN), q, q.Evaluate(cohorts))
}

// Recent compares the latest sale of the trailing window against the peak of the
// lookback years before it
func (e *Engine) Recent(cohorts []Cohort) Outcome {
	q := Query{
		Select:   PeriodSet(TrailingMonths(e.params.CurrentMonth, e.params.TrailingMonths)...),
		Baseline: Lookback(e.params.LookbackYears),
		Limit:    e.params.RecentLimit,
	}
	return e.outcome(fmt.Sprintf("최근 %d개월 실거래", e.params.TrailingMonths), q, q.Evaluate(cohorts))
}

// Search returns one item per cohort with an anchor, price drops and first sales included
func (e *Engine) Search(cohorts []Cohort) []Match {
	q := Query{
		Select:          Unrestricted(),
		Baseline:        Lookback(e.params.LookbackYears),
		KeepNonPositive: true,
	}
	return q.Evaluate(cohorts)
}

// ReportSet computes every report of a scope. The returned matches cover all
// evaluated cohorts, before truncation.
func (e *Engine) ReportSet(cohorts []Cohort, arrivals []models.Transaction) (models.ReportSet, []Match) {
	today := e.Today(cohorts, arrivals)
	volume := e.HighVolume(cohorts)
	trailing := e.Trailing(cohorts)
	trailingVolume := e.TrailingHighVolume(cohorts)
	recent := e.Recent(cohorts)

	set := models.ReportSet{
		Section1: today.Report,
		Section2: volume.Report,
		Section3: trailing.Report,
		Section4: trailingVolume.Report,
		Recent:   recent.Report,
	}

	var matches []Match
	for _, o := range []Outcome{today, volume, trailing, trailingVolume, recent} {
		matches = append(matches, o.Matches...)
	}
	return set, matches
}
