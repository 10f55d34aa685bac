package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"aptsurge/server/internal/models"
)

// Selector picks the anchor (latest) sale of a cohort among its eligible sales
type Selector func(txns []models.Transaction) (models.Transaction, bool)

// Baseline picks the sale the anchor is compared against
type Baseline func(anchor models.Transaction, history []models.Transaction) (models.Transaction, bool)

// Unrestricted selects the most recent sale; same-day sales resolve to the higher price
func Unrestricted() Selector {
	return func(txns []models.Transaction) (models.Transaction, bool) {
		return latest(txns, nil)
	}
}

// ExactPeriod selects the latest sale dated inside one YYYYMM month
func ExactPeriod(ym string) Selector {
	return PeriodSet(ym)
}

// PeriodSet selects the latest sale dated inside any of the given months
func PeriodSet(yms ...string) Selector {
	allowed := make(map[string]bool, len(yms))
	for _, ym := range yms {
		allowed[ym] = true
	}
	return func(txns []models.Transaction) (models.Transaction, bool) {
		return latest(txns, func(t models.Transaction) bool {
			return allowed[t.Period()]
		})
	}
}

func latest(txns []models.Transaction, eligible func(models.Transaction) bool) (models.Transaction, bool) {
	var best models.Transaction
	found := false
	for _, t := range txns {
		if eligible != nil && !eligible(t) {
			continue
		}
		if !found || t.DealDate > best.DealDate || (t.DealDate == best.DealDate && t.PriceMan > best.PriceMan) {
			best = t
			found = true
		}
	}
	return best, found
}

// AllTime uses the highest non-zero price strictly before the anchor date
func AllTime() Baseline {
	return func(anchor models.Transaction, history []models.Transaction) (models.Transaction, bool) {
		return peakBefore(anchor, history, "")
	}
}

// Lookback is AllTime restricted to sales within the given years before the anchor
func Lookback(years int) Baseline {
	return func(anchor models.Transaction, history []models.Transaction) (models.Transaction, bool) {
		cutoff := YearsBefore(anchor.DealDate, years)
		if cutoff == "" {
			return models.Transaction{}, false
		}
		return peakBefore(anchor, history, cutoff)
	}
}

// peakBefore returns the max-price sale dated in [cutoff, anchor date); equal
// prices resolve to the more recent date.
func peakBefore(anchor models.Transaction, history []models.Transaction, cutoff string) (models.Transaction, bool) {
	var best models.Transaction
	found := false
	for _, t := range history {
		if t.PriceMan == 0 || t.DealDate >= anchor.DealDate || t.DealDate < cutoff {
			continue
		}
		if !found || t.PriceMan > best.PriceMan || (t.PriceMan == best.PriceMan && t.DealDate > best.DealDate) {
			best = t
			found = true
		}
	}
	return best, found
}

// Query is one ranking over a set of cohorts
type Query struct {
	Select    Selector
	Baseline  Baseline
	MinTrades int

	// Limit truncates Run results; 0 keeps every entry
	Limit int

	// KeepNonPositive emits every cohort with an anchor, including those without a
	// baseline (change and pct are then 0). Otherwise only price rises are kept.
	KeepNonPositive bool

	CountTrades   bool
	EmbedHistory  bool
	HistoryCutoff string
}

// Match is an emitted entry together with the cohort history it was computed from
type Match struct {
	Entry models.Comparison
	Txns  []models.Transaction
}

type candidate struct {
	pool    []models.Transaction
	history []models.Transaction
}

// Evaluate ranks cohorts by pct, descending, without truncation
func (q Query) Evaluate(cohorts []Cohort) []Match {
	cands := make([]candidate, len(cohorts))
	for i, c := range cohorts {
		cands[i] = candidate{pool: c.Txns, history: c.Txns}
	}
	return q.evaluate(cands)
}

// EvaluateArrivals ranks only cohorts that received new sales this run. The anchor
// is chosen among the arrivals while the baseline and trade count use the cohort's
// full history; a cohort unknown to cohorts falls back to its arrivals alone.
func (q Query) EvaluateArrivals(cohorts []Cohort, arrivals []models.Transaction) []Match {
	index := indexCohorts(cohorts)
	groups := GroupCohorts(arrivals)
	cands := make([]candidate, len(groups))
	for i, g := range groups {
		history := g.Txns
		if j, ok := index[g.Key]; ok {
			history = cohorts[j].Txns
		}
		cands[i] = candidate{pool: g.Txns, history: history}
	}
	return q.evaluate(cands)
}

// Run is Evaluate truncated to the query limit
func (q Query) Run(cohorts []Cohort) []Match {
	return Truncate(q.Evaluate(cohorts), q.Limit)
}

func (q Query) evaluate(cands []candidate) []Match {
	var matches []Match
	for _, c := range cands {
		if len(c.history) < q.MinTrades {
			continue
		}
		anchor, ok := q.Select(c.pool)
		if !ok {
			continue
		}
		entry, ok := q.compare(anchor, c.history)
		if !ok {
			continue
		}
		matches = append(matches, Match{Entry: entry, Txns: c.history})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Entry.Pct > matches[j].Entry.Pct
	})
	return matches
}

func (q Query) compare(anchor models.Transaction, history []models.Transaction) (models.Comparison, bool) {
	entry := models.Comparison{
		ID:          ApartmentID(anchor.Sigungu, anchor.AptName, anchor.AreaM2),
		AptName:     anchor.AptName,
		Sigungu:     anchor.Sigungu,
		DongName:    anchor.DongName,
		AreaM2:      anchor.AreaM2,
		LatestDate:  anchor.DealDate,
		LatestPrice: anchor.PriceMan,
		PrevPrice:   anchor.PriceMan,
		Floor:       anchor.Floor,
		DealType:    anchor.DealType,
	}

	prev, ok := q.Baseline(anchor, history)
	if ok && prev.PriceMan != 0 {
		entry.PrevDate = prev.DealDate
		entry.PrevPrice = prev.PriceMan
		entry.Change = anchor.PriceMan - prev.PriceMan
		entry.Pct = Percent(entry.Change, prev.PriceMan)
	} else if !q.KeepNonPositive {
		return models.Comparison{}, false
	}

	if !q.KeepNonPositive && entry.Pct <= 0 {
		return models.Comparison{}, false
	}
	if q.CountTrades {
		entry.TotalTrades = len(history)
	}
	if q.EmbedHistory {
		entry.History = BuildHistory(history, q.HistoryCutoff)
	}
	return entry, true
}

// Percent returns change/base*100 rounded half away from zero to 2 decimals
func Percent(change, base int64) float64 {
	if base == 0 {
		return 0
	}
	return decimal.NewFromInt(change).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(base), 2).
		InexactFloat64()
}

// Truncate keeps the first limit matches; 0 keeps all
func Truncate(matches []Match, limit int) []Match {
	if limit > 0 && len(matches) > limit {
		return matches[:limit]
	}
	return matches
}

// Entries extracts the comparisons of matches, never returning nil
func Entries(matches []Match) []models.Comparison {
	entries := make([]models.Comparison, len(matches))
	for i, m := range matches {
		entries[i] = m.Entry
	}
	return entries
}
