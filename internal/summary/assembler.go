package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"aptsurge/server/config"
	"aptsurge/server/internal/metrics"
	"aptsurge/server/internal/models"
	"aptsurge/server/internal/ranking"
)

// RegionSource loads every stored record of a region
type RegionSource interface {
	LoadRegion(lawdCd string) ([]models.Transaction, error)
}

// HistoryWriter persists per-apartment price histories
type HistoryWriter interface {
	WriteHistory(id string, history []models.PricePoint) error
}

// Assembler builds the summary and search index documents
type Assembler struct {
	source  RegionSource
	writer  HistoryWriter
	cfg     *config.Config
	metrics *metrics.Pipeline
	logger  *logrus.Logger
	now     func() time.Time
}

func NewAssembler(source RegionSource, writer HistoryWriter, cfg *config.Config, m *metrics.Pipeline, logger *logrus.Logger) *Assembler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if m == nil {
		m = metrics.NewPipeline()
	}
	return &Assembler{
		source:  source,
		writer:  writer,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for dates and windows
func (a *Assembler) SetClock(now func() time.Time) {
	a.now = now
}

// Result is the output of one assembly
type Result struct {
	Summary     *models.SummaryDocument
	SearchIndex *models.SearchIndexDocument
}

// Build computes both documents for the given regions. arrivals are the records
// first seen in this run; totalTxns is reported as is. A province that fails is
// logged and left out.
func (a *Assembler) Build(ctx context.Context, lawdList []string, totalTxns int, arrivals []models.Transaction) (*Result, error) {
	now := a.now().UTC()
	currentMonth := ranking.MonthOf(now)
	updatedAt := now.Format("2006-01-02T15:04:05Z")

	engine := ranking.NewEngine(ranking.Params{
		CurrentMonth:   currentMonth,
		TrailingMonths: a.cfg.Reports.TrailingMonths,
		MinTrades:      a.cfg.Reports.MinTrades,
		TopN:           a.cfg.Reports.TopN,
		LookbackYears:  a.cfg.Reports.LookbackYears,
		RecentLimit:    a.cfg.Reports.RecentLimit,
		HistoryCutoff:  ranking.HistoryCutoff(now, a.cfg.Retention.HistoryYears),
		TodayFallback:  a.cfg.Reports.TodayFallback,
	})

	codesBySido := make(map[string][]string)
	for _, code := range lawdList {
		sido := config.SidoForLawd(code)
		if sido == "" {
			a.logger.WithField("lawd_cd", code).Warn("Skipping region with unknown province")
			continue
		}
		codesBySido[sido] = append(codesBySido[sido], code)
	}

	arrivalsBySido := make(map[string][]models.Transaction)
	for _, r := range arrivals {
		sido := config.SidoForLawd(r.LawdCd)
		r.Sigungu = config.LawdName(r.LawdCd)
		arrivalsBySido[sido] = append(arrivalsBySido[sido], r)
	}

	artifacts := newArtifactSet(a.writer, engine.Params().HistoryCutoff, a.metrics, a.logger)

	summary := &models.SummaryDocument{
		UpdatedAt:    updatedAt,
		MonthsKept:   a.cfg.Retention.MonthsKept,
		TotalTxns:    totalTxns,
		CurrentMonth: currentMonth,
		Sidos:        make(map[string]models.SidoSummary),
	}
	search := &models.SearchIndexDocument{
		UpdatedAt: updatedAt,
		Sidos:     make(map[string]models.SearchSido),
	}

	present := make(map[string]bool)
	for _, sido := range sidoSequence(codesBySido) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sidoSummary, sidoSearch, err := a.buildSido(engine, artifacts, sido, codesBySido[sido], arrivalsBySido[sido])
		if err != nil {
			a.metrics.SidoFailures.WithLabelValues(sido).Inc()
			a.logger.WithError(err).WithField("sido", sido).Error("Failed to build province summary")
			continue
		}
		if sidoSummary == nil {
			continue
		}

		summary.Sidos[sido] = *sidoSummary
		search.Sidos[sido] = *sidoSearch
		present[sido] = true
		a.recordEntries(sido, sidoSummary.ReportSet)
	}

	summary.SidoOrder = config.OrderedSidos(present)
	search.SidoOrder = summary.SidoOrder

	a.logger.WithFields(logrus.Fields{
		"sidos":     len(summary.SidoOrder),
		"artifacts": artifacts.Len(),
		"total":     totalTxns,
	}).Info("Summary assembled")

	return &Result{Summary: summary, SearchIndex: search}, nil
}

// sidoSequence lists provinces in display order, followed by any the order does not know
func sidoSequence(codesBySido map[string][]string) []string {
	var seq []string
	known := make(map[string]bool)
	for _, sido := range config.SidoOrder {
		known[sido] = true
		if _, ok := codesBySido[sido]; ok {
			seq = append(seq, sido)
		}
	}
	var extra []string
	for sido := range codesBySido {
		if !known[sido] {
			extra = append(extra, sido)
		}
	}
	sort.Strings(extra)
	return append(seq, extra...)
}

func (a *Assembler) buildSido(engine *ranking.Engine, artifacts *artifactSet, sido string, codes []string, arrivals []models.Transaction) (sum *models.SidoSummary, idx *models.SearchSido, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while ranking %s: %v", sido, r)
		}
	}()

	var records []models.Transaction
	for _, code := range codes {
		regionRecords, err := a.source.LoadRegion(code)
		if err != nil {
			return nil, nil, err
		}
		name := config.LawdName(code)
		for i := range regionRecords {
			regionRecords[i].Sigungu = name
		}
		records = append(records, regionRecords...)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	groups, order := config.GroupDistricts(sido, codes)

	sum = &models.SidoSummary{Districts: make(map[string]models.DistrictSummary)}
	idx = &models.SearchSido{Items: []models.Comparison{}}
	seen := make(map[string]bool)

	for _, district := range order {
		members := make(map[string]bool)
		for _, code := range groups[district] {
			members[code] = true
		}

		distRecords := filterByLawd(records, members)
		if len(distRecords) == 0 {
			continue
		}
		distArrivals := filterByLawd(arrivals, members)

		cohorts := ranking.GroupCohorts(distRecords)
		reports, matches := engine.ReportSet(cohorts, distArrivals)
		artifacts.AddMatches(matches)

		sum.Districts[district] = models.DistrictSummary{
			ReportSet: reports,
			DongOrder: dongOrder(distRecords),
		}
		sum.DistrictOrder = append(sum.DistrictOrder, district)

		items := engine.Search(cohorts)
		artifacts.AddMatches(items)
		for _, m := range items {
			if seen[m.Entry.ID] {
				continue
			}
			seen[m.Entry.ID] = true
			item := m.Entry
			item.District = district
			idx.Items = append(idx.Items, item)
		}
	}

	sort.Strings(sum.DistrictOrder)
	idx.DistrictOrder = sum.DistrictOrder

	reports, matches := engine.ReportSet(ranking.GroupCohorts(records), arrivals)
	artifacts.AddMatches(matches)
	sum.ReportSet = reports

	sort.SliceStable(idx.Items, func(i, j int) bool {
		return idx.Items[i].Pct > idx.Items[j].Pct
	})

	return sum, idx, nil
}

func (a *Assembler) recordEntries(sido string, set models.ReportSet) {
	for report, r := range map[string]models.Report{
		"section1": set.Section1,
		"section2": set.Section2,
		"section3": set.Section3,
		"section4": set.Section4,
		"recent":   set.Recent,
	} {
		a.metrics.ReportEntries.WithLabelValues(sido, report).Set(float64(len(r.Top3)))
	}
}

func filterByLawd(records []models.Transaction, members map[string]bool) []models.Transaction {
	var out []models.Transaction
	for _, r := range records {
		if members[r.LawdCd] {
			out = append(out, r)
		}
	}
	return out
}

func dongOrder(records []models.Transaction) []string {
	set := make(map[string]bool)
	for _, r := range records {
		if r.DongName != "" {
			set[r.DongName] = true
		}
	}
	dongs := make([]string, 0, len(set))
	for d := range set {
		dongs = append(dongs, d)
	}
	sort.Strings(dongs)
	return dongs
}
