package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"aptsurge/server/config"
	"aptsurge/server/internal/metrics"
	"aptsurge/server/internal/models"
	"aptsurge/server/internal/ranking"
	"aptsurge/server/internal/storage"
	"aptsurge/server/internal/summary"
)

// Fetcher downloads the trades of one region and month
type Fetcher interface {
	FetchMonth(ctx context.Context, lawdCd, dealYm string) ([]models.Transaction, error)
}

// PartitionStore holds one partition per (region, month)
type PartitionStore interface {
	PartitionExists(lawdCd, dealYm string) bool
	ReadPartition(lawdCd, dealYm string) ([]models.Transaction, error)
	ReplacePartition(lawdCd, dealYm string, records []models.Transaction) error
	LoadRegion(lawdCd string) ([]models.Transaction, error)
	CountRegion(lawdCd string) (int, error)
	Cleanup(lawdList, months []string) (int, error)
	PartitionPath(lawdCd, dealYm string) string
}

// DocumentWriter publishes the generated documents
type DocumentWriter interface {
	WriteIndex(doc *models.IndexDocument) error
	WriteSummary(doc *models.SummaryDocument) error
	WriteSearchIndex(doc *models.SearchIndexDocument) error
}

// Result summarizes one run
type Result struct {
	Fetched    int
	Skipped    int
	Errors     int
	Removed    int
	NewRecords int
	TotalTxns  int
	APIStopped bool
	Summary    *models.SummaryDocument
}

// Runner refreshes partitions from the API and republishes the documents
type Runner struct {
	cfg       *config.Config
	store     PartitionStore
	docs      DocumentWriter
	fetcher   Fetcher
	assembler *summary.Assembler
	metrics   *metrics.Pipeline
	logger    *logrus.Logger
	now       func() time.Time
}

func NewRunner(cfg *config.Config, store PartitionStore, docs DocumentWriter, fetcher Fetcher, assembler *summary.Assembler, m *metrics.Pipeline, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if m == nil {
		m = metrics.NewPipeline()
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		docs:      docs,
		fetcher:   fetcher,
		assembler: assembler,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// MonthList returns the n months ending with the month of now, oldest first
func MonthList(now time.Time, n int) []string {
	current := ranking.MonthOf(now.UTC())
	months := make([]string, n)
	for i := 0; i < n; i++ {
		months[n-1-i] = ranking.ShiftMonth(current, -i)
	}
	return months
}

type partitionKey struct {
	lawdCd string
	key    models.DedupeKey
}

// Refresh runs a full ingestion: cleanup, fetch of missing and recent partitions,
// index and summary publication.
func (r *Runner) Refresh(ctx context.Context) (*Result, error) {
	start := r.now()
	lawdList := r.cfg.LawdCodes()
	months := MonthList(r.now(), r.cfg.Retention.MonthsKept)

	refreshMonths := MonthList(r.now(), r.cfg.Retention.RefreshMonths)
	refresh := make(map[string]bool, len(refreshMonths))
	for _, ym := range refreshMonths {
		refresh[ym] = true
	}

	result := &Result{}

	removed, err := r.store.Cleanup(lawdList, months)
	if err != nil {
		return nil, fmt.Errorf("failed to clean up partitions: %w", err)
	}
	result.Removed = removed
	if removed > 0 {
		r.logger.WithField("removed", removed).Info("Removed expired partitions")
	}

	oldKeys := r.collectKeys(lawdList, refreshMonths)
	r.logger.WithField("keys", len(oldKeys)).Info("Collected keys of refreshed partitions")

	var files []models.IndexFile
	indexExisting := func(lawdCd, dealYm string) {
		records, err := r.store.ReadPartition(lawdCd, dealYm)
		if err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{"lawd_cd": lawdCd, "deal_ym": dealYm}).Warn("Failed to read partition")
			return
		}
		files = append(files, r.indexFile(lawdCd, dealYm, len(records)))
	}

	consecutiveErrors := 0
	total := len(lawdList) * len(months)
	done := 0

	for _, lawdCd := range lawdList {
		for _, dealYm := range months {
			done++
			exists := r.store.PartitionExists(lawdCd, dealYm)

			if exists && !refresh[dealYm] {
				indexExisting(lawdCd, dealYm)
				result.Skipped++
				r.metrics.Partitions.WithLabelValues("skipped").Inc()
				continue
			}

			if result.APIStopped {
				if exists {
					indexExisting(lawdCd, dealYm)
				}
				result.Skipped++
				r.metrics.Partitions.WithLabelValues("skipped").Inc()
				continue
			}

			log := r.logger.WithFields(logrus.Fields{
				"lawd_cd":  lawdCd,
				"sigungu":  config.LawdName(lawdCd),
				"deal_ym":  dealYm,
				"progress": fmt.Sprintf("%d/%d", done, total),
			})
			log.Info("Fetching partition")

			records, err := r.fetcher.FetchMonth(ctx, lawdCd, dealYm)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				result.Errors++
				consecutiveErrors++
				r.metrics.Partitions.WithLabelValues("error").Inc()
				log.WithError(err).Error("Failed to fetch partition, keeping existing data")

				if consecutiveErrors >= r.cfg.API.MaxConsecutiveErrors {
					result.APIStopped = true
					log.WithField("consecutive_errors", consecutiveErrors).Warn("Stopping API calls for this run")
				}
				if exists {
					indexExisting(lawdCd, dealYm)
				}
				continue
			}
			consecutiveErrors = 0

			if len(records) == 0 {
				log.Info("Empty response, keeping existing data")
				r.metrics.Partitions.WithLabelValues("empty").Inc()
				if exists {
					indexExisting(lawdCd, dealYm)
				}
				continue
			}

			if err := r.store.ReplacePartition(lawdCd, dealYm, records); err != nil {
				result.Errors++
				r.metrics.Partitions.WithLabelValues("error").Inc()
				log.WithError(err).Error("Failed to store partition")
				if exists {
					indexExisting(lawdCd, dealYm)
				}
				continue
			}
			files = append(files, r.indexFile(lawdCd, dealYm, len(records)))
			result.Fetched++
			r.metrics.Partitions.WithLabelValues("fetched").Inc()
		}
	}

	r.logger.WithFields(logrus.Fields{
		"fetched": result.Fetched,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	}).Info("Partitions refreshed")

	arrivals := r.collectArrivals(lawdList, refreshMonths, oldKeys)
	result.NewRecords = len(arrivals)
	r.metrics.NewRecords.Add(float64(len(arrivals)))
	r.logger.WithField("new_records", len(arrivals)).Info("Collected new records")

	for _, f := range files {
		result.TotalTxns += f.Count
	}

	index := &models.IndexDocument{
		UpdatedAt:  r.now().UTC().Format("2006-01-02T15:04:05Z"),
		MonthsKept: r.cfg.Retention.MonthsKept,
		LawdList:   lawdList,
		Files:      files,
	}
	if index.Files == nil {
		index.Files = []models.IndexFile{}
	}
	if err := r.docs.WriteIndex(index); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	doc, err := r.publish(ctx, lawdList, result.TotalTxns, arrivals)
	if err != nil {
		return nil, err
	}
	result.Summary = doc

	r.finish(start, result.TotalTxns)
	return result, nil
}

// SummaryOnly rebuilds the documents from stored partitions without calling the API
func (r *Runner) SummaryOnly(ctx context.Context) (*Result, error) {
	start := r.now()
	lawdList := r.cfg.LawdCodes()
	result := &Result{}

	for _, lawdCd := range lawdList {
		count, err := r.store.CountRegion(lawdCd)
		if err != nil {
			return nil, fmt.Errorf("failed to count region %s: %w", lawdCd, err)
		}
		result.TotalTxns += count
	}
	r.logger.WithField("total_txns", result.TotalTxns).Info("Rebuilding summary from stored partitions")

	doc, err := r.publish(ctx, lawdList, result.TotalTxns, nil)
	if err != nil {
		return nil, err
	}
	result.Summary = doc

	r.finish(start, result.TotalTxns)
	return result, nil
}

func (r *Runner) publish(ctx context.Context, lawdList []string, totalTxns int, arrivals []models.Transaction) (*models.SummaryDocument, error) {
	built, err := r.assembler.Build(ctx, lawdList, totalTxns, arrivals)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	if err := r.docs.WriteSummary(built.Summary); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	if err := r.docs.WriteSearchIndex(built.SearchIndex); err != nil {
		return nil, fmt.Errorf("failed to write search index: %w", err)
	}
	return built.Summary, nil
}

func (r *Runner) finish(start time.Time, totalTxns int) {
	end := r.now()
	r.metrics.TotalTxns.Set(float64(totalTxns))
	r.metrics.RunDuration.Set(end.Sub(start).Seconds())
	r.metrics.LastSuccessRun.Set(float64(end.Unix()))
}

func (r *Runner) indexFile(lawdCd, dealYm string, count int) models.IndexFile {
	return models.IndexFile{
		LawdCd: lawdCd,
		DealYm: dealYm,
		Count:  count,
		Path:   r.store.PartitionPath(lawdCd, dealYm),
	}
}

func (r *Runner) collectKeys(lawdList, months []string) map[partitionKey]struct{} {
	keys := make(map[partitionKey]struct{})
	for _, lawdCd := range lawdList {
		for _, dealYm := range months {
			records, err := r.store.ReadPartition(lawdCd, dealYm)
			if err != nil {
				if !errors.Is(err, storage.ErrPartitionNotFound) {
					r.logger.WithError(err).WithFields(logrus.Fields{"lawd_cd": lawdCd, "deal_ym": dealYm}).Warn("Failed to read partition keys")
				}
				continue
			}
			for _, rec := range records {
				keys[partitionKey{lawdCd: lawdCd, key: rec.Key()}] = struct{}{}
			}
		}
	}
	return keys
}

func (r *Runner) collectArrivals(lawdList, months []string, oldKeys map[partitionKey]struct{}) []models.Transaction {
	var arrivals []models.Transaction
	for _, lawdCd := range lawdList {
		for _, dealYm := range months {
			records, err := r.store.ReadPartition(lawdCd, dealYm)
			if err != nil {
				continue
			}
			for _, rec := range records {
				if _, ok := oldKeys[partitionKey{lawdCd: lawdCd, key: rec.Key()}]; !ok {
					arrivals = append(arrivals, rec)
				}
			}
		}
	}
	return arrivals
}
