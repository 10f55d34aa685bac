package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"aptsurge/server/internal/models"
)

var ErrPartitionNotFound = errors.New("partition not found")

const (
	byLawdDir       = "by_lawd"
	byAptDir        = "by_apt"
	indexFile       = "index.json"
	summaryFile     = "summary.json"
	searchIndexFile = "search_index.json"
)

// FileStore keeps partitions and published documents as JSON files:
//
//	<dataDir>/by_lawd/<lawd>/<yyyymm>.json
//	<dataDir>/by_apt/<id>.json
//	<dataDir>/{index,summary,search_index}.json
type FileStore struct {
	dataDir      string
	publicPrefix string
	logger       *logrus.Logger
}

// NewFileStore creates a store rooted at dataDir. publicPrefix is the site-relative
// location of dataDir, used for partition paths in the index document.
func NewFileStore(dataDir, publicPrefix string, logger *logrus.Logger) *FileStore {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &FileStore{dataDir: dataDir, publicPrefix: publicPrefix, logger: logger}
}

func (s *FileStore) DataDir() string {
	return s.dataDir
}

func (s *FileStore) partitionFile(lawdCd, dealYm string) string {
	return filepath.Join(s.dataDir, byLawdDir, lawdCd, dealYm+".json")
}

// PartitionPath returns the site-relative path of a partition
func (s *FileStore) PartitionPath(lawdCd, dealYm string) string {
	return path.Join(s.publicPrefix, byLawdDir, lawdCd, dealYm+".json")
}

func (s *FileStore) PartitionExists(lawdCd, dealYm string) bool {
	info, err := os.Stat(s.partitionFile(lawdCd, dealYm))
	return err == nil && !info.IsDir()
}

func (s *FileStore) ReadPartition(lawdCd, dealYm string) ([]models.Transaction, error) {
	var records []models.Transaction
	if err := ReadJSON(s.partitionFile(lawdCd, dealYm), &records); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", lawdCd, dealYm, ErrPartitionNotFound)
		}
		return nil, err
	}
	return records, nil
}

func (s *FileStore) ReplacePartition(lawdCd, dealYm string, records []models.Transaction) error {
	if records == nil {
		records = []models.Transaction{}
	}
	return WriteJSON(s.partitionFile(lawdCd, dealYm), records)
}

// LoadRegion returns every stored record of a region, partitions in month order.
// A region without partitions yields no records.
func (s *FileStore) LoadRegion(lawdCd string) ([]models.Transaction, error) {
	months, err := s.months(lawdCd)
	if err != nil {
		return nil, err
	}
	var records []models.Transaction
	for _, ym := range months {
		part, err := s.ReadPartition(lawdCd, ym)
		if err != nil {
			return nil, fmt.Errorf("failed to load region %s: %w", lawdCd, err)
		}
		records = append(records, part...)
	}
	return records, nil
}

// CountRegion returns the number of stored records of a region
func (s *FileStore) CountRegion(lawdCd string) (int, error) {
	records, err := s.LoadRegion(lawdCd)
	return len(records), err
}

func (s *FileStore) months(lawdCd string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, byLawdDir, lawdCd))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list partitions of %s: %w", lawdCd, err)
	}
	var months []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		months = append(months, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(months)
	return months, nil
}

// Cleanup removes partitions outside lawdList x months, and region directories
// left empty by it. It returns the number of removed partitions.
func (s *FileStore) Cleanup(lawdList, months []string) (int, error) {
	keepLawd := toSet(lawdList)
	keepMonth := toSet(months)

	root := filepath.Join(s.dataDir, byLawdDir)
	regions, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list regions: %w", err)
	}

	removed := 0
	for _, region := range regions {
		if !region.IsDir() {
			continue
		}
		lawdCd := region.Name()
		parts, err := s.months(lawdCd)
		if err != nil {
			return removed, err
		}
		for _, ym := range parts {
			if keepLawd[lawdCd] && keepMonth[ym] {
				continue
			}
			if err := os.Remove(s.partitionFile(lawdCd, ym)); err != nil {
				return removed, fmt.Errorf("failed to remove partition %s/%s: %w", lawdCd, ym, err)
			}
			removed++
			s.logger.WithFields(logrus.Fields{"lawd_cd": lawdCd, "deal_ym": ym}).Debug("Removed expired partition")
		}
		if !keepLawd[lawdCd] {
			// only succeeds once the directory is empty
			_ = os.Remove(filepath.Join(root, lawdCd))
		}
	}
	return removed, nil
}

func (s *FileStore) historyFile(id string) string {
	return filepath.Join(s.dataDir, byAptDir, id+".json")
}

func (s *FileStore) WriteHistory(id string, history []models.PricePoint) error {
	return WriteJSON(s.historyFile(id), history)
}

func (s *FileStore) ReadHistory(id string) ([]models.PricePoint, error) {
	var history []models.PricePoint
	if err := ReadJSON(s.historyFile(id), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *FileStore) WriteIndex(doc *models.IndexDocument) error {
	return WriteJSON(filepath.Join(s.dataDir, indexFile), doc)
}

func (s *FileStore) ReadIndex() (*models.IndexDocument, error) {
	doc := &models.IndexDocument{}
	if err := ReadJSON(filepath.Join(s.dataDir, indexFile), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) WriteSummary(doc *models.SummaryDocument) error {
	return WriteJSON(filepath.Join(s.dataDir, summaryFile), doc)
}

func (s *FileStore) ReadSummary() (*models.SummaryDocument, error) {
	doc := &models.SummaryDocument{}
	if err := ReadJSON(filepath.Join(s.dataDir, summaryFile), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) WriteSearchIndex(doc *models.SearchIndexDocument) error {
	return WriteJSON(filepath.Join(s.dataDir, searchIndexFile), doc)
}

func (s *FileStore) ReadSearchIndex() (*models.SearchIndexDocument, error) {
	doc := &models.SearchIndexDocument{}
	if err := ReadJSON(filepath.Join(s.dataDir, searchIndexFile), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
