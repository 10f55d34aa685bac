package runlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run records one pipeline execution
type Run struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Mode       string    `gorm:"size:16;index" json:"mode"`
	Status     string    `gorm:"size:16" json:"status"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	NewRecords int       `json:"new_records"`
	TotalTxns  int       `json:"total_txns"`
	Message    string    `json:"message,omitempty"`
}

// Store persists runs with retried transactions
type Store struct {
	db         *gorm.DB
	logger     *logrus.Logger
	maxRetries int
	retryDelay time.Duration
}

// Open opens (or creates) the run log database at path
func Open(path string, logger *logrus.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return NewStore(db, logger)
}

func NewStore(db *gorm.DB, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("failed to migrate run log: %w", err)
	}
	return &Store{
		db:         db,
		logger:     logger,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Start records a new running run
func (s *Store) Start(mode string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.save(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stamps the run and stores its final state
func (s *Store) Finish(run *Run, runErr error) error {
	run.FinishedAt = time.Now().UTC()
	run.Status = StatusSucceeded
	if runErr != nil {
		run.Status = StatusFailed
		run.Message = runErr.Error()
	}
	return s.save(run)
}

func (s *Store) save(run *Run) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Infof("Retrying run log write, attempt %d of %d", attempt, s.maxRetries)
			time.Sleep(s.retryDelay)
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(run).Error; err != nil {
				return fmt.Errorf("failed to save run %s: %w", run.ID, err)
			}
			return nil
		})
		if err == nil {
			return nil
		}

		s.logger.Errorf("Run log write failed: %v", err)
	}

	return fmt.Errorf("failed to write run log after %d attempts: %w", s.maxRetries, err)
}

// Recent returns the latest runs, newest first
func (s *Store) Recent(limit int) ([]Run, error) {
	var runs []Run
	if err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Last returns the latest run of a mode
func (s *Store) Last(mode string) (*Run, error) {
	var run Run
	if err := s.db.Where("mode = ?", mode).Order("started_at DESC").First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
