package database

import (
	"fmt"

	"aptsurge/server/internal/storage"
)

// ErrPartitionNotFound is shared with the file store so callers can match either backend
var ErrPartitionNotFound = storage.ErrPartitionNotFound

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS partitions (
			lawd_cd TEXT NOT NULL,
			deal_ym TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (lawd_cd, deal_ym)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create partitions table: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lawd_cd TEXT NOT NULL,
			deal_ym TEXT NOT NULL,
			seq INTEGER NOT NULL,
			apt_name TEXT NOT NULL,
			deal_date TEXT NOT NULL,
			price_man INTEGER NOT NULL,
			area_m2 REAL NOT NULL,
			floor INTEGER NOT NULL,
			build_year INTEGER NOT NULL DEFAULT 0,
			dong_name TEXT,
			jibun TEXT,
			deal_type TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transactions table: %v", err)
	}

	// One row per dedupe key within a partition
	_, err = d.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_dedupe
		ON transactions(lawd_cd, deal_ym, apt_name, deal_date, price_man, area_m2, floor, jibun);
	`)
	if err != nil {
		return fmt.Errorf("failed to create dedupe index: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_cohort
		ON transactions(lawd_cd, apt_name, area_m2);
	`)
	if err != nil {
		return err
	}

	// deal_type arrived later in the upstream feed
	_, err = d.db.Exec(`
		ALTER TABLE transactions
		ADD COLUMN deal_type TEXT;
	`)
	if err != nil && err.Error() != "duplicate column name: deal_type" {
		return err
	}

	return nil
}
