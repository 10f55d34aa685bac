package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"aptsurge/server/internal/models"
)

// Database is a SQLite-backed partition store
type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases and write ordering consistent
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

// PartitionPath is empty: database partitions have no public file
func (d *Database) PartitionPath(lawdCd, dealYm string) string {
	return ""
}

func (d *Database) PartitionExists(lawdCd, dealYm string) bool {
	var exists bool
	err := d.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM partitions WHERE lawd_cd = ? AND deal_ym = ?)
	`, lawdCd, dealYm).Scan(&exists)
	return err == nil && exists
}

func (d *Database) ReadPartition(lawdCd, dealYm string) ([]models.Transaction, error) {
	if !d.PartitionExists(lawdCd, dealYm) {
		return nil, fmt.Errorf("%s/%s: %w", lawdCd, dealYm, ErrPartitionNotFound)
	}
	return d.queryTransactions(`WHERE lawd_cd = ? AND deal_ym = ?`, lawdCd, dealYm)
}

// ReplacePartition swaps the records of one partition inside a single transaction
func (d *Database) ReplacePartition(lawdCd, dealYm string, records []models.Transaction) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transactions WHERE lawd_cd = ? AND deal_ym = ?`, lawdCd, dealYm); err != nil {
		return fmt.Errorf("failed to clear partition: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO transactions
		(lawd_cd, deal_ym, seq, apt_name, deal_date, price_man, area_m2, floor,
		 build_year, dong_name, jibun, deal_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err = stmt.Exec(
			lawdCd,
			dealYm,
			i,
			r.AptName,
			r.DealDate,
			r.PriceMan,
			r.AreaM2,
			r.Floor,
			r.BuildYear,
			r.DongName,
			r.Jibun,
			r.DealType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO partitions (lawd_cd, deal_ym, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(lawd_cd, deal_ym) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, lawdCd, dealYm); err != nil {
		return fmt.Errorf("failed to record partition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (d *Database) LoadRegion(lawdCd string) ([]models.Transaction, error) {
	records, err := d.queryTransactions(`WHERE lawd_cd = ?`, lawdCd)
	if err != nil {
		return nil, fmt.Errorf("failed to load region %s: %w", lawdCd, err)
	}
	return records, nil
}

func (d *Database) CountRegion(lawdCd string) (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE lawd_cd = ?`, lawdCd).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count region %s: %w", lawdCd, err)
	}
	return count, nil
}

// Cleanup removes partitions outside lawdList x months
func (d *Database) Cleanup(lawdList, months []string) (int, error) {
	rows, err := d.db.Query(`SELECT lawd_cd, deal_ym FROM partitions`)
	if err != nil {
		return 0, fmt.Errorf("failed to list partitions: %w", err)
	}

	keepLawd := toSet(lawdList)
	keepMonth := toSet(months)
	var expired [][2]string
	for rows.Next() {
		var lawdCd, dealYm string
		if err := rows.Scan(&lawdCd, &dealYm); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan partition: %w", err)
		}
		if !keepLawd[lawdCd] || !keepMonth[dealYm] {
			expired = append(expired, [2]string{lawdCd, dealYm})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for i, p := range expired {
		if _, err := d.db.Exec(`DELETE FROM transactions WHERE lawd_cd = ? AND deal_ym = ?`, p[0], p[1]); err != nil {
			return i, fmt.Errorf("failed to remove partition %s/%s: %w", p[0], p[1], err)
		}
		if _, err := d.db.Exec(`DELETE FROM partitions WHERE lawd_cd = ? AND deal_ym = ?`, p[0], p[1]); err != nil {
			return i, fmt.Errorf("failed to remove partition %s/%s: %w", p[0], p[1], err)
		}
	}
	return len(expired), nil
}

func (d *Database) queryTransactions(where string, args ...interface{}) ([]models.Transaction, error) {
	query := `
		SELECT
			lawd_cd,
			deal_ym,
			apt_name,
			deal_date,
			price_man,
			area_m2,
			floor,
			build_year,
			COALESCE(dong_name, ''),
			COALESCE(jibun, ''),
			COALESCE(deal_type, '')
		FROM transactions
	` + where + `
		ORDER BY deal_ym, seq
	`
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var records []models.Transaction
	for rows.Next() {
		var r models.Transaction
		err := rows.Scan(
			&r.LawdCd,
			&r.DealYm,
			&r.AptName,
			&r.DealDate,
			&r.PriceMan,
			&r.AreaM2,
			&r.Floor,
			&r.BuildYear,
			&r.DongName,
			&r.Jibun,
			&r.DealType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
