package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptsurge/server/internal/models"
	"aptsurge/server/internal/storage"
)

func newTestDatabase(t *testing.T) *Database {
	db, err := NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func records(lawd, ym string) []models.Transaction {
	return []models.Transaction{
		{LawdCd: lawd, DealYm: ym, AptName: "Riverside A", DealDate: "2024-03-10", PriceMan: 70000, AreaM2: 84.97, Floor: 12, BuildYear: 2008, DongName: "역삼동", Jibun: "1", DealType: "중개거래"},
		{LawdCd: lawd, DealYm: ym, AptName: "Hillside", DealDate: "2024-03-11", PriceMan: 45000, AreaM2: 59, Floor: 3},
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDatabase(t)
	assert.NoError(t, db.RunMigrations())
}

func TestReplaceAndReadPartition(t *testing.T) {
	db := newTestDatabase(t)

	assert.False(t, db.PartitionExists("11680", "202403"))
	_, err := db.ReadPartition("11680", "202403")
	assert.ErrorIs(t, err, storage.ErrPartitionNotFound)

	require.NoError(t, db.ReplacePartition("11680", "202403", records("11680", "202403")))
	assert.True(t, db.PartitionExists("11680", "202403"))

	got, err := db.ReadPartition("11680", "202403")
	require.NoError(t, err)
	assert.Equal(t, records("11680", "202403"), got)

	// replacing drops the previous rows
	require.NoError(t, db.ReplacePartition("11680", "202403", records("11680", "202403")[:1]))
	got, err = db.ReadPartition("11680", "202403")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	assert.Empty(t, db.PartitionPath("11680", "202403"))
}

func TestReplacePartitionIgnoresDuplicates(t *testing.T) {
	db := newTestDatabase(t)
	dup := records("11680", "202403")
	dup = append(dup, dup[0])

	require.NoError(t, db.ReplacePartition("11680", "202403", dup))
	count, err := db.CountRegion("11680")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLoadRegionAndCleanup(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.ReplacePartition("11680", "202403", records("11680", "202403")))
	require.NoError(t, db.ReplacePartition("11680", "202402", records("11680", "202402")))
	require.NoError(t, db.ReplacePartition("11650", "202403", records("11650", "202403")))

	loaded, err := db.LoadRegion("11680")
	require.NoError(t, err)
	require.Len(t, loaded, 4)
	assert.Equal(t, "202402", loaded[0].DealYm)

	// an empty partition still exists
	require.NoError(t, db.ReplacePartition("11680", "202401", nil))
	assert.True(t, db.PartitionExists("11680", "202401"))

	removed, err := db.Cleanup([]string{"11680"}, []string{"202403", "202402"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, db.PartitionExists("11650", "202403"))
	assert.False(t, db.PartitionExists("11680", "202401"))
	assert.True(t, db.PartitionExists("11680", "202402"))
}
