package sets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
)

func setupSetsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS tcg_sets (
  id TEXT PRIMARY KEY,
  tcg_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  year INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	db := setupSetsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	year := 1999
	first, err := repo.Upsert(ctx, &models.TcgSet{ID: uuid.New(), TcgID: "base1", Name: "Base", Year: &year})
	require.NoError(t, err)

	renamed, err := repo.Upsert(ctx, &models.TcgSet{ID: uuid.New(), TcgID: "base1", Name: "Base Set", Year: &year})
	require.NoError(t, err)

	// Same row, refreshed name.
	assert.Equal(t, first.ID, renamed.ID)
	assert.Equal(t, "Base Set", renamed.Name)

	var count int64
	require.NoError(t, db.Model(&models.TcgSet{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindByTcgID(t *testing.T) {
	db := setupSetsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, &models.TcgSet{ID: uuid.New(), TcgID: "base1", Name: "Base Set"})
	require.NoError(t, err)

	set, err := repo.FindByTcgID(ctx, "base1")
	require.NoError(t, err)
	assert.Equal(t, "Base Set", set.Name)

	_, err = repo.FindByTcgID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
