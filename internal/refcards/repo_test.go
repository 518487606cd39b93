package refcards

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
)

// trigramSimilarity approximates Postgres pg_trgm similarity for tests:
// trigram set overlap over union, case-insensitive, with boundary padding.
func trigramSimilarity(a, b string) float64 {
	left := trigrams(a)
	right := trigrams(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	shared := 0
	for tri := range left {
		if _, ok := right[tri]; ok {
			shared++
		}
	}
	union := len(left) + len(right) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(s)) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}

var registerSimilarityDriver sync.Once

func setupRefCardsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	registerSimilarityDriver.Do(func() {
		sql.Register("sqlite3_similarity", &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("similarity", trigramSimilarity, true)
			},
		})
	})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite3_similarity", DSN: dsn}), &gorm.Config{})
	require.NoError(t, err)

	tcgSets := `
CREATE TABLE IF NOT EXISTS tcg_sets (
  id TEXT PRIMARY KEY,
  tcg_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  year INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`
	refCards := `
CREATE TABLE IF NOT EXISTS ref_cards (
  id TEXT PRIMARY KEY,
  tcg_id TEXT NOT NULL UNIQUE,
  tcg_local_id TEXT NOT NULL,
  name TEXT NOT NULL,
  image_url TEXT,
  set_id TEXT NOT NULL,
  set_name TEXT NOT NULL,
  set_year INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(tcgSets).Error)
	require.NoError(t, db.Exec(refCards).Error)
	return db
}

func seedRefCard(t *testing.T, db *gorm.DB, tcgID, localID, name string, year int) models.RefCard {
	t.Helper()
	card := models.RefCard{
		ID:         uuid.New(),
		TcgID:      tcgID,
		TcgLocalID: localID,
		Name:       name,
		SetID:      uuid.New(),
		SetName:    "Base Set",
		SetYear:    &year,
	}
	require.NoError(t, db.Create(&card).Error)
	return card
}

func TestByYearAndLocalID(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	want := seedRefCard(t, db, "base1-58", "58", "Pikachu", 1999)
	seedRefCard(t, db, "base1-4", "4", "Charizard", 1999)
	seedRefCard(t, db, "neo1-58", "58", "Pikachu", 2000)

	rows, err := repo.ByYearAndLocalID(ctx, 1999, "58")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, want.ID, rows[0].ID)
}

func TestByYearAndNameFuzzyMatch(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	want := seedRefCard(t, db, "base1-58", "58", "Pikachu", 1999)
	seedRefCard(t, db, "base1-4", "4", "Charizard", 1999)

	// Misread name still clears the similarity threshold.
	rows, err := repo.ByYearAndName(ctx, 1999, "Pikchu")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, want.ID, rows[0].ID)
}

func TestByYearAndNameNoMatchBelowThreshold(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)

	seedRefCard(t, db, "base1-58", "58", "Pikachu", 1999)

	rows, err := repo.ByYearAndName(context.Background(), 1999, "Blastoise")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestByLocalIDAndName(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	want := seedRefCard(t, db, "base1-58", "58", "Pikachu", 1999)
	seedRefCard(t, db, "base1-4", "4", "Charizard", 1999)

	rows, err := repo.ByLocalIDAndName(ctx, "58", "Pikachu")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, want.ID, rows[0].ID)
}

func TestUpsertManyDeduplicatesOnTcgID(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	year := 1999
	setID := uuid.New()
	first := models.RefCard{
		ID: uuid.New(), TcgID: "base1-58", TcgLocalID: "58", Name: "Pikachu",
		SetID: setID, SetName: "Base Set", SetYear: &year,
	}
	require.NoError(t, repo.UpsertMany(ctx, []models.RefCard{first}))

	updated := models.RefCard{
		ID: uuid.New(), TcgID: "base1-58", TcgLocalID: "58", Name: "Pikachu (revised)",
		SetID: setID, SetName: "Base Set", SetYear: &year,
	}
	require.NoError(t, repo.UpsertMany(ctx, []models.RefCard{updated}))

	var count int64
	require.NoError(t, db.Model(&models.RefCard{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var row models.RefCard
	require.NoError(t, db.First(&row, "tcg_id = ?", "base1-58").Error)
	assert.Equal(t, "Pikachu (revised)", row.Name)
}

func TestUpsertManyEmptySliceIsNoop(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)
	require.NoError(t, repo.UpsertMany(context.Background(), nil))
}

func TestFindByID(t *testing.T) {
	db := setupRefCardsTestDB(t)
	repo := NewRepository(db)

	want := seedRefCard(t, db, "base1-58", "58", "Pikachu", 1999)

	got, err := repo.FindByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
