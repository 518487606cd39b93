package sets

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tcgcompanion/backend/pkg/db/models"
)

// Repository exposes catalog set persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a set repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts or refreshes a set keyed on its upstream id and returns the
// stored row.
func (r *Repository) Upsert(ctx context.Context, set *models.TcgSet) (*models.TcgSet, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tcg_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "year", "updated_at"}),
		}).
		Create(set).Error
	if err != nil {
		return nil, err
	}

	var stored models.TcgSet
	if err := r.db.WithContext(ctx).First(&stored, "tcg_id = ?", set.TcgID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByTcgID retrieves a set by its upstream id.
func (r *Repository) FindByTcgID(ctx context.Context, tcgID string) (*models.TcgSet, error) {
	var set models.TcgSet
	if err := r.db.WithContext(ctx).First(&set, "tcg_id = ?", tcgID).Error; err != nil {
		return nil, err
	}
	return &set, nil
}
