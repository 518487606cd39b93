package refcards

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
	pkgerrors "github.com/tcgcompanion/backend/pkg/errors"
	"github.com/tcgcompanion/backend/pkg/rankfusion"
)

// DefaultCandidateLimit bounds the fused candidate list handed to
// disambiguation.
const DefaultCandidateLimit = 10

// Search hints are fused 2:1:1, favoring the exact year+number query over the
// two fuzzy name queries.
var searchWeights = []float64{2.0, 1.0, 1.0}

// SearchRepository is the persistence surface candidate retrieval needs.
type SearchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.RefCard, error)
	ByYearAndLocalID(ctx context.Context, year int, localID string) ([]models.RefCard, error)
	ByYearAndName(ctx context.Context, year int, name string) ([]models.RefCard, error)
	ByLocalIDAndName(ctx context.Context, localID, name string) ([]models.RefCard, error)
}

// Service exposes catalog card lookups and candidate retrieval.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.RefCard, error)
	FindMatchCandidates(ctx context.Context, name string, year int, localID string) ([]models.RefCard, error)
}

type service struct {
	repo           SearchRepository
	candidateLimit int
}

// NewService wires catalog card dependencies.
func NewService(repo SearchRepository, candidateLimit int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "refcards repository required")
	}
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	return &service{repo: repo, candidateLimit: candidateLimit}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.RefCard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ref card id required")
	}
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ref card not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find ref card")
	}
	return card, nil
}

// FindMatchCandidates runs up to three fuzzy searches over the extracted
// hints and fuses the ranked results. Queries whose inputs are unusable are
// skipped and contribute nothing. An all-empty result is an empty list, not
// an error.
func (s *service) FindMatchCandidates(ctx context.Context, name string, year int, localID string) ([]models.RefCard, error) {
	name = strings.TrimSpace(name)
	localID = strings.TrimSpace(localID)

	lists := make([][]models.RefCard, 3)

	if year != 0 && localID != "" {
		rows, err := s.repo.ByYearAndLocalID(ctx, year, localID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search by year and local id")
		}
		lists[0] = rows
	}
	if year != 0 && name != "" {
		rows, err := s.repo.ByYearAndName(ctx, year, name)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search by year and name")
		}
		lists[1] = rows
	}
	if localID != "" && name != "" {
		rows, err := s.repo.ByLocalIDAndName(ctx, localID, name)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search by local id and name")
		}
		lists[2] = rows
	}

	fused, err := rankfusion.Fuse(lists, s.candidateLimit, searchWeights, func(c models.RefCard) uuid.UUID {
		return c.ID
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fuse candidate lists")
	}
	return fused, nil
}
