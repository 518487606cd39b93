// Package catalog syncs the upstream card feed into the local reference tables.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/tcgdex"
)

const (
	defaultConcurrency = 5
	defaultUpsertChunk = 200
)

type feed interface {
	ListSets(ctx context.Context) ([]tcgdex.SetBrief, error)
	GetSet(ctx context.Context, setID string) (*tcgdex.Set, error)
}

type setStore interface {
	Upsert(ctx context.Context, set *models.TcgSet) (*models.TcgSet, error)
}

type cardStore interface {
	UpsertMany(ctx context.Context, cards []models.RefCard) error
}

// IngestorParams wires the catalog sync dependencies.
type IngestorParams struct {
	Feed  feed
	Sets  setStore
	Cards cardStore
	// Concurrency bounds how many sets are fetched and written at once.
	Concurrency int
	// UpsertChunk bounds how many cards go into one upsert statement.
	UpsertChunk int
	Logger      *logger.Logger
}

// Ingestor pulls the full upstream catalog and upserts it locally. Re-running
// a sync refreshes existing rows in place.
type Ingestor struct {
	feed        feed
	sets        setStore
	cards       cardStore
	concurrency int
	upsertChunk int
	logg        *logger.Logger
}

// Report summarizes one catalog sync run.
type Report struct {
	Sets       int
	Cards      int
	FailedSets []string
}

// NewIngestor validates and wires the catalog sync.
func NewIngestor(params IngestorParams) (*Ingestor, error) {
	if params.Feed == nil {
		return nil, errors.New("catalog feed is required")
	}
	if params.Sets == nil {
		return nil, errors.New("set store is required")
	}
	if params.Cards == nil {
		return nil, errors.New("card store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	concurrency := params.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	chunk := params.UpsertChunk
	if chunk < 1 {
		chunk = defaultUpsertChunk
	}

	return &Ingestor{
		feed:        params.Feed,
		sets:        params.Sets,
		cards:       params.Cards,
		concurrency: concurrency,
		upsertChunk: chunk,
		logg:        params.Logger,
	}, nil
}

// Sync pulls every set from the feed. A failing set is recorded and skipped
// so one bad upstream payload never aborts the whole run; the returned error
// is non-nil when any set failed.
func (i *Ingestor) Sync(ctx context.Context) (*Report, error) {
	briefs, err := i.feed.ListSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog sets: %w", err)
	}

	var (
		mu     sync.Mutex
		report Report
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(i.concurrency)
	for _, brief := range briefs {
		group.Go(func() error {
			cards, err := i.syncSet(groupCtx, brief.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				i.logg.Error(i.logg.WithField(groupCtx, "set_id", brief.ID), "catalog set sync failed", err)
				report.FailedSets = append(report.FailedSets, brief.ID)
				return nil
			}
			report.Sets++
			report.Cards += cards
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return &report, err
	}

	if len(report.FailedSets) > 0 {
		return &report, fmt.Errorf("catalog sync: %d of %d sets failed", len(report.FailedSets), len(briefs))
	}
	return &report, nil
}

// SyncOne refreshes a single set by its feed ID.
func (i *Ingestor) SyncOne(ctx context.Context, setID string) (*Report, error) {
	cards, err := i.syncSet(ctx, setID)
	if err != nil {
		return &Report{FailedSets: []string{setID}}, fmt.Errorf("sync set %s: %w", setID, err)
	}
	return &Report{Sets: 1, Cards: cards}, nil
}

func (i *Ingestor) syncSet(ctx context.Context, setID string) (int, error) {
	set, err := i.feed.GetSet(ctx, setID)
	if err != nil {
		return 0, fmt.Errorf("fetch set: %w", err)
	}

	row := &models.TcgSet{TcgID: set.ID, Name: set.Name}
	if year := set.ReleaseYear(); year > 0 {
		row.Year = &year
	}
	stored, err := i.sets.Upsert(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("upsert set: %w", err)
	}

	cards := make([]models.RefCard, 0, len(set.Cards))
	for _, card := range set.Cards {
		if card.ID == "" || card.Name == "" || card.LocalID == "" {
			continue
		}
		refCard := models.RefCard{
			TcgID:      card.ID,
			TcgLocalID: card.LocalID,
			Name:       card.Name,
			SetID:      stored.ID,
			SetName:    stored.Name,
			SetYear:    stored.Year,
		}
		if image := card.ImageURL(); image != "" {
			refCard.ImageURL = &image
		}
		cards = append(cards, refCard)
	}

	for start := 0; start < len(cards); start += i.upsertChunk {
		end := min(start+i.upsertChunk, len(cards))
		if err := i.cards.UpsertMany(ctx, cards[start:end]); err != nil {
			return 0, fmt.Errorf("upsert cards: %w", err)
		}
	}
	return len(cards), nil
}
