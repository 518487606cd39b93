package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/tcgcompanion/backend/internal/analytics/types"
	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/metrics"
	"github.com/tcgcompanion/backend/pkg/retry"
)

// ImageSource fetches the photo bytes for a stored object path.
type ImageSource interface {
	Download(ctx context.Context, objectPath string) ([]byte, string, error)
}

// CardStore writes terminal matching results onto the card row.
type CardStore interface {
	MarkMatched(ctx context.Context, cardID, refCardID uuid.UUID) error
	MarkFailed(ctx context.Context, cardID uuid.UUID) error
}

// CandidateFinder retrieves catalog candidates for extracted metadata.
type CandidateFinder interface {
	FindMatchCandidates(ctx context.Context, name string, year int, localID string) ([]models.RefCard, error)
}

// MetadataExtractor reads identification metadata off a card photo.
type MetadataExtractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (CardMetadata, error)
}

// CandidateMatcher picks one candidate for the photo.
type CandidateMatcher interface {
	Match(ctx context.Context, image []byte, mimeType string, candidates []models.RefCard) (models.RefCard, error)
}

// MatchRecorder persists per-run analytics rows. Recording is best effort and
// never fails a run.
type MatchRecorder interface {
	Insert(ctx context.Context, row types.MatchEventRow) error
}

// PipelineParams wires the matching pipeline dependencies.
type PipelineParams struct {
	Images    ImageSource
	Cards     CardStore
	Finder    CandidateFinder
	Extractor MetadataExtractor
	Matcher   CandidateMatcher
	Retry     retry.Policy
	Metrics   *metrics.MatchingMetrics
	Analytics MatchRecorder
	Logger    *logger.Logger
}

// Pipeline runs a card photo through download, extraction, candidate search
// and disambiguation, then writes the terminal state onto the card.
type Pipeline struct {
	images    ImageSource
	cards     CardStore
	finder    CandidateFinder
	extractor MetadataExtractor
	matcher   CandidateMatcher
	retry     retry.Policy
	metrics   *metrics.MatchingMetrics
	analytics MatchRecorder
	logg      *logger.Logger
}

// NewPipeline validates and wires the matching pipeline.
func NewPipeline(params PipelineParams) (*Pipeline, error) {
	if params.Images == nil {
		return nil, errors.New("image source is required")
	}
	if params.Cards == nil {
		return nil, errors.New("card store is required")
	}
	if params.Finder == nil {
		return nil, errors.New("candidate finder is required")
	}
	if params.Extractor == nil {
		return nil, errors.New("metadata extractor is required")
	}
	if params.Matcher == nil {
		return nil, errors.New("candidate matcher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	policy := params.Retry
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}

	return &Pipeline{
		images:    params.Images,
		cards:     params.Cards,
		finder:    params.Finder,
		extractor: params.Extractor,
		matcher:   params.Matcher,
		retry:     policy,
		metrics:   params.Metrics,
		analytics: params.Analytics,
		logg:      params.Logger,
	}, nil
}

type runState struct {
	meta           *CardMetadata
	candidateCount int
	refCardID      *uuid.UUID
}

// Run processes one card end to end. On any error the card is marked failed
// on a detached context before the original error is returned, so a caller
// can still decide to redeliver transient failures.
func (p *Pipeline) Run(ctx context.Context, cardID uuid.UUID, imagePath string) error {
	if cardID == uuid.Nil || imagePath == "" {
		return newStageError("run", KindSchemaInvalid, "card id and image path required")
	}

	ctx = p.logg.WithCardID(ctx, cardID.String())
	start := time.Now()
	state := &runState{}

	err := p.run(ctx, cardID, imagePath, state)
	if err != nil {
		detached := context.WithoutCancel(ctx)
		if failErr := p.cards.MarkFailed(detached, cardID); failErr != nil {
			err = multierr.Append(err, wrapStageError("persist", KindTransient, failErr, "mark card failed"))
		}
		p.metrics.IncRun(string(KindOf(err)))
		p.record(detached, cardID, state, time.Since(start), err)
		p.logg.Error(ctx, "matching run failed", err)
		return err
	}

	p.metrics.IncRun("matched")
	p.record(ctx, cardID, state, time.Since(start), nil)
	p.logg.Info(ctx, "matching run complete")
	return nil
}

func (p *Pipeline) run(ctx context.Context, cardID uuid.UUID, imagePath string, state *runState) error {
	var (
		image    []byte
		mimeType string
	)
	err := p.timedStage(ctx, "download", func(ctx context.Context) error {
		data, contentType, err := p.images.Download(ctx, imagePath)
		if err != nil {
			return wrapStageError("download", KindTransient, err, fmt.Sprintf("download %s", imagePath))
		}
		image, mimeType = data, contentType
		return nil
	})
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var meta CardMetadata
	err = p.timedStage(ctx, "extract", func(ctx context.Context) error {
		extracted, err := p.extractor.Extract(ctx, image, mimeType)
		if err != nil {
			return err
		}
		meta = extracted
		return nil
	})
	if err != nil {
		return err
	}
	state.meta = &meta

	var candidates []models.RefCard
	err = p.timedStage(ctx, "candidates", func(ctx context.Context) error {
		found, err := p.finder.FindMatchCandidates(ctx, meta.Name, meta.SetYear, meta.TcgLocalID)
		if err != nil {
			return wrapStageError("candidates", KindTransient, err, "search catalog")
		}
		candidates = found
		return nil
	})
	if err != nil {
		return err
	}
	state.candidateCount = len(candidates)
	p.metrics.ObserveCandidates(len(candidates))
	if len(candidates) == 0 {
		return newStageError("candidates", KindNoCandidates, fmt.Sprintf(
			"no catalog candidates for name=%q year=%d local_id=%q",
			meta.Name, meta.SetYear, meta.TcgLocalID))
	}

	var winner models.RefCard
	err = p.timedStage(ctx, "match", func(ctx context.Context) error {
		chosen, err := p.matcher.Match(ctx, image, mimeType, candidates)
		if err != nil {
			return err
		}
		winner = chosen
		return nil
	})
	if err != nil {
		return err
	}
	state.refCardID = &winner.ID

	if err := p.cards.MarkMatched(ctx, cardID, winner.ID); err != nil {
		return wrapStageError("persist", KindTransient, err, "mark card matched")
	}
	return nil
}

// timedStage runs one stage under the retry policy and records its duration,
// retries included.
func (p *Pipeline) timedStage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := retry.Do(ctx, p.retry, fn)
	p.metrics.ObserveStage(stage, time.Since(start))
	return err
}

func (p *Pipeline) record(ctx context.Context, cardID uuid.UUID, state *runState, elapsed time.Duration, runErr error) {
	if p.analytics == nil {
		return
	}

	row := types.MatchEventRow{
		EventID:        uuid.NewString(),
		CardID:         cardID.String(),
		Status:         "matched",
		CandidateCount: state.candidateCount,
		DurationMS:     elapsed.Milliseconds(),
		OccurredAt:     time.Now().UTC(),
	}
	if state.meta != nil {
		row.ExtractedName = types.ToNullString(state.meta.Name)
		row.ExtractedLocalID = types.ToNullString(state.meta.TcgLocalID)
		row.ExtractedYear = types.ToNullInt64(state.meta.SetYear)
	}
	if state.refCardID != nil {
		row.RefCardID = types.ToNullString(state.refCardID.String())
	}
	if runErr != nil {
		row.Status = "failed"
		row.FailureKind = types.ToNullString(string(KindOf(runErr)))
		var stageErr *StageError
		if errors.As(runErr, &stageErr) {
			row.FailureStage = types.ToNullString(stageErr.Stage)
		}
	}

	if err := p.analytics.Insert(ctx, row); err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "insert_error", err.Error()), "record match event failed")
	}
}
