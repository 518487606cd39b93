package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/tcgcompanion/backend/internal/analytics/types"
)

type fakeInserter struct {
	failures int
	err      error
	calls    int
}

func (f *fakeInserter) InsertRows(_ context.Context, _ string, _ []any) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	return nil
}

func newTestWriter(inserter *fakeInserter) *MatchEventWriter {
	return &MatchEventWriter{
		client: inserter,
		table:  "match_events",
		retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaximumBackoff: 2 * time.Millisecond,
		},
	}
}

func TestInsertRetriesTransientErrors(t *testing.T) {
	inserter := &fakeInserter{
		failures: 2,
		err:      &googleapi.Error{Code: http.StatusServiceUnavailable},
	}
	w := newTestWriter(inserter)

	err := w.Insert(context.Background(), types.MatchEventRow{CardID: "abc", Status: "matched"})
	require.NoError(t, err)
	assert.Equal(t, 3, inserter.calls)
}

func TestInsertDoesNotRetryClientErrors(t *testing.T) {
	inserter := &fakeInserter{
		failures: 5,
		err:      &googleapi.Error{Code: http.StatusBadRequest},
	}
	w := newTestWriter(inserter)

	err := w.Insert(context.Background(), types.MatchEventRow{CardID: "abc"})
	require.Error(t, err)
	assert.Equal(t, 1, inserter.calls)
}

func TestInsertGivesUpAfterMaxAttempts(t *testing.T) {
	inserter := &fakeInserter{
		failures: 5,
		err:      &googleapi.Error{Code: http.StatusServiceUnavailable},
	}
	w := newTestWriter(inserter)

	err := w.Insert(context.Background(), types.MatchEventRow{CardID: "abc"})
	require.Error(t, err)
	assert.Equal(t, 3, inserter.calls)
}

func TestInsertStopsOnCanceledContext(t *testing.T) {
	inserter := &fakeInserter{failures: 5, err: errors.New("down")}
	w := newTestWriter(inserter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Insert(ctx, types.MatchEventRow{CardID: "abc"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inserter.calls)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, Config{MatchEventsTable: "match_events"})
	assert.Error(t, err)
}
