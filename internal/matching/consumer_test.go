package matching

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/enums"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/outbox"
	"github.com/tcgcompanion/backend/pkg/outbox/payloads"
)

type fakePipeline struct {
	err   error
	calls int

	gotCardID    uuid.UUID
	gotImagePath string
}

func (f *fakePipeline) Run(_ context.Context, cardID uuid.UUID, imagePath string) error {
	f.calls++
	f.gotCardID = cardID
	f.gotImagePath = imagePath
	return f.err
}

type fakeCardReader struct {
	cards map[uuid.UUID]*models.Card
	err   error
}

func (f *fakeCardReader) FindByID(_ context.Context, id uuid.UUID) (*models.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	card, ok := f.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return card, nil
}

func newTestConsumer(t *testing.T, pipeline *fakePipeline, cards *fakeCardReader) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(pipeline, cards, &pubsub.Subscriber{},
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return consumer
}

func cardCreatedMessage(t *testing.T, cardID uuid.UUID, imagePath string) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payloads.CardCreatedEvent{
		CardID:    cardID,
		UserID:    uuid.New(),
		ImagePath: imagePath,
	})
	require.NoError(t, err)

	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)

	return &pubsub.Message{
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.OutboxEventCardCreated)},
	}
}

func TestProcessRunsPipelineForPendingCard(t *testing.T) {
	cardID := uuid.New()
	pipeline := &fakePipeline{}
	cards := &fakeCardReader{cards: map[uuid.UUID]*models.Card{
		cardID: {ID: cardID, MatchingStatus: enums.MatchingStatusPending},
	}}
	consumer := newTestConsumer(t, pipeline, cards)

	result := consumer.process(context.Background(), cardCreatedMessage(t, cardID, "cards/abc"))

	assert.True(t, result.ack)
	assert.Equal(t, 1, pipeline.calls)
	assert.Equal(t, cardID, pipeline.gotCardID)
	assert.Equal(t, "cards/abc", pipeline.gotImagePath)
}

func TestProcessAcksMalformedPayload(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer := newTestConsumer(t, pipeline, &fakeCardReader{})

	result := consumer.process(context.Background(), &pubsub.Message{Data: []byte("not json")})

	assert.True(t, result.ack)
	assert.False(t, result.nack)
	assert.Zero(t, pipeline.calls)
}

func TestProcessSkipsUnrelatedEvents(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer := newTestConsumer(t, pipeline, &fakeCardReader{})

	result := consumer.process(context.Background(), &pubsub.Message{
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": "card.deleted"},
	})

	assert.True(t, result.ack)
	assert.Zero(t, pipeline.calls)
}

func TestProcessAcksDeletedCard(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer := newTestConsumer(t, pipeline, &fakeCardReader{cards: map[uuid.UUID]*models.Card{}})

	result := consumer.process(context.Background(), cardCreatedMessage(t, uuid.New(), "cards/abc"))

	assert.True(t, result.ack)
	assert.Zero(t, pipeline.calls)
}

func TestProcessSkipsTerminalCard(t *testing.T) {
	cardID := uuid.New()
	pipeline := &fakePipeline{}
	cards := &fakeCardReader{cards: map[uuid.UUID]*models.Card{
		cardID: {ID: cardID, MatchingStatus: enums.MatchingStatusMatched},
	}}
	consumer := newTestConsumer(t, pipeline, cards)

	result := consumer.process(context.Background(), cardCreatedMessage(t, cardID, "cards/abc"))

	assert.True(t, result.ack)
	assert.Zero(t, pipeline.calls)
}

func TestProcessNacksTransientLookupFailure(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer := newTestConsumer(t, pipeline, &fakeCardReader{err: errors.New("db down")})

	result := consumer.process(context.Background(), cardCreatedMessage(t, uuid.New(), "cards/abc"))

	assert.True(t, result.nack)
	assert.Zero(t, pipeline.calls)
}

func TestProcessNacksTransientPipelineFailure(t *testing.T) {
	cardID := uuid.New()
	pipeline := &fakePipeline{err: wrapStageError("download", KindTransient, errors.New("gcs 503"), "download")}
	cards := &fakeCardReader{cards: map[uuid.UUID]*models.Card{
		cardID: {ID: cardID, MatchingStatus: enums.MatchingStatusPending},
	}}
	consumer := newTestConsumer(t, pipeline, cards)

	result := consumer.process(context.Background(), cardCreatedMessage(t, cardID, "cards/abc"))

	assert.True(t, result.nack)
}

func TestProcessAcksTerminalPipelineFailure(t *testing.T) {
	cardID := uuid.New()
	pipeline := &fakePipeline{err: newStageError("candidates", KindNoCandidates, "nothing found")}
	cards := &fakeCardReader{cards: map[uuid.UUID]*models.Card{
		cardID: {ID: cardID, MatchingStatus: enums.MatchingStatusPending},
	}}
	consumer := newTestConsumer(t, pipeline, cards)

	result := consumer.process(context.Background(), cardCreatedMessage(t, cardID, "cards/abc"))

	assert.True(t, result.ack)
	assert.False(t, result.nack)
}
