package matching

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/enums"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/outbox"
	"github.com/tcgcompanion/backend/pkg/outbox/payloads"
)

type pipelineRunner interface {
	Run(ctx context.Context, cardID uuid.UUID, imagePath string) error
}

type cardReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Card, error)
}

// Consumer processes card.created events from Pub/Sub and drives the
// matching pipeline. Malformed messages are acked so they never poison the
// subscription; transient failures are nacked for redelivery.
type Consumer struct {
	pipeline     pipelineRunner
	cards        cardReader
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(pipeline pipelineRunner, cards cardReader, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if pipeline == nil {
		return nil, errors.New("matching pipeline is required")
	}
	if cards == nil {
		return nil, errors.New("card reader is required")
	}
	if subscription == nil {
		return nil, errors.New("cards subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		pipeline:     pipeline,
		cards:        cards,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})
	if eventType != "" && eventType != string(enums.OutboxEventCardCreated) {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	event, err := decodeCardCreated(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode card.created payload", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithCardID(logCtx, event.CardID.String())

	card, err := c.cards.FindByID(logCtx, event.CardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Warn(logCtx, "card no longer exists")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "card lookup failed", err)
		return processResult{nack: true}
	}
	if card.MatchingStatus.IsTerminal() {
		c.logg.Info(logCtx, "card already in a terminal matching status")
		return processResult{ack: true}
	}

	if err := c.pipeline.Run(logCtx, event.CardID, event.ImagePath); err != nil {
		if IsTransient(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}
	return processResult{ack: true}
}

// decodeCardCreated unwraps the outbox envelope around a card.created event.
// The publisher sends raw JSON; a base64 layer is tolerated for manually
// injected test messages.
func decodeCardCreated(data []byte) (*payloads.CardCreatedEvent, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("payload empty")
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		data = decoded
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("envelope missing data")
	}

	var event payloads.CardCreatedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal card.created event: %w", err)
	}
	if event.CardID == uuid.Nil {
		return nil, fmt.Errorf("event missing card id")
	}
	if event.ImagePath == "" {
		return nil, fmt.Errorf("event missing image path")
	}
	return &event, nil
}
