package enums

import "fmt"

// OutboxEventType enumerates domain events emitted through the outbox.
type OutboxEventType string

const (
	OutboxEventCardCreated OutboxEventType = "card.created"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventCardCreated,
}

func (o OutboxEventType) String() string {
	return string(o)
}

func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate a domain event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateCard OutboxAggregateType = "card"
)

func (o OutboxAggregateType) String() string {
	return string(o)
}
