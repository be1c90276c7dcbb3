package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Event types, published as storefront.<type>
const (
	OrderCreated       = "orders.created"
	OrderCancelled     = "orders.cancelled"
	OrderStatusChanged = "orders.status_changed"
	PaymentCreated     = "payments.created"
	PaymentConfirmed   = "payments.confirmed"
	PointsEarned       = "points.earned"
	PointsRedeemed     = "points.redeemed"
	CustomerDeleted    = "customers.deleted"
	DesignSubmitted    = "designs.submitted"
	DesignUpdated      = "designs.updated"
)

// Event is the envelope carried on the bus and pushed to live feed clients
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// Publisher emits domain events after the owning transaction committed.
// Publishing never fails the caller; problems are logged.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{})
}

// Broadcaster receives every published event for in-process fan-out
type Broadcaster interface {
	Broadcast(event *Event)
}

type natsPublisher struct {
	client      *Client
	broadcaster Broadcaster
	logger      *logrus.Logger
}

// NewPublisher creates a publisher; client and broadcaster may be nil
func NewPublisher(client *Client, broadcaster Broadcaster, logger *logrus.Logger) Publisher {
	return &natsPublisher{
		client:      client,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (p *natsPublisher) Publish(ctx context.Context, eventType string, data interface{}) {
	event := &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(event)
	}

	if p.client == nil {
		return
	}
	if !p.client.IsConnected() {
		p.logger.WithField("event_type", eventType).Warn("NATS not connected, skipping event publish")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("event_type", eventType).Error("Failed to marshal event")
		return
	}

	subject := SubjectPrefix + "." + eventType
	ack, err := p.client.JetStream().Publish(subject, payload, nats.Context(ctx), nats.MsgId(event.ID))
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"event_type": eventType,
			"subject":    subject,
		}).WithError(err).Error("Failed to publish event")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"event_type": eventType,
		"sequence":   ack.Sequence,
		"stream":     ack.Stream,
	}).Debug("Published event")
}

// NoOpPublisher discards events
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(context.Context, string, interface{}) {}
