package consumer

import (
	"encoding/json"
	"fmt"

	"goalnest-wallet/internal/models"
	"goalnest-wallet/internal/mqtt"

	"go.uber.org/zap"
)

// Watched topic suffixes, one per remote table that can change a
// child's wallet or reward view.
var topicSuffixes = []string{"ledger", "offers", "redemptions"}

// RefreshFunc is invoked once per received change event.
type RefreshFunc func(event *models.ChangeEvent)

// EventConsumer subscribes to the child-scoped change topics and
// triggers one soft refresh per event. No batching or debounce: the
// refresh is idempotent recomputation, so duplicate events only cost
// extra reads.
type EventConsumer struct {
	client  *mqtt.Client
	refresh RefreshFunc
	logger  *zap.Logger
	topics  []string
}

// NewEventConsumer creates an event consumer for the resolved child.
func NewEventConsumer(client *mqtt.Client, refresh RefreshFunc, logger *zap.Logger) *EventConsumer {
	return &EventConsumer{
		client:  client,
		refresh: refresh,
		logger:  logger,
	}
}

// Subscribe attaches to the change topics for every id form of the
// child. Rows may be keyed under either the canonical id or the
// legacy uid, so both topic trees are watched.
func (c *EventConsumer) Subscribe(familyID string, childIDs []string) error {
	for _, childID := range childIDs {
		for _, suffix := range topicSuffixes {
			topic := fmt.Sprintf("goalnest/%s/%s/%s", familyID, childID, suffix)
			if err := c.client.Subscribe(topic, 1, c.handleMessage); err != nil {
				return fmt.Errorf("failed to subscribe to change topic: %w", err)
			}
			c.topics = append(c.topics, topic)
		}
	}

	c.logger.Info("Event consumer subscribed",
		zap.String("family_id", familyID),
		zap.Int("topic_count", len(c.topics)),
	)

	return nil
}

// handleMessage parses one change event and triggers a refresh.
// Malformed payloads are dropped; the returned error is logged by the
// client wrapper without breaking the subscription.
func (c *EventConsumer) handleMessage(topic string, payload []byte) error {
	var event models.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse change event: %w", err)
	}
	if event.EventType == "" {
		return fmt.Errorf("invalid change event: missing event_type")
	}

	c.logger.Debug("Change event received",
		zap.String("topic", topic),
		zap.String("event_type", event.EventType),
		zap.String("table", event.Table),
	)

	c.refresh(&event)
	return nil
}

// Unsubscribe detaches from all change topics.
func (c *EventConsumer) Unsubscribe() error {
	if len(c.topics) == 0 {
		return nil
	}
	if err := c.client.Unsubscribe(c.topics...); err != nil {
		return err
	}
	c.topics = nil
	return nil
}
