// Package queue carries transaction events between the ingestion edge and
// the scoring engine. TransactionConsumer wraps a Sarama consumer group the
// way the teacher's RedisStreamClient wraps go-redis: connect once, expose a
// small domain-shaped API, hide the underlying client from callers.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

// TransactionEvent is the wire shape published to the Kafka topic by the
// ingestion edge.
type TransactionEvent struct {
	CustomerID    string  `json:"customer_id"`
	TransactionID string  `json:"transaction_id"`
	CustomerName  string  `json:"customer_name"`
	Amount        string  `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Type          string  `json:"type"`
	Timestamp     *string `json:"timestamp"`
}

// TransactionHandler is invoked once per decoded transaction event.
type TransactionHandler func(ctx context.Context, tx models.Transaction) error

// TransactionConsumer reads transaction events from a Kafka topic via a
// consumer group and hands each decoded transaction to a handler.
type TransactionConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler TransactionHandler
}

// NewTransactionConsumer builds a consumer group client against brokers,
// joining groupID and subscribing to topic.
func NewTransactionConsumer(brokers []string, groupID, topic string, handler TransactionHandler) (*TransactionConsumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	return &TransactionConsumer{group: group, topic: topic, handler: handler}, nil
}

// Run blocks, consuming until ctx is cancelled. Sarama rebalances the group
// internally; Run rejoins after every rebalance until ctx.Done() fires.
func (c *TransactionConsumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			log.Error().Err(err).Msg("kafka consumer group error")
		}
	}()

	handler := &groupHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("consume kafka topic %s: %w", c.topic, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close releases the consumer group's connections.
func (c *TransactionConsumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	consumer *TransactionConsumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			tx, err := decodeTransaction(message.Value)
			if err != nil {
				log.Error().Err(err).Msg("failed to decode transaction event, skipping")
				session.MarkMessage(message, "")
				continue
			}

			if err := h.consumer.handler(session.Context(), tx); err != nil {
				log.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to handle transaction event")
				continue
			}

			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func decodeTransaction(payload []byte) (models.Transaction, error) {
	var event TransactionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.Transaction{}, fmt.Errorf("unmarshal transaction event: %w", err)
	}
	return eventToTransaction(event)
}
