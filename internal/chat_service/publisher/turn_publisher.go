package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kristianfreeman/aii/internal/models"

	"github.com/segmentio/kafka-go"
)

// TurnPublisher publishes completed chat turns to the ingestion topic, where
// the memory service extracts facts out of band. Publishing only enriches
// future memory, so callers treat failures as non-fatal.
type TurnPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewTurnPublisher creates a new TurnPublisher.
func NewTurnPublisher(writer *kafka.Writer, topic string) *TurnPublisher {
	return &TurnPublisher{writer: writer, topic: topic}
}

// Publish sends one ingested turn, keyed by user id so a user's turns stay
// ordered within a partition.
func (p *TurnPublisher) Publish(ctx context.Context, turn models.IngestedTurn) error {
	value, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode ingested turn: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(turn.UserID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish ingested turn: %w", err)
	}
	return nil
}
