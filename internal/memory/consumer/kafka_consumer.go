package consumer

import (
	"context"
	"encoding/json"

	"github.com/kristianfreeman/aii/internal/database/kafka"
	"github.com/kristianfreeman/aii/internal/memory/facts"
	"github.com/kristianfreeman/aii/internal/models"
	"github.com/kristianfreeman/aii/pkg/logger"
)

// KafkaConsumer consumes ingested turns from the ingestion topic and feeds
// them through fact extraction. This is the explicitly invoked extraction
// path; the synchronous chat pipeline never scans replies itself.
type KafkaConsumer struct {
	kafkaClient *kafka.KafkaClient
	facts       *facts.Manager
	logger      *logger.Logger
}

// NewKafkaConsumer creates a new KafkaConsumer.
func NewKafkaConsumer(kafkaClient *kafka.KafkaClient, factManager *facts.Manager, logger *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		kafkaClient: kafkaClient,
		facts:       factManager,
		logger:      logger,
	}
}

// Start launches the consumer loop in a background goroutine and returns
// immediately. The loop exits when ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) {
	go func() {
		for {
			msg, err := c.kafkaClient.Reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to fetch message")
				continue
			}

			var turn models.IngestedTurn
			if err := json.Unmarshal(msg.Value, &turn); err != nil {
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to unmarshal ingested turn")
				continue
			}

			if err := c.facts.ExtractAndUpdateFacts(ctx, turn.UserID, turn.Text); err != nil {
				c.logger.WithUser(turn.UserID).WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to extract facts from turn")
				continue
			}

			if err := c.kafkaClient.Reader.CommitMessages(ctx, msg); err != nil {
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to commit message")
			}
		}
	}()
}
