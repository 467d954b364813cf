// Package consumer applies reference registrations published by other
// instances to the local registries and store.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/kafka"
)

// HandleMessage returns a Kafka handler that registers each ReferenceEvent.
// Events from origin are skipped since they were applied when published.
// Malformed or invalid events are logged and committed; a failure to
// persist is returned so the offset stays uncommitted.
func HandleMessage(registrar *ingestion.Registrar, origin string) kafka.Handler {
	logger := slog.Default().With("component", "reference-consumer")
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := kafka.DecodeJSON[ingestion.ReferenceEvent](msg.Value)
		if err != nil {
			logger.Error("failed to decode reference event", "offset", msg.Offset, "key", string(msg.Key), "error", err)
			return nil
		}
		if event.Origin != "" && event.Origin == origin {
			return nil
		}
		if event.ID == "" {
			logger.Warn("skipping reference event without id", "offset", msg.Offset)
			return nil
		}
		req := ingestion.RegisterRequest{ID: event.ID, Text: event.Text, Fields: event.Fields}
		if err := validator.ValidateRegisterRequest(event.Kind, &req); err != nil {
			logger.Warn("skipping invalid reference event", "offset", msg.Offset, "id", event.ID, "error", err)
			return nil
		}
		_, err = registrar.Register(ctx, event.Kind, event.ID, event.Text, event.Fields, ingestion.SourceKafka)
		if errors.Is(err, apperrors.ErrCorpusSealed) {
			logger.Warn("corpus sealed, dropping reference event", "kind", event.Kind, "id", event.ID)
			return nil
		}
		return err
	}
}
