package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zlatkom/package-self-service/internal/config"
	"github.com/zlatkom/package-self-service/internal/entities"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entities.OrderStatus, actualDelivery *time.Time) error
}

// kafkaHandler consumes fulfillment status events and applies them to orders.
// Poison messages go to the <topic>-dlq topic instead of blocking the feed.
type kafkaHandler struct {
	dlq      *kafka.Writer
	reader   *kafka.Reader
	logger   *slog.Logger
	validate *validator.Validate
	updater  StatusUpdater
}

func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, updater StatusUpdater) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate: validator.New(),
		updater:  updater,
	}
}

func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			}
			h.logger.Error("failed to fetch message", slog.Any("error", err))
			continue
		}

		if err := h.handleStatusUpdate(ctx, m); err != nil {
			h.logger.Error("failed to handle message", slog.Any("error", err))

			if err := h.WriteToDLQ(ctx, m); err != nil {
				h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				continue
			}
		}

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) handleStatusUpdate(ctx context.Context, m kafka.Message) error {
	var update StatusUpdate
	if err := json.Unmarshal(m.Value, &update); err != nil {
		return fmt.Errorf("failed to unmarshal status update: %w", err)
	}

	if err := h.validate.Struct(update); err != nil {
		return fmt.Errorf("invalid status update: %w", err)
	}

	return h.updater.UpdateOrderStatus(ctx,
		uuid.MustParse(update.OrderID),
		entities.OrderStatus(update.OrderStatus),
		update.ActualDeliveryDateTime,
	)
}

func (h *kafkaHandler) WriteToDLQ(ctx context.Context, m kafka.Message) error {
	m.Topic = fmt.Sprintf("%s-dlq", m.Topic)
	return h.dlq.WriteMessages(ctx, m)
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}
