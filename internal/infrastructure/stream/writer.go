package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/search"
)

// MessageWriter is the part of kafka.Writer the content writer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ContentWriter publishes archived content to the content topic.
// implements worker.ContentSink.
type ContentWriter struct {
	writer MessageWriter
}

// NewContentWriter creates a writer for the content topic.
func NewContentWriter(brokers []string, topic string) *ContentWriter {
	return NewContentWriterWith(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	})
}

// NewContentWriterWith wraps an existing message writer.
func NewContentWriterWith(w MessageWriter) *ContentWriter {
	return &ContentWriter{writer: w}
}

// WriteRecords publishes one message per record, keyed by user so a user's
// content stays ordered within a partition.
func (w *ContentWriter) WriteRecords(ctx context.Context, records []domain.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		doc := search.NewDocument(rec)
		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal content message: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(doc.UserID),
			Value: payload,
			Time:  rec.FetchedAt,
		})
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write content messages: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (w *ContentWriter) Close() error {
	return w.writer.Close()
}
