package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/dedupe"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/search"
)

const dlqAttempts = 5

// ErrEmptyDocument is returned for messages without owner or content.
var ErrEmptyDocument = errors.New("empty content document")

// MessageReader is the part of kafka.Reader the indexer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DocumentIndexer stores documents in the search index.
type DocumentIndexer interface {
	Index(ctx context.Context, doc search.Document) error
}

// MetricsRecorder abstracts prometheus metrics for the indexer.
type MetricsRecorder interface {
	RecordUpstreamError(service string)
}

// NewReader creates a consumer group reader with manual commits.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

// NewDLQWriter creates the writer for messages that could not be indexed.
func NewDLQWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:        kafka.TCP(brokers...),
		Topic:       topic + "_dlq",
		MaxAttempts: 3,
	}
}

// Indexer consumes the content topic into the search index.
// a message is committed once indexed, skipped as duplicate, or parked in the dlq.
type Indexer struct {
	reader  MessageReader
	dlq     MessageWriter
	index   DocumentIndexer
	seen    *dedupe.Cache
	logger  *logging.Logger
	metrics MetricsRecorder
	backoff func(attempt int) time.Duration
}

// NewIndexer creates an indexer.
func NewIndexer(reader MessageReader, dlq MessageWriter, index DocumentIndexer, seen *dedupe.Cache, logger *logging.Logger) *Indexer {
	return &Indexer{
		reader: reader,
		dlq:    dlq,
		index:  index,
		seen:   seen,
		logger: logger.WithComponent("indexer"),
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
	}
}

// WithMetrics sets the metrics recorder for observability.
func (x *Indexer) WithMetrics(m MetricsRecorder) *Indexer {
	x.metrics = m
	return x
}

// Run consumes until ctx is cancelled or the reader is closed.
func (x *Indexer) Run(ctx context.Context) error {
	x.logger.Info("indexer started")

	for {
		msg, err := x.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				x.logger.Info("indexer stopping")
				return nil
			}
			x.logger.Error("fetch message failed", "error", err.Error())
			continue
		}

		if err := x.process(ctx, msg); err != nil {
			x.logger.Warn("process message failed, sending to dlq",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err.Error(),
			)

			if !x.sendToDLQ(ctx, msg, err) {
				if ctx.Err() != nil {
					return nil
				}
				// left uncommitted so it is redelivered after a restart
				x.logger.Error("dlq write exhausted retries",
					"partition", msg.Partition,
					"offset", msg.Offset,
				)
				continue
			}
		}

		if err := x.reader.CommitMessages(ctx, msg); err != nil {
			x.logger.Error("commit message failed", "error", err.Error())
		}
	}
}

func (x *Indexer) process(ctx context.Context, msg kafka.Message) error {
	var doc search.Document
	if err := json.Unmarshal(msg.Value, &doc); err != nil {
		return fmt.Errorf("decode content message: %w", err)
	}

	if doc.UserID == "" || (strings.TrimSpace(doc.Text) == "" && strings.TrimSpace(doc.Title) == "") {
		return ErrEmptyDocument
	}
	if doc.ID == "" {
		doc.ID = search.DocumentID(doc)
	}

	version := doc.Version()
	if x.seen.Indexed(doc.ID, version) {
		x.logger.Debug("duplicate content skipped", "id", doc.ID)
		return nil
	}

	if err := x.index.Index(ctx, doc); err != nil {
		if x.metrics != nil {
			x.metrics.RecordUpstreamError("elasticsearch")
		}
		return err
	}

	x.seen.MarkIndexed(doc.ID, version)
	x.logger.Debug("content indexed", "id", doc.ID, "user_id", doc.UserID)
	return nil
}

// sendToDLQ parks a failed message with its error context, retrying with backoff.
func (x *Indexer) sendToDLQ(ctx context.Context, msg kafka.Message, cause error) bool {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
		kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
	)
	dlqMsg := kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}

	for attempt := range dlqAttempts {
		err := x.dlq.WriteMessages(ctx, dlqMsg)
		if err == nil {
			x.logger.Info("message sent to dlq",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"attempt", attempt+1,
			)
			return true
		}

		backoff := x.backoff(attempt)
		x.logger.Warn("dlq write failed, retrying",
			"attempt", attempt+1,
			"backoff", backoff.String(),
			"error", err.Error(),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
	}
	return false
}
