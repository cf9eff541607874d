package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/dedupe"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/search"
)

type fakeWriter struct {
	msgs     []kafka.Message
	failures int
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type fakeIndex struct {
	docs []search.Document
	err  error
}

func (i *fakeIndex) Index(ctx context.Context, doc search.Document) error {
	if i.err != nil {
		return i.err
	}
	i.docs = append(i.docs, doc)
	return nil
}

func record(userID domain.UserID, text string) domain.ContentRecord {
	return domain.ContentRecord{
		UserID: userID,
		Item: domain.NewContentItem(domain.ContentItemParams{
			SourceID:   domain.NewSourceID(),
			SourceType: domain.SourceTypeTwitter,
			Text:       text,
		}),
		FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestContentWriter_WriteRecords(t *testing.T) {
	fw := &fakeWriter{}
	w := NewContentWriterWith(fw)
	userID := domain.NewUserID()

	err := w.WriteRecords(context.Background(), []domain.ContentRecord{
		record(userID, "first"),
		record(userID, "second"),
	})

	require.NoError(t, err)
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, userID.String(), string(fw.msgs[0].Key))

	var doc search.Document
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &doc))
	assert.Equal(t, "second", doc.Text)
	assert.NotEmpty(t, doc.ID)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestContentWriter_Error(t *testing.T) {
	w := NewContentWriterWith(&fakeWriter{failures: 1})

	err := w.WriteRecords(context.Background(), []domain.ContentRecord{record(domain.NewUserID(), "x")})

	assert.ErrorContains(t, err, "broker unavailable")
}

func TestContentWriter_Empty(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, NewContentWriterWith(fw).WriteRecords(context.Background(), nil))
	assert.Empty(t, fw.msgs)
}

func message(t *testing.T, offset int64, rec domain.ContentRecord) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(search.NewDocument(rec))
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: payload}
}

func newTestIndexer(reader *fakeReader, dlq *fakeWriter, index *fakeIndex) *Indexer {
	x := NewIndexer(reader, dlq, index, dedupe.NewCache(100, time.Hour), logging.Discard())
	x.backoff = func(int) time.Duration { return time.Millisecond }
	return x
}

func TestIndexer_IndexesAndCommits(t *testing.T) {
	rec := record(domain.NewUserID(), "golang generics")
	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, rec),
		message(t, 2, rec), // redelivered duplicate
	}}
	index := &fakeIndex{}

	err := newTestIndexer(reader, &fakeWriter{}, index).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, index.docs, 1)
	assert.Equal(t, "golang generics", index.docs[0].Text)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}

func TestIndexer_RefetchWithNewEngagementReindexed(t *testing.T) {
	userID := domain.NewUserID()
	sourceID := domain.NewSourceID()
	fetch := func(likes int64) domain.ContentRecord {
		return domain.ContentRecord{
			UserID: userID,
			Item: domain.NewContentItem(domain.ContentItemParams{
				SourceID:   sourceID,
				SourceType: domain.SourceTypeYouTube,
				URL:        "https://youtu.be/gophers",
				Text:       "gophercon keynote",
				Engagement: domain.Engagement{Likes: likes},
			}),
		}
	}
	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, fetch(10)),
		message(t, 2, fetch(10)),
		message(t, 3, fetch(25)),
	}}
	index := &fakeIndex{}

	require.NoError(t, newTestIndexer(reader, &fakeWriter{}, index).Run(context.Background()))

	require.Len(t, index.docs, 2)
	assert.Equal(t, index.docs[0].ID, index.docs[1].ID)
	assert.Equal(t, int64(25), index.docs[1].Likes)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestIndexer_BadMessageGoesToDLQ(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 7, Value: []byte("not json")},
		{Offset: 8, Value: []byte(`{"user_id": "u"}`)},
	}}
	dlq := &fakeWriter{failures: 1}

	err := newTestIndexer(reader, dlq, &fakeIndex{}).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, dlq.msgs, 2)
	assert.Equal(t, []int64{7, 8}, reader.committed)

	headers := map[string]string{}
	for _, h := range dlq.msgs[1].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "8", headers["original_offset"])
	assert.Equal(t, ErrEmptyDocument.Error(), headers["error"])
}

type upstreamCounter struct {
	counts map[string]int
}

func (c *upstreamCounter) RecordUpstreamError(service string) {
	c.counts[service]++
}

func TestIndexer_IndexFailureNotMarkedSeen(t *testing.T) {
	rec := record(domain.NewUserID(), "retry me")
	reader := &fakeReader{msgs: []kafka.Message{message(t, 1, rec)}}
	index := &fakeIndex{err: errors.New("cluster red")}
	metrics := &upstreamCounter{counts: map[string]int{}}

	x := newTestIndexer(reader, &fakeWriter{}, index).WithMetrics(metrics)
	require.NoError(t, x.Run(context.Background()))

	assert.Equal(t, 1, metrics.counts["elasticsearch"])
	doc := search.NewDocument(rec)
	assert.False(t, x.seen.Indexed(doc.ID, doc.Version()))
}

func TestIndexer_DLQExhaustedLeavesUncommitted(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 3, Value: []byte("bad")}}}
	dlq := &fakeWriter{failures: dlqAttempts}

	require.NoError(t, newTestIndexer(reader, dlq, &fakeIndex{}).Run(context.Background()))

	assert.Empty(t, reader.committed)
	assert.Empty(t, dlq.msgs)
}
