package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaxStyleSampleLength bounds a single sample in characters.
const MaxStyleSampleLength = 10000

var (
	ErrStyleSampleEmpty   = fmt.Errorf("%w: style sample cannot be empty", ErrInvalidInput)
	ErrStyleSampleTooLong = fmt.Errorf("%w: style sample exceeds %d characters", ErrInvalidInput, MaxStyleSampleLength)
)

// StyleSample is a piece of the user's own writing with its embedding.
type StyleSample struct {
	id        StyleSampleID
	userID    UserID
	content   string
	embedding []float32
	createdAt time.Time
}

// ValidateStyleText checks a raw sample before it is embedded.
func ValidateStyleText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ErrStyleSampleEmpty
	}
	if len([]rune(t)) > MaxStyleSampleLength {
		return "", ErrStyleSampleTooLong
	}
	return t, nil
}

// NewStyleSample creates a style sample. the embedding may be empty when
// no embedding service is configured.
func NewStyleSample(userID UserID, content string, embedding []float32) (*StyleSample, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("%w: style sample must belong to a user", ErrInvalidInput)
	}
	text, err := ValidateStyleText(content)
	if err != nil {
		return nil, err
	}

	return &StyleSample{
		id:        NewStyleSampleID(),
		userID:    userID,
		content:   text,
		embedding: embedding,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructStyleSample recreates a StyleSample from stored data.
func ReconstructStyleSample(id StyleSampleID, userID UserID, content string, embedding []float32, createdAt time.Time) *StyleSample {
	return &StyleSample{
		id:        id,
		userID:    userID,
		content:   content,
		embedding: embedding,
		createdAt: createdAt,
	}
}

func (s *StyleSample) ID() StyleSampleID    { return s.id }
func (s *StyleSample) UserID() UserID       { return s.userID }
func (s *StyleSample) Content() string      { return s.content }
func (s *StyleSample) Embedding() []float32 { return s.embedding }
func (s *StyleSample) CreatedAt() time.Time { return s.createdAt }

// StyleSampleRepository defines persistence for style samples.
type StyleSampleRepository interface {
	// SaveAll persists samples in one batch.
	SaveAll(ctx context.Context, samples []*StyleSample) error

	// ListByUser returns samples newest first.
	ListByUser(ctx context.Context, userID UserID, limit, offset int) ([]*StyleSample, error)

	// CountByUser returns how many samples a user has.
	CountByUser(ctx context.Context, userID UserID) (int, error)

	// FindSimilar returns the samples closest to the embedding (cosine distance).
	FindSimilar(ctx context.Context, userID UserID, embedding []float32, limit int) ([]*StyleSample, error)

	// Delete removes a sample of the user.
	Delete(ctx context.Context, userID UserID, id StyleSampleID) error
}

// ChunkTexts splits texts into consecutive batches of at most size elements.
// a non-positive size yields a single batch.
func ChunkTexts(texts []string, size int) [][]string {
	if len(texts) == 0 {
		return nil
	}
	if size <= 0 || size >= len(texts) {
		return [][]string{texts}
	}

	chunks := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		chunks = append(chunks, texts[start:end])
	}
	return chunks
}
