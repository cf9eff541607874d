package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// DefaultEmbeddingBatchSize matches the embeddings api input limit.
const DefaultEmbeddingBatchSize = 100

// maxStyleSamplesPerRequest bounds a single upload.
const maxStyleSamplesPerRequest = 500

// ErrEmbeddingsUnavailable is returned when samples are submitted without an embedder.
var ErrEmbeddingsUnavailable = errors.New("embedding service not configured")

// StyleSampleOutput is the application view of a style sample.
type StyleSampleOutput struct {
	ID        string
	Content   string
	HasVector bool
	CreatedAt time.Time
}

func toStyleSampleOutput(s *domain.StyleSample) StyleSampleOutput {
	return StyleSampleOutput{
		ID:        s.ID().String(),
		Content:   s.Content(),
		HasVector: len(s.Embedding()) > 0,
		CreatedAt: s.CreatedAt(),
	}
}

// StyleSamplesUseCase embeds and stores writing samples.
type StyleSamplesUseCase struct {
	styleRepo domain.StyleSampleRepository
	embedder  Embedder
	batchSize int
	logger    *logging.Logger
}

// NewStyleSamplesUseCase creates a new StyleSamplesUseCase.
// embedder may be nil, in which case Add fails.
func NewStyleSamplesUseCase(styleRepo domain.StyleSampleRepository, embedder Embedder, logger *logging.Logger) *StyleSamplesUseCase {
	return &StyleSamplesUseCase{
		styleRepo: styleRepo,
		embedder:  embedder,
		batchSize: DefaultEmbeddingBatchSize,
		logger:    logger.WithComponent("style_samples"),
	}
}

// WithBatchSize sets how many texts go into one embeddings call.
func (uc *StyleSamplesUseCase) WithBatchSize(n int) *StyleSamplesUseCase {
	if n > 0 {
		uc.batchSize = n
	}
	return uc
}

// Add validates, embeds in batches and stores the texts.
// any empty text rejects the whole request.
func (uc *StyleSamplesUseCase) Add(ctx context.Context, rawUserID string, texts []string) ([]StyleSampleOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: at least one text is required", domain.ErrInvalidInput)
	}
	if len(texts) > maxStyleSamplesPerRequest {
		return nil, fmt.Errorf("%w: at most %d samples per request", domain.ErrInvalidInput, maxStyleSamplesPerRequest)
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		c, err := domain.ValidateStyleText(t)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		cleaned[i] = c
	}

	if uc.embedder == nil {
		return nil, ErrEmbeddingsUnavailable
	}

	samples := make([]*domain.StyleSample, 0, len(cleaned))
	for _, chunk := range domain.ChunkTexts(cleaned, uc.batchSize) {
		vectors, err := uc.embedder.Embed(ctx, chunk)
		if err != nil {
			uc.logger.Error("style sample embedding failed",
				"user_id", userID.String(),
				"chunk_size", len(chunk),
				"error", err.Error(),
			)
			return nil, fmt.Errorf("embedding samples: %w", err)
		}
		if len(vectors) != len(chunk) {
			return nil, fmt.Errorf("embedding samples: got %d vectors for %d texts", len(vectors), len(chunk))
		}

		for i, text := range chunk {
			s, err := domain.NewStyleSample(userID, text, vectors[i])
			if err != nil {
				return nil, err
			}
			samples = append(samples, s)
		}
	}

	if err := uc.styleRepo.SaveAll(ctx, samples); err != nil {
		uc.logger.Error("style sample save failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving samples: %w", err)
	}

	uc.logger.Info("style samples added",
		"user_id", userID.String(),
		"count", len(samples),
		"batch_size", uc.batchSize,
	)

	out := make([]StyleSampleOutput, 0, len(samples))
	for _, s := range samples {
		out = append(out, toStyleSampleOutput(s))
	}
	return out, nil
}

// List returns the user's samples, newest first.
func (uc *StyleSamplesUseCase) List(ctx context.Context, rawUserID string, limit, offset int) ([]StyleSampleOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	samples, err := uc.styleRepo.ListByUser(ctx, userID, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}

	out := make([]StyleSampleOutput, 0, len(samples))
	for _, s := range samples {
		out = append(out, toStyleSampleOutput(s))
	}
	return out, nil
}

// Delete removes one of the user's samples.
func (uc *StyleSamplesUseCase) Delete(ctx context.Context, rawUserID, rawSampleID string) error {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	sampleID, err := domain.ParseStyleSampleID(rawSampleID)
	if err != nil {
		return err
	}

	if err := uc.styleRepo.Delete(ctx, userID, sampleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting sample: %w", err)
	}

	uc.logger.Info("style sample deleted",
		"user_id", userID.String(),
		"sample_id", sampleID.String(),
	)
	return nil
}
