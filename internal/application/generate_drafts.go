package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const (
	// defaultDraftTopics is how many latest trends seed generation when no topics are given.
	defaultDraftTopics = 3

	// styleExamplesPerDraft is how many similar style samples go into a prompt.
	styleExamplesPerDraft = 3

	maxDraftTopics = 10
)

// ErrNoTrends is returned when generation has no topics to write about.
var ErrNoTrends = fmt.Errorf("%w: no trending topics available, refresh trends or pass topics", domain.ErrInvalidInput)

// DraftRequest is everything a writer needs for one draft.
type DraftRequest struct {
	Platform      domain.Platform
	Topic         string
	Summary       string
	Niche         string
	Tone          string
	StyleExamples []string
}

// DraftWriter produces draft text with an llm.
type DraftWriter interface {
	WriteDraft(ctx context.Context, req DraftRequest) (string, error)
}

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DraftRecorder abstracts prometheus metrics for generation.
type DraftRecorder interface {
	RecordDraftsGenerated(platform string, count int)
}

// DraftOutput is the application view of a draft.
type DraftOutput struct {
	ID        string
	Platform  string
	Topic     string
	Content   string
	Hashtags  []string
	ImageURL  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toDraftOutput(d *domain.Draft) DraftOutput {
	return DraftOutput{
		ID:        d.ID().String(),
		Platform:  d.Platform().String(),
		Topic:     d.Topic(),
		Content:   d.Content(),
		Hashtags:  d.Hashtags(),
		ImageURL:  d.ImageURL(),
		Status:    string(d.Status()),
		CreatedAt: d.CreatedAt(),
		UpdatedAt: d.UpdatedAt(),
	}
}

// GenerateDraftsInput contains the data needed to generate drafts.
type GenerateDraftsInput struct {
	UserID string
	// Platforms defaults to the profile's target platforms when empty
	Platforms []string
	// Topics defaults to the latest top trends when empty
	Topics []string
}

// GenerateDraftsUseCase writes one draft per platform x topic.
type GenerateDraftsUseCase struct {
	trendRepo   domain.TrendRepository
	profileRepo domain.ProfileRepository
	styleRepo   domain.StyleSampleRepository
	draftRepo   domain.DraftRepository
	uow         UnitOfWork
	writer      DraftWriter
	embedder    Embedder
	recorder    DraftRecorder
	logger      *logging.Logger
}

// NewGenerateDraftsUseCase creates a new GenerateDraftsUseCase.
func NewGenerateDraftsUseCase(
	trendRepo domain.TrendRepository,
	profileRepo domain.ProfileRepository,
	styleRepo domain.StyleSampleRepository,
	draftRepo domain.DraftRepository,
	uow UnitOfWork,
	writer DraftWriter,
	logger *logging.Logger,
) *GenerateDraftsUseCase {
	return &GenerateDraftsUseCase{
		trendRepo:   trendRepo,
		profileRepo: profileRepo,
		styleRepo:   styleRepo,
		draftRepo:   draftRepo,
		uow:         uow,
		writer:      writer,
		logger:      logger.WithComponent("generate_drafts"),
	}
}

// WithEmbedder enables style sample retrieval by similarity.
func (uc *GenerateDraftsUseCase) WithEmbedder(e Embedder) *GenerateDraftsUseCase {
	uc.embedder = e
	return uc
}

// WithRecorder sets the metrics recorder.
func (uc *GenerateDraftsUseCase) WithRecorder(r DraftRecorder) *GenerateDraftsUseCase {
	uc.recorder = r
	return uc
}

type draftTopic struct {
	topic   string
	summary string
}

// Execute generates and persists drafts. all drafts are saved in one
// transaction, so a failure leaves nothing behind.
func (uc *GenerateDraftsUseCase) Execute(ctx context.Context, input GenerateDraftsInput) ([]DraftOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	profile, err := uc.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	platforms, err := resolvePlatforms(input.Platforms, profile)
	if err != nil {
		uc.logger.Info("draft generation rejected: invalid platform",
			"user_id", userID.String(),
			"platforms", input.Platforms,
		)
		return nil, err
	}

	topics, err := uc.resolveTopics(ctx, userID, input.Topics)
	if err != nil {
		return nil, err
	}

	drafts := make([]*domain.Draft, 0, len(platforms)*len(topics))
	for _, t := range topics {
		examples := uc.styleExamples(ctx, userID, t.topic)

		for _, p := range platforms {
			text, err := uc.writer.WriteDraft(ctx, DraftRequest{
				Platform:      p,
				Topic:         t.topic,
				Summary:       t.summary,
				Niche:         profile.Niche(),
				Tone:          profile.Tone(),
				StyleExamples: examples,
			})
			if err != nil {
				uc.logger.Error("draft generation failed: writer error",
					"user_id", userID.String(),
					"platform", p.String(),
					"topic", t.topic,
					"error", err.Error(),
				)
				return nil, fmt.Errorf("writing %s draft: %w", p, err)
			}

			draft, err := domain.NewDraft(userID, p, t.topic, domain.TrimToLimit(p, text))
			if err != nil {
				uc.logger.Error("draft generation failed: invalid writer output",
					"user_id", userID.String(),
					"platform", p.String(),
					"error", err.Error(),
				)
				return nil, fmt.Errorf("building %s draft: %w", p, err)
			}
			drafts = append(drafts, draft)
		}
	}

	err = RunInTransaction(ctx, uc.uow, func(txCtx context.Context) error {
		return uc.draftRepo.SaveAll(txCtx, drafts)
	})
	if err != nil {
		uc.logger.Error("draft generation failed: save error",
			"user_id", userID.String(),
			"drafts", len(drafts),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving drafts: %w", err)
	}

	if uc.recorder != nil {
		for _, p := range platforms {
			uc.recorder.RecordDraftsGenerated(p.String(), len(topics))
		}
	}

	uc.logger.Info("drafts generated",
		"user_id", userID.String(),
		"platforms", len(platforms),
		"topics", len(topics),
		"drafts", len(drafts),
		"outcome", "saved",
	)

	out := make([]DraftOutput, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, toDraftOutput(d))
	}
	return out, nil
}

func (uc *GenerateDraftsUseCase) loadProfile(ctx context.Context, userID domain.UserID) (*domain.CreatorProfile, error) {
	profile, err := uc.profileRepo.FindByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCreatorProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return profile, nil
}

func resolvePlatforms(raw []string, profile *domain.CreatorProfile) ([]domain.Platform, error) {
	if len(raw) == 0 {
		return profile.TargetPlatforms(), nil
	}

	seen := make(map[domain.Platform]bool)
	out := make([]domain.Platform, 0, len(raw))
	for _, r := range raw {
		p, err := domain.ParsePlatform(r)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func (uc *GenerateDraftsUseCase) resolveTopics(ctx context.Context, userID domain.UserID, raw []string) ([]draftTopic, error) {
	var topics []draftTopic
	seen := make(map[string]bool)
	for _, r := range raw {
		t := strings.TrimSpace(r)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		topics = append(topics, draftTopic{topic: t})
	}
	if len(topics) > maxDraftTopics {
		return nil, fmt.Errorf("%w: at most %d topics per request", domain.ErrInvalidInput, maxDraftTopics)
	}

	if len(topics) > 0 {
		// attach summaries for topics we already know about
		records, err := uc.trendRepo.FindLatestByTopics(ctx, userID, topicNames(topics))
		if err == nil {
			bySummary := make(map[string]string, len(records))
			for _, r := range records {
				bySummary[r.Analysis.Topic] = r.Analysis.Summary
			}
			for i := range topics {
				topics[i].summary = bySummary[topics[i].topic]
			}
		}
		return topics, nil
	}

	records, err := uc.trendRepo.ListLatest(ctx, userID, defaultDraftTopics)
	if err != nil {
		return nil, fmt.Errorf("loading trends: %w", err)
	}
	if len(records) == 0 {
		uc.logger.Info("draft generation rejected: no trends",
			"user_id", userID.String(),
		)
		return nil, ErrNoTrends
	}

	for _, r := range records {
		topics = append(topics, draftTopic{topic: r.Analysis.Topic, summary: r.Analysis.Summary})
	}
	return topics, nil
}

func topicNames(topics []draftTopic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.topic
	}
	return out
}

// styleExamples returns up to styleExamplesPerDraft sample texts close to
// the topic. retrieval problems only degrade the prompt, they never fail it.
func (uc *GenerateDraftsUseCase) styleExamples(ctx context.Context, userID domain.UserID, topic string) []string {
	if uc.embedder == nil || uc.styleRepo == nil {
		return nil
	}

	count, err := uc.styleRepo.CountByUser(ctx, userID)
	if err != nil || count == 0 {
		return nil
	}

	vectors, err := uc.embedder.Embed(ctx, []string{topic})
	if err != nil || len(vectors) != 1 {
		uc.logger.Warn("style retrieval skipped: embedding failed",
			"user_id", userID.String(),
			"topic", topic,
		)
		return nil
	}

	samples, err := uc.styleRepo.FindSimilar(ctx, userID, vectors[0], styleExamplesPerDraft)
	if err != nil {
		uc.logger.Warn("style retrieval skipped: similarity query failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil
	}

	out := make([]string, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Content())
	}
	return out
}
