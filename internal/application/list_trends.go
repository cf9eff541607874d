package application

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const (
	defaultTrendLimit = 10
	maxTrendLimit     = 100
)

// ListTrendsUseCase reads the latest trends of a user.
// the repository may be the redis-backed one, which falls back to postgres.
type ListTrendsUseCase struct {
	trendRepo domain.TrendRepository
	logger    *logging.Logger
}

// NewListTrendsUseCase creates a new ListTrendsUseCase.
func NewListTrendsUseCase(trendRepo domain.TrendRepository, logger *logging.Logger) *ListTrendsUseCase {
	return &ListTrendsUseCase{
		trendRepo: trendRepo,
		logger:    logger.WithComponent("list_trends"),
	}
}

// Execute returns up to limit trends ordered by momentum.
// limit <= 0 uses the default, values above the max are capped.
func (uc *ListTrendsUseCase) Execute(ctx context.Context, rawUserID string, limit int) ([]TrendOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultTrendLimit
	}
	if limit > maxTrendLimit {
		limit = maxTrendLimit
	}

	records, err := uc.trendRepo.ListLatest(ctx, userID, limit)
	if err != nil {
		uc.logger.Error("list trends failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing trends: %w", err)
	}

	out := make([]TrendOutput, 0, len(records))
	for _, r := range records {
		out = append(out, toTrendOutput(r.Analysis, r.DetectedAt))
	}
	return out, nil
}

// AnalyzeItemInput is one ad hoc content item to score.
type AnalyzeItemInput struct {
	SourceID    string
	SourceType  string
	Title       string
	Text        string
	URL         string
	PublishedAt time.Time
	Views       int64
	Likes       int64
	Shares      int64
	Comments    int64
	Metadata    map[string]string
	// Active defaults to true when nil
	Active *bool
}

// AnalyzeContentUseCase scores caller-provided items with the heuristic only.
// nothing is fetched or persisted.
type AnalyzeContentUseCase struct {
	model  domain.ScoringModel
	logger *logging.Logger
}

// NewAnalyzeContentUseCase creates a new AnalyzeContentUseCase scoring with model v1.
func NewAnalyzeContentUseCase(logger *logging.Logger) *AnalyzeContentUseCase {
	return &AnalyzeContentUseCase{
		model:  domain.ScoringModelV1(),
		logger: logger.WithComponent("analyze_content"),
	}
}

// Execute converts the inputs and runs the scorer.
// an empty list yields an empty result, never an error.
func (uc *AnalyzeContentUseCase) Execute(ctx context.Context, inputs []AnalyzeItemInput) ([]TrendOutput, error) {
	items := make([]domain.ContentItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := toContentItem(in)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	now := time.Now().UTC()
	analyses := domain.AnalyzeTrends(uc.model, items)

	out := make([]TrendOutput, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, toTrendOutput(a, now))
	}

	uc.logger.Debug("content analyzed",
		"items", len(items),
		"topics", len(out),
	)
	return out, nil
}

func toContentItem(in AnalyzeItemInput) (domain.ContentItem, error) {
	var sourceID domain.SourceID
	if in.SourceID != "" {
		id, err := domain.ParseSourceID(in.SourceID)
		if err != nil {
			return domain.ContentItem{}, err
		}
		sourceID = id
	}

	var sourceType domain.SourceType
	if in.SourceType != "" {
		st, err := domain.ParseSourceType(in.SourceType)
		if err != nil {
			return domain.ContentItem{}, err
		}
		sourceType = st
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	return domain.NewContentItem(domain.ContentItemParams{
		SourceID:    sourceID,
		SourceType:  sourceType,
		Title:       in.Title,
		Text:        in.Text,
		URL:         in.URL,
		PublishedAt: in.PublishedAt,
		Engagement: domain.Engagement{
			Views:    in.Views,
			Likes:    in.Likes,
			Shares:   in.Shares,
			Comments: in.Comments,
		},
		Metadata: in.Metadata,
		Inactive: !active,
	}), nil
}
