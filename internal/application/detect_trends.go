package application

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// maxSummarizedTopics is how many top topics get an llm summary per run.
const maxSummarizedTopics = 5

// ContentIngestor fetches content for a set of sources.
// a failing source is skipped, so partial results come back without error.
type ContentIngestor interface {
	Fetch(ctx context.Context, sources []*domain.Source) ([]domain.ContentItem, error)
}

// TrendLeaderboard abstracts the cache layer for per-user trend rankings.
// allows the use case to remain decoupled from redis specifics.
type TrendLeaderboard interface {
	UpdateTrendScores(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) error
}

// TrendSummarizer rewrites heuristic summaries with an llm.
// returns topic -> summary, topics it could not summarize are absent.
type TrendSummarizer interface {
	SummarizeTrends(ctx context.Context, analyses []domain.TrendAnalysis) (map[string]string, error)
}

// TrendPublisher pushes fresh trends to live listeners.
type TrendPublisher interface {
	PublishTrends(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) error
}

// SpikeNotifier abstracts the notification layer for trend spikes.
// allows the use case to remain decoupled from webhook specifics.
type SpikeNotifier interface {
	NotifyTrendSpike(ctx context.Context, spike domain.TrendSpike) (int, error)
	Thresholds() domain.SpikeThresholds
}

// DetectionRecorder abstracts prometheus metrics for trend detection.
type DetectionRecorder interface {
	RecordTrendDetection(seconds float64, outcome string)
	RecordContentFetched(count int)
}

// TrendOutput is the application view of an analyzed topic.
type TrendOutput struct {
	Topic            string
	Summary          string
	MomentumScore    float64
	EngagementRate   float64
	VelocityScore    float64
	ReachMultiplier  float64
	MentionsCount    int
	Sentiment        float64
	TrendingDuration int
	SourceIDs        []string
	ModelVersion     string
	DetectedAt       time.Time
}

func toTrendOutput(a domain.TrendAnalysis, detectedAt time.Time) TrendOutput {
	ids := make([]string, 0, len(a.SourceIDs))
	for _, id := range a.SourceIDs {
		ids = append(ids, id.String())
	}
	return TrendOutput{
		Topic:            a.Topic,
		Summary:          a.Summary,
		MomentumScore:    a.MomentumScore.Value(),
		EngagementRate:   a.Metrics.EngagementRate.Value(),
		VelocityScore:    a.Metrics.VelocityScore.Value(),
		ReachMultiplier:  a.Metrics.ReachMultiplier.Value(),
		MentionsCount:    a.Metrics.MentionsCount,
		Sentiment:        a.Metrics.Sentiment.Value(),
		TrendingDuration: a.Metrics.TrendingDuration,
		SourceIDs:        ids,
		ModelVersion:     a.ModelVersion,
		DetectedAt:       detectedAt,
	}
}

// DetectTrendsInput identifies whose sources to analyze.
type DetectTrendsInput struct {
	UserID string
}

// DetectTrendsOutput contains the result of one detection run.
type DetectTrendsOutput struct {
	UserID         string
	SourcesChecked int
	ItemsFetched   int
	Trends         []TrendOutput
	Spikes         int
	DetectedAt     time.Time
}

// DetectTrendsUseCase runs ingestion, scoring and fan-out for a user.
type DetectTrendsUseCase struct {
	sourceRepo   domain.SourceRepository
	trendRepo    domain.TrendRepository
	ingestor     ContentIngestor
	model        domain.ScoringModel
	leaderboard  TrendLeaderboard
	summarizer   TrendSummarizer
	publisher    TrendPublisher
	notifier     SpikeNotifier
	archive      chan<- domain.ContentRecord
	recorder     DetectionRecorder
	timeProvider TimeProvider
	logger       *logging.Logger
}

// NewDetectTrendsUseCase creates a new DetectTrendsUseCase scoring with model v1.
func NewDetectTrendsUseCase(
	sourceRepo domain.SourceRepository,
	trendRepo domain.TrendRepository,
	ingestor ContentIngestor,
	logger *logging.Logger,
) *DetectTrendsUseCase {
	return &DetectTrendsUseCase{
		sourceRepo:   sourceRepo,
		trendRepo:    trendRepo,
		ingestor:     ingestor,
		model:        domain.ScoringModelV1(),
		timeProvider: RealTime,
		logger:       logger.WithComponent("detect_trends"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *DetectTrendsUseCase) WithTimeProvider(tp TimeProvider) *DetectTrendsUseCase {
	uc.timeProvider = tp
	return uc
}

// WithScoringModel swaps the momentum weights.
func (uc *DetectTrendsUseCase) WithScoringModel(m domain.ScoringModel) *DetectTrendsUseCase {
	uc.model = m
	return uc
}

// WithLeaderboard sets the leaderboard updater (redis cache).
// when set, fresh scores are also pushed to the cache.
func (uc *DetectTrendsUseCase) WithLeaderboard(lb TrendLeaderboard) *DetectTrendsUseCase {
	uc.leaderboard = lb
	return uc
}

// WithSummarizer sets the llm summarizer.
func (uc *DetectTrendsUseCase) WithSummarizer(s TrendSummarizer) *DetectTrendsUseCase {
	uc.summarizer = s
	return uc
}

// WithPublisher sets the live trend stream.
func (uc *DetectTrendsUseCase) WithPublisher(p TrendPublisher) *DetectTrendsUseCase {
	uc.publisher = p
	return uc
}

// WithNotifier sets the spike notifier (webhook dispatcher).
// when set, trend spikes trigger webhook notifications.
func (uc *DetectTrendsUseCase) WithNotifier(n SpikeNotifier) *DetectTrendsUseCase {
	uc.notifier = n
	return uc
}

// WithArchiveChannel enables async archival of fetched content.
// sends never block: when the buffer is full the item is dropped.
func (uc *DetectTrendsUseCase) WithArchiveChannel(ch chan<- domain.ContentRecord) *DetectTrendsUseCase {
	uc.archive = ch
	return uc
}

// WithRecorder sets the metrics recorder.
func (uc *DetectTrendsUseCase) WithRecorder(r DetectionRecorder) *DetectTrendsUseCase {
	uc.recorder = r
	return uc
}

// Execute runs trend detection for one user.
func (uc *DetectTrendsUseCase) Execute(ctx context.Context, input DetectTrendsInput) (out *DetectTrendsOutput, err error) {
	start := time.Now()
	defer func() {
		if uc.recorder == nil {
			return
		}
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		uc.recorder.RecordTrendDetection(time.Since(start).Seconds(), outcome)
	}()

	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		uc.logger.Warn("trend detection rejected: invalid user id",
			"user_id", input.UserID,
			"reason", err.Error(),
		)
		return nil, err
	}

	sources, err := uc.sourceRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		uc.logger.Error("trend detection failed: listing sources",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	now := uc.timeProvider()
	out = &DetectTrendsOutput{
		UserID:         userID.String(),
		SourcesChecked: len(sources),
		Trends:         []TrendOutput{},
		DetectedAt:     now,
	}

	if len(sources) == 0 {
		uc.logger.Info("trend detection skipped: no active sources",
			"user_id", userID.String(),
			"outcome", "skipped",
		)
		return out, nil
	}

	items, err := uc.ingestor.Fetch(ctx, sources)
	if err != nil {
		uc.logger.Error("trend detection failed: ingestion",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("fetching content: %w", err)
	}
	out.ItemsFetched = len(items)
	if uc.recorder != nil {
		uc.recorder.RecordContentFetched(len(items))
	}

	uc.archiveItems(userID, items, now)

	analyses := domain.AnalyzeTrends(uc.model, items)
	if len(analyses) == 0 {
		// an empty pass replaces the previous one everywhere
		if err := uc.markPass(ctx, userID, now); err != nil {
			return nil, err
		}
		uc.syncCurrentTrends(ctx, userID, analyses)

		uc.logger.Info("trend detection completed: no topics",
			"user_id", userID.String(),
			"items", len(items),
			"outcome", "empty",
		)
		return out, nil
	}

	uc.enrichSummaries(ctx, userID, analyses)

	topics := make([]string, len(analyses))
	for i, a := range analyses {
		topics[i] = a.Topic
	}

	// previous scores must be read before the new records land
	previous, err := uc.trendRepo.PreviousScores(ctx, userID, topics)
	if err != nil {
		uc.logger.Warn("previous scores unavailable, spike detection skipped",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		previous = nil
	}

	records := make([]domain.TrendRecord, len(analyses))
	for i, a := range analyses {
		records[i] = domain.TrendRecord{UserID: userID, Analysis: a, DetectedAt: now}
	}
	if err := uc.trendRepo.SaveAll(ctx, records); err != nil {
		uc.logger.Error("trend detection failed: saving trends",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving trends: %w", err)
	}
	if err := uc.markPass(ctx, userID, now); err != nil {
		return nil, err
	}

	uc.syncCurrentTrends(ctx, userID, analyses)

	if previous != nil {
		out.Spikes = uc.notifySpikes(ctx, userID, analyses, previous, now)
	}

	for _, a := range analyses {
		out.Trends = append(out.Trends, toTrendOutput(a, now))
	}

	uc.logger.Info("trends detected",
		"user_id", userID.String(),
		"sources", len(sources),
		"items", len(items),
		"topics", len(analyses),
		"spikes", out.Spikes,
		"model", uc.model.Version,
		"outcome", "updated",
	)

	return out, nil
}

func (uc *DetectTrendsUseCase) markPass(ctx context.Context, userID domain.UserID, now time.Time) error {
	if err := uc.trendRepo.MarkPass(ctx, userID, now); err != nil {
		uc.logger.Error("trend detection failed: marking pass",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return fmt.Errorf("marking trend pass: %w", err)
	}
	return nil
}

// syncCurrentTrends mirrors the pass to the leaderboard and live listeners.
// both are best-effort, postgres is the source of truth.
func (uc *DetectTrendsUseCase) syncCurrentTrends(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) {
	if uc.leaderboard != nil {
		if err := uc.leaderboard.UpdateTrendScores(ctx, userID, analyses); err != nil {
			uc.logger.Warn("leaderboard sync failed",
				"user_id", userID.String(),
				"error", err.Error(),
			)
		}
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishTrends(ctx, userID, analyses); err != nil {
			uc.logger.Warn("trend publish failed",
				"user_id", userID.String(),
				"error", err.Error(),
			)
		}
	}
}

func (uc *DetectTrendsUseCase) archiveItems(userID domain.UserID, items []domain.ContentItem, now time.Time) {
	if uc.archive == nil {
		return
	}

	dropped := 0
	for _, item := range items {
		select {
		case uc.archive <- domain.ContentRecord{UserID: userID, Item: item, FetchedAt: now}:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		uc.logger.Warn("archive buffer full, items dropped",
			"user_id", userID.String(),
			"dropped", dropped,
		)
	}
}

// enrichSummaries replaces heuristic summaries of the top topics in place.
// on failure the heuristic summaries stay.
func (uc *DetectTrendsUseCase) enrichSummaries(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) {
	if uc.summarizer == nil {
		return
	}

	top := analyses
	if len(top) > maxSummarizedTopics {
		top = top[:maxSummarizedTopics]
	}

	summaries, err := uc.summarizer.SummarizeTrends(ctx, top)
	if err != nil {
		uc.logger.Warn("trend summary enrichment failed, keeping heuristic summaries",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return
	}

	for i := range top {
		if s, ok := summaries[top[i].Topic]; ok && s != "" {
			analyses[i].Summary = s
		}
	}
}

func (uc *DetectTrendsUseCase) notifySpikes(
	ctx context.Context,
	userID domain.UserID,
	analyses []domain.TrendAnalysis,
	previous map[string]float64,
	now time.Time,
) int {
	if uc.notifier == nil {
		return 0
	}

	thresholds := uc.notifier.Thresholds()
	spikes := 0
	for _, a := range analyses {
		oldMomentum := previous[a.Topic]
		newMomentum := a.MomentumScore.Value()
		if !thresholds.IsSpike(oldMomentum, newMomentum) {
			continue
		}
		spikes++

		spike := domain.TrendSpike{
			UserID:        userID,
			Topic:         a.Topic,
			Summary:       a.Summary,
			OldMomentum:   oldMomentum,
			NewMomentum:   newMomentum,
			PercentChange: domain.PercentChange(oldMomentum, newMomentum),
			Timestamp:     now,
		}

		if _, err := uc.notifier.NotifyTrendSpike(ctx, spike); err != nil {
			uc.logger.Warn("spike notification failed",
				"user_id", userID.String(),
				"topic", a.Topic,
				"error", err.Error(),
			)
			continue
		}
		uc.logger.Info("trend spike detected",
			"user_id", userID.String(),
			"topic", a.Topic,
			"old_momentum", oldMomentum,
			"new_momentum", newMomentum,
		)
	}
	return spikes
}

// DetectAllInput bounds a batch run.
type DetectAllInput struct {
	Limit int // max users to process, 0 for the default
}

// DetectAllOutput contains the result of batch trend detection.
type DetectAllOutput struct {
	Processed int
	Succeeded int
	Failed    int
}

// ExecuteAll runs detection for every user with active sources.
// useful for background jobs.
func (uc *DetectTrendsUseCase) ExecuteAll(ctx context.Context, input DetectAllInput) (*DetectAllOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 1000 // reasonable default
	}

	users, err := uc.sourceRepo.ListUsersWithActiveSources(ctx, limit)
	if err != nil {
		uc.logger.Error("batch trend detection failed: listing users",
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing users: %w", err)
	}

	output := &DetectAllOutput{Processed: len(users)}
	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		if _, err := uc.Execute(ctx, DetectTrendsInput{UserID: userID.String()}); err != nil {
			output.Failed++
			// don't fail the whole batch, continue with others
			continue
		}
		output.Succeeded++
	}

	uc.logger.Info("batch trend detection completed",
		"processed", output.Processed,
		"succeeded", output.Succeeded,
		"failed", output.Failed,
	)

	return output, nil
}
