package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedTime() time.Time { return fixedNow }

func seedSource(t *testing.T, repo *fakeSourceRepo, userID domain.UserID, handle string) *domain.Source {
	t.Helper()
	s, err := domain.NewSource(userID, domain.SourceTypeTwitter, handle, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func tweet(sourceID domain.SourceID, text string, likes int64) domain.ContentItem {
	return domain.NewContentItem(domain.ContentItemParams{
		SourceID:   sourceID,
		SourceType: domain.SourceTypeTwitter,
		Text:       text,
		Engagement: domain.Engagement{Views: 1000, Likes: likes},
	})
}

type detectFixture struct {
	userID   domain.UserID
	sources  *fakeSourceRepo
	trends   *fakeTrendRepo
	ingestor *fakeIngestor
	uc       *DetectTrendsUseCase
}

func newDetectFixture(t *testing.T) *detectFixture {
	t.Helper()
	f := &detectFixture{
		userID:   domain.NewUserID(),
		sources:  &fakeSourceRepo{},
		trends:   &fakeTrendRepo{},
		ingestor: &fakeIngestor{},
	}
	src := seedSource(t, f.sources, f.userID, "golang")
	f.ingestor.items = []domain.ContentItem{
		tweet(src.ID(), "shipping generics today #golang", 200),
		tweet(src.ID(), "more on #golang tooling", 100),
	}
	f.uc = NewDetectTrendsUseCase(f.sources, f.trends, f.ingestor, testLogger()).
		WithTimeProvider(fixedTime)
	return f
}

func TestDetectTrends_InvalidUser(t *testing.T) {
	f := newDetectFixture(t)

	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: "nope"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.ingestor.calls)
}

func TestDetectTrends_NoActiveSources(t *testing.T) {
	f := newDetectFixture(t)

	out, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: domain.NewUserID().String()})

	require.NoError(t, err)
	assert.Equal(t, 0, out.SourcesChecked)
	assert.Empty(t, out.Trends)
	assert.Equal(t, 0, f.ingestor.calls)
}

func TestDetectTrends_PersistsAndReturnsTrends(t *testing.T) {
	f := newDetectFixture(t)

	out, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	require.NoError(t, err)
	assert.Equal(t, 1, out.SourcesChecked)
	assert.Equal(t, 2, out.ItemsFetched)
	require.Len(t, out.Trends, 1)
	assert.Equal(t, "golang", out.Trends[0].Topic)
	assert.Equal(t, 2, out.Trends[0].MentionsCount)
	assert.Equal(t, fixedNow, out.DetectedAt)
	assert.Equal(t, "v1", out.Trends[0].ModelVersion)

	require.Len(t, f.trends.records, 1)
	assert.Equal(t, f.userID, f.trends.records[0].UserID)
	assert.Equal(t, fixedNow, f.trends.records[0].DetectedAt)
}

func TestDetectTrends_IngestionErrorFails(t *testing.T) {
	f := newDetectFixture(t)
	f.ingestor.err = errors.New("upstream down")

	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	assert.Error(t, err)
	assert.Empty(t, f.trends.records)
}

func TestDetectTrends_SaveErrorFails(t *testing.T) {
	f := newDetectFixture(t)
	f.trends.saveErr = errors.New("db down")

	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	assert.Error(t, err)
}

func TestDetectTrends_SpikeOnlyOnGrowth(t *testing.T) {
	f := newDetectFixture(t)
	notifier := &fakeNotifier{}
	f.uc.WithNotifier(notifier)

	first, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Spikes)
	require.Len(t, notifier.spikes, 1)
	assert.Equal(t, "golang", notifier.spikes[0].Topic)
	assert.Equal(t, 0.0, notifier.spikes[0].OldMomentum)

	// same content again, momentum unchanged
	second, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Spikes)
	assert.Len(t, notifier.spikes, 1)
}

func TestDetectTrends_SummarizerEnrichesTopTopics(t *testing.T) {
	f := newDetectFixture(t)
	f.uc.WithSummarizer(&fakeSummarizer{summaries: map[string]string{"golang": "Go is having a moment."}})

	out, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	require.NoError(t, err)
	assert.Equal(t, "Go is having a moment.", out.Trends[0].Summary)
}

func TestDetectTrends_SummarizerFailureKeepsHeuristic(t *testing.T) {
	f := newDetectFixture(t)
	f.uc.WithSummarizer(&fakeSummarizer{err: errors.New("rate limited")})

	out, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	require.NoError(t, err)
	assert.Contains(t, out.Trends[0].Summary, `"golang" is trending`)
}

func TestDetectTrends_FanOutFailuresAreNotFatal(t *testing.T) {
	f := newDetectFixture(t)
	lb := &fakeLeaderboard{err: errors.New("redis down")}
	pub := &fakePublisher{}
	f.uc.WithLeaderboard(lb).WithPublisher(pub)

	out, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	require.NoError(t, err)
	assert.Len(t, out.Trends, 1)
	assert.Equal(t, 1, lb.calls)
	assert.Len(t, pub.published, 1)
}

func TestDetectTrends_LatestPassReplacesCurrentTrends(t *testing.T) {
	f := newDetectFixture(t)
	lb := &fakeLeaderboard{}
	pub := &fakePublisher{}
	now := fixedNow
	f.uc.WithLeaderboard(lb).WithPublisher(pub).
		WithTimeProvider(func() time.Time { return now })
	list := NewListTrendsUseCase(f.trends, testLogger())
	src := f.sources.sources[0].ID()

	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	f.ingestor.items = []domain.ContentItem{
		tweet(src, "borrow checker again #rustlang", 50),
	}
	_, err = f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)

	out, err := list.Execute(context.Background(), f.userID.String(), 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "rustlang", out[0].Topic)
	assert.Equal(t, []string{"rustlang"}, lb.last)

	now = now.Add(15 * time.Minute)
	f.ingestor.items = nil
	res, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)
	assert.Empty(t, res.Trends)

	out, err = list.Execute(context.Background(), f.userID.String(), 10)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 3, lb.calls)
	assert.Empty(t, lb.last)
	require.Len(t, pub.published, 3)
	assert.Empty(t, pub.published[2])
}

func TestDetectTrends_ArchiveDropsWhenFull(t *testing.T) {
	f := newDetectFixture(t)
	archive := make(chan domain.ContentRecord, 1)
	f.uc.WithArchiveChannel(archive)

	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	require.NoError(t, err)
	require.Len(t, archive, 1)
	rec := <-archive
	assert.Equal(t, f.userID, rec.UserID)
	assert.Equal(t, fixedNow, rec.FetchedAt)
}

func TestDetectTrends_InactiveSourcesIgnored(t *testing.T) {
	f := newDetectFixture(t)
	for _, s := range f.sources.sources {
		s.SetActive(false)
	}

	out, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})

	require.NoError(t, err)
	assert.Equal(t, 0, out.SourcesChecked)
	assert.Equal(t, 0, f.ingestor.calls)
}

type recorderStub struct {
	outcomes []string
	fetched  int
}

func (r *recorderStub) RecordTrendDetection(seconds float64, outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorderStub) RecordContentFetched(count int) {
	r.fetched += count
}

func TestDetectTrends_RecordsMetrics(t *testing.T) {
	f := newDetectFixture(t)
	rec := &recorderStub{}
	f.uc.WithRecorder(rec)

	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)
	_, err = f.uc.Execute(context.Background(), DetectTrendsInput{UserID: "bad"})
	require.Error(t, err)

	assert.Equal(t, []string{"success", "error"}, rec.outcomes)
	assert.Equal(t, 2, rec.fetched)
}

func TestDetectTrends_ExecuteAll(t *testing.T) {
	f := newDetectFixture(t)
	other := domain.NewUserID()
	seedSource(t, f.sources, other, "rustlang")

	out, err := f.uc.ExecuteAll(context.Background(), DetectAllInput{})

	require.NoError(t, err)
	assert.Equal(t, 2, out.Processed)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 0, out.Failed)
}

func TestListTrends_LimitsAndOrder(t *testing.T) {
	f := newDetectFixture(t)
	_, err := f.uc.Execute(context.Background(), DetectTrendsInput{UserID: f.userID.String()})
	require.NoError(t, err)

	uc := NewListTrendsUseCase(f.trends, testLogger())

	out, err := uc.Execute(context.Background(), f.userID.String(), 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "golang", out[0].Topic)
	assert.Equal(t, fixedNow, out[0].DetectedAt)

	empty, err := uc.Execute(context.Background(), domain.NewUserID().String(), 500)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAnalyzeContent_ScoresWithoutPersistence(t *testing.T) {
	uc := NewAnalyzeContentUseCase(testLogger())
	inactive := false

	out, err := uc.Execute(context.Background(), []AnalyzeItemInput{
		{SourceType: "twitter", Text: "AI agents are huge right now #AIagents", Likes: 10, Comments: 2, Views: 500},
		{SourceType: "twitter", Text: "old news #legacy", Active: &inactive},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "aiagents", out[0].Topic)
	assert.InDelta(t, 11.5, out[0].MomentumScore, 1e-9)
	assert.Equal(t, 1, out[0].MentionsCount)
}

func TestAnalyzeContent_Empty(t *testing.T) {
	uc := NewAnalyzeContentUseCase(testLogger())

	out, err := uc.Execute(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, out)
}
