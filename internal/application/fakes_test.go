package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

func testLogger() *logging.Logger {
	return logging.Discard()
}

type fakeSourceRepo struct {
	mu      sync.Mutex
	sources []*domain.Source
	err     error
}

func (r *fakeSourceRepo) Save(ctx context.Context, s *domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for i, existing := range r.sources {
		if existing.ID() == s.ID() {
			r.sources[i] = s
			return nil
		}
		if existing.UserID() == s.UserID() && existing.Type() == s.Type() && existing.Handle() == s.Handle() {
			return domain.ErrAlreadyExists
		}
	}
	r.sources = append(r.sources, s)
	return nil
}

func (r *fakeSourceRepo) FindByID(ctx context.Context, userID domain.UserID, id domain.SourceID) (*domain.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.ID() == id && s.UserID() == userID {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeSourceRepo) ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Source
	for _, s := range r.sources {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) ListActiveByUser(ctx context.Context, userID domain.UserID) ([]*domain.Source, error) {
	all, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*domain.Source
	for _, s := range all {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) ListUsersWithActiveSources(ctx context.Context, limit int) ([]domain.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[domain.UserID]bool)
	var out []domain.UserID
	for _, s := range r.sources {
		if s.IsActive() && !seen[s.UserID()] {
			seen[s.UserID()] = true
			out = append(out, s.UserID())
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) Delete(ctx context.Context, userID domain.UserID, id domain.SourceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sources {
		if s.ID() == id && s.UserID() == userID {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeTrendRepo struct {
	mu      sync.Mutex
	records []domain.TrendRecord
	passes  map[domain.UserID]time.Time
	saveErr error
}

func (r *fakeTrendRepo) MarkPass(ctx context.Context, userID domain.UserID, detectedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.passes == nil {
		r.passes = make(map[domain.UserID]time.Time)
	}
	r.passes[userID] = detectedAt
	return nil
}

// currentPass mirrors the postgres fallback to the newest record.
func (r *fakeTrendRepo) currentPass(userID domain.UserID) time.Time {
	if at, ok := r.passes[userID]; ok {
		return at
	}
	var newest time.Time
	for _, rec := range r.records {
		if rec.UserID == userID && rec.DetectedAt.After(newest) {
			newest = rec.DetectedAt
		}
	}
	return newest
}

func (r *fakeTrendRepo) SaveAll(ctx context.Context, records []domain.TrendRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records = append(r.records, records...)
	return nil
}

func (r *fakeTrendRepo) latest(userID domain.UserID) map[string]domain.TrendRecord {
	out := make(map[string]domain.TrendRecord)
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		prev, ok := out[rec.Analysis.Topic]
		if !ok || !rec.DetectedAt.Before(prev.DetectedAt) {
			out[rec.Analysis.Topic] = rec
		}
	}
	return out
}

func (r *fakeTrendRepo) ListLatest(ctx context.Context, userID domain.UserID, limit int) ([]domain.TrendRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pass := r.currentPass(userID)
	var out []domain.TrendRecord
	for _, rec := range r.latest(userID) {
		if rec.DetectedAt.Equal(pass) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Analysis.MomentumScore.Value() != out[j].Analysis.MomentumScore.Value() {
			return out[i].Analysis.MomentumScore.Value() > out[j].Analysis.MomentumScore.Value()
		}
		return out[i].Analysis.Topic < out[j].Analysis.Topic
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTrendRepo) FindLatestByTopics(ctx context.Context, userID domain.UserID, topics []string) ([]domain.TrendRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := r.latest(userID)
	var out []domain.TrendRecord
	for _, t := range topics {
		if rec, ok := latest[t]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeTrendRepo) PreviousScores(ctx context.Context, userID domain.UserID, topics []string) (map[string]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := r.latest(userID)
	out := make(map[string]float64)
	for _, t := range topics {
		if rec, ok := latest[t]; ok {
			out[t] = rec.Analysis.MomentumScore.Value()
		}
	}
	return out, nil
}

type fakeIngestor struct {
	items []domain.ContentItem
	err   error
	calls int
}

func (f *fakeIngestor) Fetch(ctx context.Context, sources []*domain.Source) ([]domain.ContentItem, error) {
	f.calls++
	return f.items, f.err
}

type fakeLeaderboard struct {
	calls int
	last  []string
	err   error
}

func (f *fakeLeaderboard) UpdateTrendScores(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) error {
	f.calls++
	f.last = f.last[:0]
	for _, a := range analyses {
		f.last = append(f.last, a.Topic)
	}
	return f.err
}

type fakeSummarizer struct {
	summaries map[string]string
	err       error
}

func (f *fakeSummarizer) SummarizeTrends(ctx context.Context, analyses []domain.TrendAnalysis) (map[string]string, error) {
	return f.summaries, f.err
}

type fakePublisher struct {
	published [][]domain.TrendAnalysis
}

func (f *fakePublisher) PublishTrends(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) error {
	f.published = append(f.published, analyses)
	return nil
}

type fakeNotifier struct {
	spikes []domain.TrendSpike
}

func (f *fakeNotifier) NotifyTrendSpike(ctx context.Context, spike domain.TrendSpike) (int, error) {
	f.spikes = append(f.spikes, spike)
	return 1, nil
}

func (f *fakeNotifier) Thresholds() domain.SpikeThresholds {
	return domain.DefaultSpikeThresholds()
}

type fakeProfileRepo struct {
	profiles map[domain.UserID]*domain.CreatorProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[domain.UserID]*domain.CreatorProfile)}
}

func (r *fakeProfileRepo) FindByUser(ctx context.Context, userID domain.UserID) (*domain.CreatorProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) Save(ctx context.Context, p *domain.CreatorProfile) error {
	r.profiles[p.UserID()] = p
	return nil
}

type fakeDraftRepo struct {
	mu      sync.Mutex
	drafts  []*domain.Draft
	saveErr error
}

func (r *fakeDraftRepo) SaveAll(ctx context.Context, drafts []*domain.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
outer:
	for _, d := range drafts {
		for i, existing := range r.drafts {
			if existing.ID() == d.ID() {
				r.drafts[i] = d
				continue outer
			}
		}
		r.drafts = append(r.drafts, d)
	}
	return nil
}

func (r *fakeDraftRepo) FindByID(ctx context.Context, userID domain.UserID, id domain.DraftID) (*domain.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID() == id && d.UserID() == userID {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDraftRepo) ListByUser(ctx context.Context, userID domain.UserID, status domain.DraftStatus, limit, offset int) ([]*domain.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Draft
	for _, d := range r.drafts {
		if d.UserID() == userID && (status == "" || d.Status() == status) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDraftRepo) Delete(ctx context.Context, userID domain.UserID, id domain.DraftID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.drafts {
		if d.ID() == id && d.UserID() == userID {
			r.drafts = append(r.drafts[:i], r.drafts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeStyleRepo struct {
	samples []*domain.StyleSample
	similar []*domain.StyleSample
}

func (r *fakeStyleRepo) SaveAll(ctx context.Context, samples []*domain.StyleSample) error {
	r.samples = append(r.samples, samples...)
	return nil
}

func (r *fakeStyleRepo) ListByUser(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.StyleSample, error) {
	var out []*domain.StyleSample
	for _, s := range r.samples {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStyleRepo) CountByUser(ctx context.Context, userID domain.UserID) (int, error) {
	all, _ := r.ListByUser(ctx, userID, 0, 0)
	return len(all), nil
}

func (r *fakeStyleRepo) FindSimilar(ctx context.Context, userID domain.UserID, embedding []float32, limit int) ([]*domain.StyleSample, error) {
	if len(r.similar) > limit {
		return r.similar[:limit], nil
	}
	return r.similar, nil
}

func (r *fakeStyleRepo) Delete(ctx context.Context, userID domain.UserID, id domain.StyleSampleID) error {
	for i, s := range r.samples {
		if s.ID() == id && s.UserID() == userID {
			r.samples = append(r.samples[:i], r.samples[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeEmbedder records batch sizes and returns a 3-dim vector per text.
type fakeEmbedder struct {
	batches []int
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, len(texts))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, float32(i)}
	}
	return out, nil
}

type fakeWriter struct {
	requests []DraftRequest
	text     string
	err      error
}

func (f *fakeWriter) WriteDraft(ctx context.Context, req DraftRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return "Thoughts on " + req.Topic + " #" + req.Topic, nil
}

type fakeImages struct {
	prompts []string
	url     string
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.url, nil
}

// fakeUoW tracks transaction boundaries without a database.
type fakeUoW struct {
	begun, committed, rolledBack int
}

type fakeTxKey struct{}

func (u *fakeUoW) Begin(ctx context.Context) (context.Context, error) {
	u.begun++
	return context.WithValue(ctx, fakeTxKey{}, true), nil
}

func (u *fakeUoW) Commit(ctx context.Context) error {
	if ctx.Value(fakeTxKey{}) == nil {
		return errors.New("no transaction in context")
	}
	u.committed++
	return nil
}

func (u *fakeUoW) Rollback(ctx context.Context) error {
	if u.committed == 0 {
		u.rolledBack++
	}
	return nil
}

type fakeSubscriptionRepo struct {
	subs []*domain.WebhookSubscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{}
}

func (r *fakeSubscriptionRepo) Save(ctx context.Context, sub *domain.WebhookSubscription) error {
	for i, s := range r.subs {
		if s.ID() == sub.ID() {
			r.subs[i] = sub
			return nil
		}
		if s.UserID() == sub.UserID() && s.TargetURL() == sub.TargetURL() {
			return domain.ErrAlreadyExists
		}
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *fakeSubscriptionRepo) FindActiveByUser(ctx context.Context, userID domain.UserID) ([]*domain.WebhookSubscription, error) {
	var out []*domain.WebhookSubscription
	for _, s := range r.subs {
		if s.UserID() == userID && s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) FindByUser(ctx context.Context, userID domain.UserID) ([]*domain.WebhookSubscription, error) {
	var out []*domain.WebhookSubscription
	for _, s := range r.subs {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Delete(ctx context.Context, userID domain.UserID, id domain.WebhookSubscriptionID) error {
	for i, s := range r.subs {
		if s.ID() == id && s.UserID() == userID {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
