package domain

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxWordTopics caps how many frequent words become topics.
	MaxWordTopics = 5

	// minWordLength: tokens must be strictly longer than this.
	minWordLength = 3

	// minWordCount: tokens must appear strictly more often than this.
	minWordCount = 2

	// PlaceholderSentiment is reported until sentiment is actually computed.
	PlaceholderSentiment = 50.0

	// PlaceholderTrendingDuration is reported until duration is tracked.
	// unit is scoring passes.
	PlaceholderTrendingDuration = 1
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "been": {}, "before": {},
	"being": {}, "between": {}, "both": {}, "could": {}, "does": {}, "doing": {},
	"down": {}, "during": {}, "each": {}, "even": {}, "every": {}, "from": {},
	"further": {}, "have": {}, "having": {}, "here": {}, "into": {}, "just": {},
	"like": {}, "made": {}, "make": {}, "many": {}, "more": {}, "most": {},
	"much": {}, "must": {}, "only": {}, "other": {}, "over": {}, "same": {},
	"should": {}, "some": {}, "such": {}, "than": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"those": {}, "through": {}, "under": {}, "until": {}, "very": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "will": {},
	"with": {}, "would": {}, "your": {}, "yours": {}, "because": {}, "against": {},
	"above": {}, "below": {}, "once": {}, "want": {}, "well": {}, "know": {},
	"right": {}, "really": {}, "still": {}, "today": {}, "going": {}, "http": {},
	"https": {},
}

// ScoringModel carries the weights of the momentum formula.
// momentum = engagement*EngagementWeight
//
//	+ velocity*VelocityMultiplier*VelocityWeight
//	+ reach/ReachDivisor*ReachWeight
//	+ velocity*FrequencyMultiplier*FrequencyWeight
//	+ sentiment*SentimentWeight
type ScoringModel struct {
	Version             string
	EngagementWeight    float64
	VelocityMultiplier  float64
	VelocityWeight      float64
	ReachDivisor        float64
	ReachWeight         float64
	FrequencyMultiplier float64
	FrequencyWeight     float64
	SentimentWeight     float64
}

// ScoringModelV1 returns the linear heuristic weights.
func ScoringModelV1() ScoringModel {
	return ScoringModel{
		Version:             "v1",
		EngagementWeight:    0.3,
		VelocityMultiplier:  10,
		VelocityWeight:      0.25,
		ReachDivisor:        1000,
		ReachWeight:         0.2,
		FrequencyMultiplier: 2,
		FrequencyWeight:     0.15,
		SentimentWeight:     0.1,
	}
}

// TrendMetrics are the sub-metrics behind a momentum score.
// every Score field is clamped to [0,100].
type TrendMetrics struct {
	EngagementRate   Score
	VelocityScore    Score
	ReachMultiplier  Score
	MentionsCount    int
	Sentiment        Score
	TrendingDuration int
}

// TrendAnalysis is the scoring result for one topic.
// derived on each pass, it has no identity.
type TrendAnalysis struct {
	Topic         string
	Summary       string
	MomentumScore Score
	Metrics       TrendMetrics
	SourceIDs     []SourceID
	ModelVersion  string
}

// searchableText is the lowercased title and body of an item.
// extraction and matching both use it, so every extracted word
// topic has at least one match.
func searchableText(item ContentItem) string {
	return strings.ToLower(item.Title() + " " + item.Text())
}

// ExtractTopics returns deduplicated candidate topics from items.
// hashtags come first in order of appearance, then up to MaxWordTopics
// frequent words. equal counts keep first-appearance order.
func ExtractTopics(items []ContentItem) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{})
	topics := make([]string, 0)
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}

	var b strings.Builder
	for _, item := range items {
		text := item.Title() + " " + item.Text()
		for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
			add(strings.ToLower(m[1]))
		}
		b.WriteString(strings.ToLower(text))
		b.WriteByte(' ')
	}

	for _, w := range frequentWords(b.String()) {
		add(w)
	}

	return topics
}

type wordCount struct {
	word  string
	count int
	first int
}

func frequentWords(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	counts := make(map[string]*wordCount)
	order := 0
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= minWordLength {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		wc, ok := counts[tok]
		if !ok {
			wc = &wordCount{word: tok, first: order}
			counts[tok] = wc
			order++
		}
		wc.count++
	}

	ranked := make([]*wordCount, 0, len(counts))
	for _, wc := range counts {
		if wc.count > minWordCount {
			ranked = append(ranked, wc)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > MaxWordTopics {
		ranked = ranked[:MaxWordTopics]
	}

	out := make([]string, len(ranked))
	for i, wc := range ranked {
		out[i] = wc.word
	}
	return out
}

// ScoreTopic computes the momentum of a topic over items.
// an item mentions the topic when its searchable text contains it,
// case-insensitively. returns a zero-mention analysis if none match.
func ScoreTopic(model ScoringModel, topic string, items []ContentItem) TrendAnalysis {
	needle := strings.ToLower(topic)

	var (
		interactions float64
		reach        float64
		mentions     int
		sources      []SourceID
	)
	seenSources := make(map[SourceID]struct{})

	for _, item := range items {
		if needle == "" || !strings.Contains(searchableText(item), needle) {
			continue
		}
		mentions++
		// float sums so huge counters saturate the score instead of wrapping
		interactions += float64(item.Engagement().Interactions())
		reach += float64(item.Engagement().Views)

		if item.SourceID().IsZero() {
			continue
		}
		if _, ok := seenSources[item.SourceID()]; !ok {
			seenSources[item.SourceID()] = struct{}{}
			sources = append(sources, item.SourceID())
		}
	}

	analysis := TrendAnalysis{
		Topic:        topic,
		SourceIDs:    sources,
		ModelVersion: model.Version,
		Metrics: TrendMetrics{
			MentionsCount:    mentions,
			Sentiment:        NewScore(PlaceholderSentiment),
			TrendingDuration: PlaceholderTrendingDuration,
		},
	}
	if analysis.SourceIDs == nil {
		analysis.SourceIDs = []SourceID{}
	}
	if mentions == 0 {
		return analysis
	}

	engagement := interactions / float64(mentions)
	velocity := float64(mentions)
	reachFactor := 0.0
	if model.ReachDivisor > 0 {
		reachFactor = reach / model.ReachDivisor
	}

	raw := engagement*model.EngagementWeight +
		velocity*model.VelocityMultiplier*model.VelocityWeight +
		reachFactor*model.ReachWeight +
		velocity*model.FrequencyMultiplier*model.FrequencyWeight +
		PlaceholderSentiment*model.SentimentWeight

	analysis.MomentumScore = NewScore(raw)
	analysis.Metrics.EngagementRate = NewScore(engagement)
	analysis.Metrics.VelocityScore = NewScore(velocity * model.VelocityMultiplier)
	analysis.Metrics.ReachMultiplier = NewScore(reachFactor)
	analysis.Summary = summarize(topic, mentions, len(sources))

	return analysis
}

func summarize(topic string, mentions, sources int) string {
	noun := "mentions"
	if mentions == 1 {
		noun = "mention"
	}
	if sources == 0 {
		return fmt.Sprintf("%q is trending with %d %s", topic, mentions, noun)
	}
	src := "sources"
	if sources == 1 {
		src = "source"
	}
	return fmt.Sprintf("%q is trending with %d %s across %d %s", topic, mentions, noun, sources, src)
}

// AnalyzeTrends runs the full heuristic over items.
// this is a pure function: inactive items are dropped, topics with no
// mentions are omitted and the result is ordered by momentum descending,
// ties keeping topic order.
func AnalyzeTrends(model ScoringModel, items []ContentItem) []TrendAnalysis {
	active := make([]ContentItem, 0, len(items))
	for _, item := range items {
		if item.IsActive() {
			active = append(active, item)
		}
	}
	if len(active) == 0 {
		return []TrendAnalysis{}
	}

	topics := ExtractTopics(active)
	out := make([]TrendAnalysis, 0, len(topics))
	for _, topic := range topics {
		a := ScoreTopic(model, topic, active)
		if a.Metrics.MentionsCount == 0 {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MomentumScore.Value() > out[j].MomentumScore.Value()
	})

	return out
}

// TrendRecord is a persisted analysis for one user.
type TrendRecord struct {
	UserID     UserID
	Analysis   TrendAnalysis
	DetectedAt time.Time
}

// TrendRepository defines persistence for detected trends.
type TrendRepository interface {
	// SaveAll persists a batch of records.
	SaveAll(ctx context.Context, records []TrendRecord) error

	// MarkPass makes the pass detected at detectedAt the user's current one.
	// a pass that found nothing is marked too, leaving no current trends.
	MarkPass(ctx context.Context, userID UserID, detectedAt time.Time) error

	// ListLatest returns the records of the user's current pass, ordered by
	// momentum descending.
	ListLatest(ctx context.Context, userID UserID, limit int) ([]TrendRecord, error)

	// FindLatestByTopics returns the latest record of each topic, in the given topic order.
	// topics without a record are skipped.
	FindLatestByTopics(ctx context.Context, userID UserID, topics []string) ([]TrendRecord, error)

	// PreviousScores returns the latest known momentum for each topic.
	// topics never seen before are absent from the map.
	PreviousScores(ctx context.Context, userID UserID, topics []string) (map[string]float64, error)
}
