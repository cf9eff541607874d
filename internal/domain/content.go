package domain

import (
	"math"
	"time"
)

// Engagement holds the raw interaction counters reported by a platform.
// shares covers retweets/reposts depending on the origin.
type Engagement struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
}

// Interactions returns likes + shares + comments, saturating at MaxInt64.
func (e Engagement) Interactions() int64 {
	return addSaturating(addSaturating(e.Likes, e.Shares), e.Comments)
}

// addSaturating adds two non-negative counters without wrapping.
func addSaturating(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// ContentItem is a single piece of fetched content.
// immutable once produced: every field is set by NewContentItem.
type ContentItem struct {
	sourceID    SourceID
	sourceType  SourceType
	title       string
	text        string
	url         string
	publishedAt time.Time
	engagement  Engagement
	metadata    map[string]string
	isActive    bool
}

// ContentItemParams groups the fields of a content item.
type ContentItemParams struct {
	SourceID    SourceID
	SourceType  SourceType
	Title       string
	Text        string
	URL         string
	PublishedAt time.Time
	Engagement  Engagement
	Metadata    map[string]string
	// Inactive marks an item that should be ignored by the scorer.
	Inactive bool
}

// NewContentItem creates an immutable content item.
// negative counters from misbehaving upstreams are floored at zero.
func NewContentItem(p ContentItemParams) ContentItem {
	meta := make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		meta[k] = v
	}

	e := p.Engagement
	e.Views = max(e.Views, 0)
	e.Likes = max(e.Likes, 0)
	e.Shares = max(e.Shares, 0)
	e.Comments = max(e.Comments, 0)

	return ContentItem{
		sourceID:    p.SourceID,
		sourceType:  p.SourceType,
		title:       p.Title,
		text:        p.Text,
		url:         p.URL,
		publishedAt: p.PublishedAt.UTC(),
		engagement:  e,
		metadata:    meta,
		isActive:    !p.Inactive,
	}
}

func (c ContentItem) SourceID() SourceID     { return c.sourceID }
func (c ContentItem) SourceType() SourceType { return c.sourceType }
func (c ContentItem) Title() string          { return c.title }
func (c ContentItem) Text() string           { return c.text }
func (c ContentItem) URL() string            { return c.url }
func (c ContentItem) PublishedAt() time.Time { return c.publishedAt }
func (c ContentItem) Engagement() Engagement { return c.engagement }
func (c ContentItem) IsActive() bool         { return c.isActive }

// Metadata returns a copy of the free-form metadata.
func (c ContentItem) Metadata() map[string]string {
	out := make(map[string]string, len(c.metadata))
	for k, v := range c.metadata {
		out[k] = v
	}
	return out
}

// Params returns the fields of the item, e.g. for serialization.
func (c ContentItem) Params() ContentItemParams {
	return ContentItemParams{
		SourceID:    c.sourceID,
		SourceType:  c.sourceType,
		Title:       c.title,
		Text:        c.text,
		URL:         c.url,
		PublishedAt: c.publishedAt,
		Engagement:  c.engagement,
		Metadata:    c.Metadata(),
		Inactive:    !c.isActive,
	}
}

// ContentRecord is a fetched item tagged with the user it was fetched for.
// this is what gets archived and indexed for search.
type ContentRecord struct {
	UserID    UserID
	Item      ContentItem
	FetchedAt time.Time
}

// ContentHit is a search result over archived content.
type ContentHit struct {
	SourceID    string
	SourceType  SourceType
	Title       string
	Text        string
	URL         string
	PublishedAt time.Time
	Engagement  Engagement
	Score       float64
}
