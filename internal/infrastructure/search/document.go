package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// Document is archived content as stored in the search index and carried on
// the content stream.
type Document struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	SourceID    string            `json:"source_id"`
	SourceType  string            `json:"source_type"`
	Title       string            `json:"title"`
	Text        string            `json:"text"`
	URL         string            `json:"url,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
	FetchedAt   time.Time         `json:"fetched_at"`
	Views       int64             `json:"views"`
	Likes       int64             `json:"likes"`
	Shares      int64             `json:"shares"`
	Comments    int64             `json:"comments"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewDocument builds the document of a fetched record.
func NewDocument(rec domain.ContentRecord) Document {
	item := rec.Item
	e := item.Engagement()

	doc := Document{
		UserID:      rec.UserID.String(),
		SourceID:    item.SourceID().String(),
		SourceType:  item.SourceType().String(),
		Title:       item.Title(),
		Text:        item.Text(),
		URL:         item.URL(),
		PublishedAt: item.PublishedAt(),
		FetchedAt:   rec.FetchedAt.UTC(),
		Views:       e.Views,
		Likes:       e.Likes,
		Shares:      e.Shares,
		Comments:    e.Comments,
		Metadata:    item.Metadata(),
	}
	doc.ID = DocumentID(doc)
	return doc
}

// DocumentID derives a stable id, so refetching the same item overwrites its
// document instead of duplicating it.
func DocumentID(doc Document) string {
	h := sha256.New()
	h.Write([]byte(doc.UserID))
	h.Write([]byte{0})
	h.Write([]byte(doc.SourceID))
	h.Write([]byte{0})
	if doc.URL != "" {
		h.Write([]byte(doc.URL))
	} else {
		h.Write([]byte(doc.Title))
		h.Write([]byte{0})
		h.Write([]byte(doc.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Version changes whenever a refetch brings new text or engagement counters
// for the same document.
func (d Document) Version() string {
	h := fnv.New64a()
	h.Write([]byte(d.Title))
	h.Write([]byte{0})
	h.Write([]byte(d.Text))
	return fmt.Sprintf("%x:%d:%d:%d:%d", h.Sum64(), d.Views, d.Likes, d.Shares, d.Comments)
}

// Hit converts the document into a search result.
func (d Document) Hit(score float64) domain.ContentHit {
	return domain.ContentHit{
		SourceID:    d.SourceID,
		SourceType:  domain.SourceType(d.SourceType),
		Title:       d.Title,
		Text:        d.Text,
		URL:         d.URL,
		PublishedAt: d.PublishedAt,
		Engagement: domain.Engagement{
			Views:    d.Views,
			Likes:    d.Likes,
			Shares:   d.Shares,
			Comments: d.Comments,
		},
		Score: score,
	}
}
