package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// RSSFetcher reads RSS, Atom and JSON feeds.
type RSSFetcher struct {
	parser   *gofeed.Parser
	maxItems int
}

// NewRSSFetcher creates a feed reader.
func NewRSSFetcher(maxItems int) *RSSFetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = "CreatorPulse/1.0"
	parser.Client = &http.Client{Timeout: 15 * time.Second}

	return &RSSFetcher{
		parser:   parser,
		maxItems: maxItems,
	}
}

// Fetch returns the newest entries of the source feed.
func (f *RSSFetcher) Fetch(ctx context.Context, source *domain.Source) ([]domain.ContentItem, error) {
	feed, err := f.parser.ParseURLWithContext(source.Handle(), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", source.Handle(), err)
	}

	items := make([]domain.ContentItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}

		body := entry.Description
		if body == "" {
			body = entry.Content
		}
		text := strings.TrimSpace(entry.Title + "\n" + plainText(body))

		var publishedAt time.Time
		switch {
		case entry.PublishedParsed != nil:
			publishedAt = *entry.PublishedParsed
		case entry.UpdatedParsed != nil:
			publishedAt = *entry.UpdatedParsed
		}

		items = append(items, domain.NewContentItem(domain.ContentItemParams{
			SourceID:    source.ID(),
			SourceType:  domain.SourceTypeRSS,
			Title:       entry.Title,
			Text:        text,
			URL:         entry.Link,
			PublishedAt: publishedAt,
			Metadata: map[string]string{
				"feed":       feed.Title,
				"guid":       entry.GUID,
				"categories": strings.Join(entry.Categories, ","),
			},
		}))

		if f.maxItems > 0 && len(items) >= f.maxItems {
			break
		}
	}
	return items, nil
}

// plainText strips markup from feed html, keeping the visible text.
func plainText(html string) string {
	if !strings.Contains(html, "<") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
