package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// DefaultFirecrawlBaseURL is the hosted content-extraction service.
const DefaultFirecrawlBaseURL = "https://api.firecrawl.dev"

// maxBlogTextLength caps the scraped body kept per page.
const maxBlogTextLength = 20000

// BlogFetcher scrapes a blog page into markdown through a
// Firecrawl-compatible /v1/scrape endpoint.
type BlogFetcher struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewBlogFetcher creates a content-extraction client.
func NewBlogFetcher(apiKey, baseURL string) *BlogFetcher {
	if baseURL == "" {
		baseURL = DefaultFirecrawlBaseURL
	}
	return &BlogFetcher{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title         string `json:"title"`
			Description   string `json:"description"`
			SourceURL     string `json:"sourceURL"`
			PublishedTime string `json:"publishedTime"`
		} `json:"metadata"`
	} `json:"data"`
}

// Fetch scrapes the source url and returns it as a single item.
func (f *BlogFetcher) Fetch(ctx context.Context, source *domain.Source) ([]domain.ContentItem, error) {
	body, err := json.Marshal(scrapeRequest{
		URL:             source.Handle(),
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.APIKey)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", source.Handle(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape of %s returned status code %d", source.Handle(), resp.StatusCode)
	}

	var scraped scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&scraped); err != nil {
		return nil, fmt.Errorf("decoding scrape response: %w", err)
	}
	if !scraped.Success {
		return nil, fmt.Errorf("scrape of %s failed: %s", source.Handle(), scraped.Error)
	}

	text := strings.TrimSpace(scraped.Data.Markdown)
	if text == "" {
		return nil, nil
	}
	if len(text) > maxBlogTextLength {
		text = strings.ToValidUTF8(text[:maxBlogTextLength], "")
	}

	pageURL := scraped.Data.Metadata.SourceURL
	if pageURL == "" {
		pageURL = source.Handle()
	}

	publishedAt, err := time.Parse(time.RFC3339, scraped.Data.Metadata.PublishedTime)
	if err != nil {
		publishedAt = time.Now()
	}

	return []domain.ContentItem{
		domain.NewContentItem(domain.ContentItemParams{
			SourceID:    source.ID(),
			SourceType:  domain.SourceTypeBlog,
			Title:       scraped.Data.Metadata.Title,
			Text:        text,
			URL:         pageURL,
			PublishedAt: publishedAt,
			Metadata: map[string]string{
				"description": scraped.Data.Metadata.Description,
			},
		}),
	}, nil
}
