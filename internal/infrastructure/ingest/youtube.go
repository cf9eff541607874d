package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// DefaultYouTubeBaseURL is the YouTube Data API v3 root.
const DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

const maxYouTubeResults = 50

// YouTubeFetcher lists the latest videos of a channel with their statistics.
type YouTubeFetcher struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxItems   int
}

// NewYouTubeFetcher creates a YouTube Data API client.
func NewYouTubeFetcher(apiKey, baseURL string, maxItems int) *YouTubeFetcher {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	return &YouTubeFetcher{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		MaxItems: maxItems,
	}
}

type youtubeChannelsResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			PublishedAt time.Time `json:"publishedAt"`
			ChannelID   string    `json:"channelId"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Fetch returns the most recent videos of the source channel.
// the handle is a channel id or an @handle.
func (f *YouTubeFetcher) Fetch(ctx context.Context, source *domain.Source) ([]domain.ContentItem, error) {
	channelID, err := f.resolveChannel(ctx, source.Handle())
	if err != nil {
		return nil, err
	}

	limit := f.MaxItems
	if limit <= 0 || limit > maxYouTubeResults {
		limit = maxYouTubeResults
	}

	var search youtubeSearchResponse
	err = f.get(ctx, "search", url.Values{
		"part":       {"id"},
		"channelId":  {channelID},
		"order":      {"date"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
	}, &search)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(search.Items))
	for _, it := range search.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var videos youtubeVideosResponse
	err = f.get(ctx, "videos", url.Values{
		"part": {"snippet,statistics"},
		"id":   {strings.Join(ids, ",")},
	}, &videos)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ContentItem, 0, len(videos.Items))
	for _, v := range videos.Items {
		text := v.Snippet.Title
		if v.Snippet.Description != "" {
			text += "\n" + v.Snippet.Description
		}

		items = append(items, domain.NewContentItem(domain.ContentItemParams{
			SourceID:    source.ID(),
			SourceType:  domain.SourceTypeYouTube,
			Title:       v.Snippet.Title,
			Text:        text,
			URL:         "https://www.youtube.com/watch?v=" + v.ID,
			PublishedAt: v.Snippet.PublishedAt,
			Engagement: domain.Engagement{
				Views:    parseCount(v.Statistics.ViewCount),
				Likes:    parseCount(v.Statistics.LikeCount),
				Comments: parseCount(v.Statistics.CommentCount),
			},
			Metadata: map[string]string{
				"video_id":   v.ID,
				"channel_id": v.Snippet.ChannelID,
			},
		}))
	}
	return items, nil
}

func (f *YouTubeFetcher) resolveChannel(ctx context.Context, handle string) (string, error) {
	if !strings.HasPrefix(handle, "@") {
		return handle, nil
	}

	var channels youtubeChannelsResponse
	err := f.get(ctx, "channels", url.Values{
		"part":      {"id"},
		"forHandle": {handle},
	}, &channels)
	if err != nil {
		return "", err
	}
	if len(channels.Items) == 0 {
		return "", fmt.Errorf("youtube channel %s not found", handle)
	}
	return channels.Items[0].ID, nil
}

func (f *YouTubeFetcher) get(ctx context.Context, resource string, params url.Values, out any) error {
	params.Set("key", f.APIKey)
	endpoint := fmt.Sprintf("%s/%s?%s", f.BaseURL, resource, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("youtube %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube %s returned status code %d", resource, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding youtube %s: %w", resource, err)
	}
	return nil
}

// parseCount reads the string counters of the data api; hidden counts are 0.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
