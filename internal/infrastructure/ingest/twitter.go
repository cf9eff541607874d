package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

const (
	// DefaultTwitterHost is the X API host.
	DefaultTwitterHost = "https://api.twitter.com"

	// recent search accepts 10..100 results per page
	minTweetResults = 10
	maxTweetResults = 100
)

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// TwitterFetcher reads the recent posts of an account through the X API v2
// recent search endpoint.
type TwitterFetcher struct {
	client   *twitter.Client
	maxItems int
}

// NewTwitterFetcher creates a fetcher authenticated with an app bearer token.
func NewTwitterFetcher(bearerToken, host string, maxItems int, httpClient *http.Client) *TwitterFetcher {
	if host == "" {
		host = DefaultTwitterHost
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwitterFetcher{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: bearerToken},
			Client:     httpClient,
			Host:       host,
		},
		maxItems: maxItems,
	}
}

// Fetch returns the latest original posts of the source account.
func (f *TwitterFetcher) Fetch(ctx context.Context, source *domain.Source) ([]domain.ContentItem, error) {
	query := fmt.Sprintf("from:%s -is:retweet", source.Handle())

	opts := twitter.TweetRecentSearchOpts{
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldPublicMetrics,
		},
		MaxResults: min(max(f.maxItems, minTweetResults), maxTweetResults),
	}

	resp, err := f.client.TweetRecentSearch(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("twitter recent search for %s: %w", source.Handle(), err)
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}

	items := make([]domain.ContentItem, 0, len(resp.Raw.Tweets))
	for _, tweet := range resp.Raw.Tweets {
		if tweet == nil {
			continue
		}

		var engagement domain.Engagement
		if m := tweet.PublicMetrics; m != nil {
			engagement = domain.Engagement{
				Views:    int64(m.Impressions),
				Likes:    int64(m.Likes),
				Shares:   int64(m.Retweets + m.Quotes),
				Comments: int64(m.Replies),
			}
		}

		publishedAt, _ := time.Parse(time.RFC3339, tweet.CreatedAt)

		items = append(items, domain.NewContentItem(domain.ContentItemParams{
			SourceID:    source.ID(),
			SourceType:  domain.SourceTypeTwitter,
			Text:        tweet.Text,
			URL:         fmt.Sprintf("https://x.com/%s/status/%s", source.Handle(), tweet.ID),
			PublishedAt: publishedAt,
			Engagement:  engagement,
			Metadata:    map[string]string{"tweet_id": tweet.ID},
		}))

		if f.maxItems > 0 && len(items) >= f.maxItems {
			break
		}
	}
	return items, nil
}
