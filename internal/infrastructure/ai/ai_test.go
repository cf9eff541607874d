package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests map[string][]map[string]any
	chat     string
	status   int
}

func newFakeAPI(t *testing.T, chat string) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{requests: map[string][]map[string]any{}, chat: chat, status: http.StatusOK}

	mux := http.NewServeMux()
	record := func(r *http.Request) map[string]any {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		api.mu.Lock()
		defer api.mu.Unlock()
		api.requests[r.URL.Path] = append(api.requests[r.URL.Path], body)
		return body
	}
	fail := func(w http.ResponseWriter) bool {
		if api.status == http.StatusOK {
			return false
		}
		w.WriteHeader(api.status)
		fmt.Fprint(w, `{"error": {"message": "upstream exploded", "type": "server_error"}}`)
		return true
	}

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if fail(w) {
			return
		}
		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": api.chat},
				"finish_reason": "stop",
			}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		body := record(r)
		if fail(w) {
			return
		}
		inputs := body["input"].([]any)
		data := make([]map[string]any, 0, len(inputs))
		// answer in reverse order to check index handling
		for i := len(inputs) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), 0.5},
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data}))
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if fail(w) {
			return
		}
		fmt.Fprint(w, `{"created": 1, "data": [{"url": "https://images.example.com/1.png"}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		APIKey:            "sk-test",
		BaseURL:           baseURL + "/v1",
		ChatModel:         "gpt-4o-mini",
		ImageModel:        "dall-e-3",
		EmbeddingModel:    "text-embedding-3-small",
		RequestsPerMinute: 6000,
	}, logging.Discard())
	require.NoError(t, err)
	return c
}

func TestWriteDraft(t *testing.T) {
	api, srv := newFakeAPI(t, "  Go 1.24 ships with generic type aliases. #golang  ")
	c := newTestClient(t, srv.URL)

	text, err := c.WriteDraft(context.Background(), application.DraftRequest{
		Platform:      domain.PlatformTwitter,
		Topic:         "golang",
		Summary:       "release week",
		Niche:         "backend engineering",
		Tone:          "friendly",
		StyleExamples: []string{"my old post"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Go 1.24 ships with generic type aliases. #golang", text)

	reqs := api.requests["/v1/chat/completions"]
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-4o-mini", reqs[0]["model"])

	messages := reqs[0]["messages"].([]any)
	system := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "max 280 characters")
	assert.Contains(t, system, "backend engineering")
	assert.Contains(t, system, "my old post")
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, `"golang"`)
	assert.Contains(t, user, "release week")
}

func TestWriteDraft_EmptyResponse(t *testing.T) {
	_, srv := newFakeAPI(t, "   ")
	c := newTestClient(t, srv.URL)

	_, err := c.WriteDraft(context.Background(), application.DraftRequest{Platform: domain.PlatformThreads, Topic: "go"})

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

type upstreamCounter struct {
	counts map[string]int
}

func (c *upstreamCounter) RecordUpstreamError(service string) {
	c.counts[service]++
}

func TestWriteDraft_UpstreamErrorCounted(t *testing.T) {
	api, srv := newFakeAPI(t, "")
	api.status = http.StatusInternalServerError
	metrics := &upstreamCounter{counts: map[string]int{}}
	c := newTestClient(t, srv.URL).WithMetrics(metrics)

	_, err := c.WriteDraft(context.Background(), application.DraftRequest{Platform: domain.PlatformLinkedIn, Topic: "go"})

	assert.Error(t, err)
	assert.Equal(t, 1, metrics.counts["openai"])
}

func TestSummarizeTrends(t *testing.T) {
	api, srv := newFakeAPI(t, `{"golang": "Go 1.24 landed this week.", "unasked": "ignored", "rust": "  "}`)
	c := newTestClient(t, srv.URL)

	got, err := c.SummarizeTrends(context.Background(), []domain.TrendAnalysis{
		{Topic: "golang", Summary: "mentioned in 3 items", MomentumScore: domain.NewScore(72.4)},
		{Topic: "rust", Summary: "mentioned in 1 item"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"golang": "Go 1.24 landed this week."}, got)

	req := api.requests["/v1/chat/completions"][0]
	assert.Equal(t, "json_object", req["response_format"].(map[string]any)["type"])

	messages := req["messages"].([]any)
	prompt := messages[len(messages)-1].(map[string]any)["content"].(string)
	assert.Contains(t, prompt, "- golang (momentum 72, 0 mentions)")
}

func TestSummarizeTrends_Empty(t *testing.T) {
	api, srv := newFakeAPI(t, "{}")
	c := newTestClient(t, srv.URL)

	got, err := c.SummarizeTrends(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, api.requests)
}

func TestSummarizeTrends_InvalidJSON(t *testing.T) {
	_, srv := newFakeAPI(t, "not json")
	c := newTestClient(t, srv.URL)

	_, err := c.SummarizeTrends(context.Background(), []domain.TrendAnalysis{{Topic: "golang"}})

	assert.Error(t, err)
}

func TestEmbed_KeepsInputOrder(t *testing.T) {
	api, srv := newFakeAPI(t, "")
	c := newTestClient(t, srv.URL)

	vectors, err := c.Embed(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 0.5}, {1, 0.5}, {2, 0.5}}, vectors)
	assert.Equal(t, "text-embedding-3-small", api.requests["/v1/embeddings"][0]["model"])
}

func TestEmbed_NoTexts(t *testing.T) {
	api, srv := newFakeAPI(t, "")
	c := newTestClient(t, srv.URL)

	vectors, err := c.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, api.requests)
}

func TestGenerateImage(t *testing.T) {
	api, srv := newFakeAPI(t, "")
	c := newTestClient(t, srv.URL)

	url, err := c.GenerateImage(context.Background(), "a gopher surfing")

	require.NoError(t, err)
	assert.Equal(t, "https://images.example.com/1.png", url)

	req := api.requests["/v1/images/generations"][0]
	assert.Equal(t, "a gopher surfing", req["prompt"])
	assert.Equal(t, "dall-e-3", req["model"])
	assert.Equal(t, "1024x1024", req["size"])
}

func TestRateLimitRespectsContext(t *testing.T) {
	_, srv := newFakeAPI(t, "ok")
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.WriteDraft(ctx, application.DraftRequest{Platform: domain.PlatformTwitter, Topic: "go"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadGuidelines(t *testing.T) {
	g, err := LoadGuidelines()
	require.NoError(t, err)

	for _, p := range domain.AllPlatforms() {
		assert.NotEmpty(t, g[p].Voice, p)
	}
	assert.Contains(t, g.Render(domain.PlatformLinkedIn), "max 3000 characters")
}

func TestParseGuidelines_Errors(t *testing.T) {
	_, err := ParseGuidelines([]byte("twitter: {voice: short}"))
	assert.ErrorContains(t, err, "missing")

	_, err = ParseGuidelines([]byte("myspace: {voice: retro}"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ParseGuidelines([]byte("- twitter\n- linkedin"))
	assert.Error(t, err)
}
