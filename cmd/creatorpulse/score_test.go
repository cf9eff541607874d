package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

type scoredTrends struct {
	Trends []struct {
		Topic         string  `json:"topic"`
		MomentumScore float64 `json:"momentum_score"`
	} `json:"trends"`
	Count int `json:"count"`
}

func TestScoreContent(t *testing.T) {
	in := strings.NewReader(`{"content":[
		{"text":"shipping #golang services","likes":40,"views":900},
		{"text":"more #golang","likes":5,"views":100},
		{"text":"quiet #rust day","likes":1,"views":50}
	]}`)
	var out bytes.Buffer

	require.NoError(t, scoreContent(context.Background(), in, &out))

	var resp scoredTrends
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	topics := []string{resp.Trends[0].Topic, resp.Trends[1].Topic}
	assert.ElementsMatch(t, []string{"golang", "rust"}, topics)
	assert.GreaterOrEqual(t, resp.Trends[0].MomentumScore, resp.Trends[1].MomentumScore)
}

func TestScoreContent_InvalidPayload(t *testing.T) {
	err := scoreContent(context.Background(), strings.NewReader(`not json`), &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScoreCommand_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"content":[{"text":"#ai everywhere"}]}`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"score", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	var resp scoredTrends
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "ai", resp.Trends[0].Topic)
}
