package domain

import (
	"errors"
	"testing"
)

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  SourceType
		valid bool
	}{
		{"twitter", "twitter", SourceTypeTwitter, true},
		{"youtube", "youtube", SourceTypeYouTube, true},
		{"blog", "blog", SourceTypeBlog, true},
		{"rss", "rss", SourceTypeRSS, true},
		{"uppercase", "RSS", SourceTypeRSS, true},
		{"unknown", "tiktok", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceType(tt.input)

			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name       string
		sourceType SourceType
		input      string
		want       string
		wantErr    error
	}{
		{"twitter_plain", SourceTypeTwitter, "golang", "golang", nil},
		{"twitter_at_stripped", SourceTypeTwitter, "@golang", "golang", nil},
		{"twitter_trimmed", SourceTypeTwitter, "  @go_dev ", "go_dev", nil},
		{"twitter_bad_chars", SourceTypeTwitter, "go-lang", "", ErrSourceHandleChars},
		{"twitter_too_long", SourceTypeTwitter, "abcdefghijklmnop", "", ErrSourceHandleChars},
		{"twitter_only_at", SourceTypeTwitter, "@", "", ErrSourceHandleChars},
		{"youtube_channel", SourceTypeYouTube, "UC_x5XG1OV2P6uZZ5FSM9Ttw", "UC_x5XG1OV2P6uZZ5FSM9Ttw", nil},
		{"youtube_spaces", SourceTypeYouTube, "my channel", "", ErrSourceHandleChars},
		{"rss_url", SourceTypeRSS, "https://go.dev/blog/feed.atom", "https://go.dev/blog/feed.atom", nil},
		{"rss_no_scheme", SourceTypeRSS, "go.dev/blog/feed.atom", "", ErrSourceHandleURL},
		{"blog_ftp", SourceTypeBlog, "ftp://example.com", "", ErrSourceHandleURL},
		{"blog_url", SourceTypeBlog, "http://example.com/posts", "http://example.com/posts", nil},
		{"empty", SourceTypeBlog, "   ", "", ErrSourceHandleEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeHandle(tt.sourceType, tt.input)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected error to wrap ErrInvalidInput")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewSource_ValidInput(t *testing.T) {
	userID := NewUserID()

	source, err := NewSource(userID, SourceTypeTwitter, "@golang", "")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.Handle() != "golang" {
		t.Errorf("expected handle golang, got %s", source.Handle())
	}
	if source.DisplayName() != "golang" {
		t.Errorf("expected display name to default to handle, got %s", source.DisplayName())
	}
	if !source.IsActive() {
		t.Error("expected new source to be active")
	}
	if source.UserID() != userID {
		t.Errorf("expected user %s, got %s", userID, source.UserID())
	}
	if source.ID().IsZero() {
		t.Error("expected non-zero source id")
	}
}

func TestNewSource_MissingUser(t *testing.T) {
	_, err := NewSource(UserID{}, SourceTypeRSS, "https://example.com/feed", "")

	if err != ErrSourceUserEmpty {
		t.Errorf("expected ErrSourceUserEmpty, got %v", err)
	}
}

func TestSource_SetActive(t *testing.T) {
	source, err := NewSource(NewUserID(), SourceTypeYouTube, "UCabc", "Channel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	source.SetActive(false)

	if source.IsActive() {
		t.Error("expected source to be inactive")
	}
	if source.UpdatedAt().Before(source.CreatedAt()) {
		t.Error("expected updated_at to move forward")
	}
}
