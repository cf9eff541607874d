package domain

import (
	"errors"
	"testing"
)

func TestSpikeThresholds_IsSpike(t *testing.T) {
	th := DefaultSpikeThresholds()

	tests := []struct {
		name     string
		old      float64
		new      float64
		expected bool
	}{
		{"below_absolute", 0, 9, false},
		{"at_absolute", 0, 10, false},
		{"first_seen_above_absolute", 0, 11.5, true},
		{"shrinking", 40, 30, false},
		{"flat", 40, 40, false},
		{"small_growth", 40, 44, false},
		{"twenty_percent", 40, 48, true},
		{"large_growth", 20, 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.IsSpike(tt.old, tt.new); got != tt.expected {
				t.Errorf("IsSpike(%f, %f): expected %v, got %v", tt.old, tt.new, tt.expected, got)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	if got := PercentChange(0, 50); got != 0 {
		t.Errorf("expected 0 without baseline, got %f", got)
	}
	if got := PercentChange(20, 30); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestNewWebhookSubscription(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		secret  string
		wantErr error
	}{
		{"valid", "https://hooks.example.com/trends", "0123456789abcdef", nil},
		{"relative_url", "/hooks", "0123456789abcdef", ErrWebhookURLInvalid},
		{"bad_scheme", "ftp://hooks.example.com", "0123456789abcdef", ErrWebhookURLInvalid},
		{"short_secret", "https://hooks.example.com", "short", ErrWebhookSecretShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewWebhookSubscription(NewUserID(), tt.url, tt.secret)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Error("expected error to wrap ErrInvalidInput")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !sub.IsActive() {
				t.Error("expected subscription to be active")
			}
		})
	}
}

func TestCreatorProfile_Update(t *testing.T) {
	p := NewCreatorProfile(NewUserID())

	if p.Tone() != DefaultTone {
		t.Errorf("expected default tone, got %s", p.Tone())
	}
	if len(p.TargetPlatforms()) != len(AllPlatforms()) {
		t.Errorf("expected all platforms by default, got %v", p.TargetPlatforms())
	}

	err := p.Update("Ada", "developer tools", "witty", []Platform{PlatformLinkedIn, PlatformLinkedIn, PlatformTwitter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	platforms := p.TargetPlatforms()
	if len(platforms) != 2 || platforms[0] != PlatformLinkedIn || platforms[1] != PlatformTwitter {
		t.Errorf("expected deduplicated platforms, got %v", platforms)
	}

	if err := p.Update("Ada", "", "", []Platform{"myspace"}); err != ErrInvalidPlatform {
		t.Errorf("expected ErrInvalidPlatform, got %v", err)
	}
	if p.Niche() != "developer tools" {
		t.Error("expected failed update to leave profile untouched")
	}
}
