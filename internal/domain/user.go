package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	maxDisplayNameLength = 100
	maxNicheLength       = 200
	maxToneLength        = 100
)

// DefaultTone is used when the creator has not chosen one.
const DefaultTone = "professional"

var (
	ErrProfileNameTooLong  = fmt.Errorf("%w: display name must be at most %d characters", ErrInvalidInput, maxDisplayNameLength)
	ErrProfileNicheTooLong = fmt.Errorf("%w: niche must be at most %d characters", ErrInvalidInput, maxNicheLength)
	ErrProfileToneTooLong  = fmt.Errorf("%w: tone must be at most %d characters", ErrInvalidInput, maxToneLength)
)

// CreatorProfile holds the preferences that shape generated drafts.
// the id is the subject of the auth token, so there is no separate
// external id to map.
type CreatorProfile struct {
	userID          UserID
	displayName     string
	niche           string
	tone            string
	targetPlatforms []Platform
	createdAt       time.Time
	updatedAt       time.Time
}

// NewCreatorProfile returns the default profile for a user that never saved one.
func NewCreatorProfile(userID UserID) *CreatorProfile {
	now := time.Now().UTC()
	return &CreatorProfile{
		userID:          userID,
		tone:            DefaultTone,
		targetPlatforms: AllPlatforms(),
		createdAt:       now,
		updatedAt:       now,
	}
}

// ReconstructCreatorProfile recreates a profile from stored data.
// use this when loading from database, not for creating new profiles.
func ReconstructCreatorProfile(
	userID UserID,
	displayName string,
	niche string,
	tone string,
	targetPlatforms []Platform,
	createdAt time.Time,
	updatedAt time.Time,
) *CreatorProfile {
	return &CreatorProfile{
		userID:          userID,
		displayName:     displayName,
		niche:           niche,
		tone:            tone,
		targetPlatforms: targetPlatforms,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// UserID returns the owner of the profile.
func (p *CreatorProfile) UserID() UserID {
	return p.userID
}

// DisplayName returns the creator's display name.
func (p *CreatorProfile) DisplayName() string {
	return p.displayName
}

// Niche returns the creator's subject area, e.g. "developer tools".
func (p *CreatorProfile) Niche() string {
	return p.niche
}

// Tone returns the preferred writing tone.
func (p *CreatorProfile) Tone() string {
	if p.tone == "" {
		return DefaultTone
	}
	return p.tone
}

// TargetPlatforms returns a copy of the platforms drafts default to.
func (p *CreatorProfile) TargetPlatforms() []Platform {
	out := make([]Platform, len(p.targetPlatforms))
	copy(out, p.targetPlatforms)
	return out
}

// CreatedAt returns when the profile was created.
func (p *CreatorProfile) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns when the profile was last updated.
func (p *CreatorProfile) UpdatedAt() time.Time {
	return p.updatedAt
}

// Update replaces the editable fields of the profile.
// an empty platform list resets to all platforms.
func (p *CreatorProfile) Update(displayName, niche, tone string, platforms []Platform) error {
	displayName = strings.TrimSpace(displayName)
	niche = strings.TrimSpace(niche)
	tone = strings.TrimSpace(tone)

	if len([]rune(displayName)) > maxDisplayNameLength {
		return ErrProfileNameTooLong
	}
	if len([]rune(niche)) > maxNicheLength {
		return ErrProfileNicheTooLong
	}
	if len([]rune(tone)) > maxToneLength {
		return ErrProfileToneTooLong
	}

	deduped := make([]Platform, 0, len(platforms))
	seen := make(map[Platform]bool)
	for _, pl := range platforms {
		if !pl.IsValid() {
			return ErrInvalidPlatform
		}
		if seen[pl] {
			continue
		}
		seen[pl] = true
		deduped = append(deduped, pl)
	}
	if len(deduped) == 0 {
		deduped = AllPlatforms()
	}
	if tone == "" {
		tone = DefaultTone
	}

	p.displayName = displayName
	p.niche = niche
	p.tone = tone
	p.targetPlatforms = deduped
	p.updatedAt = time.Now().UTC()
	return nil
}

// ProfileRepository defines persistence for creator profiles.
type ProfileRepository interface {
	// FindByUser returns the profile of a user or ErrNotFound.
	FindByUser(ctx context.Context, userID UserID) (*CreatorProfile, error)

	// Save persists a profile (insert or update).
	Save(ctx context.Context, profile *CreatorProfile) error
}
