package domain

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SourceType is the kind of external origin a source pulls content from.
type SourceType string

const (
	SourceTypeTwitter SourceType = "twitter"
	SourceTypeYouTube SourceType = "youtube"
	SourceTypeBlog    SourceType = "blog"
	SourceTypeRSS     SourceType = "rss"
)

var validSourceTypes = map[SourceType]bool{
	SourceTypeTwitter: true,
	SourceTypeYouTube: true,
	SourceTypeBlog:    true,
	SourceTypeRSS:     true,
}

var (
	ErrInvalidSourceType = fmt.Errorf("%w: source type must be one of twitter, youtube, blog, rss", ErrInvalidInput)
	ErrSourceHandleEmpty = fmt.Errorf("%w: source handle cannot be empty", ErrInvalidInput)
	ErrSourceHandleURL   = fmt.Errorf("%w: source handle must be an absolute http(s) url", ErrInvalidInput)
	ErrSourceHandleChars = fmt.Errorf("%w: source handle contains invalid characters", ErrInvalidInput)
	ErrSourceUserEmpty   = fmt.Errorf("%w: source must belong to a user", ErrInvalidInput)
)

// ParseSourceType validates and returns a SourceType from a string.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(strings.ToLower(strings.TrimSpace(s)))
	if !validSourceTypes[st] {
		return "", ErrInvalidSourceType
	}
	return st, nil
}

// String returns the string representation of the SourceType.
func (t SourceType) String() string {
	return string(t)
}

// IsValid returns true if the source type is known.
func (t SourceType) IsValid() bool {
	return validSourceTypes[t]
}

// NormalizeHandle validates a raw handle for the given source type and
// returns its canonical form.
//
//   - twitter: account name, leading @ stripped, 1-15 chars of [A-Za-z0-9_]
//   - youtube: channel id or @handle, no whitespace
//   - blog/rss: absolute http(s) url
func NormalizeHandle(t SourceType, raw string) (string, error) {
	h := strings.TrimSpace(raw)
	if h == "" {
		return "", ErrSourceHandleEmpty
	}

	switch t {
	case SourceTypeTwitter:
		h = strings.TrimPrefix(h, "@")
		if h == "" || len(h) > 15 {
			return "", ErrSourceHandleChars
		}
		for _, c := range h {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
				return "", ErrSourceHandleChars
			}
		}
		return h, nil
	case SourceTypeYouTube:
		if strings.ContainsAny(h, " \t\n/") {
			return "", ErrSourceHandleChars
		}
		return h, nil
	case SourceTypeBlog, SourceTypeRSS:
		u, err := url.Parse(h)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", ErrSourceHandleURL
		}
		return u.String(), nil
	default:
		return "", ErrInvalidSourceType
	}
}

// Source is an external content origin a user subscribes to.
type Source struct {
	id          SourceID
	userID      UserID
	sourceType  SourceType
	handle      string
	displayName string
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewSource creates a new active Source, validating the handle.
func NewSource(userID UserID, sourceType SourceType, handle, displayName string) (*Source, error) {
	if userID.IsZero() {
		return nil, ErrSourceUserEmpty
	}
	if !sourceType.IsValid() {
		return nil, ErrInvalidSourceType
	}

	normalized, err := NormalizeHandle(sourceType, handle)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = normalized
	}

	now := time.Now().UTC()
	return &Source{
		id:          NewSourceID(),
		userID:      userID,
		sourceType:  sourceType,
		handle:      normalized,
		displayName: strings.TrimSpace(displayName),
		isActive:    true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructSource recreates a Source from stored data.
// use this when loading from database, not for creating new sources.
func ReconstructSource(
	id SourceID,
	userID UserID,
	sourceType SourceType,
	handle string,
	displayName string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Source {
	return &Source{
		id:          id,
		userID:      userID,
		sourceType:  sourceType,
		handle:      handle,
		displayName: displayName,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (s *Source) ID() SourceID         { return s.id }
func (s *Source) UserID() UserID       { return s.userID }
func (s *Source) Type() SourceType     { return s.sourceType }
func (s *Source) Handle() string       { return s.handle }
func (s *Source) DisplayName() string  { return s.displayName }
func (s *Source) IsActive() bool       { return s.isActive }
func (s *Source) CreatedAt() time.Time { return s.createdAt }
func (s *Source) UpdatedAt() time.Time { return s.updatedAt }

// SetActive toggles whether the source takes part in ingestion.
func (s *Source) SetActive(active bool) {
	s.isActive = active
	s.updatedAt = time.Now().UTC()
}

// SourceRepository defines persistence for sources.
type SourceRepository interface {
	// Save persists a source (insert or update).
	// returns ErrAlreadyExists when the user already has the same type+handle.
	Save(ctx context.Context, source *Source) error

	// FindByID retrieves a source owned by the given user.
	FindByID(ctx context.Context, userID UserID, id SourceID) (*Source, error)

	// ListByUser returns all sources of a user, newest first.
	ListByUser(ctx context.Context, userID UserID) ([]*Source, error)

	// ListActiveByUser returns the active sources of a user.
	ListActiveByUser(ctx context.Context, userID UserID) ([]*Source, error)

	// ListUsersWithActiveSources returns every user owning at least one active source.
	ListUsersWithActiveSources(ctx context.Context, limit int) ([]UserID, error)

	// Delete removes a source owned by the given user.
	Delete(ctx context.Context, userID UserID, id SourceID) error
}
