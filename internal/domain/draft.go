package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Platform is a social network a draft is written for.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformThreads   Platform = "threads"
)

// platformLimits is the max content length in characters per platform.
var platformLimits = map[Platform]int{
	PlatformTwitter:   280,
	PlatformLinkedIn:  3000,
	PlatformInstagram: 2200,
	PlatformThreads:   500,
}

var ErrInvalidPlatform = fmt.Errorf("%w: platform must be one of twitter, linkedin, instagram, threads", ErrInvalidInput)

// ParsePlatform validates and returns a Platform from a string.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := platformLimits[p]; !ok {
		return "", ErrInvalidPlatform
	}
	return p, nil
}

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid returns true if the platform is known.
func (p Platform) IsValid() bool {
	_, ok := platformLimits[p]
	return ok
}

// CharacterLimit returns the max content length, 0 for unknown platforms.
func (p Platform) CharacterLimit() int {
	return platformLimits[p]
}

// AllPlatforms returns every supported platform in a stable order.
func AllPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformLinkedIn, PlatformInstagram, PlatformThreads}
}

// DraftStatus tracks the review state of a draft.
type DraftStatus string

const (
	DraftStatusGenerated DraftStatus = "generated"
	DraftStatusSaved     DraftStatus = "saved"
)

// ParseDraftStatus validates a stored status value.
func ParseDraftStatus(s string) (DraftStatus, error) {
	switch DraftStatus(s) {
	case DraftStatusGenerated, DraftStatusSaved:
		return DraftStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown draft status %q", ErrInvalidInput, s)
	}
}

var (
	ErrDraftContentEmpty = fmt.Errorf("%w: draft content cannot be empty", ErrInvalidInput)
	ErrDraftTooLong      = fmt.Errorf("%w: draft content exceeds the platform limit", ErrInvalidInput)
	ErrDraftTopicEmpty   = fmt.Errorf("%w: draft topic cannot be empty", ErrInvalidInput)
)

var draftHashtagPattern = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags returns the distinct hashtags of a text, without '#',
// in order of appearance. case is preserved from the first occurrence.
func ExtractHashtags(text string) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, m := range draftHashtagPattern.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[1])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}

// TrimToLimit cuts text to the platform limit on a word boundary when
// possible. text already within the limit is returned unchanged.
func TrimToLimit(p Platform, text string) string {
	text = strings.TrimSpace(text)
	limit := p.CharacterLimit()
	if limit == 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:limit])
	// the boundary cut must keep more than half the limit, counted in runes
	if i := strings.LastIndexAny(cut, " \n\t"); i >= 0 && utf8.RuneCountInString(cut[:i]) > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// Draft is a generated piece of content awaiting review.
type Draft struct {
	id        DraftID
	userID    UserID
	platform  Platform
	topic     string
	content   string
	hashtags  []string
	imageURL  string
	status    DraftStatus
	createdAt time.Time
	updatedAt time.Time
}

func validateContent(p Platform, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrDraftContentEmpty
	}
	if utf8.RuneCountInString(content) > p.CharacterLimit() {
		return fmt.Errorf("%w: %d > %d for %s", ErrDraftTooLong, utf8.RuneCountInString(content), p.CharacterLimit(), p)
	}
	return nil
}

// NewDraft creates a generated draft. hashtags are extracted from content.
func NewDraft(userID UserID, platform Platform, topic, content string) (*Draft, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("%w: draft must belong to a user", ErrInvalidInput)
	}
	if !platform.IsValid() {
		return nil, ErrInvalidPlatform
	}
	if strings.TrimSpace(topic) == "" {
		return nil, ErrDraftTopicEmpty
	}
	if err := validateContent(platform, content); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Draft{
		id:        NewDraftID(),
		userID:    userID,
		platform:  platform,
		topic:     strings.TrimSpace(topic),
		content:   content,
		hashtags:  ExtractHashtags(content),
		status:    DraftStatusGenerated,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructDraft recreates a Draft from stored data.
func ReconstructDraft(
	id DraftID,
	userID UserID,
	platform Platform,
	topic string,
	content string,
	hashtags []string,
	imageURL string,
	status DraftStatus,
	createdAt time.Time,
	updatedAt time.Time,
) *Draft {
	if hashtags == nil {
		hashtags = []string{}
	}
	return &Draft{
		id:        id,
		userID:    userID,
		platform:  platform,
		topic:     topic,
		content:   content,
		hashtags:  hashtags,
		imageURL:  imageURL,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (d *Draft) ID() DraftID          { return d.id }
func (d *Draft) UserID() UserID       { return d.userID }
func (d *Draft) Platform() Platform   { return d.platform }
func (d *Draft) Topic() string        { return d.topic }
func (d *Draft) Content() string      { return d.content }
func (d *Draft) ImageURL() string     { return d.imageURL }
func (d *Draft) Status() DraftStatus  { return d.status }
func (d *Draft) CreatedAt() time.Time { return d.createdAt }
func (d *Draft) UpdatedAt() time.Time { return d.updatedAt }

// Hashtags returns a copy of the draft hashtags.
func (d *Draft) Hashtags() []string {
	out := make([]string, len(d.hashtags))
	copy(out, d.hashtags)
	return out
}

// IsOwnedBy reports whether the draft belongs to the user.
func (d *Draft) IsOwnedBy(userID UserID) bool {
	return d.userID == userID
}

// Edit replaces the content, re-extracting hashtags.
func (d *Draft) Edit(content string) error {
	if err := validateContent(d.platform, content); err != nil {
		return err
	}
	d.content = content
	d.hashtags = ExtractHashtags(content)
	d.updatedAt = time.Now().UTC()
	return nil
}

// MarkSaved moves the draft to saved. saving twice is a no-op.
func (d *Draft) MarkSaved() {
	if d.status == DraftStatusSaved {
		return
	}
	d.status = DraftStatusSaved
	d.updatedAt = time.Now().UTC()
}

// AttachImage sets the generated image url.
func (d *Draft) AttachImage(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return fmt.Errorf("%w: image url cannot be empty", ErrInvalidInput)
	}
	d.imageURL = imageURL
	d.updatedAt = time.Now().UTC()
	return nil
}

// DraftRepository defines persistence for drafts.
// every lookup is owner scoped: a foreign draft is reported as ErrNotFound.
type DraftRepository interface {
	// SaveAll persists drafts (insert or update).
	SaveAll(ctx context.Context, drafts []*Draft) error

	// FindByID retrieves a draft of the user.
	FindByID(ctx context.Context, userID UserID, id DraftID) (*Draft, error)

	// ListByUser returns drafts newest first, optionally filtered by status.
	ListByUser(ctx context.Context, userID UserID, status DraftStatus, limit, offset int) ([]*Draft, error)

	// Delete removes a draft of the user.
	Delete(ctx context.Context, userID UserID, id DraftID) error
}
