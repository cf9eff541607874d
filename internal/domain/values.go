package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies a creator. it is the subject claim of the auth token,
// wrapped to avoid mixing it up with other ids.
type UserID struct {
	value uuid.UUID
}

// NewUserID creates a new random UserID.
func NewUserID() UserID {
	return UserID{value: uuid.New()}
}

// ParseUserID parses a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("%w: invalid user id: %v", ErrInvalidInput, err)
	}
	return UserID{value: id}, nil
}

// String returns the string representation of the UserID.
func (id UserID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id UserID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the UserID is not set.
func (id UserID) IsZero() bool {
	return id.value == uuid.Nil
}

// SourceID identifies a configured content source.
type SourceID struct {
	value uuid.UUID
}

// NewSourceID creates a new random SourceID.
func NewSourceID() SourceID {
	return SourceID{value: uuid.New()}
}

// ParseSourceID parses a string into a SourceID.
func ParseSourceID(s string) (SourceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SourceID{}, fmt.Errorf("%w: invalid source id: %v", ErrInvalidInput, err)
	}
	return SourceID{value: id}, nil
}

// String returns the string representation of the SourceID.
func (id SourceID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id SourceID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the SourceID is not set.
func (id SourceID) IsZero() bool {
	return id.value == uuid.Nil
}

// DraftID identifies a generated draft.
type DraftID struct {
	value uuid.UUID
}

// NewDraftID creates a new random DraftID.
func NewDraftID() DraftID {
	return DraftID{value: uuid.New()}
}

// ParseDraftID parses a string into a DraftID.
func ParseDraftID(s string) (DraftID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DraftID{}, fmt.Errorf("%w: invalid draft id: %v", ErrInvalidInput, err)
	}
	return DraftID{value: id}, nil
}

// String returns the string representation of the DraftID.
func (id DraftID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id DraftID) UUID() uuid.UUID {
	return id.value
}

// StyleSampleID identifies a stored style sample.
type StyleSampleID struct {
	value uuid.UUID
}

// NewStyleSampleID creates a new random StyleSampleID.
func NewStyleSampleID() StyleSampleID {
	return StyleSampleID{value: uuid.New()}
}

// ParseStyleSampleID parses a string into a StyleSampleID.
func ParseStyleSampleID(s string) (StyleSampleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return StyleSampleID{}, fmt.Errorf("%w: invalid style sample id: %v", ErrInvalidInput, err)
	}
	return StyleSampleID{value: id}, nil
}

// String returns the string representation of the StyleSampleID.
func (id StyleSampleID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id StyleSampleID) UUID() uuid.UUID {
	return id.value
}

// Score is a bounded heuristic value.
// always within [MinScore, MaxScore].
type Score struct {
	value float64
}

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// NewScore creates a new Score, clamping the value to [0,100].
func NewScore(v float64) Score {
	return Score{value: clamp(v)}
}

// Value returns the numeric score.
func (s Score) Value() float64 {
	return s.value
}

// IsZero returns true if the score is zero.
func (s Score) IsZero() bool {
	return s.value == 0
}

func clamp(v float64) float64 {
	// NaN compares false against everything, treat it as no signal
	if v != v || v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
