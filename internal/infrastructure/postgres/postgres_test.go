package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.5,-1,0.25]", formatVector([]float32{0.5, -1, 0.25}))
}

func TestParseVector(t *testing.T) {
	got, err := parseVector("[0.5, -1,0.25]")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 0.25}, got)

	got, err = parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseVector("0.5,1")
	assert.Error(t, err)

	_, err = parseVector("[0.5,abc]")
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.0123, 0.98, -0.333}

	out, err := parseVector(formatVector(in))

	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	other := &pgconn.PgError{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("saving: %w", unique)))
	assert.False(t, isUniqueViolation(other))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestPassTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))

	got := passTime(at)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123456000, got.Nanosecond())
	assert.True(t, got.Equal(passTime(got)))
}
