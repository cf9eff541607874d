package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// ErrSearchUnavailable is returned when no search index is configured.
var ErrSearchUnavailable = errors.New("content search not configured")

// ContentSearcher runs full text queries over archived content of one user.
type ContentSearcher interface {
	Search(ctx context.Context, userID domain.UserID, query string, limit int) ([]domain.ContentHit, error)
}

// SearchContentUseCase searches content archived from a user's sources.
type SearchContentUseCase struct {
	searcher ContentSearcher
	logger   *logging.Logger
}

// NewSearchContentUseCase creates a new SearchContentUseCase.
// searcher may be nil when search is disabled.
func NewSearchContentUseCase(searcher ContentSearcher, logger *logging.Logger) *SearchContentUseCase {
	return &SearchContentUseCase{
		searcher: searcher,
		logger:   logger.WithComponent("search_content"),
	}
}

// Execute validates the query and delegates to the index.
func (uc *SearchContentUseCase) Execute(ctx context.Context, rawUserID, query string, limit int) ([]domain.ContentHit, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if uc.searcher == nil {
		return nil, ErrSearchUnavailable
	}

	hits, err := uc.searcher.Search(ctx, userID, query, limit)
	if err != nil {
		uc.logger.Error("content search failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("searching content: %w", err)
	}

	uc.logger.Debug("content searched",
		"user_id", userID.String(),
		"hits", len(hits),
	)
	return hits, nil
}
