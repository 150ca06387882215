package provider

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coindxter/class-music/internal/config"
)

// ErrUnavailable covers network, auth and rate-limit failures of a
// search backend. Callers treat it as "no results here, try elsewhere".
var ErrUnavailable = errors.New("search provider unavailable")

// Candidate is one unranked search result. Discarded after ranking.
type Candidate struct {
	Title     string
	Link      string
	Channel   string
	ContentID string
}

// SearchProvider finds candidate tracks for an artist. A zero-result
// search returns an empty slice, not an error.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, artist, seedTitle string, maxResults int) ([]Candidate, error)
}

// NewSearchFn constructs a provider from config.
type NewSearchFn func(cfg *config.Config, logger *slog.Logger) SearchProvider
