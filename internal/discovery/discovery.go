// Package discovery drives the search providers and the ranker to
// turn artists into persisted song records.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coindxter/class-music/internal/models"
	"github.com/coindxter/class-music/internal/provider"
	"github.com/coindxter/class-music/internal/ranker"
	"github.com/coindxter/class-music/internal/store"
)

// ErrNoCandidate means every provider came back empty or every result
// was filtered out. A valid outcome, not a failure.
var ErrNoCandidate = errors.New("no adequate candidate found")

type Runner struct {
	store      store.Store
	primary    provider.SearchProvider
	fallback   provider.SearchProvider // nil when not configured
	maxResults int
	timeout    time.Duration
	logger     *slog.Logger
}

func NewRunner(
	db store.Store,
	primary, fallback provider.SearchProvider,
	maxResults int,
	timeout time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		store:      db,
		primary:    primary,
		fallback:   fallback,
		maxResults: maxResults,
		timeout:    timeout,
		logger:     logger.WithGroup("discovery"),
	}
}

// DiscoverSong finds and persists one song for an artist, keyed by the
// requested title. Lyric-mode ranking. Returns the existing record
// unchanged when the title is already registered for the artist.
func (r *Runner) DiscoverSong(ctx context.Context, artistID int64, title string) (models.Song, bool, error) {
	artist, err := r.store.GetArtist(ctx, artistID)
	if err != nil {
		return models.Song{}, false, err
	}
	existing, err := r.store.FindSongByTitleAndArtist(ctx, title, artistID)
	if err != nil {
		return models.Song{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	candidates, err := r.search(ctx, artist.Name, title)
	if err != nil {
		return models.Song{}, false, err
	}
	pick := ranker.Rank(candidates, []string{title}, ranker.ModeLyric)
	if pick == nil {
		return models.Song{}, false, ErrNoCandidate
	}

	song, err := r.store.InsertSong(ctx, title, pick.Link, artistID)
	if errors.Is(err, store.ErrSongExists) {
		return song, false, nil
	}
	if err != nil {
		return models.Song{}, false, err
	}
	r.logger.InfoContext(ctx, fmt.Sprintf("registered %q for %s from %s", title, artist.Name, pick.Link))
	return song, true, nil
}

type ArtistResult struct {
	Artist string `json:"artist"`
	Added  string `json:"added,omitempty"`
	Status string `json:"status"`
}

type Summary struct {
	AddedCount        int            `json:"addedCount"`
	IncompleteArtists []string       `json:"incompleteArtists"`
	PerArtist         []ArtistResult `json:"perArtistResults"`
}

// DiscoverAll runs discovery-mode search across every artist in the
// store, sequentially to stay friendly with provider rate limits. One
// artist's provider failure never stops the rest.
func (r *Runner) DiscoverAll(ctx context.Context) (Summary, error) {
	summary := Summary{IncompleteArtists: []string{}, PerArtist: []ArtistResult{}}

	artists, err := r.store.ListArtists(ctx)
	if err != nil {
		return summary, err
	}

	for _, artist := range artists {
		result, err := r.discoverForArtist(ctx, artist)
		if err != nil {
			if errors.Is(err, store.ErrDatabase) {
				return summary, err
			}
			r.logger.WarnContext(ctx, fmt.Sprintf("discovery failed for %s: %v", artist.Name, err))
			summary.IncompleteArtists = append(summary.IncompleteArtists, artist.Name)
			summary.PerArtist = append(summary.PerArtist, ArtistResult{Artist: artist.Name, Status: "no candidate"})
			continue
		}
		if result.Added != "" {
			summary.AddedCount++
		}
		summary.PerArtist = append(summary.PerArtist, result)
	}
	return summary, nil
}

func (r *Runner) discoverForArtist(ctx context.Context, artist models.Artist) (ArtistResult, error) {
	candidates, err := r.search(ctx, artist.Name, "")
	if err != nil {
		return ArtistResult{}, err
	}
	pick := ranker.Rank(candidates, []string{artist.Name}, ranker.ModeDiscovery)
	if pick == nil {
		return ArtistResult{}, ErrNoCandidate
	}

	existing, err := r.store.FindSongByTitleAndArtist(ctx, pick.Title, artist.ID)
	if err != nil {
		return ArtistResult{}, err
	}
	if existing != nil {
		return ArtistResult{Artist: artist.Name, Status: "already registered"}, nil
	}
	if _, err := r.store.InsertSong(ctx, pick.Title, pick.Link, artist.ID); err != nil {
		if errors.Is(err, store.ErrSongExists) {
			return ArtistResult{Artist: artist.Name, Status: "already registered"}, nil
		}
		return ArtistResult{}, err
	}
	return ArtistResult{Artist: artist.Name, Added: pick.Title, Status: "added"}, nil
}

// search asks the primary provider, falling back on unavailability or
// an empty result set before giving up on the artist.
func (r *Runner) search(ctx context.Context, artist, seedTitle string) ([]provider.Candidate, error) {
	candidates, err := r.searchOne(ctx, r.primary, artist, seedTitle)
	if err == nil && len(candidates) > 0 {
		return candidates, nil
	}
	if err != nil {
		r.logger.WarnContext(ctx, fmt.Sprintf("%s search failed for %s: %v", r.primary.Name(), artist, err))
	}
	if r.fallback == nil {
		if err != nil {
			return nil, err
		}
		return nil, ErrNoCandidate
	}
	candidates, ferr := r.searchOne(ctx, r.fallback, artist, seedTitle)
	if ferr != nil {
		r.logger.WarnContext(ctx, fmt.Sprintf("%s search failed for %s: %v", r.fallback.Name(), artist, ferr))
		if err != nil {
			return nil, err
		}
		return nil, ferr
	}
	return candidates, nil
}

func (r *Runner) searchOne(ctx context.Context, p provider.SearchProvider, artist, seedTitle string) ([]provider.Candidate, error) {
	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return p.Search(sctx, artist, seedTitle, r.maxResults)
}
