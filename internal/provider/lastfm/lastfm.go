// Package lastfm is the fallback search backend, using the Last.fm
// track.search API. Results carry no channel metadata.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coindxter/class-music/internal/config"
	"github.com/coindxter/class-music/internal/provider"
	"github.com/coindxter/class-music/internal/provider/registry"
	"github.com/coindxter/class-music/internal/utils"
)

// var so tests can point it at a local server
var apiURL = "https://ws.audioscrobbler.com/2.0/"

func init() {
	registry.Register("lastfm", New)
}

type lastfm struct {
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// New implements provider.NewSearchFn
func New(cfg *config.Config, logger *slog.Logger) provider.SearchProvider {
	return &lastfm{
		apiKey: cfg.LastfmAPIKey,
		client: &http.Client{Timeout: cfg.SearchTimeout},
		logger: logger.WithGroup("provider").With("name", "lastfm"),
	}
}

func (l *lastfm) Name() string { return "lastfm" }

type searchResponse struct {
	Results struct {
		TrackMatches struct {
			Track []struct {
				Name   string `json:"name"`
				Artist string `json:"artist"`
				URL    string `json:"url"`
			} `json:"track"`
		} `json:"trackmatches"`
	} `json:"results"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func (l *lastfm) Search(ctx context.Context, artist, seedTitle string, maxResults int) ([]provider.Candidate, error) {
	params := url.Values{}
	params.Set("method", "track.search")
	params.Set("artist", artist)
	if seedTitle != "" {
		params.Set("track", seedTitle)
	} else {
		params.Set("track", artist)
	}
	params.Set("api_key", l.apiKey)
	params.Set("format", "json")
	params.Set("limit", fmt.Sprint(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: lastfm returned status %d", provider.ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	if decoded.Error != 0 {
		return nil, fmt.Errorf("%w: lastfm error %d: %s", provider.ErrUnavailable, decoded.Error, decoded.Message)
	}

	var candidates []provider.Candidate
	for _, track := range decoded.Results.TrackMatches.Track {
		if track.Name == "" || track.URL == "" {
			continue
		}
		candidates = append(candidates, provider.Candidate{
			Title:     fmt.Sprintf("%s - %s", track.Artist, track.Name),
			Link:      track.URL,
			ContentID: utils.ExtractContentID(track.URL),
		})
	}
	return candidates, nil
}
