// Package ytdlp searches for candidate tracks by shelling out to
// yt-dlp's ytsearch extractor.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/coindxter/class-music/internal/config"
	"github.com/coindxter/class-music/internal/provider"
	"github.com/coindxter/class-music/internal/provider/registry"
)

var ErrYtdlp = errors.New("ytdlp error")

func init() {
	registry.Register("ytdlp", New)
}

type ytdlp struct {
	bin    string
	logger *slog.Logger
}

// New implements provider.NewSearchFn
func New(cfg *config.Config, logger *slog.Logger) provider.SearchProvider {
	return &ytdlp{
		bin:    cfg.YtdlpPath,
		logger: logger.WithGroup("provider").With("name", "ytdlp"),
	}
}

func (y *ytdlp) Name() string { return "ytdlp" }

// searchResult is the subset of yt-dlp's flat-playlist JSON we need.
type searchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Channel string `json:"channel"`
	// uploader fills in when channel is absent on older extractors
	Uploader string `json:"uploader"`
}

func (y *ytdlp) Search(ctx context.Context, artist, seedTitle string, maxResults int) ([]provider.Candidate, error) {
	query := artist
	if seedTitle != "" {
		query = fmt.Sprintf("%s %s", artist, seedTitle)
	}
	cmd := exec.CommandContext(
		ctx,
		y.bin,
		"--quiet",
		"--skip-download",
		"--flat-playlist",
		"--dump-json",
		fmt.Sprintf("ytsearch%d:%s", maxResults, query),
	)
	y.logger.DebugContext(ctx, fmt.Sprintf("running cmd: %s", cmd))
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %v: %s", provider.ErrUnavailable, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}

	var candidates []provider.Candidate
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var result searchResult
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			y.logger.WarnContext(ctx, fmt.Sprintf("skipping malformed result line: %v", err))
			continue
		}
		if result.ID == "" || result.Title == "" {
			continue
		}
		link := result.URL
		if link == "" {
			link = fmt.Sprintf("https://www.youtube.com/watch?v=%s", result.ID)
		}
		channel := result.Channel
		if channel == "" {
			channel = result.Uploader
		}
		candidates = append(candidates, provider.Candidate{
			Title:     result.Title,
			Link:      link,
			Channel:   channel,
			ContentID: result.ID,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrYtdlp, err)
	}
	return candidates, nil
}
