// Package downloader resolves a song's external link to a local audio
// file using yt-dlp for stream resolution and mp3 extraction.
package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/coindxter/class-music/internal/config"
	"github.com/coindxter/class-music/internal/models"
	"github.com/coindxter/class-music/internal/utils"
)

var ErrDownload = errors.New("download error")

type Downloader struct {
	bin     string
	dir     string
	bitrate string
	logger  *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Downloader {
	return &Downloader{
		bin:     cfg.YtdlpPath,
		dir:     cfg.DownloadDir,
		bitrate: cfg.AudioBitrate,
		logger:  logger.WithGroup("downloader"),
	}
}

// Filename derives the deterministic target name for a song: the
// sanitized title plus a content-id suffix so same-titled songs from
// different artists never collide. Re-downloads reuse the same name.
func Filename(song models.Song) string {
	base := utils.SanitizeTitle(song.Title)
	if base == "" {
		base = "song"
	}
	// content ids extracted from URL paths can carry decoded
	// characters, so they go through the sanitizer as well
	suffix := utils.SanitizeTitle(utils.ExtractContentID(song.Link))
	if suffix == "" {
		suffix = strconv.FormatInt(song.ID, 10)
	}
	return fmt.Sprintf("%s-%s.mp3", base, suffix)
}

// Fetch downloads and extracts the song's audio, reporting percentage
// ticks on progress until done. It closes progress. Returns the
// filename relative to the downloads directory.
func (d *Downloader) Fetch(ctx context.Context, song models.Song, progress chan<- int) (string, error) {
	defer close(progress)
	start := time.Now()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	filename := Filename(song)
	base := filename[:len(filename)-len(".mp3")]

	log := d.logger.With("song", song.Title)
	log.InfoContext(ctx, fmt.Sprintf("⏳ Starting Download of %s", song.Link))
	cmd := exec.CommandContext(
		ctx,
		d.bin,
		"--quiet",
		"--progress",
		"--progress-delta", "5",
		"--progress-template", "%(progress._percent)d",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", d.bitrate,
		"--no-playlist",
		"-P", d.dir,
		"-P", "temp:.cache",
		"-o", base,
		song.Link,
	)
	log.DebugContext(ctx, fmt.Sprintf("⏳ Running cmd %s", cmd))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("%w: pipe failed cmd %s: %v", ErrDownload, cmd, err)
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Split(func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		// yt-dlp separates progress lines with '\r'
		for i, b := range data {
			if b == '\r' {
				return i + 1, data[:i], nil
			}
		}
		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	})
	if err = cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: start failed cmd %s: %v", ErrDownload, cmd, err)
	}
	for scanner.Scan() {
		percent, _ := strconv.Atoi(scanner.Text())
		select {
		case progress <- percent:
		case <-ctx.Done():
			return "", fmt.Errorf("%w: canceled while downloading", ErrDownload)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("%w: wait failed cmd %s: %v", ErrDownload, cmd, err)
	}

	if _, err := os.Stat(filepath.Join(d.dir, filename)); err != nil {
		return "", fmt.Errorf("%w: no file written for %s", ErrDownload, song.Link)
	}
	log.InfoContext(ctx, fmt.Sprintf("✅ Finished Download of %s", song.Link), "download.time", time.Since(start).String())
	return filename, nil
}
