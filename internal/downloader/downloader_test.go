package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coindxter/class-music/internal/models"
)

func TestFilename(t *testing.T) {
	cases := map[string]struct {
		song models.Song
		want string
	}{
		"youtube link": {
			song: models.Song{ID: 7, Title: "Bright", Link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
			want: "Bright-dQw4w9WgXcQ.mp3",
		},
		"messy title": {
			song: models.Song{ID: 7, Title: "Bright (Lyrics) / HQ!", Link: "https://www.youtube.com/watch?v=abc"},
			want: "Bright Lyrics HQ-abc.mp3",
		},
		"decoded path suffix is sanitized": {
			song: models.Song{ID: 7, Title: "Shine", Link: "https://www.last.fm/music/Nova/_/Shine%3F%21"},
			want: "Shine-Shine.mp3",
		},
		"no content id falls back to song id": {
			song: models.Song{ID: 42, Title: "Bright", Link: "https://example.com/track.mp3"},
			want: "Bright-42.mp3",
		},
		"empty title": {
			song: models.Song{ID: 42, Title: "???", Link: "https://www.youtube.com/watch?v=abc"},
			want: "song-abc.mp3",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Filename(tc.song))
		})
	}
}
