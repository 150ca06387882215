package utils

import "testing"

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"Nova - Bright (Lyrics)":   "Nova - Bright Lyrics",
		"Song/With\\Bad:Chars?":    "SongWithBadChars",
		"  spaced   out  title  ":  "spaced out title",
		"under_score-kept 123":     "under_score-kept 123",
		"ümläut dröpped":           "mlut drpped",
		"":                         "",
	}

	for input, want := range cases {
		got := SanitizeTitle(input)
		if got != want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestExtractContentID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":          "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=abc": "dQw4w9WgXcQ",
		"https://soundcloud.com/artist/some-track":             "some-track",
		"https://www.last.fm/music/Nova/_/Bright":              "Bright",
		"://bad url":                                           "",
	}

	for input, want := range cases {
		got := ExtractContentID(input)
		if got != want {
			t.Errorf("ExtractContentID(%q) = %q, want %q", input, got, want)
		}
	}
}
