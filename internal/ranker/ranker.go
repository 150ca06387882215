// Package ranker selects the best candidate out of a provider result
// set. Pure and deterministic: same input, same pick.
package ranker

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/coindxter/class-music/internal/provider"
)

// Mode selects the filtering policy. Discovery hunts for any good
// track of an artist and blocks compilation-style uploads; Lyric hunts
// for one specific song and blocks altered versions, penalizing
// "official" videos in favor of plain lyric/audio uploads.
type Mode int

const (
	ModeDiscovery Mode = iota
	ModeLyric
)

var discoveryDenylist = []string{
	"compilation", "playlist", "mix", "full album", "best of",
	"greatest hits", "discography", "non-stop", "live", "cover",
}

var lyricDenylist = []string{
	"live", "remix", "sped", "slowed", "slow", "nightcore", "cover",
	"performance", "karaoke", "instrumental", "parody", "tribute",
	"reverb", "chipmunk",
}

var positiveSignals = []string{"lyrics", "audio", "hq", "full"}

var trustedChannels = []string{"topic", "vevo"}

// Rank filters candidates against the mode's denylist and scores the
// survivors. Returns nil only when every candidate was filtered out;
// when no survivor scores above zero, the first survivor wins.
func Rank(candidates []provider.Candidate, hints []string, mode Mode) *provider.Candidate {
	denylist := discoveryDenylist
	if mode == ModeLyric {
		denylist = lyricDenylist
	}

	var survivors []provider.Candidate
	for _, c := range candidates {
		if blocked(c.Title, denylist) {
			continue
		}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		return nil
	}

	best := -1
	bestIdx := 0
	for i, c := range survivors {
		score := Score(c, hints, mode)
		if score > best {
			best = score
			bestIdx = i
		}
	}
	if best <= 0 {
		return &survivors[0]
	}
	return &survivors[bestIdx]
}

// Score computes a candidate's rank score under the given mode.
func Score(c provider.Candidate, hints []string, mode Mode) int {
	title := strings.ToLower(c.Title)
	channel := strings.ToLower(c.Channel)

	score := 0
	for _, signal := range positiveSignals {
		if strings.Contains(title, signal) {
			score += 2
		}
	}
	for _, marker := range trustedChannels {
		if strings.Contains(channel, marker) {
			score += 3
		}
	}
	if mode == ModeLyric && strings.Contains(title, "official") {
		score -= 2
	}
	if bonus := hintBonus(title, hints); bonus > 0 {
		score += bonus
	}
	return score
}

func blocked(title string, denylist []string) bool {
	lower := strings.ToLower(title)
	for _, word := range denylist {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// hintBonus awards up to 3 points for closeness between the title and
// the nearest hint, measured by normalized levenshtein distance.
func hintBonus(title string, hints []string) int {
	best := 0.0
	for _, hint := range hints {
		hint = strings.ToLower(hint)
		if hint == "" {
			continue
		}
		if strings.Contains(title, hint) {
			return 3
		}
		longest := len(title)
		if len(hint) > longest {
			longest = len(hint)
		}
		if longest == 0 {
			continue
		}
		distance := levenshtein.ComputeDistance(title, hint)
		similarity := 1.0 - float64(distance)/float64(longest)
		if similarity > best {
			best = similarity
		}
	}
	return int(best * 3)
}
