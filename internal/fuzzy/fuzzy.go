// Package fuzzy scores candidate tracks against the query that produced them.
//
// Scores are word-overlap ratios in [0, 1] with two adjustments: a floor for
// substring containment, and a small boost when a candidate's artist also
// appears in auxiliary text such as a video description.
package fuzzy

import (
	"regexp"
	"strings"

	"github.com/desertthunder/trackdown/internal/models"
)

const (
	// AcceptThreshold is the minimum confidence for a candidate to count as
	// a match.
	AcceptThreshold = 0.5

	// ContainmentFloor is the minimum score when one normalized string
	// contains the other outright.
	ContainmentFloor = 0.7

	// AuxBoost is added once when auxiliary text confirms the candidate.
	AuxBoost = 0.1

	// auxTextLimit caps how much auxiliary text is scanned. Descriptions can
	// run to tens of kilobytes of tracklists and links.
	auxTextLimit = 2000

	// minAuxAttrLen guards against trivially short attributes ("MIA", "Yes")
	// matching by accident inside long descriptions.
	minAuxAttrLen = 3
)

var nonWordRe = regexp.MustCompile(`[^a-z0-9\s]`)

// NormalizeText lowercases, strips punctuation, and collapses whitespace so
// two spellings of the same title compare equal.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = nonWordRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// WordOverlap returns the fraction of query words present in the candidate,
// normalized by the query's word count. Returns 0 when either side has no
// words at all.
func WordOverlap(query, candidate string) float64 {
	queryWords := strings.Fields(NormalizeText(query))
	candidateWords := strings.Fields(NormalizeText(candidate))

	if len(queryWords) == 0 || len(candidateWords) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(candidateWords))
	for _, w := range candidateWords {
		seen[w] = true
	}

	hits := 0
	for _, w := range queryWords {
		if seen[w] {
			hits++
		}
	}

	return float64(hits) / float64(len(queryWords))
}

// Score rates a candidate track against the query text, optionally consulting
// auxiliary text for confirmation. The result is clamped to [0, 1].
//
// The base is the word overlap between the query and "artist song". If the
// normalized query contains the normalized candidate or vice versa, the score
// is raised to at least [ContainmentFloor]. If the candidate's artist appears
// in the auxiliary text, [AuxBoost] is added once.
func Score(queryText string, candidate models.TrackInfo, auxText string) float64 {
	candidateText := candidate.Artist + " " + candidate.Song
	score := WordOverlap(queryText, candidateText)

	normQuery := NormalizeText(queryText)
	normCandidate := NormalizeText(candidateText)
	if normQuery != "" && normCandidate != "" {
		if strings.Contains(normQuery, normCandidate) || strings.Contains(normCandidate, normQuery) {
			if score < ContainmentFloor {
				score = ContainmentFloor
			}
		}
	}

	if auxConfirms(candidate, auxText) {
		score += AuxBoost
	}

	if score > 1 {
		score = 1
	}
	return score
}

// auxConfirms reports whether the candidate's artist shows up in the
// auxiliary text. Only the attribute-in-text direction is checked, and only
// the artist: a description mentioning the song title is true of every cover
// of that song, so it confirms nothing. The text is truncated before
// normalization.
func auxConfirms(candidate models.TrackInfo, auxText string) bool {
	if auxText == "" {
		return false
	}
	if len(auxText) > auxTextLimit {
		auxText = auxText[:auxTextLimit]
	}

	normAux := NormalizeText(auxText)
	if normAux == "" {
		return false
	}

	norm := NormalizeText(candidate.Artist)
	return len(norm) > minAuxAttrLen && strings.Contains(normAux, norm)
}

// PickBest scores every candidate and returns the best one with its score,
// or nil when the list is empty. Ties keep the earlier candidate, so provider
// result ordering is respected.
func PickBest(queryText string, candidates []models.TrackInfo, auxText string) (*models.TrackInfo, float64) {
	var best *models.TrackInfo
	bestScore := 0.0

	for i := range candidates {
		s := Score(queryText, candidates[i], auxText)
		if best == nil || s > bestScore {
			best = &candidates[i]
			bestScore = s
		}
	}

	return best, bestScore
}
