package models

import "time"

// RawMetadata is the title and optional description fetched from a source.
type RawMetadata struct {
	Title       string
	Description string
}

// ParsedQuery is the normalizer's output for a single resolution attempt.
//
// RawTitle is always populated (cleaned, pipe-truncated, dash-normalized);
// Artist and Song are set only when the title parsed confidently.
type ParsedQuery struct {
	RawTitle       string
	RawDescription string
	Artist         string
	Song           string
}

// HasStructured reports whether both artist and song were confidently parsed.
func (q ParsedQuery) HasStructured() bool {
	return q.Artist != "" && q.Song != ""
}

// QueryText returns the text a candidate match is validated against:
// "artist song" when structured data exists, the raw title otherwise.
func (q ParsedQuery) QueryText() string {
	if q.HasStructured() {
		return q.Artist + " " + q.Song
	}
	return q.RawTitle
}

// TrackInfo is a resolved identification. Both fields are non-empty.
type TrackInfo struct {
	Artist string
	Song   string
}

// SearchMatch is a candidate located on a destination catalog.
//
// Enriched marks matches that were only found after an AI identification
// pass supplied the artist and song.
type SearchMatch struct {
	Track      TrackInfo
	Confidence float64 // in [0, 1]
	URI        string
	Provider   string
	Enriched   bool
}

// SearchOutcome is the result of one provider search.
//
// NeedsReauth signals that the provider credential is invalid, independent
// of whether a match was found.
type SearchOutcome struct {
	Match       *SearchMatch
	NeedsReauth bool
}

// AddResult is the outcome of appending a matched track to a destination.
type AddResult struct {
	Success     bool
	NeedsReauth bool
	Error       string
}

// EnrichedGuess is an identification derived by the enrichment service.
type EnrichedGuess struct {
	Track      TrackInfo
	Confidence float64
}

// Resolution is one row of the append-only resolution log.
type Resolution struct {
	ID             string
	RawTitle       string
	RawDescription string
	Artist         string
	Song           string
	Provider       string
	URI            string
	Confidence     float64
	Matched        bool
	Added          bool
	Enriched       bool
	CreatedAt      time.Time
}
