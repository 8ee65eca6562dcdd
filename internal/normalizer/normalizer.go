// Package normalizer converts raw video/track titles into structured queries.
//
// Titles in the wild carry channel branding, upload-quality tags, years, and
// inconsistent featuring credits. The normalizer runs a fixed, ordered rule
// pipeline (pipe-truncate → whitespace → split → feat standardization →
// bracket stripping → year stripping → feat relocation) so each step can be
// reasoned about and tested independently.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/desertthunder/trackdown/internal/models"
)

var (
	// en/em dashes are normalized to plain hyphens before splitting.
	dashRe = regexp.MustCompile(`[\x{2013}\x{2014}]`)

	// The artist/song boundary: a hyphen with optional surrounding whitespace.
	splitRe = regexp.MustCompile(`\s*-\s*`)

	// Any spelling of a featuring credit, standardized to "feat. ".
	featRe = regexp.MustCompile(`(?i)\b(?:featuring|feat|ft)\.?\s+`)

	// A parenthesized or bracketed group, including its leading whitespace.
	bracketRe = regexp.MustCompile(`\s*[(\[][^()\[\]]*[)\]]`)

	// A trailing 4-digit year (1900-2099) preceded by a separator, with
	// optional surrounding brackets.
	trailingYearRe = regexp.MustCompile(`(?:\s*-\s*|\s+)[(\[]?(?:19|20)\d{2}[)\]]?$`)

	// A bare trailing featuring credit outside any bracket group.
	bareFeatRe = regexp.MustCompile(`\s+feat\.\s+(.+)$`)
)

// Bracketed content mentioning any of these carries musical meaning and is
// preserved verbatim; everything else ("Official Video", "HD", "Live", ...)
// is treated as noise.
var preservedTags = []string{"remix", "mix", "edit", "version", "feat."}

// CleanTitle applies the title-level transformations that do not depend on an
// artist/song split: dash normalization, pipe truncation, and whitespace
// collapsing. Content after the first pipe is site/channel branding.
func CleanTitle(title string) string {
	title = dashRe.ReplaceAllString(title, "-")
	if i := strings.Index(title, "|"); i >= 0 {
		title = title[:i]
	}
	return collapse(title)
}

// Parse splits a raw title into artist and song.
//
// Returns nil when the title has no recognizable artist/song separator or
// when either segment is empty after cleanup. Parse never fabricates
// structured data from an unstructured title.
func Parse(title string) *models.TrackInfo {
	cleaned := CleanTitle(title)
	if cleaned == "" {
		return nil
	}

	segments := splitRe.Split(cleaned, -1)
	if len(segments) < 2 {
		return nil
	}

	// The first hyphen is the artist/song boundary; hyphens inside the song
	// title are preserved by rejoining the remaining segments.
	artist := standardizeFeat(segments[0])
	song := standardizeFeat(strings.Join(segments[1:], " - "))

	song = stripNoiseTags(song)
	song = trailingYearRe.ReplaceAllString(song, "")
	song = relocateFeat(song)

	artist = collapse(artist)
	song = collapse(song)

	if artist == "" || song == "" {
		return nil
	}

	return &models.TrackInfo{Artist: artist, Song: song}
}

// Normalize produces the query for a resolution attempt. The raw title is
// always populated with the cleaned full title; artist/song are present only
// when [Parse] succeeds.
func Normalize(title, description string) models.ParsedQuery {
	query := models.ParsedQuery{
		RawTitle:       CleanTitle(title),
		RawDescription: description,
	}

	if info := Parse(title); info != nil {
		query.Artist = info.Artist
		query.Song = info.Song
	}

	return query
}

// standardizeFeat rewrites every featuring-credit spelling to "feat. ".
func standardizeFeat(s string) string {
	return featRe.ReplaceAllString(s, "feat. ")
}

// stripNoiseTags removes bracketed noise descriptors from a song segment,
// preserving groups that mention a remix/mix/edit/version/feat. tag.
func stripNoiseTags(song string) string {
	return bracketRe.ReplaceAllStringFunc(song, func(group string) string {
		lower := strings.ToLower(group)
		for _, tag := range preservedTags {
			if strings.Contains(lower, tag) {
				return group
			}
		}
		return ""
	})
}

// relocateFeat moves a bare trailing "feat. X" into a "(feat. X)" group.
//
// Skipped when a "(feat." group already exists, or when the credit sits
// inside an open bracket group (scanning back to the last unclosed paren).
func relocateFeat(song string) string {
	if strings.Contains(song, "(feat.") {
		return song
	}

	loc := bareFeatRe.FindStringSubmatchIndex(song)
	if loc == nil {
		return song
	}

	prefix := song[:loc[0]]
	if strings.LastIndex(prefix, "(") > strings.LastIndex(prefix, ")") {
		return song
	}

	return prefix + " (feat. " + song[loc[2]:loc[3]] + ")"
}

// collapse trims and normalizes all interior whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
