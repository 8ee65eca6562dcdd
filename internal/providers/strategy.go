package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/fuzzy"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/shared"
)

// candidate is one catalog result before scoring.
type candidate struct {
	track models.TrackInfo
	uri   string
}

// catalog is the raw search surface a provider exposes to the shared
// strategy. Implementations map HTTP failures to the shared sentinels;
// in particular a rejected credential must surface [shared.ErrTokenExpired].
type catalog interface {
	name() string
	structuredSearch(ctx context.Context, token, artist, song string) ([]candidate, error)
	freeTextSearch(ctx context.Context, token, text string) ([]candidate, error)
}

// searchWithStrategies runs the layered search against a catalog.
//
// Structured search runs first when the query parsed into artist/song; its
// first result is trusted at [StructuredConfidence]. Free-text fallbacks
// ("artist song", then the song alone, or the raw title for unparsed
// queries) are validated by fuzzy scoring against the query text with the
// description as auxiliary confirmation.
//
// A failed strategy is "no candidate": the error is logged and the next
// strategy runs, because a transient provider failure on a precise query
// says nothing about a looser one. The two exceptions are a credential
// rejection, which aborts immediately with NeedsReauth set since every
// remaining strategy would fail the same way, and a cancelled context.
func searchWithStrategies(ctx context.Context, c catalog, token string, query models.ParsedQuery, logger *log.Logger) (models.SearchOutcome, error) {
	if query.HasStructured() {
		candidates, err := c.structuredSearch(ctx, token, query.Artist, query.Song)
		switch {
		case errors.Is(err, shared.ErrTokenExpired):
			return models.SearchOutcome{NeedsReauth: true}, nil
		case err != nil && ctx.Err() != nil:
			return models.SearchOutcome{}, fmt.Errorf("%s structured search: %w", c.name(), err)
		case err != nil:
			logger.Warn("structured search failed, falling back", "provider", c.name(), "error", err)
		case len(candidates) > 0:
			first := candidates[0]
			logger.Debug("structured search hit", "provider", c.name(), "artist", first.track.Artist, "song", first.track.Song)
			return models.SearchOutcome{Match: &models.SearchMatch{
				Track:      first.track,
				Confidence: StructuredConfidence,
				URI:        first.uri,
				Provider:   c.name(),
			}}, nil
		}
	}

	for _, text := range fallbackQueries(query) {
		candidates, err := c.freeTextSearch(ctx, token, text)
		if errors.Is(err, shared.ErrTokenExpired) {
			return models.SearchOutcome{NeedsReauth: true}, nil
		}
		if err != nil && ctx.Err() != nil {
			return models.SearchOutcome{}, fmt.Errorf("%s free-text search: %w", c.name(), err)
		}
		if err != nil {
			logger.Warn("free-text search failed, trying next strategy", "provider", c.name(), "query", text, "error", err)
			continue
		}

		tracks := make([]models.TrackInfo, len(candidates))
		for i, cand := range candidates {
			tracks[i] = cand.track
		}

		best, score := fuzzy.PickBest(query.QueryText(), tracks, query.RawDescription)
		if best == nil || score < fuzzy.AcceptThreshold {
			logger.Debug("fallback query below threshold", "provider", c.name(), "query", text, "score", score)
			continue
		}

		for i := range candidates {
			if candidates[i].track == *best {
				return models.SearchOutcome{Match: &models.SearchMatch{
					Track:      *best,
					Confidence: score,
					URI:        candidates[i].uri,
					Provider:   c.name(),
				}}, nil
			}
		}
	}

	return models.SearchOutcome{}, nil
}

// isAuthErr reports whether a catalog error means the credential was
// rejected rather than the request failing for another reason.
func isAuthErr(err error) bool {
	return errors.Is(err, shared.ErrTokenExpired)
}

// fallbackQueries returns the free-text strategies in order: the combined
// "artist song" string and the bare song for structured queries, the raw
// title otherwise.
func fallbackQueries(query models.ParsedQuery) []string {
	if query.HasStructured() {
		return []string{query.Artist + " " + query.Song, query.Song}
	}
	return []string{query.RawTitle}
}
