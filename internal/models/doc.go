// Package models defines the value objects passed between pipeline stages.
//
// The types fall into two categories:
//
// 1. Pipeline values, immutable once constructed and passed by copy:
//   - [RawMetadata] : title/description extracted from a source URL
//   - [ParsedQuery] : normalizer output fed to the search pipeline
//   - [TrackInfo] : a resolved (artist, song) identification
//   - [SearchMatch] : a scored candidate located on a destination catalog
//   - [SearchOutcome] : the per-provider search result, including the
//     credential-expired signal
//   - [AddResult] : outcome of appending a matched track to a destination
//   - [EnrichedGuess] : an AI-derived identification with its confidence
//
// 2. Persistent records:
//   - [Resolution] : one row of the append-only resolution log
//
// No shared mutable state crosses a stage boundary; every value here is
// either copied or owned by exactly one resolution attempt.
package models
