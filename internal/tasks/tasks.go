// package tasks implements the resolution pipeline from raw input to a
// recorded catalog match.
//
// The core abstraction is ResolveEngine, which strings together metadata
// extraction, title normalization, catalog matching, the optional library
// add, and the append-only log entry. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/extractor"
	"github.com/desertthunder/trackdown/internal/match"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/providers"
	"github.com/desertthunder/trackdown/internal/shared"
	"golang.org/x/time/rate"
)

// Matcher finds a confident catalog match for a query.
type Matcher interface {
	Match(ctx context.Context, query models.ParsedQuery) (*models.SearchMatch, error)
}

// Recorder persists resolution attempts.
type Recorder interface {
	Record(resolution *models.Resolution) error
	FindByTitle(rawTitle string) ([]*models.Resolution, error)
}

// ResolveOpts controls a single resolution.
type ResolveOpts struct {
	Add       bool // Add a matched track to the provider library
	SkipLog   bool // Do not write to the resolution log
	SkipKnown bool // Reuse a previously matched resolution for the same title
}

// BatchOpts controls a batch resolution run.
type BatchOpts struct {
	ResolveOpts
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Inputs dispatched per second (default: 2)
}

// ResolveResult is the outcome of resolving one input.
type ResolveResult struct {
	Input      string
	Query      models.ParsedQuery
	Match      *models.SearchMatch // nil when no confident match
	Added      bool
	FromCache  bool
	Resolution *models.Resolution // nil when logging was skipped
}

// BatchItemResult pairs an input with its outcome or error.
type BatchItemResult struct {
	Input  string
	Result *ResolveResult
	Error  error
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Total   int
	Matched int
	Added   int
	Failed  int
	Results []BatchItemResult
}

// ResolveEngine defines the resolution operations exposed to the CLI.
type ResolveEngine interface {
	// Resolve identifies one input (a source URL or a raw title) and finds
	// it on a destination catalog.
	Resolve(ctx context.Context, progress chan<- ProgressUpdate, input string, opts ResolveOpts) (*ResolveResult, error)

	// ResolveBatch resolves many inputs concurrently with rate limiting.
	ResolveBatch(ctx context.Context, progress chan<- ProgressUpdate, inputs []string, opts BatchOpts) (*BatchResult, error)
}

// Normalizer turns a title and description into a search query.
type Normalizer func(title, description string) models.ParsedQuery

// TrackEngine implements [ResolveEngine].
type TrackEngine struct {
	extract   extractor.Extractor
	normalize Normalizer
	matcher   Matcher
	registry  *providers.Registry
	tokens    match.TokenSource
	recorder  Recorder // optional
	logger    *log.Logger
}

// NewTrackEngine creates an engine. The recorder may be nil to disable the
// resolution log entirely.
func NewTrackEngine(
	extract extractor.Extractor,
	normalize Normalizer,
	matcher Matcher,
	registry *providers.Registry,
	tokens match.TokenSource,
	recorder Recorder,
	logger *log.Logger,
) *TrackEngine {
	return &TrackEngine{
		extract:   extract,
		normalize: normalize,
		matcher:   matcher,
		registry:  registry,
		tokens:    tokens,
		recorder:  recorder,
		logger:    logger,
	}
}

// Resolve runs the full pipeline for one input.
//
// URLs go through metadata extraction first; anything else is treated as a
// raw title. A no-match outcome is not an error, and a failed log write only
// warns so the match itself is never lost.
func (e *TrackEngine) Resolve(ctx context.Context, progress chan<- ProgressUpdate, input string, opts ResolveOpts) (*ResolveResult, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", shared.ErrInvalidInput)
	}

	meta := &models.RawMetadata{Title: input}
	if shared.IsURL(input) {
		e.sendProgress(progress, extractingUpdate(input))
		extracted, err := e.extract.Extract(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("extracting metadata: %w", err)
		}
		meta = extracted
	}

	query := e.normalize(meta.Title, meta.Description)
	if query.RawTitle == "" {
		return nil, fmt.Errorf("%w: title is empty after cleanup", shared.ErrInvalidInput)
	}
	e.sendProgress(progress, normalizedUpdate(query))

	result := &ResolveResult{Input: input, Query: query}

	if opts.SkipKnown && e.recorder != nil {
		if cached := e.findKnown(query.RawTitle); cached != nil {
			e.logger.Info("reusing prior resolution", "title", query.RawTitle, "uri", cached.URI)
			result.FromCache = true
			result.Resolution = cached
			result.Match = &models.SearchMatch{
				Track:      models.TrackInfo{Artist: cached.Artist, Song: cached.Song},
				Confidence: cached.Confidence,
				URI:        cached.URI,
				Provider:   cached.Provider,
				Enriched:   cached.Enriched,
			}
			return result, nil
		}
	}

	e.sendProgress(progress, searchingUpdate(query))
	found, err := e.matcher.Match(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("matching: %w", err)
	}
	result.Match = found

	if found != nil {
		e.sendProgress(progress, matchedUpdate(found))

		if opts.Add {
			e.sendProgress(progress, addingUpdate(found))
			result.Added = e.addToLibrary(ctx, found)
		}
	}

	if !opts.SkipLog && e.recorder != nil {
		result.Resolution = e.record(query, found, result.Added)
		if result.Resolution != nil {
			e.sendProgress(progress, recordedUpdate(result.Resolution))
		}
	}

	return result, nil
}

// ResolveBatch fans inputs out to a worker pool. The dispatcher is rate
// limited so a large batch does not hammer the catalogs; per-item failures
// land in the result list instead of aborting the run.
func (e *TrackEngine) ResolveBatch(ctx context.Context, progress chan<- ProgressUpdate, inputs []string, opts BatchOpts) (*BatchResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", shared.ErrInvalidInput)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(inputs))
	results := make(chan BatchItemResult, len(inputs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for input := range jobs {
				res, err := e.Resolve(ctx, nil, input, opts.ResolveOpts)
				results <- BatchItemResult{Input: input, Result: res, Error: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, input := range inputs {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- input
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	batch := &BatchResult{Total: len(inputs), Results: make([]BatchItemResult, 0, len(inputs))}
	step := 0
	for item := range results {
		step++
		batch.Results = append(batch.Results, item)

		switch {
		case item.Error != nil:
			batch.Failed++
		case item.Result.Match != nil:
			batch.Matched++
			if item.Result.Added {
				batch.Added++
			}
		}

		matched := item.Error == nil && item.Result.Match != nil
		e.sendProgress(progress, batchItemUpdate(step, len(inputs), item.Input, matched))
	}

	return batch, nil
}

// addToLibrary performs the provider add with a single refresh retry.
func (e *TrackEngine) addToLibrary(ctx context.Context, found *models.SearchMatch) bool {
	provider := e.registry.Get(found.Provider)
	if provider == nil {
		e.logger.Warn("matched provider not registered", "provider", found.Provider)
		return false
	}

	token, err := e.tokens.Token(found.Provider)
	if err != nil {
		e.logger.Warn("no credential for add", "provider", found.Provider, "error", err)
		return false
	}

	added := provider.AddTrack(ctx, token, found.URI)
	if added.NeedsReauth {
		fresh, err := e.tokens.Refresh(ctx, found.Provider)
		if err != nil {
			e.logger.Warn("refresh for add failed", "provider", found.Provider, "error", err)
			return false
		}
		added = provider.AddTrack(ctx, fresh, found.URI)
	}

	if !added.Success {
		e.logger.Warn("add to library failed", "provider", found.Provider, "error", added.Error)
	}
	return added.Success
}

// record writes the attempt to the log. Failures are logged, not returned.
func (e *TrackEngine) record(query models.ParsedQuery, found *models.SearchMatch, added bool) *models.Resolution {
	res := &models.Resolution{
		RawTitle:       query.RawTitle,
		RawDescription: query.RawDescription,
		Artist:         query.Artist,
		Song:           query.Song,
		Added:          added,
	}
	if found != nil {
		res.Artist = found.Track.Artist
		res.Song = found.Track.Song
		res.Provider = found.Provider
		res.URI = found.URI
		res.Confidence = found.Confidence
		res.Matched = true
		res.Enriched = found.Enriched
	}

	if err := e.recorder.Record(res); err != nil {
		e.logger.Warn("failed to record resolution", "title", query.RawTitle, "error", err)
		return nil
	}
	return res
}

// findKnown returns the newest prior matched resolution for a title.
func (e *TrackEngine) findKnown(rawTitle string) *models.Resolution {
	prior, err := e.recorder.FindByTitle(rawTitle)
	if err != nil {
		e.logger.Warn("failed to query prior resolutions", "title", rawTitle, "error", err)
		return nil
	}
	for _, res := range prior {
		if res.Matched {
			return res
		}
	}
	return nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *TrackEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
