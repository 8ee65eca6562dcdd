// Package providers implements destination catalog clients.
//
// A [Provider] can search its catalog for a track and add a located track to
// the user's library. Spotify and Deezer are implemented; both share the same
// layered search strategy (structured field search first, then free-text
// fallbacks validated by fuzzy scoring).
package providers

import (
	"context"

	"github.com/desertthunder/trackdown/internal/models"
)

// StructuredConfidence is assigned to the first result of a structured
// (artist + song field filter) search. A structured hit is trusted because
// the catalog itself did the field matching.
const StructuredConfidence = 0.9

// Provider is a destination catalog.
//
// SearchTrack and AddTrack take the credential explicitly so a caller can
// retry with a refreshed token without mutating the provider.
type Provider interface {
	// Name returns the provider's lowercase identifier ("spotify", "deezer").
	Name() string

	// MatchURL reports whether a raw string looks like a track URL or URI
	// belonging to this provider.
	MatchURL(raw string) bool

	// SearchTrack runs the layered search strategy for the query. A no-match
	// result is not an error; NeedsReauth is set when the credential was
	// rejected.
	SearchTrack(ctx context.Context, token string, query models.ParsedQuery) (models.SearchOutcome, error)

	// AddTrack appends a previously matched track to the user's library.
	AddTrack(ctx context.Context, token, uri string) models.AddResult
}

// Registry holds providers in priority order. The first provider to produce a
// confident match wins, so ordering is part of the configuration.
type Registry struct {
	providers []Provider
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// All returns the providers in priority order.
func (r *Registry) All() []Provider {
	return r.providers
}

// ForURL returns the first provider claiming the raw string, or nil.
func (r *Registry) ForURL(raw string) Provider {
	for _, p := range r.providers {
		if p.MatchURL(raw) {
			return p
		}
	}
	return nil
}

// Get returns the provider with the given name, or nil.
func (r *Registry) Get(name string) Provider {
	for _, p := range r.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
