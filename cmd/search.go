package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/trackdown/internal/shared"
	"github.com/desertthunder/trackdown/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search resolves a title against the catalogs without writing the log or
// touching the library.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	s, err := r.buildStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.engine.Resolve(ctx, nil, query, tasks.ResolveOpts{SkipLog: true})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if result.Match == nil {
		return r.writePlain("✗ No confident match for %q\n", result.Query.RawTitle)
	}

	r.writePlain("✓ %s - %s\n", result.Match.Track.Artist, result.Match.Track.Song)
	r.writePlain("Provider: %s\n", result.Match.Provider)
	r.writePlain("URI: %s\n", result.Match.URI)
	r.writePlain("Confidence: %.2f\n", result.Match.Confidence)

	return nil
}
