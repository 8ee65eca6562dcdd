package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/trackdown/internal/formatter"
	"github.com/desertthunder/trackdown/internal/shared"
	"github.com/desertthunder/trackdown/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Resolve identifies a single input or a batch file and reports the outcome.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	input := cmd.StringArg("input")
	batchFile := cmd.String("file")

	if input == "" && batchFile == "" {
		return fmt.Errorf("%w: provide an input or --file", shared.ErrMissingArgument)
	}
	if input != "" && batchFile != "" {
		return fmt.Errorf("%w: cannot combine an input argument with --file", shared.ErrInvalidFlag)
	}

	opts := tasks.ResolveOpts{
		Add:       cmd.Bool("add"),
		SkipLog:   cmd.Bool("no-log"),
		SkipKnown: cmd.Bool("skip-known"),
	}

	s, err := r.buildStack(!opts.SkipLog)
	if err != nil {
		return err
	}
	defer s.Close()

	if batchFile != "" {
		return r.resolveBatch(ctx, s.engine, batchFile, tasks.BatchOpts{
			ResolveOpts: opts,
			NumWorkers:  cmd.Int("workers"),
			RateLimit:   cmd.Float("rate"),
		})
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := s.engine.Resolve(ctx, progressCh, input, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	return r.printResolveResult(result, cmd.String("format"))
}

// resolveBatch resolves every non-empty line of a file.
func (r *Runner) resolveBatch(ctx context.Context, engine tasks.ResolveEngine, path string, opts tasks.BatchOpts) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var inputs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}

	r.writePlain("Resolving %d inputs...\n\n", len(inputs))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.BatchItem {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.ResolveBatch(ctx, progressCh, inputs, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Batch Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Resolved: %d/%d\n", result.Matched, result.Total)
	if opts.Add {
		r.writePlain("Added to library: %d\n", result.Added)
	}
	if result.Failed > 0 {
		r.writePlain("\nFailed inputs:\n")
		for _, item := range result.Results {
			if item.Error != nil {
				r.writePlain("  - %s: %v\n", item.Input, item.Error)
			}
		}
	}

	return nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ExtractMetadata:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.NormalizeTitle:
		r.writePlain("🔤 %s\n", update.Message)
	case tasks.SearchCatalogs:
		r.writePlain("🔍 %s\n", update.Message)
	case tasks.AddToLibrary:
		r.writePlain("➕ %s\n", update.Message)
	case tasks.RecordResult:
		r.writePlain("📝 %s\n", update.Message)
	}
}

func (r *Runner) printResolveResult(result *tasks.ResolveResult, format string) error {
	if result.Resolution != nil && format != "text" {
		output, err := formatter.FormatResolution(result.Resolution, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", string(output))
	}

	if result.Match == nil {
		r.writePlainln("✗ No confident match for %q", result.Query.RawTitle)
		return nil
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Resolved!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Track: %s - %s\n", result.Match.Track.Artist, result.Match.Track.Song)
	r.writePlain("Provider: %s\n", result.Match.Provider)
	r.writePlain("URI: %s\n", result.Match.URI)
	r.writePlain("Confidence: %.2f\n", result.Match.Confidence)
	if result.Match.Enriched {
		r.writePlain("Identified via enrichment\n")
	}
	if result.FromCache {
		r.writePlain("Reused a prior resolution\n")
	}
	if result.Added {
		r.writePlain("✓ Added to library\n")
	}

	return nil
}
