package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/credentials"
	"github.com/desertthunder/trackdown/internal/enrich"
	"github.com/desertthunder/trackdown/internal/extractor"
	"github.com/desertthunder/trackdown/internal/match"
	"github.com/desertthunder/trackdown/internal/normalizer"
	"github.com/desertthunder/trackdown/internal/providers"
	"github.com/desertthunder/trackdown/internal/repositories"
	"github.com/desertthunder/trackdown/internal/shared"
	"github.com/desertthunder/trackdown/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, resolveCommand, searchCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps the active config for the one named by the --config
// flag. Missing or unreadable files fall back to whatever the runner was
// constructed with.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", path, "error", err)
		return
	}

	r.config = config
	r.configPath = path
}

// stack bundles the wired resolution pipeline for one command invocation.
type stack struct {
	engine *tasks.TrackEngine
	repo   *repositories.ResolutionRepository
	store  *credentials.Store
	db     *sql.DB
}

// Close releases the database handle if one was opened.
func (s *stack) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// buildStack wires credentials, providers, enrichment, and the resolution
// engine from the active config. The database is only opened when the
// command needs the resolution log.
func (r *Runner) buildStack(withDB bool) (*stack, error) {
	store := credentials.NewStore(r.config, r.configPath, r.logger)

	registry := providers.NewRegistry(
		providers.NewSpotifyProvider("", r.httpClient, r.logger),
		providers.NewDeezerProvider("", r.httpClient, r.logger),
	)

	var enricher enrich.Enricher
	if r.config.Enrichment.Enabled && r.config.Enrichment.APIKey != "" {
		enricher = enrich.NewClient(
			r.config.Enrichment.BaseURL,
			r.config.Enrichment.APIKey,
			r.config.Enrichment.Model,
			r.httpClient,
			r.logger,
		)
	}

	matcher := match.New(registry, store, enricher, r.logger, match.Options{
		AcceptThreshold:     r.config.Matcher.AcceptThreshold,
		EnrichmentThreshold: r.config.Matcher.EnrichmentThreshold,
	})

	s := &stack{store: store}

	var recorder tasks.Recorder
	if withDB {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		s.db = db
		s.repo = repositories.NewResolutionRepository(db)
		recorder = s.repo
	}

	s.engine = tasks.NewTrackEngine(
		extractor.NewOEmbedExtractor(r.httpClient, r.logger),
		normalizer.Normalize,
		matcher,
		registry,
		store,
		recorder,
		r.logger,
	)

	return s, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
