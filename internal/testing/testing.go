// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/trackdown/internal/models"
)

// MockProvider is a configurable test double for [providers.Provider].
// Outcomes are consumed in order, so a test can script "reject, then match"
// sequences; the last outcome repeats once the script runs out.
type MockProvider struct {
	ProviderName string
	URLFragment  string
	Outcomes     []models.SearchOutcome
	SearchErr    error
	AddResults   []models.AddResult

	SearchCalls []SearchCall
	AddCalls    []AddCall

	searchIdx int
	addIdx    int
}

// SearchCall records the arguments of one SearchTrack invocation.
type SearchCall struct {
	Token string
	Query models.ParsedQuery
}

// AddCall records the arguments of one AddTrack invocation.
type AddCall struct {
	Token string
	URI   string
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) MatchURL(raw string) bool {
	return m.URLFragment != "" && strings.Contains(raw, m.URLFragment)
}

func (m *MockProvider) SearchTrack(ctx context.Context, token string, query models.ParsedQuery) (models.SearchOutcome, error) {
	m.SearchCalls = append(m.SearchCalls, SearchCall{Token: token, Query: query})
	if m.SearchErr != nil {
		return models.SearchOutcome{}, m.SearchErr
	}
	if len(m.Outcomes) == 0 {
		return models.SearchOutcome{}, nil
	}

	outcome := m.Outcomes[m.searchIdx]
	if m.searchIdx < len(m.Outcomes)-1 {
		m.searchIdx++
	}
	return outcome, nil
}

func (m *MockProvider) AddTrack(ctx context.Context, token, uri string) models.AddResult {
	m.AddCalls = append(m.AddCalls, AddCall{Token: token, URI: uri})
	if len(m.AddResults) == 0 {
		return models.AddResult{Success: true}
	}

	result := m.AddResults[m.addIdx]
	if m.addIdx < len(m.AddResults)-1 {
		m.addIdx++
	}
	return result
}

// MockTokenSource is a test double for [match.TokenSource].
type MockTokenSource struct {
	Tokens       map[string]string
	RefreshToken string
	RefreshErr   error
	TokenErr     error

	RefreshCalls []string
}

func (m *MockTokenSource) Token(provider string) (string, error) {
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	return m.Tokens[provider], nil
}

func (m *MockTokenSource) Refresh(ctx context.Context, provider string) (string, error) {
	m.RefreshCalls = append(m.RefreshCalls, provider)
	if m.RefreshErr != nil {
		return "", m.RefreshErr
	}
	return m.RefreshToken, nil
}

// MockEnricher is a test double for [enrich.Enricher].
type MockEnricher struct {
	Guessed *models.EnrichedGuess
	Err     error

	Calls int
}

func (m *MockEnricher) Guess(ctx context.Context, rawTitle, description string) (*models.EnrichedGuess, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Guessed, nil
}

// MockExtractor is a test double for [extractor.Extractor].
type MockExtractor struct {
	Meta *models.RawMetadata
	Err  error
}

func (m *MockExtractor) Extract(ctx context.Context, rawURL string) (*models.RawMetadata, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Meta, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
