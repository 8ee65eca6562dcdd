package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/shared"
)

// ResolutionRepository records resolution attempts in the append-only log.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a repository over an open database.
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Record appends one resolution attempt. A missing ID or timestamp is filled
// in; everything else is written as given.
func (r *ResolutionRepository) Record(resolution *models.Resolution) error {
	if resolution.RawTitle == "" {
		return fmt.Errorf("%w: resolution needs a raw title", shared.ErrInvalidInput)
	}
	if resolution.ID == "" {
		resolution.ID = shared.GenerateID()
	}
	if resolution.CreatedAt.IsZero() {
		resolution.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO resolutions (id, raw_title, raw_description, artist, song, provider, uri, confidence, matched, added, enriched, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		resolution.ID,
		resolution.RawTitle,
		resolution.RawDescription,
		resolution.Artist,
		resolution.Song,
		resolution.Provider,
		resolution.URI,
		resolution.Confidence,
		resolution.Matched,
		resolution.Added,
		resolution.Enriched,
		resolution.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Get retrieves a single resolution by ID.
func (r *ResolutionRepository) Get(id string) (*models.Resolution, error) {
	query := selectColumns + ` WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// List returns the most recent resolutions, newest first. A non-positive
// limit returns everything.
func (r *ResolutionRepository) List(limit int) ([]*models.Resolution, error) {
	query := selectColumns + ` ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListMatched returns recent resolutions that produced a match, newest first.
func (r *ResolutionRepository) ListMatched(limit int) ([]*models.Resolution, error) {
	query := selectColumns + ` WHERE matched = 1 ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matched resolutions: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// FindByTitle returns prior attempts for the same cleaned title, newest
// first. Lets a caller skip re-resolving something already matched.
func (r *ResolutionRepository) FindByTitle(rawTitle string) ([]*models.Resolution, error) {
	query := selectColumns + ` WHERE raw_title = ? ORDER BY created_at DESC, id`

	rows, err := r.db.Query(query, rawTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions by title: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Count returns total attempts and how many of them matched.
func (r *ResolutionRepository) Count() (total int, matched int, err error) {
	err = r.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(matched), 0) FROM resolutions`).Scan(&total, &matched)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	return total, matched, nil
}

const selectColumns = `
	SELECT id, raw_title, raw_description, artist, song, provider, uri, confidence, matched, added, enriched, created_at
	FROM resolutions`

func (r *ResolutionRepository) scanOne(row *sql.Row) (*models.Resolution, error) {
	var res models.Resolution
	err := row.Scan(
		&res.ID,
		&res.RawTitle,
		&res.RawDescription,
		&res.Artist,
		&res.Song,
		&res.Provider,
		&res.URI,
		&res.Confidence,
		&res.Matched,
		&res.Added,
		&res.Enriched,
		&res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resolution not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}
	return &res, nil
}

func (r *ResolutionRepository) scanAll(rows *sql.Rows) ([]*models.Resolution, error) {
	var resolutions []*models.Resolution
	for rows.Next() {
		var res models.Resolution
		err := rows.Scan(
			&res.ID,
			&res.RawTitle,
			&res.RawDescription,
			&res.Artist,
			&res.Song,
			&res.Provider,
			&res.URI,
			&res.Confidence,
			&res.Matched,
			&res.Added,
			&res.Enriched,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		resolutions = append(resolutions, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolutions: %w", err)
	}
	return resolutions, nil
}
