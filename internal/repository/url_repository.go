package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shortly-live/internal/entities"
	"shortly-live/internal/shortcode"
)

// URLRepository defines the interface for URL database operations
type URLRepository interface {
	Create(ctx context.Context, userID, originalURL, code string) (*entities.URL, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	FindByShortCode(ctx context.Context, code string) (*entities.URL, error)
	FindByIDForOwner(ctx context.Context, id, ownerID string) (*entities.URL, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.URL, error)
	DeleteForOwner(ctx context.Context, id, ownerID string) (*entities.URL, error)
	IncrementClicks(ctx context.Context, id string) (int64, error)
}

type urlRepository struct {
	db      *sql.DB
	timeout queryTimeout
}

// NewURLRepository creates a new URL repository
func NewURLRepository(db *sql.DB, timeout time.Duration) URLRepository {
	return &urlRepository{db: db, timeout: queryTimeout(timeout)}
}

const urlColumns = `id, user_id, original_url, short_code, clicks, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanURL(row rowScanner) (*entities.URL, error) {
	var url entities.URL
	err := row.Scan(
		&url.ID,
		&url.UserID,
		&url.OriginalURL,
		&url.ShortCode,
		&url.Clicks,
		&url.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// Create inserts a new URL. A duplicate short code is reported as shortcode.ErrCollision.
func (r *urlRepository) Create(ctx context.Context, userID, originalURL, code string) (*entities.URL, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO urls (user_id, original_url, short_code)
		VALUES ($1, $2, $3)
		RETURNING ` + urlColumns

	url, err := scanURL(r.db.QueryRowContext(ctx, query, userID, originalURL, code))
	if isUniqueViolation(err, "urls_short_code_key") {
		return nil, shortcode.ErrCollision
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create URL: %w", err)
	}

	return url, nil
}

// ShortCodeExists reports whether any record already uses code
func (r *urlRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

// FindByShortCode finds a URL by its short code
func (r *urlRepository) FindByShortCode(ctx context.Context, code string) (*entities.URL, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	query := `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	url, err := scanURL(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find URL: %w", err)
	}
	return url, nil
}

// FindByIDForOwner returns ErrNotFound both when the URL is absent and when another user owns it
func (r *urlRepository) FindByIDForOwner(ctx context.Context, id, ownerID string) (*entities.URL, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	query := `SELECT ` + urlColumns + ` FROM urls WHERE id = $1 AND user_id = $2`

	url, err := scanURL(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get URL: %w", err)
	}
	return url, nil
}

// ListByOwner retrieves all URLs for a specific user, newest first
func (r *urlRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.URL, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	query := `
		SELECT ` + urlColumns + `
		FROM urls
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get URLs: %w", err)
	}
	defer rows.Close()

	urls := make([]*entities.URL, 0)
	for rows.Next() {
		url, err := scanURL(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, url)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating URLs: %w", err)
	}

	return urls, nil
}

// DeleteForOwner removes a URL the user owns and returns what was deleted
func (r *urlRepository) DeleteForOwner(ctx context.Context, id, ownerID string) (*entities.URL, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	query := `DELETE FROM urls WHERE id = $1 AND user_id = $2 RETURNING ` + urlColumns

	url, err := scanURL(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete URL: %w", err)
	}
	return url, nil
}

// IncrementClicks atomically adds one click and returns the new total
func (r *urlRepository) IncrementClicks(ctx context.Context, id string) (int64, error) {
	ctx, cancel := r.timeout.bound(ctx)
	defer cancel()

	var clicks int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE urls
		SET clicks = clicks + 1
		WHERE id = $1
		RETURNING clicks
	`, id).Scan(&clicks)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment clicks: %w", err)
	}
	return clicks, nil
}
