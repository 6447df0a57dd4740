package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/benvon/newsfeed/internal/models"
)

var (
	// ErrDuplicate is returned when a user already has the keyword.
	ErrDuplicate = errors.New("keyword already exists")
	// ErrNotFound is returned when a keyword to delete does not exist.
	ErrNotFound = errors.New("keyword not found")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

// KeywordRepository stores per-user keywords in user_keywords.
// Keywords are normalized by the caller before they reach it.
type KeywordRepository struct {
	db *DB
}

// NewKeywordRepository creates a new keyword repository.
func NewKeywordRepository(db *DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

// List returns userID's keywords, newest first.
func (r *KeywordRepository) List(ctx context.Context, userID string) ([]*models.Keyword, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, keyword, created_at
		FROM user_keywords
		WHERE user_id = $1
		ORDER BY created_at DESC, keyword ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keywords := make([]*models.Keyword, 0)
	for rows.Next() {
		k := &models.Keyword{}
		if err := rows.Scan(&k.ID, &k.UserID, &k.Keyword, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keywords: %w", err)
	}
	return keywords, nil
}

// Create inserts keyword for userID. A second insert of the same keyword
// returns ErrDuplicate.
func (r *KeywordRepository) Create(ctx context.Context, userID, keyword string) (*models.Keyword, error) {
	k := &models.Keyword{
		ID:        uuid.New(),
		UserID:    userID,
		Keyword:   keyword,
		CreatedAt: time.Now().UTC(),
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_keywords (id, user_id, keyword, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, k.ID, k.UserID, k.Keyword, k.CreatedAt).Scan(&k.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create keyword: %w", err)
	}
	return k, nil
}

// Delete removes keyword for userID, or returns ErrNotFound.
func (r *KeywordRepository) Delete(ctx context.Context, userID, keyword string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_keywords WHERE user_id = $1 AND keyword = $2
	`, userID, keyword)
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
