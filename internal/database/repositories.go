package database

import (
	"context"

	"github.com/benvon/newsfeed/internal/models"
)

// KeywordStore is the keyword persistence used by handlers.
// This interface enables mock implementations in handler tests.
type KeywordStore interface {
	List(ctx context.Context, userID string) ([]*models.Keyword, error)
	Create(ctx context.Context, userID, keyword string) (*models.Keyword, error)
	Delete(ctx context.Context, userID, keyword string) error
}

// Pinger is implemented by DB and used by health checks.
type Pinger interface {
	PingContext(ctx context.Context) error
}

var (
	_ KeywordStore = (*KeywordRepository)(nil)
	_ Pinger       = (*DB)(nil)
)
