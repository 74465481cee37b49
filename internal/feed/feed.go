// Package feed defines the inbound news/filing capability and its concrete
// adapters. Each Source is treated uniformly by the ingestor: it either
// returns items or an isolated error, never both.
package feed

import (
	"context"

	"catalystd/internal/models"
)

// Source fetches the current batch of items available from one configured
// feed. Implementations must respect ctx's deadline and return promptly on
// cancellation rather than blocking past it.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.NewsItem, error)
}
