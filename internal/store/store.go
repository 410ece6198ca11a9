// Package store defines the entity storage contract. One durable record per
// chat and per poll; laws live embedded in their owning chat's record.
//
// Reads of a missing record yield (nil, nil); absence is an ordinary
// outcome, not an error. Writes replace the full persisted representation;
// there are no partial-field updates and no transaction spans two entities.
package store

import (
	"context"

	"github.com/microvote/microvote/internal/models"
)

// Store is the persistence capability injected into the core.
type Store interface {
	// Chat returns the chat record for id, or nil when absent.
	Chat(ctx context.Context, id int64) (*models.Chat, error)
	// PutChat replaces the chat's full record.
	PutChat(ctx context.Context, chat *models.Chat) error

	// Poll returns the poll record for id, or nil when absent.
	Poll(ctx context.Context, id int64) (*models.Poll, error)
	// PutPoll replaces the poll's full record.
	PutPoll(ctx context.Context, poll *models.Poll) error

	// Polls returns every stored poll record.
	Polls(ctx context.Context) ([]*models.Poll, error)
}
