// Package postgres implements the entity store on Postgres, one jsonb
// record per entity.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/store"
)

type pgStore struct {
	db *sql.DB
}

// New creates a Postgres-backed entity store.
func New(db *sql.DB) store.Store {
	return &pgStore{db: db}
}

func (s *pgStore) Chat(ctx context.Context, id int64) (*models.Chat, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM chats WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	chat := &models.Chat{}
	if err := json.Unmarshal(raw, chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat record: %w", err)
	}
	return chat, nil
}

func (s *pgStore) PutChat(ctx context.Context, chat *models.Chat) error {
	raw, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to encode chat record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chats (id, record) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record`,
		chat.ID, raw)
	if err != nil {
		return fmt.Errorf("failed to put chat: %w", err)
	}
	return nil
}

func (s *pgStore) Poll(ctx context.Context, id int64) (*models.Poll, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM polls WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	poll := &models.Poll{}
	if err := json.Unmarshal(raw, poll); err != nil {
		return nil, fmt.Errorf("failed to decode poll record: %w", err)
	}
	return poll, nil
}

func (s *pgStore) PutPoll(ctx context.Context, poll *models.Poll) error {
	raw, err := json.Marshal(poll)
	if err != nil {
		return fmt.Errorf("failed to encode poll record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO polls (id, chat_id, record) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET chat_id = EXCLUDED.chat_id, record = EXCLUDED.record`,
		poll.ID, poll.ChatID, raw)
	if err != nil {
		return fmt.Errorf("failed to put poll: %w", err)
	}
	return nil
}

func (s *pgStore) Polls(ctx context.Context) ([]*models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM polls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	var polls []*models.Poll
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		poll := &models.Poll{}
		if err := json.Unmarshal(raw, poll); err != nil {
			return nil, fmt.Errorf("failed to decode poll record: %w", err)
		}
		polls = append(polls, poll)
	}
	return polls, rows.Err()
}
