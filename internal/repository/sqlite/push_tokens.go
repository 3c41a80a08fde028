package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/repository"
)

func (s *Store) UpsertPushToken(ctx context.Context, userID, token string) (*models.PushToken, error) {
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_tokens (user_id, token, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		userID, token, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert push token: %w", err)
	}
	ts, _ := parseTime(now)
	return &models.PushToken{UserID: userID, Token: token, UpdatedAt: ts}, nil
}

func (s *Store) GetPushToken(ctx context.Context, userID string) (*models.PushToken, error) {
	var (
		pt      models.PushToken
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, token, updated_at FROM push_tokens WHERE user_id = ?`, userID,
	).Scan(&pt.UserID, &pt.Token, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if pt.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("push token %s: invalid updated_at: %w", userID, err)
	}
	return &pt, nil
}
