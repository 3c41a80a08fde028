package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/BillMe/internal/database"
	"github.com/hray3182/BillMe/internal/models"
)

type PushTokenRepository struct {
	db *database.DB
}

func NewPushTokenRepository(db *database.DB) *PushTokenRepository {
	return &PushTokenRepository{db: db}
}

func (r *PushTokenRepository) UpsertPushToken(ctx context.Context, userID, token string) (*models.PushToken, error) {
	pt := &models.PushToken{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO push_tokens (user_id, token, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()
		 RETURNING user_id, token, updated_at`,
		userID, token,
	).Scan(&pt.UserID, &pt.Token, &pt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return pt, nil
}

func (r *PushTokenRepository) GetPushToken(ctx context.Context, userID string) (*models.PushToken, error) {
	pt := &models.PushToken{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, token, updated_at FROM push_tokens WHERE user_id = $1`,
		userID,
	).Scan(&pt.UserID, &pt.Token, &pt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// PostgresStore combines the Postgres repositories into a Store.
type PostgresStore struct {
	*BillRepository
	*PushTokenRepository
	db *database.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		BillRepository:      NewBillRepository(db),
		PushTokenRepository: NewPushTokenRepository(db),
		db:                  db,
	}
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
