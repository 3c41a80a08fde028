package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hray3182/BillMe/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence API shared by the Postgres and SQLite backends.
type Store interface {
	CreateBill(ctx context.Context, bill *models.Bill) error
	// GetBill returns ErrNotFound unless the bill exists and belongs to userID.
	GetBill(ctx context.Context, id, userID string) (*models.Bill, error)
	// ListBills lists a user's bills, newest due date first. An empty
	// status lists every bill.
	ListBills(ctx context.Context, userID string, status models.BillStatus) ([]*models.Bill, error)
	UpdateBill(ctx context.Context, bill *models.Bill) error
	DeleteBill(ctx context.Context, id, userID string) error

	// DueBills returns unpaid bills with from <= due_date <= to, left
	// joined with the owner's push token and ordered by due_date, id.
	DueBills(ctx context.Context, from, to time.Time) ([]*models.DueBill, error)

	// UpsertPushToken replaces any previous token of the user.
	UpsertPushToken(ctx context.Context, userID, token string) (*models.PushToken, error)
	GetPushToken(ctx context.Context, userID string) (*models.PushToken, error)

	Close() error
}
