package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/database"
	"github.com/hray3182/BillMe/internal/models"
)

type BillRepository struct {
	db *database.DB
}

func NewBillRepository(db *database.DB) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `id, user_id, balance::text, minimum_due::text, due_date, description, image_url, status, created_at, updated_at`

func (r *BillRepository) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	if bill.Status == "" {
		bill.Status = models.BillStatusUnpaid
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO bills (id, user_id, balance, minimum_due, due_date, description, image_url, status)
		 VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		bill.ID, bill.UserID, bill.Balance.String(), bill.MinimumDue.String(), bill.DueDate,
		bill.Description, bill.ImageURL, string(bill.Status),
	).Scan(&bill.CreatedAt, &bill.UpdatedAt)
}

func (r *BillRepository) GetBill(ctx context.Context, id, userID string) (*models.Bill, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	bill, err := scanBill(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *BillRepository) ListBills(ctx context.Context, userID string, status models.BillStatus) ([]*models.Bill, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT `+billColumns+` FROM bills WHERE user_id = $1 AND status = $2 ORDER BY due_date DESC, id`,
			userID, string(status),
		)
	} else {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT `+billColumns+` FROM bills WHERE user_id = $1 ORDER BY due_date DESC, id`,
			userID,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func (r *BillRepository) UpdateBill(ctx context.Context, bill *models.Bill) error {
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE bills SET balance = $1::numeric, minimum_due = $2::numeric, due_date = $3, description = $4,
		 image_url = $5, status = $6, updated_at = NOW()
		 WHERE id = $7 AND user_id = $8
		 RETURNING updated_at`,
		bill.Balance.String(), bill.MinimumDue.String(), bill.DueDate, bill.Description,
		bill.ImageURL, string(bill.Status), bill.ID, bill.UserID,
	).Scan(&bill.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *BillRepository) DeleteBill(ctx context.Context, id, userID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM bills WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BillRepository) DueBills(ctx context.Context, from, to time.Time) ([]*models.DueBill, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT b.id, b.user_id, b.balance::text, b.minimum_due::text, b.due_date, b.description, p.token
		 FROM bills b
		 LEFT JOIN push_tokens p ON p.user_id = b.user_id
		 WHERE b.status = 'unpaid' AND b.due_date BETWEEN $1 AND $2
		 ORDER BY b.due_date ASC, b.id ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due bills: %w", err)
	}
	defer rows.Close()

	var due []*models.DueBill
	for rows.Next() {
		d := &models.DueBill{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Balance, &d.MinimumDue, &d.DueDate, &d.Description, &d.PushToken); err != nil {
			return nil, fmt.Errorf("failed to scan due bill: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

func scanBill(row pgx.Row) (*models.Bill, error) {
	var (
		bill             models.Bill
		balance, minimum string
		status           string
	)
	if err := row.Scan(&bill.ID, &bill.UserID, &balance, &minimum, &bill.DueDate, &bill.Description,
		&bill.ImageURL, &status, &bill.CreatedAt, &bill.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if bill.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("bill %s: invalid balance %q: %w", bill.ID, balance, err)
	}
	if bill.MinimumDue, err = decimal.NewFromString(minimum); err != nil {
		return nil, fmt.Errorf("bill %s: invalid minimum_due %q: %w", bill.ID, minimum, err)
	}
	bill.Status = models.BillStatus(status)
	return &bill, nil
}
