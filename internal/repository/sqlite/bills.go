package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/repository"
)

const billColumns = `id, user_id, balance, minimum_due, due_date, description, image_url, status, created_at, updated_at`

func (s *Store) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	if bill.Status == "" {
		bill.Status = models.BillStatusUnpaid
	}
	now := s.timestamp()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.UserID, bill.Balance.StringFixed(2), bill.MinimumDue.StringFixed(2),
		bill.DueDate.Format(models.DateLayout), nullString(bill.Description), nullString(bill.ImageURL),
		string(bill.Status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	ts, _ := parseTime(now)
	bill.CreatedAt, bill.UpdatedAt = ts, ts
	return nil
}

func (s *Store) GetBill(ctx context.Context, id, userID string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return bill, err
}

func (s *Store) ListBills(ctx context.Context, userID string, status models.BillStatus) ([]*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY due_date DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
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

func (s *Store) UpdateBill(ctx context.Context, bill *models.Bill) error {
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET balance = ?, minimum_due = ?, due_date = ?, description = ?, image_url = ?,
		 status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		bill.Balance.StringFixed(2), bill.MinimumDue.StringFixed(2), bill.DueDate.Format(models.DateLayout),
		nullString(bill.Description), nullString(bill.ImageURL), string(bill.Status), now,
		bill.ID, bill.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	bill.UpdatedAt, _ = parseTime(now)
	return nil
}

func (s *Store) DeleteBill(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DueBills(ctx context.Context, from, to time.Time) ([]*models.DueBill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.balance, b.minimum_due, b.due_date, b.description, p.token
		 FROM bills b
		 LEFT JOIN push_tokens p ON p.user_id = b.user_id
		 WHERE b.status = 'unpaid' AND b.due_date BETWEEN ? AND ?
		 ORDER BY b.due_date ASC, b.id ASC`,
		from.Format(models.DateLayout), to.Format(models.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due bills: %w", err)
	}
	defer rows.Close()

	var due []*models.DueBill
	for rows.Next() {
		var (
			d                  models.DueBill
			dueDate            string
			description, token sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Balance, &d.MinimumDue, &dueDate, &description, &token); err != nil {
			return nil, fmt.Errorf("failed to scan due bill: %w", err)
		}
		if d.DueDate, err = time.Parse(models.DateLayout, dueDate); err != nil {
			return nil, fmt.Errorf("bill %s: invalid due_date %q: %w", d.ID, dueDate, err)
		}
		d.Description = stringPtr(description)
		d.PushToken = stringPtr(token)
		due = append(due, &d)
	}
	return due, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	var (
		bill                      models.Bill
		balance, minimum, dueDate string
		status, created, updated  string
		description, imageURL     sql.NullString
	)
	if err := row.Scan(&bill.ID, &bill.UserID, &balance, &minimum, &dueDate, &description, &imageURL,
		&status, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if bill.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("bill %s: invalid balance %q: %w", bill.ID, balance, err)
	}
	if bill.MinimumDue, err = decimal.NewFromString(minimum); err != nil {
		return nil, fmt.Errorf("bill %s: invalid minimum_due %q: %w", bill.ID, minimum, err)
	}
	if bill.DueDate, err = time.Parse(models.DateLayout, dueDate); err != nil {
		return nil, fmt.Errorf("bill %s: invalid due_date %q: %w", bill.ID, dueDate, err)
	}
	if bill.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("bill %s: invalid created_at: %w", bill.ID, err)
	}
	if bill.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("bill %s: invalid updated_at: %w", bill.ID, err)
	}
	bill.Description = stringPtr(description)
	bill.ImageURL = stringPtr(imageURL)
	bill.Status = models.BillStatus(status)
	return &bill, nil
}
