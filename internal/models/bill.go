package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillStatusUnpaid BillStatus = "unpaid"
	BillStatusPaid   BillStatus = "paid"
)

var ErrInvalidStatus = errors.New("invalid bill status")

// ParseBillStatus accepts "unpaid" or "paid".
func ParseBillStatus(s string) (BillStatus, error) {
	switch BillStatus(s) {
	case BillStatusUnpaid, BillStatusPaid:
		return BillStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// DateLayout is the wire and storage format of due dates.
const DateLayout = "2006-01-02"

type Bill struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Balance     decimal.Decimal `json:"balance"`
	MinimumDue  decimal.Decimal `json:"minimum_due"`
	DueDate     time.Time       `json:"due_date"` // calendar date, UTC midnight
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Status      BillStatus      `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}

// BillPatch is a partial update. Nil fields keep the base value.
type BillPatch struct {
	Balance     *decimal.Decimal
	MinimumDue  *decimal.Decimal
	DueDate     *time.Time
	Description *string
	ImageURL    *string
	Status      *BillStatus
}

func (p BillPatch) IsEmpty() bool {
	return p.Balance == nil && p.MinimumDue == nil && p.DueDate == nil &&
		p.Description == nil && p.ImageURL == nil && p.Status == nil
}

// Apply returns a copy of base with every set patch field applied.
// Identity and timestamps are never touched.
func (p BillPatch) Apply(base Bill) Bill {
	out := base
	if p.Balance != nil {
		out.Balance = *p.Balance
	}
	if p.MinimumDue != nil {
		out.MinimumDue = *p.MinimumDue
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.Description != nil {
		d := *p.Description
		out.Description = &d
	}
	if p.ImageURL != nil {
		u := *p.ImageURL
		out.ImageURL = &u
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	return out
}
