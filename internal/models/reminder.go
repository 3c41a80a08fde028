package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DueBill is one row of the reminder window query. Amounts are kept in
// their stored text form and parsed when the reminder is built.
type DueBill struct {
	ID          string
	UserID      string
	Balance     string
	MinimumDue  string
	DueDate     time.Time
	Description *string
	PushToken   *string
}

// BillReminder is the normalized unit handed to the dispatch channels.
type BillReminder struct {
	BillID          string
	UserID          string
	PushToken       string // empty if the user never registered one
	BillDescription string
	Balance         decimal.Decimal
	MinimumDue      decimal.Decimal
	DueDate         time.Time
	DaysUntilDue    int // negative = overdue
}

// DueDateString formats the due date as YYYY-MM-DD.
func (r BillReminder) DueDateString() string {
	return r.DueDate.Format(DateLayout)
}
