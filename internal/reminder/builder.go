package reminder

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/models"
)

// DefaultDescription is used when a bill has no description.
const DefaultDescription = "Bill"

var errNegativeAmount = errors.New("negative amount")

// BuildReminder normalizes one window row.
func BuildReminder(row *models.DueBill, today time.Time) (models.BillReminder, error) {
	balance, err := parseAmount(row.Balance)
	if err != nil {
		return models.BillReminder{}, fmt.Errorf("balance: %w", err)
	}
	minimum, err := parseAmount(row.MinimumDue)
	if err != nil {
		return models.BillReminder{}, fmt.Errorf("minimum_due: %w", err)
	}

	description := DefaultDescription
	if row.Description != nil && strings.TrimSpace(*row.Description) != "" {
		description = strings.TrimSpace(*row.Description)
	}

	var token string
	if row.PushToken != nil {
		token = strings.TrimSpace(*row.PushToken)
	}

	return models.BillReminder{
		BillID:          row.ID,
		UserID:          row.UserID,
		PushToken:       token,
		BillDescription: description,
		Balance:         balance,
		MinimumDue:      minimum,
		DueDate:         DateOf(row.DueDate),
		DaysUntilDue:    DaysUntil(today, row.DueDate),
	}, nil
}

// BuildReminders converts every row, skipping (and logging) rows that
// cannot be parsed.
func BuildReminders(rows []*models.DueBill, today time.Time) []models.BillReminder {
	reminders := make([]models.BillReminder, 0, len(rows))
	for _, row := range rows {
		r, err := BuildReminder(row, today)
		if err != nil {
			slog.Warn("Skipping bill with unparsable row", "bill_id", row.ID, "user_id", row.UserID, "error", err)
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders
}

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", errNegativeAmount, raw)
	}
	return d, nil
}
