package reminder

import (
	"testing"

	"github.com/hray3182/BillMe/internal/models"
)

func ptr(s string) *string { return &s }

func TestBuildReminder(t *testing.T) {
	row := &models.DueBill{
		ID:          "b1",
		UserID:      "u1",
		Balance:     "120.50",
		MinimumDue:  "25.00",
		DueDate:     date("2026-10-21"),
		Description: ptr("Electric"),
		PushToken:   ptr("ExponentPushToken[abc]"),
	}

	r, err := BuildReminder(row, date("2026-10-16"))
	if err != nil {
		t.Fatalf("BuildReminder: %v", err)
	}
	if r.BillID != "b1" || r.UserID != "u1" || r.PushToken != "ExponentPushToken[abc]" {
		t.Errorf("unexpected identity %+v", r)
	}
	if r.BillDescription != "Electric" || r.DaysUntilDue != 5 {
		t.Errorf("unexpected reminder %+v", r)
	}
	if r.Balance.String() != "120.5" || r.MinimumDue.String() != "25" {
		t.Errorf("unexpected amounts %s %s", r.Balance, r.MinimumDue)
	}
	if r.DueDateString() != "2026-10-21" {
		t.Errorf("unexpected due date %s", r.DueDateString())
	}
}

func TestBuildReminderFallbacks(t *testing.T) {
	for _, desc := range []*string{nil, ptr(""), ptr("   ")} {
		r, err := BuildReminder(&models.DueBill{
			ID: "b1", UserID: "u1", Balance: "10", MinimumDue: "0",
			DueDate: date("2026-10-14"), Description: desc,
		}, date("2026-10-16"))
		if err != nil {
			t.Fatalf("BuildReminder: %v", err)
		}
		if r.BillDescription != DefaultDescription {
			t.Errorf("expected %q, got %q", DefaultDescription, r.BillDescription)
		}
		if r.PushToken != "" {
			t.Errorf("expected empty token, got %q", r.PushToken)
		}
		if r.DaysUntilDue != -2 {
			t.Errorf("expected -2, got %d", r.DaysUntilDue)
		}
	}
}

func TestBuildReminderRejectsBadAmounts(t *testing.T) {
	tests := []struct {
		name       string
		balance    string
		minimumDue string
	}{
		{"unparsable balance", "abc", "1"},
		{"empty minimum", "10", ""},
		{"negative balance", "-5", "0"},
		{"negative minimum", "5", "-0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildReminder(&models.DueBill{
				ID: "b1", Balance: tt.balance, MinimumDue: tt.minimumDue, DueDate: date("2026-10-16"),
			}, date("2026-10-16"))
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildRemindersSkipsBadRows(t *testing.T) {
	rows := []*models.DueBill{
		{ID: "a", Balance: "10", MinimumDue: "1", DueDate: date("2026-10-16")},
		{ID: "b", Balance: "oops", MinimumDue: "1", DueDate: date("2026-10-16")},
		{ID: "c", Balance: "20", MinimumDue: "2", DueDate: date("2026-10-17")},
	}

	reminders := BuildReminders(rows, date("2026-10-16"))

	if len(reminders) != 2 || reminders[0].BillID != "a" || reminders[1].BillID != "c" {
		t.Errorf("expected rows a and c in order, got %+v", reminders)
	}
}
