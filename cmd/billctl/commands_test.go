package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/ai"
	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/notify"
	"github.com/hray3182/BillMe/internal/reminder"
	"github.com/hray3182/BillMe/internal/repository"
	"github.com/hray3182/BillMe/internal/repository/sqlite"
)

var today = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

type fakeExtractor struct {
	calls int
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*ai.Extraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Extraction{
		Balance:     decimal.RequireFromString("88.20"),
		MinimumDue:  decimal.RequireFromString("20"),
		DueDate:     today.AddDate(0, 0, 10),
		Description: "Water Bill",
		Confidence:  ai.ConfidenceHigh,
	}, nil
}

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	out := &bytes.Buffer{}
	return &cli{
		out:       out,
		store:     store,
		today:     func() time.Time { return today },
		extractor: &fakeExtractor{},
	}, out, store
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bill.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAddWithFlags(t *testing.T) {
	c, out, store := newTestCLI(t)
	ctx := context.Background()

	err := c.dispatch(ctx, "add", []string{"-user", "alice", "-balance", "$120", "-due", "2026-10-21", "-desc", "Electric"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	bills, err := store.ListBills(ctx, "alice", "")
	if err != nil || len(bills) != 1 {
		t.Fatalf("expected one bill, got %v, %v", bills, err)
	}
	b := bills[0]
	if b.Balance.StringFixed(2) != "120.00" || b.MinimumDue.StringFixed(2) != "120.00" {
		t.Errorf("expected minimum to default to balance, got %s / %s", b.Balance, b.MinimumDue)
	}
	if *b.Description != "Electric" || b.Status != models.BillStatusUnpaid {
		t.Errorf("unexpected bill %+v", b)
	}
	if c.extractor.(*fakeExtractor).calls != 0 {
		t.Error("extractor must not run when all fields are given")
	}
	if !strings.Contains(out.String(), "Electric") {
		t.Errorf("expected the bill to be printed, got %q", out.String())
	}
}

func TestAddWithExtraction(t *testing.T) {
	c, _, store := newTestCLI(t)
	ctx := context.Background()
	image := writeImage(t)

	// explicit flags win over extracted values
	if err := c.dispatch(ctx, "add", []string{"-user", "bob", "-image", image, "-desc", "City Water"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	bills, _ := store.ListBills(ctx, "bob", "")
	if len(bills) != 1 {
		t.Fatalf("expected one bill, got %d", len(bills))
	}
	b := bills[0]
	if b.Balance.StringFixed(2) != "88.20" || b.MinimumDue.StringFixed(2) != "20.00" {
		t.Errorf("unexpected amounts %s / %s", b.Balance, b.MinimumDue)
	}
	if *b.Description != "City Water" || b.DueDate.Format(models.DateLayout) != "2026-10-26" {
		t.Errorf("unexpected bill %+v", b)
	}
	if b.ImageURL == nil || *b.ImageURL != image {
		t.Errorf("expected image path to be stored, got %v", b.ImageURL)
	}
}

func TestAddErrors(t *testing.T) {
	c, _, _ := newTestCLI(t)
	ctx := context.Background()

	if err := c.dispatch(ctx, "add", []string{"-balance", "10", "-due", "2026-10-20"}); !errors.Is(err, errUsage) {
		t.Errorf("missing user: expected usage error, got %v", err)
	}
	if err := c.dispatch(ctx, "add", []string{"-user", "a", "-balance", "10"}); !errors.Is(err, errUsage) {
		t.Errorf("missing due and image: expected usage error, got %v", err)
	}
	if err := c.dispatch(ctx, "add", []string{"-user", "a", "-balance", "-3", "-due", "2026-10-20"}); err == nil {
		t.Error("negative balance: expected error")
	}
	if err := c.dispatch(ctx, "add", []string{"-user", "a", "-balance", "3", "-due", "20/10/2026"}); err == nil {
		t.Error("bad due date: expected error")
	}

	c.extractor = &fakeExtractor{err: ai.ErrExtractionFailed}
	if err := c.dispatch(ctx, "add", []string{"-user", "a", "-image", writeImage(t)}); !errors.Is(err, ai.ErrExtractionFailed) {
		t.Errorf("expected extraction failure, got %v", err)
	}

	c.extractor = nil
	if err := c.dispatch(ctx, "extract", []string{"-image", writeImage(t)}); err == nil {
		t.Error("expected error without extractor")
	}
}

func TestPayListDelete(t *testing.T) {
	c, out, store := newTestCLI(t)
	ctx := context.Background()

	bill := &models.Bill{
		UserID:     "alice",
		Balance:    decimal.RequireFromString("50"),
		MinimumDue: decimal.RequireFromString("10"),
		DueDate:    today,
	}
	if err := store.CreateBill(ctx, bill); err != nil {
		t.Fatal(err)
	}

	if err := c.dispatch(ctx, "pay", []string{"-user", "mallory", "-id", bill.ID}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found for another user, got %v", err)
	}
	if err := c.dispatch(ctx, "pay", []string{"-user", "alice", "-id", bill.ID}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	got, _ := store.GetBill(ctx, bill.ID, "alice")
	if got.Status != models.BillStatusPaid {
		t.Errorf("expected paid, got %s", got.Status)
	}

	out.Reset()
	if err := c.dispatch(ctx, "list", []string{"-user", "alice", "-status", "unpaid"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "no bills") {
		t.Errorf("expected no unpaid bills, got %q", out.String())
	}
	if err := c.dispatch(ctx, "list", []string{"-user", "alice", "-status", "overdue"}); err == nil {
		t.Error("expected error for unknown status")
	}

	if err := c.dispatch(ctx, "pay", []string{"-user", "alice", "-id", bill.ID, "-undo"}); err != nil {
		t.Fatalf("pay -undo: %v", err)
	}
	got, _ = store.GetBill(ctx, bill.ID, "alice")
	if got.Status != models.BillStatusUnpaid {
		t.Errorf("expected unpaid, got %s", got.Status)
	}

	if err := c.dispatch(ctx, "delete", []string{"-user", "alice", "-id", bill.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetBill(ctx, bill.ID, "alice"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected bill to be gone, got %v", err)
	}
}

func TestToken(t *testing.T) {
	c, out, store := newTestCLI(t)
	ctx := context.Background()

	if err := c.dispatch(ctx, "token", []string{"-user", "alice", "-token", "garbage"}); err != nil {
		t.Fatalf("token: %v", err)
	}
	if !strings.Contains(out.String(), "warning") {
		t.Errorf("expected a warning for an invalid token, got %q", out.String())
	}
	if err := c.dispatch(ctx, "token", []string{"-user", "alice", "-token", "ExponentPushToken[abc]"}); err != nil {
		t.Fatalf("token: %v", err)
	}

	pt, err := store.GetPushToken(ctx, "alice")
	if err != nil || pt.Token != "ExponentPushToken[abc]" {
		t.Errorf("expected the latest token, got %+v, %v", pt, err)
	}
}

type fakeRunner struct {
	day time.Time
}

func (f *fakeRunner) Run(ctx context.Context, d time.Time) (*reminder.Result, error) {
	f.day = d
	return &reminder.Result{
		Message: reminder.SentMessage,
		Count:   2,
		Bills: []reminder.BillSummary{
			{Description: "Electric", Balance: 120, DueDate: "2026-10-21", DaysUntilDue: 5},
			{Description: "Internet", Balance: 60, DueDate: "2026-10-14", DaysUntilDue: -2},
		},
		Reports: []notify.Report{{Channel: notify.ChannelPush, Attempted: 2, Delivered: 1, Skipped: 1}},
	}, nil
}

func TestRun(t *testing.T) {
	c, out, _ := newTestCLI(t)
	runner := &fakeRunner{}
	c.runner = runner

	if err := c.dispatch(context.Background(), "run", []string{"-date", "2026-11-01"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if runner.day.Format(models.DateLayout) != "2026-11-01" {
		t.Errorf("expected the -date value, got %v", runner.day)
	}

	s := out.String()
	for _, want := range []string{"Reminders sent (2)", "Electric", "$120.00", "in 5 days", "2 days overdue", "push"} {
		if !strings.Contains(s, want) {
			t.Errorf("output misses %q:\n%s", want, s)
		}
	}

	if err := c.dispatch(context.Background(), "run", nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !runner.day.Equal(today) {
		t.Errorf("expected today by default, got %v", runner.day)
	}
}

func TestUnknownCommand(t *testing.T) {
	c, _, _ := newTestCLI(t)
	if err := c.dispatch(context.Background(), "frobnicate", nil); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}
