package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hray3182/BillMe/internal/ai"
	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/notify"
	"github.com/hray3182/BillMe/internal/reminder"
	"github.com/hray3182/BillMe/internal/repository"
)

type jobRunner interface {
	Run(ctx context.Context, today time.Time) (*reminder.Result, error)
}

type cli struct {
	out       io.Writer
	store     repository.Store
	runner    jobRunner
	today     func() time.Time
	extractor ai.Extractor
}

var errUsage = errors.New("invalid usage")

func (c *cli) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "run":
		return c.run(ctx, args)
	case "extract":
		return c.extract(ctx, args)
	case "add":
		return c.add(ctx, args)
	case "list":
		return c.list(ctx, args)
	case "pay":
		return c.pay(ctx, args)
	case "delete":
		return c.delete(ctx, args)
	case "token":
		return c.token(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *cli) run(ctx context.Context, args []string) error {
	fs := c.flags("run")
	date := fs.String("date", "", "run as if today were this date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	today := c.today()
	if *date != "" {
		d, err := time.Parse(models.DateLayout, *date)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		today = d
	}

	res, err := c.runner.Run(ctx, today)
	if err != nil {
		return err
	}
	renderResult(c.out, res)
	return nil
}

func (c *cli) extract(ctx context.Context, args []string) error {
	fs := c.flags("extract")
	image := fs.String("image", "", "bill image file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *image == "" {
		return fmt.Errorf("%w: -image is required", errUsage)
	}

	e, err := c.extractImage(ctx, *image)
	if err != nil {
		return err
	}
	renderExtraction(c.out, e)
	return nil
}

func (c *cli) extractImage(ctx context.Context, path string) (*ai.Extraction, error) {
	if c.extractor == nil {
		return nil, errors.New("AI extractor not configured (set AI_API_KEY)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return c.extractor.Extract(ctx, data, "")
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs := c.flags("add")
	user := fs.String("user", "", "owner user id")
	image := fs.String("image", "", "bill image file, extracted when amounts or due date are missing")
	balance := fs.String("balance", "", "total balance")
	minimum := fs.String("min", "", "minimum due (defaults to the balance)")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("%w: -user is required", errUsage)
	}

	patch, err := patchFromFlags(fs, *balance, *minimum, *due, *desc)
	if err != nil {
		return err
	}

	base := models.Bill{UserID: *user, Status: models.BillStatusUnpaid}
	if patch.Balance == nil || patch.DueDate == nil {
		if *image == "" {
			return fmt.Errorf("%w: -image is required when -balance or -due is missing", errUsage)
		}
		e, err := c.extractImage(ctx, *image)
		if err != nil {
			return err
		}
		base = *e.Bill(*user)
	} else if patch.MinimumDue == nil {
		patch.MinimumDue = patch.Balance
	}
	if *image != "" {
		patch.ImageURL = image
	}

	bill := patch.Apply(base)
	if err := c.store.CreateBill(ctx, &bill); err != nil {
		return err
	}
	renderBills(c.out, []*models.Bill{&bill})
	return nil
}

// patchFromFlags keeps only the flags that were passed explicitly.
func patchFromFlags(fs *flag.FlagSet, balance, minimum, due, desc string) (models.BillPatch, error) {
	var patch models.BillPatch
	var err error

	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "balance":
			patch.Balance, err = parseAmount("balance", balance)
		case "min":
			patch.MinimumDue, err = parseAmount("min", minimum)
		case "due":
			var d time.Time
			d, err = time.Parse(models.DateLayout, due)
			if err != nil {
				err = fmt.Errorf("invalid -due: %w", err)
				return
			}
			patch.DueDate = &d
		case "desc":
			s := strings.TrimSpace(desc)
			patch.Description = &s
		}
	})
	return patch, err
}

func parseAmount(name, raw string) (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid -%s: must not be negative", name)
	}
	return &d, nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	user := fs.String("user", "", "owner user id")
	status := fs.String("status", "", "paid or unpaid (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("%w: -user is required", errUsage)
	}

	var st models.BillStatus
	if *status != "" {
		var err error
		if st, err = models.ParseBillStatus(*status); err != nil {
			return err
		}
	}

	bills, err := c.store.ListBills(ctx, *user, st)
	if err != nil {
		return err
	}
	renderBills(c.out, bills)
	return nil
}

func (c *cli) pay(ctx context.Context, args []string) error {
	fs := c.flags("pay")
	user := fs.String("user", "", "owner user id")
	id := fs.String("id", "", "bill id")
	undo := fs.Bool("undo", false, "mark the bill unpaid again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *id == "" {
		return fmt.Errorf("%w: -user and -id are required", errUsage)
	}

	bill, err := c.store.GetBill(ctx, *id, *user)
	if err != nil {
		return err
	}

	status := models.BillStatusPaid
	if *undo {
		status = models.BillStatusUnpaid
	}
	updated := models.BillPatch{Status: &status}.Apply(*bill)
	if err := c.store.UpdateBill(ctx, &updated); err != nil {
		return err
	}
	renderBills(c.out, []*models.Bill{&updated})
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := c.flags("delete")
	user := fs.String("user", "", "owner user id")
	id := fs.String("id", "", "bill id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *id == "" {
		return fmt.Errorf("%w: -user and -id are required", errUsage)
	}

	if err := c.store.DeleteBill(ctx, *id, *user); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted bill %s\n", *id)
	return nil
}

func (c *cli) token(ctx context.Context, args []string) error {
	fs := c.flags("token")
	user := fs.String("user", "", "owner user id")
	token := fs.String("token", "", "Expo push token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *token == "" {
		return fmt.Errorf("%w: -user and -token are required", errUsage)
	}

	t := strings.TrimSpace(*token)
	if !notify.IsExpoPushToken(t) {
		fmt.Fprintf(c.out, "warning: %q is not an Expo push token, reminders will skip it\n", t)
	}
	pt, err := c.store.UpsertPushToken(ctx, *user, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered push token for %s\n", pt.UserID)
	return nil
}
