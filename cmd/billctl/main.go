// Command billctl is the operator CLI: it runs the reminder job once and
// manages bills and push tokens directly in the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hray3182/BillMe/internal/app"
	"github.com/hray3182/BillMe/internal/config"
	"github.com/hray3182/BillMe/internal/logging"
)

const usage = `usage: billctl [-config file] <command> [flags]

commands:
  run     [-date YYYY-MM-DD]               run the reminder job once
  extract -image FILE                      extract bill details from an image
  add     -user ID [-image FILE] [-balance N -min N -due YYYY-MM-DD -desc TEXT]
                                           create a bill
  list    -user ID [-status paid|unpaid]   list a user's bills
  pay     -user ID -id BILL [-undo]        mark a bill paid (or unpaid)
  delete  -user ID -id BILL                delete a bill
  token   -user ID -token TOKEN            register a push token
`

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cfg, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "billctl %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, cfg *config.Config, name string, args []string) error {
	c := &cli{out: os.Stdout}

	// only the job needs the delivery channels
	if name == "run" {
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		c.store, c.runner, c.today = a.Store, a.Scheduler, a.Scheduler.Today
	} else {
		store, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		c.store = store
	}
	c.extractor = app.NewExtractor(cfg)

	return c.dispatch(ctx, name, args)
}
