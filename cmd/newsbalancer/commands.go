package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"NewsBalancer/internal/app"
	"NewsBalancer/internal/config"
	"NewsBalancer/internal/logging"
)

// interruptContext is cancelled by the first of signals. Later signals get
// the default behaviour, so a second Ctrl-C kills a run that is finishing
// its current article.
func interruptContext(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, signals...)
	releaseOnDone(ctx, stop)
	return ctx, stop
}

// releaseOnDone calls stop as soon as ctx is done.
func releaseOnDone(ctx context.Context, stop func()) {
	go func() {
		<-ctx.Done()
		stop()
	}()
}

// open loads configuration and builds the application. The returned context
// is cancelled on SIGINT or SIGTERM.
func open() (context.Context, context.CancelFunc, *app.Application, *slog.Logger, error) {
	ctx, stop := interruptContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		stop()
		return nil, nil, nil, nil, err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		stop()
		return nil, nil, nil, nil, err
	}
	return ctx, stop, application, logger, nil
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Maximum number of articles to process (0 = all)")
	skipCheck := fs.Bool("skip-access-check", false, "Do not ask the backend about web access before the batch")
	fs.Parse(args)

	if *limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	ctx, stop, application, logger, err := open()
	if err != nil {
		return err
	}
	defer stop()
	defer application.Close()

	report, err := application.Run(ctx, *limit, !*skipCheck)
	if err != nil {
		return err
	}
	if report.Interrupted {
		logger.Warn("stopped by signal", "processed", report.Processed, "total", report.Total)
	}
	fmt.Printf("Processed %d of %d articles (relevant %d, not relevant %d, errors %d)\n",
		report.Processed, report.Total, report.Relevant, report.NotRelevant, report.Errored)
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	ctx, stop, application, _, err := open()
	if err != nil {
		return err
	}
	defer stop()
	defer application.Close()

	stats, err := application.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Total:          %d\n", stats.Total)
	fmt.Printf("Unprocessed:    %d\n", stats.Unprocessed)
	fmt.Printf("Relevant:       %d\n", stats.Relevant)
	fmt.Printf("Not relevant:   %d\n", stats.NotRelevant)
	fmt.Printf("Progress:       %.1f%%\n", stats.Progress())
	return nil
}

func runReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: newsbalancer reset [id ...]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	ctx, stop, application, _, err := open()
	if err != nil {
		return err
	}
	defer stop()
	defer application.Close()

	n, err := application.Reset(ctx, fs.Args()...)
	if err != nil {
		return err
	}
	fmt.Printf("Requeued %d articles\n", n)
	return nil
}

func runProbe(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	fs.Parse(args)

	ctx, stop, application, _, err := open()
	if err != nil {
		return err
	}
	defer stop()
	defer application.Close()

	ok, err := application.Probe(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Println("Web access: available")
	} else {
		fmt.Println("Web access: unavailable (research relies on model knowledge)")
	}
	return nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(args)

	ctx, stop, application, _, err := open()
	if err != nil {
		return err
	}
	defer stop()
	defer application.Close()

	return application.Migrate(ctx)
}
