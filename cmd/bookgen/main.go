package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gafniasaf/bookgen/internal/api"
	"github.com/gafniasaf/bookgen/internal/config"
	"github.com/gafniasaf/bookgen/internal/engine"
	"github.com/gafniasaf/bookgen/internal/pipeline"
)

// Exit codes of the run subcommand.
const (
	exitOK       = 0
	exitError    = 1
	exitQAFailed = 2
	exitNoBody   = 3
)

const usage = `usage:
  bookgen run -doc <path> [-start re] [-end re] [-labels a,b] [-report-dir dir] [-out path | -write] [-v]
  bookgen serve
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitError
	}
	switch args[0] {
	case "run":
		return runDocument(args[1:], stdout, stderr)
	case "serve":
		return serve(stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
	return exitError
}

// runDocument processes one document and maps the outcome to an exit code.
func runDocument(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		docPath   = fs.String("doc", "", "document to process")
		start     = fs.String("start", cfg.StartAnchor, "start anchor expression")
		end       = fs.String("end", cfg.EndAnchor, "end anchor expression")
		labels    = fs.String("labels", "", "comma-separated heading labels (overrides HEADING_LABELS)")
		reportDir = fs.String("report-dir", cfg.ReportDir, "directory for the run report")
		out       = fs.String("out", "", "write the normalized document to this path")
		write     = fs.Bool("write", false, "save the normalized document over the input")
		verbose   = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *docPath == "" {
		fmt.Fprintln(stderr, "run: -doc is required")
		return exitError
	}
	if *out != "" && *write {
		fmt.Fprintln(stderr, "run: -out and -write are mutually exclusive")
		return exitError
	}
	if *labels != "" {
		cfg.HeadingLabels = config.SplitList(*labels)
	}
	cfg.StartAnchor, cfg.EndAnchor, cfg.ReportDir = *start, *end, *reportDir
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "run: %v\n", err)
		return exitError
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(log)
	eng.PDFFallback = cfg.PDFFallbackPdftotext
	doc, err := eng.Open(ctx, *docPath)
	if err != nil {
		log.Error("open failed", "error", err)
		return exitError
	}

	runner, err := pipeline.NewRunner(doc, nil, pipeline.Options{
		StartAnchor: cfg.StartAnchor,
		EndAnchor:   cfg.EndAnchor,
		Passes:      cfg.PassOptions(),
		ReportDir:   cfg.ReportDir,
	}, log)
	if err != nil {
		log.Error("runner setup failed", "error", err)
		return exitError
	}
	reportPath, runErr := runner.Execute(ctx)
	if reportPath != "" {
		fmt.Fprintln(stdout, reportPath)
	}

	if runErr == nil || errors.Is(runErr, pipeline.ErrQAFailed) {
		var saveErr error
		switch {
		case *out != "":
			saveErr = eng.SaveAs(doc, *out)
		case *write:
			saveErr = eng.Close(doc, false)
		default:
			saveErr = eng.Close(doc, true)
		}
		if saveErr != nil {
			log.Error("save failed", "error", saveErr)
			if runErr == nil {
				return exitError
			}
		}
	}

	switch {
	case runErr == nil:
		log.Info("run complete", "outcome", runner.Report().Outcome(), "report", reportPath)
		return exitOK
	case errors.Is(runErr, pipeline.ErrQAFailed):
		log.Error("QA failed", "error", runErr, "report", reportPath)
		return exitQAFailed
	case errors.Is(runErr, pipeline.ErrNoBodyStory):
		log.Error("no body story", "report", reportPath)
		return exitNoBody
	default:
		log.Error("run failed", "error", runErr, "report", reportPath)
		return exitError
	}
}

// serve runs the HTTP service until SIGINT or SIGTERM.
func serve(stdout io.Writer) int {
	log := slog.New(slog.NewJSONHandler(stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServe(); err != nil {
		log.Error("invalid configuration", "error", err)
		return exitError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(log)
	eng.PDFFallback = cfg.PDFFallbackPdftotext

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, eng, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting bookgen", "port", cfg.Port, "workers", cfg.WorkerCount, "report_dir", cfg.ReportDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		return exitError
	}
	<-stopped
	return exitOK
}
