// Package main provides the updater command: it refreshes every enabled
// ranked-list snapshot once and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SHSHJW/top10-daily/internal/config"
	"github.com/SHSHJW/top10-daily/internal/history"
	"github.com/SHSHJW/top10-daily/internal/logger"
	"github.com/SHSHJW/top10-daily/internal/metrics"
	"github.com/SHSHJW/top10-daily/internal/pipeline"
	"github.com/SHSHJW/top10-daily/pkg/digest"
)

const defaultConfigPath = "configs/updater.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to YAML configuration file (default: configs/updater.yaml, else built-in jobs)")
	jobName := flag.String("job", "", "Run only the named job")
	output := flag.String("output", "", "Output JSON file path (overrides config, requires -job)")
	timeout := flag.Duration("timeout", 0, "Overall run deadline per job (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	envFile := flag.String("env-file", "", "Load environment variables from this file")
	writeConfig := flag.String("write-config", "", "Write the resolved configuration to this path and exit")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()

		return 0
	}

	if err := config.LoadEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load env file: %v\n", err)

		return 1
	}

	cfg, source, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)

		return 1
	}

	if *logLevel != "" {
		cfg.Updater.Logging.Level = *logLevel
	}

	if *writeConfig != "" {
		if err := cfg.SaveConfig(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)

			return 1
		}

		fmt.Printf("✅ Configuration written to %s\n", *writeConfig)

		return 0
	}

	log := logger.New(os.Stderr, cfg.Updater.Logging.Level, cfg.Updater.Logging.Format)
	log.Info("⚙️  Configuration loaded", "source", source, "config", cfg.String())

	jobs, err := selectJobs(cfg, *jobName, *output, *timeout)
	if err != nil {
		log.Error("❌ Invalid job selection", "error", err)

		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := pipeline.DepsFromConfig(cfg, log)

	if cfg.Updater.Metrics.Textfile != "" {
		deps.Metrics = metrics.NewRecorder()
	}

	if cfg.Updater.History.Path != "" {
		store, openErr := history.Open(cfg.Updater.History.Path)
		if openErr != nil {
			log.Warn("⚠️  Run history disabled", "error", openErr)
		} else {
			defer store.Close()

			deps.History = store
		}
	}

	reports, runErr := pipeline.RunAll(ctx, jobs, deps)

	if deps.Metrics != nil {
		if err := deps.Metrics.WriteTextfile(cfg.Updater.Metrics.Textfile); err != nil {
			log.Warn("⚠️  Could not write metrics", "error", err)
		}
	}

	printSummary(reports)

	if runErr != nil {
		log.Error("❌ Snapshot persistence failed", "error", runErr)

		return 1
	}

	return 0
}

// loadConfig resolves the explicit file, then the default path, then the
// built-in jobs.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadConfig(path)

		return cfg, path, err
	}

	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.LoadConfig(defaultConfigPath)

		return cfg, defaultConfigPath, err
	}

	cfg := config.Default()

	return cfg, "built-in defaults", cfg.Validate()
}

var errOutputWithoutJob = errors.New("-output requires -job")

func selectJobs(cfg *config.Config, name, output string, timeout time.Duration) ([]config.JobConfig, error) {
	if output != "" && name == "" {
		return nil, errOutputWithoutJob
	}

	var jobs []config.JobConfig

	if name != "" {
		job, ok := cfg.GetJob(name)
		if !ok {
			return nil, fmt.Errorf("unknown job %q", name)
		}

		jobs = []config.JobConfig{job}
	} else {
		jobs = cfg.GetEnabledJobs()
	}

	for i := range jobs {
		if output != "" {
			jobs[i].Output = output
		}

		if timeout > 0 {
			jobs[i].TimeoutSec = max(1, int(timeout.Round(time.Second)/time.Second))
		}
	}

	return jobs, nil
}

func printSummary(reports []*pipeline.Report) {
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")

	for _, r := range reports {
		emoji := "✅"

		switch r.Outcome {
		case pipeline.OutcomePreserved, pipeline.OutcomeEmpty:
			emoji = "⚠️ "
		case pipeline.OutcomeFailed:
			emoji = "❌"
		case pipeline.OutcomeFresh:
		}

		fmt.Printf("%s %-14s %-9s items=%-2d changed=%-5t source=%s/%s hash=%s (%v)\n",
			emoji, r.Job, r.Outcome, r.Items, r.Changed, r.Pass, r.Candidate, digest.Short(r.Hash),
			r.Duration().Round(time.Millisecond))

		if r.LastError != "" && r.Outcome != pipeline.OutcomeFresh {
			fmt.Printf("   last error: %s\n", r.LastError)
		}
	}

	fmt.Println("------------------------------------------------")
}

func printUsage() {
	fmt.Println(`Top10 Updater - refresh ranked-list snapshots

Usage:
  updater [options]

Options:
  -config string     Path to YAML configuration file
  -job string        Run only the named job
  -output string     Output JSON path (with -job)
  -timeout duration  Overall deadline per job, e.g. 90s
  -log-level string  debug, info, warn or error
  -env-file string   Environment file to load (default: .env.local, .env)
  -write-config path Write the resolved configuration (YAML) and exit
  -help              Show this help message

Examples:
  # Run every enabled job from configs/updater.yaml (or the built-in jobs)
  updater

  # Refresh only the trends snapshot into a custom file
  updater -job trends-kr -output ./public/trends.json

Exit status is 0 when every snapshot was written, including runs that kept
the previous items, and 1 on configuration or write failures.`)
}
