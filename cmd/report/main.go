// Package main provides the report command: it prints a snapshot as a
// table and, optionally, the recent run history of a job.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/SHSHJW/top10-daily/internal/formatter"
	"github.com/SHSHJW/top10-daily/internal/history"
	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/internal/snapshot"
	"github.com/SHSHJW/top10-daily/internal/validator"
	"github.com/SHSHJW/top10-daily/pkg/digest"
)

func main() {
	snapshotPath := flag.String("snapshot", "", "Path to a snapshot JSON file")
	historyPath := flag.String("history", "", "Path to the run history database")
	job := flag.String("job", "", "Only show runs of this job (with -history)")
	limit := flag.Int("limit", 10, "Number of runs to show")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help || (*snapshotPath == "" && *historyPath == "") {
		printUsage()
		os.Exit(0)
	}

	if *snapshotPath != "" {
		if err := printSnapshot(*snapshotPath); err != nil {
			log.Fatalf("❌ %v\n", err)
		}
	}

	if *historyPath != "" {
		if err := printHistory(*historyPath, *job, *limit); err != nil {
			log.Fatalf("❌ %v\n", err)
		}
	}
}

var errNoSnapshot = errors.New("no snapshot file")

// loadSnapshot reads path the way the updater does. A snapshot that
// breaks the contract is still returned, together with the reason.
func loadSnapshot(path string) (snap *models.Snapshot, invalid, err error) {
	snap, err = snapshot.NewStore(path).Read()
	if err == nil {
		if snap == nil {
			return nil, nil, fmt.Errorf("%w at %s", errNoSnapshot, path)
		}

		return snap, nil, nil
	}

	if !errors.Is(err, snapshot.ErrInvalidPrevious) {
		return nil, nil, err
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", readErr)
	}

	parsed, _ := validator.ParseSnapshot(data)
	if parsed == nil {
		return nil, nil, err
	}

	return parsed, err, nil
}

func printSnapshot(path string) error {
	snap, invalid, err := loadSnapshot(path)
	if err != nil {
		return err
	}

	fmt.Printf("📂 %s\n", path)
	fmt.Printf("🕒 Updated: %s\n", snap.UpdatedAt)
	fmt.Printf("🔑 Items hash: %s\n\n", digest.Short(digest.ItemsHash(snap.Items)))

	if len(snap.Items) == 0 {
		fmt.Println("(no items)")
	} else {
		fmt.Print(formatter.FormatItemsTable(snap.Items))
	}

	if invalid != nil {
		fmt.Printf("\n⚠️  The updater would ignore this file: %v\n", invalid)
	}

	return nil
}

func printHistory(path, job string, limit int) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	runs, err := store.Recent(ctx, job, limit)
	if err != nil {
		return err
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Recent runs (%d)\n", len(runs))

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.Job,
			r.Outcome,
			r.Pass + "/" + r.Candidate,
			strconv.Itoa(r.Items),
			strconv.FormatBool(r.Changed),
			strconv.Itoa(r.Attempts),
			r.Duration().Round(time.Millisecond).String(),
			r.Error,
		})
	}

	fmt.Print(formatter.FormatTable(
		[]string{"Started", "Job", "Outcome", "Source", "Items", "Changed", "Attempts", "Took", "Error"},
		rows,
	))

	if job == "" {
		return nil
	}

	last, err := store.LastChange(ctx, job)
	if err != nil {
		return err
	}

	if last != nil {
		fmt.Printf("\n🆕 Last content change: %s (%s)\n", last.FinishedAt.Local().Format(time.DateTime), digest.Short(last.Hash))
	}

	return nil
}

func printUsage() {
	fmt.Println("Usage: ./bin/report [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/report -snapshot data/trends-kr.json")
	fmt.Println("  ./bin/report -history data/history.db -job trends-kr -limit 20")
}
