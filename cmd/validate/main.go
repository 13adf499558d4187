// Package main provides the validate command: it checks snapshot files
// against the output contract and, optionally, an expected items hash.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SHSHJW/top10-daily/internal/validator"
	"github.com/SHSHJW/top10-daily/pkg/digest"
)

func main() {
	expect := flag.String("expect-hash", "", "Fail unless the items hash matches (full hex digest)")
	quiet := flag.Bool("q", false, "Only print failures")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: validate [-expect-hash h] [-q] <snapshot.json>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	failed := 0

	for _, path := range flag.Args() {
		if !check(path, *expect, *quiet) {
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("\n❌ %d of %d snapshots failed validation\n", failed, flag.NArg())
		os.Exit(1)
	}
}

func check(path, expect string, quiet bool) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ %s: %v\n", path, err)

		return false
	}

	snap, result := validator.ParseSnapshot(data)
	if !result.IsValid {
		fmt.Printf("❌ %s\n", path)

		for _, e := range result.Errors {
			fmt.Printf("   - %v\n", e)
		}

		return false
	}

	if expect != "" {
		if err := digest.Verify(snap.Items, expect); err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)

			return false
		}
	}

	if quiet {
		return true
	}

	fmt.Printf("✅ %s (%d items, hash %s)\n", path, result.Stats.TotalItems, digest.Short(digest.ItemsHash(snap.Items)))

	for _, w := range result.Warnings {
		fmt.Printf("   ⚠️  %s\n", w)
	}

	return true
}
