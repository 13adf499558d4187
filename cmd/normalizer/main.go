// Package main provides the normalizer command-line tool for replaying a
// saved upstream body through the decode, extract and normalize stages.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/SHSHJW/top10-daily/internal/crawler/parsers"
	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/internal/normalizer"
)

func main() {
	inputPath := flag.String("file", "", "Path to a saved response body (e.g., data/debug/trends-kr-raw.txt)")
	format := flag.String("format", string(models.FormatJSONAPI), "Body format: json_api, rss, atom, json_in_html")
	itemPath := flag.String("item-path", "", "Dot path to the items array")
	keys := flag.String("keys", "", "Comma-separated array key names for the tree search")
	scriptID := flag.String("script-id", "", "Embedded script id (json_in_html)")
	baseURL := flag.String("base-url", "", "Origin used to resolve relative links")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: normalizer -file <body.txt> -format <format> [-item-path p] [-keys a,b]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := models.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	content, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	candidate := models.SourceCandidate{
		Name:     "replay",
		URL:      *baseURL,
		Format:   f,
		ItemPath: *itemPath,
		ScriptID: *scriptID,
		ItemKeys: splitKeys(*keys),
	}

	doc, err := parsers.Decode(string(content), f, *scriptID)
	if err != nil {
		log.Fatalf("❌ Decode failed: %v\n", err)
	}

	raw, err := parsers.Extract(doc, candidate)
	if err != nil {
		log.Fatalf("❌ Extract failed: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "🔍 Located %d raw items\n", len(raw))

	items, err := normalizer.NewProcessor().Process(raw, candidate)
	if err != nil {
		log.Fatalf("❌ Normalize failed: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "📊 Normalized %d items\n", len(items))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(items); err != nil {
		log.Fatalf("Error writing output: %v\n", err)
	}
}

func splitKeys(s string) []string {
	var out []string

	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}

	return out
}
