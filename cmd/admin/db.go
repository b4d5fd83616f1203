package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cubecheck.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/cubecheck.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "summary"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "cubecheck.sqlite")
	}
	db, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	switch q {
	case "summary":
		s, err := indexdb.QuerySummary(ctx, db)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		_ = enc.Encode(s)
	case "puzzles":
		rows, err := indexdb.QueryPuzzles(ctx, db, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			_ = enc.Encode(r)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want summary|puzzles)")
		os.Exit(2)
	}
}
