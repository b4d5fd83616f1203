package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

type Summary struct {
	Sessions int `json:"sessions"`
	Puzzles  int `json:"puzzles"`
	Stalled  int `json:"stalled"`
	Moves    int `json:"moves"`
	Checks   int `json:"checks"`
	Solved   int `json:"solved"`
	Archived int `json:"archived"`
}

// PuzzleRow summarizes one puzzle of one session.
type PuzzleRow struct {
	Session     string `json:"session"`
	Puzzle      uint64 `json:"puzzle"`
	TargetCubes int    `json:"target_cubes"`
	PlayerCubes int    `json:"player_cubes"`
	Moves       int    `json:"moves"`
	Checks      int    `json:"checks"`
	Solved      bool   `json:"solved"`
}

// OpenReader opens an existing index for queries. It does not create or migrate anything.
func OpenReader(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func QuerySummary(ctx context.Context, db *sql.DB) (Summary, error) {
	var s Summary
	counts := []struct {
		dst *int
		q   string
	}{
		{&s.Sessions, `SELECT COUNT(DISTINCT session) FROM puzzles`},
		{&s.Puzzles, `SELECT COUNT(*) FROM puzzles`},
		{&s.Stalled, `SELECT COUNT(*) FROM puzzles WHERE stalled=1`},
		{&s.Moves, `SELECT COUNT(*) FROM moves`},
		{&s.Checks, `SELECT COUNT(*) FROM checks`},
		{&s.Solved, `SELECT COUNT(*) FROM (SELECT DISTINCT session, puzzle FROM checks WHERE solved=1)`},
		{&s.Archived, `SELECT COUNT(*) FROM solved`},
	}
	for _, c := range counts {
		if err := db.QueryRowContext(ctx, c.q).Scan(c.dst); err != nil {
			return Summary{}, fmt.Errorf("summary: %w", err)
		}
	}
	return s, nil
}

// QueryPuzzles lists the most recently started puzzles, newest first.
func QueryPuzzles(ctx context.Context, db *sql.DB, limit int) ([]PuzzleRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT p.session, p.puzzle, p.target_cubes, p.player_cubes,
			(SELECT COUNT(*) FROM moves m WHERE m.session=p.session AND m.puzzle=p.puzzle),
			(SELECT COUNT(*) FROM checks c WHERE c.session=p.session AND c.puzzle=p.puzzle),
			(SELECT COUNT(*) FROM checks c WHERE c.session=p.session AND c.puzzle=p.puzzle AND c.solved=1)
		FROM puzzles p
		ORDER BY p.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PuzzleRow
	for rows.Next() {
		var (
			r      PuzzleRow
			puzzle int64
			solved int
		)
		if err := rows.Scan(&r.Session, &puzzle, &r.TargetCubes, &r.PlayerCubes, &r.Moves, &r.Checks, &solved); err != nil {
			return nil, err
		}
		r.Puzzle = uint64(puzzle)
		r.Solved = solved > 0
		out = append(out, r)
	}
	return out, rows.Err()
}
