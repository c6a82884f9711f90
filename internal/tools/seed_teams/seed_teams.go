package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/dbconfig"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedTeam is one row of the seed file. The remaining budget always starts
// equal to the budget.
type SeedTeam struct {
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
}

func main() {
	ctx := context.Background()

	path := "assets/teams.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var teams []SeedTeam
	if err := json.Unmarshal(data, &teams); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal teams: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	total, inserted, skipped, errs := len(teams), 0, 0, 0
	for _, t := range teams {
		if t.Name == "" || t.Budget <= 0 {
			fmt.Fprintf(os.Stderr, "skipping invalid row %q\n", t.Name)
			errs++
			continue
		}

		tag, err := pool.Exec(ctx, `
            INSERT INTO teams (id, name, budget, remaining_budget)
            SELECT $1, $2, $3, $3
            WHERE NOT EXISTS (SELECT 1 FROM teams WHERE name = $2)`,
			uuid.New(), t.Name, t.Budget,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert %q: %v\n", t.Name, err)
			errs++
			continue
		}
		if tag.RowsAffected() == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Printf("teams: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
