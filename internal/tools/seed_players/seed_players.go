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

// SeedPlayer is one row of the seed file. Sale fields are never seeded;
// every player starts active.
type SeedPlayer struct {
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	BasePrice int64           `json:"base_price"`
	Stats     json.RawMessage `json:"stats,omitempty"`
}

func main() {
	ctx := context.Background()

	path := "assets/players.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var players []SeedPlayer
	if err := json.Unmarshal(data, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal players: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	total, inserted, skipped, errs := len(players), 0, 0, 0
	for _, p := range players {
		if p.Name == "" || p.BasePrice < 0 {
			fmt.Fprintf(os.Stderr, "skipping invalid row %q\n", p.Name)
			errs++
			continue
		}

		// Re-running the seed must not duplicate the pool.
		tag, err := pool.Exec(ctx, `
            INSERT INTO players (id, name, role, base_price, status, stats)
            SELECT $1, $2, $3, $4, 'active', $5
            WHERE NOT EXISTS (SELECT 1 FROM players WHERE name = $2)`,
			uuid.New(), p.Name, p.Role, p.BasePrice, p.Stats,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert %q: %v\n", p.Name, err)
			errs++
			continue
		}
		if tag.RowsAffected() == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Printf("players: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
