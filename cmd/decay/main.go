// Command decay runs one respect decay batch and exits. It exists for
// external schedulers (cron, k8s CronJob) and operational reruns; the server
// binary can also run the batch in-process via DECAY_SCHEDULE.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/coffeeaccount/respect-service/internal/database"
	"github.com/coffeeaccount/respect-service/internal/respect"
)

const dryRunChunkSize = 500

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL (or set DATABASE_URL env)")
		percent     = flag.Float64("percent", 0.05, "Decay percentage within [0, 1]")
		dryRun      = flag.Bool("dry-run", false, "Report what would be decayed without writing")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL required (--database or DATABASE_URL env)")
	}
	if *percent < 0 || *percent > 1 {
		log.Fatalf("Percent must be within [0, 1], got %v", *percent)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx := context.Background()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := database.Connect(connectCtx, *databaseURL)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := database.NewLedgerRepo(pool)

	if *dryRun {
		if err := reportDryRun(ctx, repo, *percent); err != nil {
			log.Fatalf("Dry run failed: %v", err)
		}
		return
	}

	engine := respect.NewEngine(repo, clockwork.NewRealClock())
	affected, err := engine.ApplyMonthlyDecay(ctx, *percent)
	if err != nil {
		log.Fatalf("Decay failed after %d users: %v", affected, err)
	}
	slog.Info("Decay complete", "affected_users", affected, "percent", *percent)
}

// reportDryRun walks the positive balances and logs the projected deltas
// without writing anything.
func reportDryRun(ctx context.Context, repo *database.LedgerRepo, percent float64) error {
	var (
		after       uuid.UUID
		users       int
		totalPoints int
	)

	slog.Info("Starting dry run", "percent", percent)

	for {
		batch, err := repo.ListPositiveBalances(ctx, after, dryRunChunkSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		for _, b := range batch {
			delta := respect.DecayAmount(b.Respect, percent)
			slog.Debug("Would decay user",
				"user_id", b.UserID, "respect", b.Respect, "delta", -delta)
			users++
			totalPoints += delta
		}

		after = batch[len(batch)-1].UserID
		if len(batch) < dryRunChunkSize {
			break
		}
	}

	slog.Info("Dry run summary", "affected_users", users, "total_points_removed", totalPoints)
	return nil
}
