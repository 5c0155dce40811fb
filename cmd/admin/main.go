package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"fintrax/internal/domain/goal"
	"fintrax/internal/infrastructure/postgres"
	"fintrax/internal/shared/config"
	"fintrax/internal/shared/logger"
)

const usage = `Fintrax Admin CLI - Management commands for the Fintrax API

Usage:
  admin <command> [options]

Commands:
  migrate up|down|version   Apply, roll back one step, or show the schema version
  reconcile-goals           Check that every goal balance matches its contribution history

Examples:
  # Apply all pending migrations
  admin migrate up

  # Audit the goals of one owner
  admin reconcile-goals --owner=1234567890

  # Audit several owners
  admin reconcile-goals --owner=1234567890,0987654321

  # Audit every owner with more workers
  admin reconcile-goals --all --workers=8 --timeout=1h
`

// exitDrift is the status reconcile-goals exits with when it finds drift.
const exitDrift = 2

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate(os.Args[2:])
	case "reconcile-goals":
		os.Exit(runReconcile(os.Args[2:]))
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runMigrate(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: admin migrate up|down|version")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	m, err := postgres.NewMigrator(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
	default:
		fmt.Printf("Unknown migrate action: %s\n", args[0])
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Migration %s failed: %v", args[0], err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	fmt.Printf("Schema version: %d (dirty: %v)\n", version, dirty)
}

func runReconcile(args []string) int {
	fs := flag.NewFlagSet("reconcile-goals", flag.ExitOnError)

	ownersStr := fs.String("owner", "", "Owner document(s) to audit (comma-separated for multiple)")
	allOwners := fs.Bool("all", false, "Audit every owner that has goals")
	workers := fs.Int("workers", goal.DefaultReconcileWorkers, "Number of concurrent workers")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin reconcile-goals [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *ownersStr == "" && !*allOwners {
		fmt.Println("Error: must specify --owner or --all")
		fs.Usage()
		return 1
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{MaxOpenConns: *workers + 1})
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	reconciler := goal.NewReconciler(postgres.NewGoalAuditRepository(db), *workers)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var owners []string
	if *allOwners {
		owners, err = reconciler.Owners(ctx)
		if err != nil {
			zl.Fatal("failed to list owners", zap.Error(err))
		}
		zl.Info("found goal owners", zap.Int("count", len(owners)))
	} else {
		owners = parseOwners(*ownersStr)
	}

	if len(owners) == 0 {
		zl.Info("no owners to process")
		return 0
	}

	zl.Info("starting goal reconciliation", zap.Int("owners", len(owners)), zap.Int("workers", *workers))
	start := time.Now()

	results, err := reconciler.ReconcileOwners(ctx, owners)
	if err != nil {
		zl.Error("reconciliation interrupted", zap.Error(err))
	}

	drifted := printResults(os.Stdout, owners, results)
	zl.Info("goal reconciliation completed", zap.Duration("elapsed", time.Since(start)), zap.Int("owners_with_drift", drifted))

	switch {
	case err != nil:
		return 1
	case drifted > 0:
		return exitDrift
	}
	return 0
}

func parseOwners(raw string) []string {
	var owners []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(owners, p) {
			owners = append(owners, p)
		}
	}
	return owners
}

// printResults writes one block per owner in input order and reports how many
// owners had drift or failed.
func printResults(w io.Writer, owners []string, results map[string]*goal.ReconcileResult) int {
	drifted := 0
	for _, owner := range owners {
		res, ok := results[owner]
		if !ok {
			continue
		}

		fmt.Fprintf(w, "\n=== Owner %s ===\n", owner)
		if res.Err != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Err)
			drifted++
			continue
		}
		fmt.Fprintf(w, "  Goals checked: %d\n", res.GoalsChecked)
		fmt.Fprintf(w, "  Drifted goals: %d\n", len(res.Drifts))
		for _, d := range res.Drifts {
			fmt.Fprintf(w, "    - #%d %s: stored %s, history %s (diff %s)\n",
				d.GoalID, d.Name, d.Stored.StringFixed(2), d.Expected.StringFixed(2), d.Diff.StringFixed(2))
		}
		if len(res.Drifts) > 0 {
			drifted++
		}
	}
	return drifted
}
