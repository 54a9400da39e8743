package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/db"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|to|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory for create and validate")
	name := flag.String("name", "", "description of the new migration (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (to)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	// file-only commands run without config or a database
	switch *cmd {
	case "create":
		path, err := migrate.Create(*dir, *name, time.Now())
		exitOn(err, "create migration")
		fmt.Println("created", path)
		return
	case "validate":
		exitOn(migrate.Validate(os.DirFS(*dir)), "validate migrations")
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(logg, "sql database", err)

	runner, err := migrate.NewRunner(sqlDB, migrate.Migrations(), logg)
	requireResource(logg, "goose provider", err)

	switch *cmd {
	case "up":
		exitOn(runner.Up(ctx), "migrate up")
	case "down":
		exitOn(runner.Down(ctx), "migrate down")
	case "to":
		target, err := strconv.ParseInt(*version, 10, 64)
		exitOn(err, "parse -version")
		exitOn(runner.To(ctx, target), "migrate to version")
	case "status":
		statuses, err := runner.Status(ctx)
		exitOn(err, "migration status")
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, st := range statuses {
			applied := "-"
			if !st.AppliedAt.IsZero() {
				applied = st.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, st.Source.Path)
		}
		_ = tw.Flush()
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(2)
	}
}

func exitOn(err error, what string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
