package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cycleranking/config"
	"cycleranking/internal/database"
	"cycleranking/models"
	"cycleranking/services/ranking"
)

func main() {
	configPath := flag.String("config", "data/settings.json", "path to settings.json")
	date := flag.String("date", "", "reference date (YYYY-MM-DD), defaults to today")
	disciplines := flag.String("disciplines", "", "comma separated disciplines, defaults to all")
	flag.Parse()

	var reference time.Time
	if *date != "" {
		t, err := time.ParseInLocation(models.SnapshotDateLayout, *date, time.UTC)
		if err != nil {
			fmt.Fprintln(os.Stderr, "usage: recalculate [-config settings.json] [-date YYYY-MM-DD] [-disciplines road,gravel]")
			os.Exit(2)
		}
		reference = t
	}

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	svc := ranking.NewService(db.Repository, config.ToRankingOptions(settings.Ranking))
	summary, runErr := svc.Recalculate(context.Background(), reference, splitList(*disciplines))
	if summary != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summary)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		if errors.Is(runErr, ranking.ErrRunInProgress) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
