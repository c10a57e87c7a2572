package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cycleranking/config"
	"cycleranking/internal/database"
	"cycleranking/models"
	"cycleranking/services/ranking"
)

func main() {
	configPath := flag.String("config", "data/settings.json", "path to settings.json")
	date := flag.String("date", "", "snapshot date (YYYY-MM-DD), defaults to the current ranking")
	clubs := flag.Bool("clubs", false, "dump the club ranking instead of riders")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dumpranking [-config settings.json] [-date YYYY-MM-DD] [-clubs] <discipline>")
		os.Exit(1)
	}

	var at *time.Time
	if *date != "" {
		t, err := time.ParseInLocation(models.SnapshotDateLayout, *date, time.UTC)
		if err != nil {
			panic(err)
		}
		at = &t
	}

	settings, err := config.NewManager(*configPath).Load()
	if err != nil {
		panic(err)
	}
	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		panic(err)
	}
	defer db.Close()

	svc := ranking.NewService(db.Repository, config.ToRankingOptions(settings.Ranking))
	ctx := context.Background()

	var out any
	if *clubs {
		out, err = svc.ClubRankings(ctx, flag.Arg(0), at)
	} else {
		out, err = svc.RiderRankings(ctx, flag.Arg(0), at)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(err)
	}
}
