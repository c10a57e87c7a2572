package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cycleranking/config"
	"cycleranking/internal/database"
	"cycleranking/services/ranking"
)

func main() {
	configPath := flag.String("config", "data/settings.json", "path to settings.json")
	dryRun := flag.Bool("dry-run", false, "only count the results that would be zeroed")
	flag.Parse()

	settings, err := config.NewManager(*configPath).Load()
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
	n, err := svc.ZeroIneligiblePoints(context.Background(), *dryRun)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("%d result(s) would be zeroed\n", n)
		return
	}
	fmt.Printf("%d result(s) zeroed\n", n)
}
