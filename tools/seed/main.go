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
)

// fixture is a development dataset. Event dates are plain YYYY-MM-DD.
type fixture struct {
	Clubs   []models.Club   `json:"clubs"`
	Riders  []models.Rider  `json:"riders"`
	Classes []models.Class  `json:"classes"`
	Events  []fixtureEvent  `json:"events"`
	Results []models.Result `json:"results"`
}

type fixtureEvent struct {
	models.Event
	Date string `json:"date"`
}

func main() {
	configPath := flag.String("config", "data/settings.json", "path to settings.json")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: seed [-config settings.json] <fixture.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		panic(err)
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

	if err := load(context.Background(), db.Repository, fx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d clubs, %d riders, %d classes, %d events, %d results\n",
		len(fx.Clubs), len(fx.Riders), len(fx.Classes), len(fx.Events), len(fx.Results))
}

func load(ctx context.Context, repo *database.RankingRepository, fx fixture) error {
	for _, c := range fx.Clubs {
		if err := repo.SaveClub(ctx, c); err != nil {
			return err
		}
	}
	for _, r := range fx.Riders {
		if err := repo.SaveRider(ctx, r); err != nil {
			return err
		}
	}
	for _, c := range fx.Classes {
		if err := repo.SaveClass(ctx, c); err != nil {
			return err
		}
	}
	for _, e := range fx.Events {
		date, err := time.ParseInLocation(models.SnapshotDateLayout, e.Date, time.UTC)
		if err != nil {
			return fmt.Errorf("event %d: %w", e.ID, err)
		}
		e.Event.Date = date
		if err := repo.SaveEvent(ctx, e.Event); err != nil {
			return err
		}
	}
	for _, r := range fx.Results {
		if err := repo.SaveResult(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
