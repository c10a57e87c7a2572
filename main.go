package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cycleranking/config"
	"cycleranking/handlers"
	"cycleranking/internal/database"
	"cycleranking/internal/logging"
	"cycleranking/services/ranking"
	"cycleranking/utils"
)

func main() {
	defaultConfig := os.Getenv("RANKING_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "data/settings.json"
	}
	configPath := flag.String("config", defaultConfig, "path to settings.json")
	flag.Parse()

	mgr := config.NewManager(*configPath)
	settings, err := mgr.LoadOrCreate()
	if err != nil {
		log.Fatalf("[main] load settings: %v", err)
	}

	logFile := logging.Setup(settings.Log)
	defer logFile.Close()

	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	svc := ranking.NewService(db.Repository, config.NewRankingAdapter(mgr).Options())

	router := utils.NewRouter()
	handlers.RegisterRoutes(router, handlers.NewRankingsHandler(svc), handlers.NewAdminHandler(svc))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval := settings.Ranking.ScheduleInterval(); interval > 0 {
		go svc.Schedule(ctx, interval, settings.Ranking.HygieneBeforeScheduledRun)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(settings.Server.Host, strconv.Itoa(settings.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
