package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"battle-board/internal/api"
	"battle-board/internal/audio"
	"battle-board/internal/battle"
	"battle-board/internal/config"
	"battle-board/internal/feed"
	"battle-board/internal/layout"
	"battle-board/internal/logo"
	"battle-board/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("⚔️ ================================")
	log.Println("⚔️  LEAGUE BATTLE BOARD")
	log.Println("⚔️ ================================")

	appConfig := config.Load()
	port := strconv.Itoa(appConfig.Server.Port)

	log.Printf("📥 Feeds: %s | %s (every %s)", appConfig.Feed.TeamsURL, appConfig.Feed.LogsURL, appConfig.Feed.Interval)
	log.Printf("🔊 Audio: backend=%s enabled=%v volume=%.2f", appConfig.Audio.Backend, appConfig.Audio.Enabled, appConfig.Audio.Volume)

	// Text measurement and rendering share one font
	measurer := layout.NewFontMeasurer(appConfig.Server.FontPath)

	cues := audio.NewCueEngine(appConfig.Audio, audio.OpenerFor(appConfig.Audio))
	cues.OnCue = func(c audio.Cue) { api.RecordCue(c.String()) }

	engine := battle.NewEngine(appConfig, measurer, cues)
	engine.SetObserver(api.BoardMetrics{})

	logos := logo.NewCache(logo.DefaultMaxLogos, nil)
	logos.OnFetch = api.RecordLogoFetch
	renderer := render.NewRenderer(measurer.FontPath(), logos)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := feed.NewPoller(feed.NewClient(appConfig.Feed), appConfig.Feed.Interval, func(snap feed.Snapshot) {
		api.RecordFeedRefresh(true)
		if err := engine.ApplyFeed(ctx, snap); err != nil {
			log.Printf("⚠️ Feed not applied: %v", err)
			return
		}
		urls := make([]string, 0, len(snap.Teams))
		for _, t := range snap.Teams {
			urls = append(urls, t.LogoOrDefault())
		}
		logos.Prefetch(urls)
	})
	poller.OnError = func(error) { api.RecordFeedRefresh(false) }

	// Start debug server
	if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	engine.Start()
	poller.Start(ctx)

	server := api.NewServer(engine, renderer, appConfig.Server)
	go func() {
		addr := ":" + port
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Board ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	cancel()
	poller.Stop()
	engine.Stop()
	logos.Wait()
	log.Println("👋 Goodbye!")
}
