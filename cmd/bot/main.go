package main

import (
	"context"
	"log"
	"os"

	"visaHedgeBot/internal/app"
	"visaHedgeBot/internal/cache"
	"visaHedgeBot/internal/config"
	"visaHedgeBot/internal/logger"
	"visaHedgeBot/internal/server"
	"visaHedgeBot/internal/storage"
	"visaHedgeBot/internal/telegram"
)

func main() {
	cfg := config.LoadBot()
	closer := logger.Setup(cfg.LogFile, cfg.LogMaxMB, cfg.LogBackups)
	defer closer.Close()

	ctx := context.Background()
	db, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	log.Printf("db: opened sqlite at %s", cfg.DBPath)
	if err := storage.InitSchema(ctx, db); err != nil {
		log.Fatal(err)
	}
	log.Println("db: schema ensured (hedge_requests table)")
	store := storage.NewStore(db)

	quotes := cache.Open(ctx, cfg.RedisAddr)
	svc, err := app.NewService(cfg, quotes, store)
	if err != nil {
		log.Fatal(err)
	}

	tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, svc, store)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("telegram: bot initialized, webhook target %s", cfg.WebhookPublicURL)

	mux := server.NewHTTPMux(tg.WebhookHandler, svc)
	addr := ":" + cfg.Port
	log.Println("http: listening on", addr)
	if err := server.ListenAndServe(addr, mux); err != nil {
		log.Println("server error:", err)
		os.Exit(1)
	}
}
