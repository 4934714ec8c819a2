package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/bot"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/config"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/db"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/repo"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/sched"
)

func main() {
	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("bot init: %v", err)
	}
	botAPI.Debug = false

	rAdmins := repo.NewAdmins(pool)
	rLinks := repo.NewLinks(pool)
	rPayments := repo.NewPayments(pool)
	rChats := repo.NewChats(pool)

	scheduler := sched.New(loc)
	h := bot.NewHandler(botAPI, cfg, loc, rAdmins, rLinks, rPayments, rChats, scheduler)

	// Graceful shutdown
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	// Run migrations automatically on start (simple approach)
	if err := db.ApplyMigrations(ctx, pool, "./migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	if err := rAdmins.EnsureDefaults(ctx, cfg.AdminIDs); err != nil {
		log.Fatalf("admin defaults: %v", err)
	}

	h.RearmAll(ctx)

	if _, err := botAPI.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Запустить бота"},
	)); err != nil {
		log.Printf("set commands: %v", err)
	}

	// Стартовые уведомления админам: best effort, без звука
	for _, adminID := range cfg.AdminIDs {
		msg := tgbotapi.NewMessage(adminID, "🚀 Бот запущен и готов к работе.")
		msg.DisableNotification = true
		if _, err := botAPI.Send(msg); err != nil {
			log.Printf("startup notice to %d: %v", adminID, err)
		}
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	log.Printf("payment reminder bot started as @%s", botAPI.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			scheduler.Stop()
			log.Println("shutdown")
			return
		case upd := <-updates:
			go h.HandleUpdate(ctx, upd)
		}
	}
}
