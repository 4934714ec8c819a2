package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken           string
	DatabaseURL        string
	AdminIDs           []int64
	PaymentTimeoutDays int
	Timezone           string
}

func MustLoad() Config {
	// .env необязателен, ошибки игнорируем
	_ = godotenv.Load()

	bt := os.Getenv("BOT_TOKEN")
	if bt == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	var admins []int64
	for _, p := range strings.Split(os.Getenv("ADMIN_IDS"), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatalf("ADMIN_IDS: bad id %q", p)
		}
		admins = append(admins, id)
	}
	if len(admins) == 0 {
		log.Fatal("ADMIN_IDS is required (comma-separated telegram ids)")
	}

	timeout := 1
	if v := os.Getenv("PAYMENT_TIMEOUT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("PAYMENT_TIMEOUT_DAYS: bad value %q", v)
		}
		timeout = n
	}

	tz := os.Getenv("TZ")
	if tz == "" {
		tz = "Europe/Moscow"
	}

	return Config{
		BotToken:           bt,
		DatabaseURL:        dsn,
		AdminIDs:           admins,
		PaymentTimeoutDays: timeout,
		Timezone:           tz,
	}
}

func (c Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
