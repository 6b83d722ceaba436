package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type BotConfig struct {
	Token      string
	WebhookURL string
	UpdateMode string // "polling", "webhook", "auto"
	AdminIDs   []int64
	SessionTTL time.Duration

	adminSet map[int64]struct{}
}

// IsAdmin reports whether the given Telegram user ID belongs to an admin.
func (b *BotConfig) IsAdmin(userID int64) bool {
	_, ok := b.adminSet[userID]
	return ok
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("BOT_UPDATE_MODE", "auto")
	viper.SetDefault("BOT_SESSION_TTL", "10m")

	ttl, err := time.ParseDuration(viper.GetString("BOT_SESSION_TTL"))
	if err != nil {
		ttl = 10 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:      viper.GetString("BOT_TOKEN"),
			WebhookURL: viper.GetString("BOT_WEBHOOK_URL"),
			UpdateMode: viper.GetString("BOT_UPDATE_MODE"),
			AdminIDs:   ParseAdminIDs(viper.GetString("BOT_ADMIN_IDS")),
			SessionTTL: ttl,
		},
	}
	cfg.Bot.adminSet = make(map[int64]struct{}, len(cfg.Bot.AdminIDs))
	for _, id := range cfg.Bot.AdminIDs {
		cfg.Bot.adminSet[id] = struct{}{}
	}

	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}
	if cfg.Database.Name == "" {
		return nil, fmt.Errorf("DB_NAME is not set")
	}
	if len(cfg.Bot.AdminIDs) == 0 {
		return nil, fmt.Errorf("BOT_ADMIN_IDS is not set")
	}

	return cfg, nil
}

// ParseAdminIDs parses a comma-separated list of Telegram user IDs.
// Blank and non-numeric entries are skipped.
func ParseAdminIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
