package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the server configuration. Values come from the environment,
// optionally loaded from a .env file; command-line flags override them.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string
	SeedPath  string

	TicketURL   string
	TicketToken string
	NotifyURL   string

	LowStockCron string
}

// Load reads environment variables (optionally from the provided file) and
// returns the resulting Config. It does not validate; call Validate after
// applying flag overrides.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	return &Config{
		DBPath:       getenvWithDefault("SREDSTVA_DB", "sredstva.sqlite3"),
		Addr:         getenvWithDefault("SREDSTVA_ADDR", ":8080"),
		AdminUser:    getenvWithDefault("SREDSTVA_ADMIN_USER", "Admin"),
		LogPath:      os.Getenv("SREDSTVA_LOG"),
		SeedPath:     os.Getenv("SREDSTVA_SEED"),
		TicketURL:    os.Getenv("SREDSTVA_TICKET_URL"),
		TicketToken:  os.Getenv("SREDSTVA_TICKET_TOKEN"),
		NotifyURL:    os.Getenv("SREDSTVA_NOTIFY_URL"),
		LowStockCron: getenvWithDefault("SREDSTVA_LOW_STOCK_CRON", "0 * * * *"),
	}, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.DBPath == "":
		return errors.New("SREDSTVA_DB must not be empty")
	case c.Addr == "":
		return errors.New("SREDSTVA_ADDR must not be empty")
	case c.AdminUser == "":
		return errors.New("SREDSTVA_ADMIN_USER must not be empty")
	}

	if c.TicketToken != "" && c.TicketURL == "" {
		return errors.New("SREDSTVA_TICKET_TOKEN is set but SREDSTVA_TICKET_URL is not")
	}

	// An empty schedule disables the low-stock job.
	if c.LowStockCron != "" {
		if _, err := cron.ParseStandard(c.LowStockCron); err != nil {
			return fmt.Errorf("invalid SREDSTVA_LOW_STOCK_CRON %q: %w", c.LowStockCron, err)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
