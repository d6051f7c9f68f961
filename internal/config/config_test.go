package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SREDSTVA_DB", "SREDSTVA_ADDR", "SREDSTVA_LOW_STOCK_CRON", "SREDSTVA_TICKET_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "sredstva.sqlite3" || cfg.Addr != ":8080" || cfg.AdminUser != "Admin" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.LowStockCron != "0 * * * *" {
		t.Errorf("expected hourly low-stock schedule, got %q", cfg.LowStockCron)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("SREDSTVA_ADDR", "")
	t.Setenv("SREDSTVA_TICKET_URL", "")
	// t.Setenv restores the originals; godotenv skips variables that are
	// already set, even to "", so unset them for the load.
	os.Unsetenv("SREDSTVA_ADDR")
	os.Unsetenv("SREDSTVA_TICKET_URL")

	path := filepath.Join(t.TempDir(), ".env")
	content := "SREDSTVA_ADDR=127.0.0.1:9000\nSREDSTVA_TICKET_URL=https://helpdesk.example.com/api\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr from env file, got %q", cfg.Addr)
	}
	if cfg.TicketURL != "https://helpdesk.example.com/api" {
		t.Errorf("expected ticket url from env file, got %q", cfg.TicketURL)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{DBPath: "x.sqlite3", Addr: ":8080", AdminUser: "Admin", LowStockCron: "*/15 * * * *"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"disabled schedule", func(c *Config) { c.LowStockCron = "" }, false},
		{"empty db", func(c *Config) { c.DBPath = "" }, true},
		{"empty addr", func(c *Config) { c.Addr = "" }, true},
		{"bad cron", func(c *Config) { c.LowStockCron = "every hour" }, true},
		{"token without url", func(c *Config) { c.TicketToken = "secret" }, true},
	}

	for _, tt := range tests {
		cfg := valid
		tt.mutate(&cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
