package config

import (
	"strings"
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, ожидалось 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "stopguard" {
		t.Errorf("Database.Name = %q, ожидалось stopguard", cfg.Database.Name)
	}
	if cfg.Guard.TickInterval != time.Minute {
		t.Errorf("Guard.TickInterval = %v, ожидалось 1m", cfg.Guard.TickInterval)
	}
	if cfg.Guard.RSIPeriod != 14 || cfg.Guard.ATRPeriod != 14 || cfg.Guard.EMAPeriod != 50 {
		t.Errorf("периоды индикаторов = %d/%d/%d, ожидалось 14/14/50",
			cfg.Guard.RSIPeriod, cfg.Guard.ATRPeriod, cfg.Guard.EMAPeriod)
	}
	if cfg.Guard.TakeProfitATRMult != 2.0 {
		t.Errorf("Guard.TakeProfitATRMult = %v, ожидалось 2.0", cfg.Guard.TakeProfitATRMult)
	}
	if cfg.Guard.DefaultSellPercent != 100 {
		t.Errorf("Guard.DefaultSellPercent = %v, ожидалось 100", cfg.Guard.DefaultSellPercent)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("GUARD_TICK_INTERVAL", "30s")
	t.Setenv("GUARD_RSI_OVERSOLD", "25")
	t.Setenv("EXCHANGE_RATE_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, ожидалось 9100", cfg.Server.Port)
	}
	if cfg.Guard.TickInterval != 30*time.Second {
		t.Errorf("Guard.TickInterval = %v, ожидалось 30s", cfg.Guard.TickInterval)
	}
	if cfg.Guard.RSIOversold != 25 {
		t.Errorf("Guard.RSIOversold = %v, ожидалось 25", cfg.Guard.RSIOversold)
	}
	if cfg.Exchange.RateLimit != 5 {
		t.Errorf("Exchange.RateLimit = %d, ожидалось 5", cfg.Exchange.RateLimit)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "отсутствует ключ шифрования",
			env:     map[string]string{"ENCRYPTION_KEY": ""},
			wantErr: "ENCRYPTION_KEY",
		},
		{
			name:    "ключ неверной длины",
			env:     map[string]string{"ENCRYPTION_KEY": "short"},
			wantErr: "32 bytes",
		},
		{
			name:    "некорректный порт",
			env:     map[string]string{"ENCRYPTION_KEY": testKey, "SERVER_PORT": "70000"},
			wantErr: "SERVER_PORT",
		},
		{
			name:    "пороги RSI перепутаны",
			env:     map[string]string{"ENCRYPTION_KEY": testKey, "GUARD_RSI_OVERSOLD": "80", "GUARD_RSI_OVERBOUGHT": "20"},
			wantErr: "пороги RSI",
		},
		{
			name:    "процент продажи вне диапазона",
			env:     map[string]string{"ENCRYPTION_KEY": testKey, "GUARD_DEFAULT_SELL_PERCENT": "150"},
			wantErr: "GUARD_DEFAULT_SELL_PERCENT",
		},
		{
			name:    "лимит свечей мал для EMA",
			env:     map[string]string{"ENCRYPTION_KEY": testKey, "GUARD_CANDLE_FETCH_LIMIT": "20"},
			wantErr: "GUARD_CANDLE_FETCH_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("ожидалась ошибка валидации, получен nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ошибка %q не содержит %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "guard", Password: "secret",
		Name: "stopguard", SSLMode: "require",
	}

	dsn := d.DSN()
	if !strings.Contains(dsn, "password=secret") {
		t.Error("DSN() должен содержать пароль")
	}

	safe := d.DSNWithoutPassword()
	if strings.Contains(safe, "secret") {
		t.Error("DSNWithoutPassword() не должен содержать пароль")
	}
	if !strings.Contains(safe, "dbname=stopguard") {
		t.Error("DSNWithoutPassword() должен содержать имя базы")
	}
}
