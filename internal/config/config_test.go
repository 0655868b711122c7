package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.Session() != 60*24*time.Hour {
		t.Errorf("Session = %v, want 60 days", cfg.Auth.Session())
	}
	if cfg.Auth.Reset() != 30*time.Minute {
		t.Errorf("Reset = %v, want 30m", cfg.Auth.Reset())
	}
	if cfg.Images.Backend != "sqlite" || cfg.Images.MaxBytes != 5<<20 {
		t.Errorf("Images = %+v", cfg.Images)
	}
	if cfg.Ledger.DebtRule != "literal" || cfg.Ledger.Precision() != 2 {
		t.Errorf("Ledger = %+v", cfg.Ledger)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: from-file
  bcrypt_cost: 4
ledger:
  debt_rule: own-share
  places: 3
log:
  level: debug
`)
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, env should win", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "from-file" || cfg.Auth.BCryptCost != 4 {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Ledger.DebtRule != "own-share" || cfg.Ledger.Precision() != 3 {
		t.Errorf("Ledger = %+v", cfg.Ledger)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_ZeroPlaces(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LEDGER_PLACES", "")

	cfg, err := Load(writeConfig(t, "ledger:\n  places: 0\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ledger.Precision() != 0 {
		t.Errorf("Precision = %d, want 0 to be kept", cfg.Ledger.Precision())
	}

	t.Setenv("LEDGER_PLACES", "0")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ledger.Precision() != 0 {
		t.Errorf("Precision = %d, want 0 from env", cfg.Ledger.Precision())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing secret", "server:\n  port: 1\n", "jwt_secret"},
		{"bad duration", "auth:\n  jwt_secret: s\n  reset_expiry: soon\n", "reset_expiry"},
		{"gcs without bucket", "auth:\n  jwt_secret: s\nimages:\n  backend: gcs\n", "bucket"},
		{"unknown sms provider", "auth:\n  jwt_secret: s\nsms:\n  provider: pigeon\n", "pigeon"},
		{"twilio without creds", "auth:\n  jwt_secret: s\nsms:\n  provider: twilio\n", "twilio"},
		{"negative places", "auth:\n  jwt_secret: s\nledger:\n  places: -1\n", "places"},
		{"bad yaml", "auth: [", "parse"},
	}

	t.Setenv("JWT_SECRET", "")
	t.Setenv("IMAGES_BACKEND", "")
	t.Setenv("SMS_PROVIDER", "")
	t.Setenv("LEDGER_PLACES", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
