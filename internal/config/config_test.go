package config

import (
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewDefaults(t *testing.T) {
	t.Setenv("SECRET_ENCRYPTION_KEY", testKey)

	cfg := New()

	if cfg.Port != "3001" {
		t.Errorf("Expected default port 3001, got %s", cfg.Port)
	}
	if cfg.AnonymousUserName != "AnonymousUser" {
		t.Errorf("Expected default anonymous user name, got %s", cfg.AnonymousUserName)
	}
	if cfg.PermissionsDBType != "sqlite" {
		t.Errorf("Expected sqlite permission store, got %s", cfg.PermissionsDBType)
	}
	if cfg.ProbeTimeout != 10*time.Second {
		t.Errorf("Expected 10s probe timeout, got %v", cfg.ProbeTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("Expected wildcard CORS origin, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("SECRET_ENCRYPTION_KEY", testKey)
	t.Setenv("PROBE_WORKERS", "3")
	t.Setenv("PROBE_TIMEOUT", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := New()

	if cfg.ProbeWorkers != 3 {
		t.Errorf("Expected 3 probe workers, got %d", cfg.ProbeWorkers)
	}
	if cfg.ProbeTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms timeout, got %v", cfg.ProbeTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("Expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MetricsEnabled {
		t.Errorf("Expected metrics to be disabled")
	}
}

func TestValidatePanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "Missing encryption key",
			env:  map[string]string{"SECRET_ENCRYPTION_KEY": ""},
		},
		{
			name: "Short encryption key",
			env:  map[string]string{"SECRET_ENCRYPTION_KEY": "short"},
		},
		{
			name: "Unknown permission store",
			env:  map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "PERMISSIONS_DB_TYPE": "mysql"},
		},
		{
			name: "Postgres without DSN",
			env:  map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "PERMISSIONS_DB_TYPE": "postgres"},
		},
		{
			name: "Zero probe workers",
			env:  map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "PROBE_WORKERS": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if recover() == nil {
					t.Errorf("Expected New to panic")
				}
			}()
			New()
		})
	}
}
