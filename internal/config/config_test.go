package config

import "testing"

func TestIsEnvProduction(t *testing.T) {
	for env, expected := range map[string]bool{
		"prod":       true,
		"PRODUCTION": true,
		"dev":        false,
		"staging":    false,
		"":           false,
	} {
		cfg := &Config{Environment: env}
		if cfg.IsEnvProduction() != expected {
			t.Errorf("environment %q: expected %t", env, expected)
		}
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreCapacity != 16 {
		t.Errorf("expected default store capacity 16, got %d", cfg.StoreCapacity)
	}
	if cfg.StoreLoadFactor != 0.75 {
		t.Errorf("expected default store load factor 0.75, got %v", cfg.StoreLoadFactor)
	}
	if cfg.APIListenAddress != ":8081" {
		t.Errorf("expected default listen address :8081, got %q", cfg.APIListenAddress)
	}
}
