package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gateway.BaseURL != "" {
		t.Errorf("Gateway.BaseURL = %q, want empty (simulation mode)", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Temperature != 0.7 {
		t.Errorf("Gateway.Temperature = %v, want 0.7", cfg.Gateway.Temperature)
	}
	if cfg.Gateway.MaxTokens != 2048 {
		t.Errorf("Gateway.MaxTokens = %d, want 2048", cfg.Gateway.MaxTokens)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VETWATCH_SERVER_PORT", "9999")
	t.Setenv("VETWATCH_GATEWAY_BASE_URL", "http://gw.local:18789")
	t.Setenv("VETWATCH_GATEWAY_TEMPERATURE", "0.2")

	cfg := Load()

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Gateway.BaseURL != "http://gw.local:18789" {
		t.Errorf("Gateway.BaseURL = %q", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Temperature != 0.2 {
		t.Errorf("Gateway.Temperature = %v, want 0.2", cfg.Gateway.Temperature)
	}
}

func TestEnvOverrideInvalidIntKeepsDefault(t *testing.T) {
	t.Setenv("VETWATCH_SERVER_PORT", "not-a-number")

	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestShowAllMasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Gateway.APIKey = "sk-secret"

	for _, kv := range ShowAll(cfg) {
		if kv.Key == "gateway.api_key" {
			if kv.Value != "********" {
				t.Errorf("gateway.api_key shown as %q, want masked", kv.Value)
			}
			return
		}
	}
	t.Fatal("gateway.api_key not present in ShowAll output")
}
