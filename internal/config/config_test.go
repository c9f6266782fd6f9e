package config

import "testing"

func fullConfig() Config {
	return Config{
		AsiteLoginURL:    "https://example.com/login",
		AsiteSearchURL:   "https://example.com/search",
		AsiteEmail:       "user@example.com",
		AsitePassword:    "secret",
		WatsonxURL:       "https://example.com/generation",
		WatsonxTokenURL:  "https://example.com/token",
		WatsonxAPIKey:    "key",
		WatsonxModelID:   "model",
		WatsonxProjectID: "project",
	}
}

func TestValidateFullConfig(t *testing.T) {
	if err := fullConfig().Validate(); err != nil {
		t.Fatalf("complete config must validate, got %v", err)
	}
}

func TestValidateRequiresUpstreams(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("empty config must fail validation")
	}

	cfg := fullConfig()
	cfg.WatsonxURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing completion endpoint must fail validation")
	}

	cfg = fullConfig()
	cfg.WatsonxAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing API key must fail validation")
	}

	cfg = fullConfig()
	cfg.AsiteSearchURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing source endpoint must fail validation")
	}

	cfg = fullConfig()
	cfg.AsitePassword = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing source password must fail validation")
	}
}

func TestValidateMockMode(t *testing.T) {
	cfg := Config{UseMocks: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mock mode must not require upstream credentials, got %v", err)
	}
}
