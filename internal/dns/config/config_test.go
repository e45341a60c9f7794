package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.Port != 4000 {
		t.Errorf("expected Port=4000, got %d", cfg.Port)
	}
	if cfg.BindAddr != "0.0.0.0" {
		t.Errorf("expected BindAddr=0.0.0.0, got %q", cfg.BindAddr)
	}
	if cfg.CacheSize != 4096 {
		t.Errorf("expected CacheSize=4096, got %d", cfg.CacheSize)
	}
	if cfg.AdminPort != 9000 {
		t.Errorf("expected AdminPort=9000, got %d", cfg.AdminPort)
	}
	if cfg.MetricsPort != 9100 {
		t.Errorf("expected MetricsPort=9100, got %d", cfg.MetricsPort)
	}
	wantUpstream := []string{"8.8.8.8:53"}
	if len(cfg.Servers) != len(wantUpstream) {
		t.Fatalf("expected Servers length %d, got %d", len(wantUpstream), len(cfg.Servers))
	}
	for i, v := range wantUpstream {
		if cfg.Servers[i] != v {
			t.Errorf("expected Servers[%d]=%q, got %q", i, v, cfg.Servers[i])
		}
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("DNS_ENV", "dev")
	t.Setenv("DNS_LOG_LEVEL", "debug")
	t.Setenv("DNS_SERVERS", "8.8.8.8:53,8.8.4.4:53")
	t.Setenv("DNS_PORT", "9953")
	t.Setenv("DNS_CACHE_SIZE", "2000")
	t.Setenv("DNS_ADMIN_PORT", "9001")
	t.Setenv("DNS_ADMIN_TOKEN", "s3cr3t")
	t.Setenv("DNS_METRICS_PORT", "9101")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	if cfg.Port != 9953 {
		t.Errorf("expected Port=9953, got %d", cfg.Port)
	}
	if cfg.CacheSize != 2000 {
		t.Errorf("expected CacheSize=2000, got %d", cfg.CacheSize)
	}
	if cfg.AdminPort != 9001 {
		t.Errorf("expected AdminPort=9001, got %d", cfg.AdminPort)
	}
	if cfg.AdminToken != "s3cr3t" {
		t.Errorf("expected AdminToken=s3cr3t, got %q", cfg.AdminToken)
	}
	if cfg.MetricsPort != 9101 {
		t.Errorf("expected MetricsPort=9101, got %d", cfg.MetricsPort)
	}
	wantUpstream := []string{"8.8.8.8:53", "8.8.4.4:53"}
	if len(cfg.Servers) != len(wantUpstream) {
		t.Fatalf("expected Servers length %d, got %d", len(wantUpstream), len(cfg.Servers))
	}
	for i, v := range wantUpstream {
		if cfg.Servers[i] != v {
			t.Errorf("expected Servers[%d]=%q, got %q", i, v, cfg.Servers[i])
		}
	}
}

func TestLoad_EmptyServersDisablesForwarding(t *testing.T) {
	t.Setenv("DNS_SERVERS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Servers) != 0 {
		t.Errorf("expected empty Servers, got %v", cfg.Servers)
	}
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("DNS_ENV", "staging")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid DNS_ENV, got nil")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DNS_LOG_LEVEL", "trace")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid LOG_LEVEL, got nil")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("DNS_PORT", "99999")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid PORT, got nil")
	}
}

func TestLoad_PortNaN(t *testing.T) {
	t.Setenv("DNS_PORT", "not_a_number")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for non-numeric PORT, got nil")
	}
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("DNS_CACHE_SIZE", "-1")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid CACHE_SIZE, got nil")
	}
}

func TestLoad_InvalidUpstream(t *testing.T) {
	t.Setenv("DNS_SERVERS", "not_a_server")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid Servers entry, got nil")
	}
}

func TestValidIPPort(t *testing.T) {
	type testCase struct {
		input    string
		expected bool
	}

	cases := []testCase{
		{"1.2.3.4:53", true},
		{"127.0.0.1:5353", true},
		{"::1:53", false}, // missing brackets for IPv6
		{"[::1]:53", true},
		{"192.168.1.1:", false},
		{":53", false},
		{"not_an_ip:53", false},
		{"1.2.3.4:notaport", false},
		{"", false},
		{"1.2.3.4", false},
		{"[::1]", false},
	}

	validate := validator.New()
	_ = validate.RegisterValidation("ip_port", validIPPort)

	for _, tc := range cases {
		type S struct {
			Addr string `validate:"ip_port"`
		}
		s := S{Addr: tc.input}
		err := validate.Struct(s)
		if tc.expected && err != nil {
			t.Errorf("validIPPort(%q) = false, want true", tc.input)
		}
		if !tc.expected && err == nil {
			t.Errorf("validIPPort(%q) = true, want false", tc.input)
		}
	}
}

func TestDefaultLoader_LoadsDefaults(t *testing.T) {
	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		t.Fatalf("defaultLoader returned error: %v", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if cfg.Env != DEFAULT_APP_CONFIG.Env {
		t.Errorf("expected Env=%q, got %q", DEFAULT_APP_CONFIG.Env, cfg.Env)
	}
	if cfg.LogLevel != DEFAULT_APP_CONFIG.LogLevel {
		t.Errorf("expected LogLevel=%q, got %q", DEFAULT_APP_CONFIG.LogLevel, cfg.LogLevel)
	}
	if cfg.Port != DEFAULT_APP_CONFIG.Port {
		t.Errorf("expected Port=%d, got %d", DEFAULT_APP_CONFIG.Port, cfg.Port)
	}
	if cfg.CacheSize != DEFAULT_APP_CONFIG.CacheSize {
		t.Errorf("expected CacheSize=%d, got %d", DEFAULT_APP_CONFIG.CacheSize, cfg.CacheSize)
	}
	if len(cfg.Servers) != len(DEFAULT_APP_CONFIG.Servers) {
		t.Fatalf("expected Servers length %d, got %d", len(DEFAULT_APP_CONFIG.Servers), len(cfg.Servers))
	}
	for i, v := range DEFAULT_APP_CONFIG.Servers {
		if cfg.Servers[i] != v {
			t.Errorf("expected Servers[%d]=%q, got %q", i, v, cfg.Servers[i])
		}
	}
}

func TestDefaultLoader_InvalidDefault_ValidationFails(t *testing.T) {
	orig := DEFAULT_APP_CONFIG
	defer func() { DEFAULT_APP_CONFIG = orig }()

	DEFAULT_APP_CONFIG = AppConfig{
		Env:         "prod",
		LogLevel:    "info",
		Port:        4000,
		BindAddr:    "0.0.0.0",
		Servers:     []string{"not_a_valid_ip_port"},
		CacheSize:   1000,
		AdminPort:   9000,
		MetricsPort: 9100,
	}

	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		t.Fatalf("defaultLoader returned error: %v", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("ip_port", validIPPort)
	if err := validate.Struct(&cfg); err == nil {
		t.Fatal("expected validation error for invalid default Servers entry, got nil")
	}
}
