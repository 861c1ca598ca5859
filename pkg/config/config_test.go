package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8090" {
		t.Errorf("Expected Port to be 8090, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Store.Driver != StoreSQLite {
		t.Errorf("Expected sqlite store by default, got %s", cfg.Store.Driver)
	}

	if cfg.Backend.QuantumTimeout != 5*time.Minute {
		t.Errorf("Expected QuantumTimeout 5m, got %v", cfg.Backend.QuantumTimeout)
	}

	if cfg.Backend.ClassicalTimeout != 60*time.Second {
		t.Errorf("Expected ClassicalTimeout 60s, got %v", cfg.Backend.ClassicalTimeout)
	}

	if len(cfg.Backend.Targets) != 2 {
		t.Fatalf("Expected 2 default targets, got %d", len(cfg.Backend.Targets))
	}

	// direct service first, gateway second
	if cfg.Backend.Targets[0].Style != TargetStyleService {
		t.Errorf("Expected first target to be the service, got %s", cfg.Backend.Targets[0].Style)
	}
	if cfg.Backend.Targets[1].URL != "http://localhost:8080/api/portfolio/optimize/with-weights" {
		t.Errorf("Unexpected gateway URL %s", cfg.Backend.Targets[1].URL)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("GATEWAY_URL", "http://gw:8080/")
	t.Setenv("HEALTH_URLS", "http://a/health, http://b/health")
	t.Setenv("QUANTUM_TIMEOUT", "2m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Backend.GatewayURL != "http://gw:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.Backend.GatewayURL)
	}

	if len(cfg.Backend.HealthURLs) != 2 || cfg.Backend.HealthURLs[1] != "http://b/health" {
		t.Errorf("Unexpected health URLs: %v", cfg.Backend.HealthURLs)
	}

	if cfg.Backend.QuantumTimeout != 2*time.Minute {
		t.Errorf("Expected QuantumTimeout 2m, got %v", cfg.Backend.QuantumTimeout)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidatePostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DATABASE_URL is missing for postgres store, got nil")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateInvalidStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "etcd")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unknown store driver, got nil")
	}
}

func TestLoadTargets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	content := `targets:
  - name: primary
    url: http://compute:5000/api/optimize/with-weights
  - name: gateway
    url: http://gw:8080/api/portfolio/optimize/with-weights
    style: gateway
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("LoadTargets() failed: %v", err)
	}

	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(targets))
	}
	if targets[0].Style != TargetStyleService {
		t.Errorf("Expected default style service, got %s", targets[0].Style)
	}
	if targets[1].Style != TargetStyleGateway {
		t.Errorf("Expected gateway style, got %s", targets[1].Style)
	}
}

func TestLoadTargetsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	if err := os.WriteFile(path, []byte("targets:\n  - name: x\n    uri: http://typo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTargets(path); err == nil {
		t.Error("Expected error for unknown field, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " a , ,b ")

	got := getEnvAsList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected [a b], got %v", got)
	}
}
