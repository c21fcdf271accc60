package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT", "CORS_ALLOWED_ORIGINS",
	"STORAGE_BACKEND", "STORAGE_KEY", "STORAGE_DIR", "SQLITE_PATH", "STORAGE_FLUSH_INTERVAL",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"BREAKER_ENABLED", "BREAKER_MAX_FAILURES", "BREAKER_TIMEOUT",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable LoadConfig reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnvVars {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Storage.Backend != BackendFile {
		t.Errorf("Expected default backend 'file', got %s", config.Storage.Backend)
	}

	if config.Storage.Key != "tasks" {
		t.Errorf("Expected default storage key 'tasks', got %s", config.Storage.Key)
	}

	if config.Storage.Dir != "data" {
		t.Errorf("Expected default storage dir 'data', got %s", config.Storage.Dir)
	}

	if config.Storage.FlushInterval != 30*time.Second {
		t.Errorf("Expected default flush interval 30s, got %v", config.Storage.FlushInterval)
	}

	if config.Redis.KeyPrefix != "todo:" {
		t.Errorf("Expected default Redis key prefix 'todo:', got %s", config.Redis.KeyPrefix)
	}

	if !config.Breaker.Enabled || config.Breaker.MaxFailures != 5 {
		t.Errorf("Expected breaker enabled with 5 failures, got %+v", config.Breaker)
	}

	if config.RateLimit.RequestsPerMin != 300 {
		t.Errorf("Expected default RPM 300, got %d", config.RateLimit.RequestsPerMin)
	}

	if config.Log.Level != "info" || config.Log.Format != "text" {
		t.Errorf("Expected info/text logging, got %+v", config.Log)
	}

	if len(config.Server.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 default origins, got %v", config.Server.AllowedOrigins)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("STORAGE_KEY", "my-tasks")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("BREAKER_TIMEOUT", "1m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", config.Server.Port)
	}
	if config.Storage.Backend != BackendRedis {
		t.Errorf("Expected backend redis, got %s", config.Storage.Backend)
	}
	if config.Storage.Key != "my-tasks" {
		t.Errorf("Expected key my-tasks, got %s", config.Storage.Key)
	}
	if config.GetRedisAddr() != "cache:6379" {
		t.Errorf("Expected redis addr cache:6379, got %s", config.GetRedisAddr())
	}
	if config.Redis.DB != 2 {
		t.Errorf("Expected redis DB 2, got %d", config.Redis.DB)
	}
	if config.Breaker.Timeout != time.Minute {
		t.Errorf("Expected breaker timeout 1m, got %v", config.Breaker.Timeout)
	}
	if config.Log.Level != "debug" || config.Log.Format != "json" {
		t.Errorf("Expected debug/json, got %+v", config.Log)
	}

	origins := config.Server.AllowedOrigins
	if len(origins) != 2 || origins[0] != "https://a.example" || origins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", origins)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "s3"}, wantErr: true},
		{name: "memory in development", env: map[string]string{"STORAGE_BACKEND": "memory"}, wantErr: false},
		{name: "memory in production", env: map[string]string{"STORAGE_BACKEND": "memory", "ENVIRONMENT": "production"}, wantErr: true},
		{name: "postgres without password in production", env: map[string]string{"STORAGE_BACKEND": "postgres", "ENVIRONMENT": "production"}, wantErr: true},
		{name: "postgres with password in production", env: map[string]string{"STORAGE_BACKEND": "postgres", "ENVIRONMENT": "production", "DB_PASSWORD": "s3cret"}, wantErr: false},
		{name: "file in production", env: map[string]string{"ENVIRONMENT": "production"}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Host:     "db",
			Port:     "5432",
			User:     "todo",
			Password: "pw",
			Name:     "todo_manager",
			SSLMode:  "require",
		},
	}

	expected := "host=db port=5432 user=todo password=pw dbname=todo_manager sslmode=require"
	if dsn := config.GetDatabaseDSN(); dsn != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, dsn)
	}
}

func TestConfig_GetServerAddr(t *testing.T) {
	config := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: "8080"}}

	if addr := config.GetServerAddr(); addr != "0.0.0.0:8080" {
		t.Errorf("Expected '0.0.0.0:8080', got '%s'", addr)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("STORAGE_DIR")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STORAGE_DIR=/var/lib/todo\nPORT=7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7001")
	t.Cleanup(func() { os.Unsetenv("STORAGE_DIR") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := os.Getenv("STORAGE_DIR"); got != "/var/lib/todo" {
		t.Errorf("Expected STORAGE_DIR from file, got %q", got)
	}
	if got := os.Getenv("PORT"); got != "7001" {
		t.Errorf("Expected existing PORT to win, got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	defaultValue := "default"

	os.Unsetenv(key)
	result := getEnv(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value '%s', got '%s'", defaultValue, result)
	}

	expectedValue := "custom_value"
	os.Setenv(key, expectedValue)
	defer os.Unsetenv(key)

	result = getEnv(key, defaultValue)
	if result != expectedValue {
		t.Errorf("Expected env value '%s', got '%s'", expectedValue, result)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"
	defaultValue := 42

	os.Unsetenv(key)
	result := getEnvAsInt(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %d, got %d", defaultValue, result)
	}

	os.Setenv(key, "100")
	defer os.Unsetenv(key)

	result = getEnvAsInt(key, defaultValue)
	if result != 100 {
		t.Errorf("Expected env value 100, got %d", result)
	}

	os.Setenv(key, "not-a-number")
	result = getEnvAsInt(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %d for invalid int, got %d", defaultValue, result)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"
	defaultValue := true

	os.Unsetenv(key)
	result := getEnvAsBool(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %v, got %v", defaultValue, result)
	}

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"True", true},
		{"False", false},
		{"invalid", defaultValue}, 
	}

	for _, tc := range testCases {
		os.Setenv(key, tc.value)
		result = getEnvAsBool(key, defaultValue)
		if result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}

	os.Unsetenv(key)
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defaultValue := 30 * time.Second

	os.Unsetenv(key)
	result := getEnvAsDuration(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %v, got %v", defaultValue, result)
	}

	os.Setenv(key, "5m")
	defer os.Unsetenv(key)

	result = getEnvAsDuration(key, defaultValue)
	if result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	os.Setenv(key, "not-a-duration")
	result = getEnvAsDuration(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %v for invalid duration, got %v", defaultValue, result)
	}
}


func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	t.Setenv(key, "")

	if got := getEnvAsList(key, []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("Expected default list, got %v", got)
	}

	t.Setenv(key, " , ,")
	if got := getEnvAsList(key, []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("Expected default for blank items, got %v", got)
	}
}
