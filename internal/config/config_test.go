package config

import (
	"os"
	"testing"

	"github.com/stuartshay/poi-visits/internal/poi"
)

// nolint:gocyclo // Test function complexity from multiple subtests and assertions
func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"SERVICE_NAME", "ENVIRONMENT", "GRPC_PORT", "HTTP_PORT",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB",
		"POIS", "BUFFER_RADIUS_M", "PROJECTION", "HOUR_TIMEZONE",
		"QUEUE_WORKERS", "ANALYSIS_WORKERS", "OTEL_ENABLED",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
	}

	// Clean up after test
	defer func() {
		for key, val := range originalEnv {
			if val != "" {
				os.Setenv(key, val)
			} else {
				os.Unsetenv(key)
			}
		}
	}()

	resetEnv := func() {
		for _, key := range envVars {
			os.Unsetenv(key)
		}
	}

	t.Run("loads default values", func(t *testing.T) {
		resetEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		if cfg.ServiceName != "poi-visits" {
			t.Errorf("expected ServiceName 'poi-visits', got '%s'", cfg.ServiceName)
		}
		if cfg.GRPCPort != "50051" {
			t.Errorf("expected GRPCPort '50051', got '%s'", cfg.GRPCPort)
		}
		if cfg.PostgresPort != "6432" {
			t.Errorf("expected PostgresPort '6432' (PgBouncer), got '%s'", cfg.PostgresPort)
		}
		if cfg.BufferRadius != 500 {
			t.Errorf("expected BufferRadius 500, got %f", cfg.BufferRadius)
		}
		if cfg.Projection != "EPSG:32647" {
			t.Errorf("expected Projection 'EPSG:32647', got '%s'", cfg.Projection)
		}
		if len(cfg.POIs) != 3 || cfg.POIs[2].Name != "petronas" {
			t.Errorf("expected the three default POIs, got %+v", cfg.POIs)
		}
		if cfg.Location == nil || cfg.Location.String() != "UTC" {
			t.Errorf("expected UTC location, got %v", cfg.Location)
		}
		if cfg.QueueWorkers != 2 || cfg.AnalysisWorkers != 4 {
			t.Errorf("expected workers 2/4, got %d/%d", cfg.QueueWorkers, cfg.AnalysisWorkers)
		}
		if cfg.OTELEnabled {
			t.Error("expected tracing disabled by default")
		}
	})

	t.Run("loads custom values from environment", func(t *testing.T) {
		resetEnv()
		os.Setenv("SERVICE_NAME", "test-service")
		os.Setenv("GRPC_PORT", "9999")
		os.Setenv("POIS", "a:1:2,b:3:4:250")
		os.Setenv("BUFFER_RADIUS_M", "300")
		os.Setenv("HOUR_TIMEZONE", "Asia/Kuala_Lumpur")
		os.Setenv("ANALYSIS_WORKERS", "8")
		os.Setenv("OTEL_ENABLED", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		if cfg.ServiceName != "test-service" {
			t.Errorf("expected ServiceName 'test-service', got '%s'", cfg.ServiceName)
		}
		if cfg.GRPCPort != "9999" {
			t.Errorf("expected GRPCPort '9999', got '%s'", cfg.GRPCPort)
		}
		if cfg.BufferRadius != 300 {
			t.Errorf("expected BufferRadius 300, got %f", cfg.BufferRadius)
		}
		if len(cfg.POIs) != 2 || cfg.POIs[1].Radius != 250 {
			t.Errorf("unexpected POIs %+v", cfg.POIs)
		}
		if cfg.Location.String() != "Asia/Kuala_Lumpur" {
			t.Errorf("expected Asia/Kuala_Lumpur, got %s", cfg.Location)
		}
		if cfg.AnalysisWorkers != 8 {
			t.Errorf("expected AnalysisWorkers 8, got %d", cfg.AnalysisWorkers)
		}
		if !cfg.OTELEnabled {
			t.Error("expected tracing enabled")
		}
	})

	invalid := map[string]string{
		"BUFFER_RADIUS_M":  "invalid",
		"HOUR_TIMEZONE":    "Mars/Olympus_Mons",
		"POIS":             "broken",
		"QUEUE_WORKERS":    "many",
		"ANALYSIS_WORKERS": "1.5",
		"OTEL_ENABLED":     "perhaps",
	}
	for key, value := range invalid {
		t.Run("returns error for invalid "+key, func(t *testing.T) {
			resetEnv()
			os.Setenv(key, value)

			_, err := Load()
			if err == nil {
				t.Errorf("expected error for invalid %s, got nil", key)
			}
		})
	}

	t.Run("returns error for non-positive radius", func(t *testing.T) {
		resetEnv()
		os.Setenv("BUFFER_RADIUS_M", "0")

		if _, err := Load(); err == nil {
			t.Error("expected error for zero radius, got nil")
		}
	})
}

func TestParsePOIs(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []poi.Entry
		wantErr bool
	}{
		{
			name:  "defaults",
			value: DefaultPOIs,
			want: []poi.Entry{
				{Name: "perdona", Lon: 101.6847, Lat: 3.1430},
				{Name: "chinatown", Lon: 101.6969, Lat: 3.1428},
				{Name: "petronas", Lon: 101.7120, Lat: 3.1579},
			},
		},
		{
			name:  "radius and whitespace",
			value: " a : 1 : 2 : 150 , ,b:-3:4",
			want: []poi.Entry{
				{Name: "a", Lon: 1, Lat: 2, Radius: 150},
				{Name: "b", Lon: -3, Lat: 4},
			},
		},
		{name: "empty", value: "", wantErr: true},
		{name: "too few parts", value: "a:1", wantErr: true},
		{name: "too many parts", value: "a:1:2:3:4", wantErr: true},
		{name: "empty name", value: ":1:2", wantErr: true},
		{name: "bad longitude", value: "a:x:2", wantErr: true},
		{name: "bad latitude", value: "a:1:y", wantErr: true},
		{name: "bad radius", value: "a:1:2:z", wantErr: true},
		{name: "negative radius", value: "a:1:2:-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePOIs(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePOIs(%q) failed: %v", tt.value, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "192.168.1.175",
		PostgresPort:     "6432",
		PostgresDB:       "owntracks",
		PostgresUser:     "testuser",
		PostgresPassword: "testpass",
	}

	expected := "host=192.168.1.175 port=6432 dbname=owntracks user=testuser password=testpass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("expected DSN '%s', got '%s'", expected, dsn)
	}
}

func TestBuildRegistry(t *testing.T) {
	entries, err := ParsePOIs(DefaultPOIs)
	if err != nil {
		t.Fatalf("ParsePOIs() failed: %v", err)
	}

	cfg := &Config{POIs: entries, BufferRadius: 500, Projection: "EPSG:32647"}
	proj, registry, err := cfg.BuildRegistry()
	if err != nil {
		t.Fatalf("BuildRegistry() failed: %v", err)
	}
	if proj == nil {
		t.Fatal("expected a projector")
	}
	if registry.Len() != 3 {
		t.Errorf("expected 3 POIs, got %d", registry.Len())
	}

	cfg.Projection = "EPSG:4326"
	if _, _, err := cfg.BuildRegistry(); err == nil {
		t.Error("expected error for unsupported projection, got nil")
	}

	cfg.Projection = "EPSG:32647"
	cfg.POIs = nil
	if _, _, err := cfg.BuildRegistry(); err == nil {
		t.Error("expected error for empty registry, got nil")
	}
}
