package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Data_Files/[Clean] IMO Piracy - 2000 to 2022 (PDV 01-2023).csv", cfg.IncidentsPath)
	assert.Equal(t, "Results/piracy_df_waves1.csv", cfg.ResultsPath)
	assert.Empty(t, cfg.MapPath)
	assert.Equal(t, BackendSQLite, cfg.DatasetBackend)
	assert.Equal(t, "Data_Files/waves.db", cfg.DatasetPath)
	assert.Empty(t, cfg.DatasetURL)
	assert.Equal(t, "cmems_mod_glo_wav_anfc_0.083deg_PT3H-i", cfg.DatasetID)
	assert.Equal(t, time.Date(2021, time.September, 30, 0, 0, 0, 0, time.UTC), cfg.DatasetStart)
	assert.Equal(t, time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC), cfg.DatasetEnd)
	assert.Equal(t, 30*time.Second, cfg.DatasetTimeout)
	assert.Equal(t, 0, cfg.DatasetCacheSize)
	assert.Equal(t, "Data_Files/.copernicusmarine-credentials", cfg.CredentialsFile)
	assert.InDelta(t, 0.05, cfg.SpatialBuffer, 0)
	assert.Equal(t, 30*time.Minute, cfg.TimeBuffer)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.ClassifyNarratives)
	assert.Equal(t, "Description", cfg.NarrativeColumn)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "enriched-piracy-incidents", cfg.KafkaSinkTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INCIDENTS_PATH", "in.csv")
	t.Setenv("RESULTS_PATH", "out.csv")
	t.Setenv("MAP_PATH", "map.geojson")
	t.Setenv("DATASET_BACKEND", "sqlite")
	t.Setenv("DATASET_PATH", "waves.db")
	t.Setenv("DATASET_START", "2022-01-01")
	t.Setenv("DATASET_END", "2022-12-31")
	t.Setenv("DATASET_CACHE_SIZE", "256")
	t.Setenv("SPATIAL_BUFFER_DEG", "0.1")
	t.Setenv("TIME_BUFFER", "90m")
	t.Setenv("WORKERS", "2")
	t.Setenv("CLASSIFY_NARRATIVES", "false")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "in.csv", cfg.IncidentsPath)
	assert.Equal(t, "out.csv", cfg.ResultsPath)
	assert.Equal(t, "map.geojson", cfg.MapPath)
	assert.Equal(t, BackendSQLite, cfg.DatasetBackend)
	assert.Equal(t, "waves.db", cfg.DatasetPath)
	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), cfg.DatasetStart)
	assert.Equal(t, 256, cfg.DatasetCacheSize)
	assert.InDelta(t, 0.1, cfg.SpatialBuffer, 0)
	assert.Equal(t, 90*time.Minute, cfg.TimeBuffer)
	assert.Equal(t, 2, cfg.Workers)
	assert.False(t, cfg.ClassifyNarratives)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"batch size zero", map[string]string{"BATCH_SIZE": "0"}, "BATCH_SIZE"},
		{"batch size too large", map[string]string{"BATCH_SIZE": "9999"}, "BATCH_SIZE"},
		{"dataset start", map[string]string{"DATASET_START": "30/09/2021"}, "DATASET_START"},
		{"dataset end before start", map[string]string{"DATASET_END": "2020-01-01"}, "DATASET_END"},
		{"dataset timeout", map[string]string{"DATASET_TIMEOUT": "0s"}, "DATASET_TIMEOUT"},
		{"time buffer", map[string]string{"TIME_BUFFER": "half an hour"}, "TIME_BUFFER"},
		{"spatial buffer", map[string]string{"SPATIAL_BUFFER_DEG": "-0.05"}, "SPATIAL_BUFFER_DEG"},
		{"workers", map[string]string{"WORKERS": "0"}, "WORKERS"},
		{"classify", map[string]string{"CLASSIFY_NARRATIVES": "maybe"}, "CLASSIFY_NARRATIVES"},
		{"backend", map[string]string{"DATASET_BACKEND": "opendap"}, "DATASET_BACKEND"},
		{"copernicus without url", map[string]string{"DATASET_BACKEND": "copernicus"}, "DATASET_URL is required"},
		{"copernicus url scheme", map[string]string{"DATASET_BACKEND": "copernicus", "DATASET_URL": "gateway.internal/api"}, "invalid DATASET_URL"},
		{"cache size", map[string]string{"DATASET_CACHE_SIZE": "lots"}, "DATASET_CACHE_SIZE"},
		{"negative cache size", map[string]string{"DATASET_CACHE_SIZE": "-1"}, "DATASET_CACHE_SIZE"},
		{"netcdf without path", map[string]string{"DATASET_BACKEND": "netcdf"}, "DATASET_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_CopernicusGateway(t *testing.T) {
	t.Setenv("DATASET_BACKEND", "copernicus")
	t.Setenv("DATASET_URL", "http://waves-gateway.internal:8080/api/v1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendCopernicus, cfg.DatasetBackend)
	assert.Equal(t, "http://waves-gateway.internal:8080/api/v1", cfg.DatasetURL)
	assert.Empty(t, cfg.DatasetPath)
}

func TestLoadCredentials_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".copernicusmarine-credentials")
	require.NoError(t, os.WriteFile(path, []byte("username: mariner\npassword: s3cret\n"), 0o600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "mariner", Password: "s3cret"}, creds)
	assert.False(t, creds.Empty())
}

func TestLoadCredentials_ToolboxINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".copernicusmarine-credentials")
	body := "# written by copernicusmarine login\n[credentials]\nusername=mariner\npassword = s3cret\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "mariner", Password: "s3cret"}, creds)
}

func TestLoadCredentials_INIWithoutCredentialsSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".copernicusmarine-credentials")
	require.NoError(t, os.WriteFile(path, []byte("[other]\nusername=someone\n"), 0o600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestLoadCredentials_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: mariner\npassword: s3cret\n"), 0o600))
	t.Setenv("COPERNICUSMARINE_SERVICE_PASSWORD", "rotated")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "mariner", creds.Username)
	assert.Equal(t, "rotated", creds.Password)
}

func TestLoadCredentials_MissingFile(t *testing.T) {
	t.Setenv("COPERNICUSMARINE_SERVICE_USERNAME", "env-user")

	creds, err := LoadCredentials(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, "env-user", creds.Username)
	assert.Empty(t, creds.Password)
}

func TestLoadCredentials_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: [unterminated\n"), 0o600))

	_, err := LoadCredentials(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse credentials file")
}
