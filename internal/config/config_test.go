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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12212, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:12212", cfg.Server.Addr())
	assert.NotEmpty(t, cfg.Server.RegistryPath)
	assert.Equal(t, "80mm", cfg.Printer.PaperWidth)
	assert.Equal(t, 3, cfg.Printer.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Printer.MonitorInterval)
	assert.True(t, cfg.Printer.DetectOnStart)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RECEIPT_SERVER_PORT", "9000")
	t.Setenv("RECEIPT_PRINTER_PAPER_WIDTH", "58mm")
	t.Setenv("RECEIPT_PRINTER_MONITOR_INTERVAL", "500ms")
	t.Setenv("RECEIPT_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "58mm", cfg.Printer.PaperWidth)
	assert.Equal(t, 500*time.Millisecond, cfg.Printer.MonitorInterval)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  registry_path: /var/lib/receipt/printers.json
printer:
  paper_width: 112mm
  max_retries: 5
  detect_on_start: false
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/var/lib/receipt/printers.json", cfg.Server.RegistryPath)
	assert.Equal(t, "112mm", cfg.Printer.PaperWidth)
	assert.Equal(t, 5, cfg.Printer.MaxRetries)
	assert.False(t, cfg.Printer.DetectOnStart)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"RECEIPT_SERVER_PORT":         "70000",
		"RECEIPT_PRINTER_PAPER_WIDTH": "76mm",
		"RECEIPT_PRINTER_MAX_RETRIES": "0",
		"RECEIPT_LOG_FORMAT":          "xml",
	}

	for env, value := range tests {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)

			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
