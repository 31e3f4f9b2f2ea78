package xconf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logFile struct {
	RetentionDays int       `koanf:"retention_days"`
	Levels        []string  `koanf:"levels"`
	Sinks         []sinkCfg `koanf:"sinks"`
}

type sinkCfg struct {
	Type string `koanf:"type"`
	Dir  string `koanf:"dir"`
}

// =============================================================================
// 测试数据
// =============================================================================

const testYAML = `
log:
  retention_days: 14
  levels: [info, error]
  sinks:
    - type: daily_file
      dir: logs
`

const testJSON = `{"log": {"retention_days": 14, "levels": ["info", "error"], "sinks": [{"type": "daily_file", "dir": "logs"}]}}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func assertLogFile(t *testing.T, cfg Config) {
	t.Helper()
	var lf logFile
	require.NoError(t, cfg.Unmarshal("log", &lf))
	assert.Equal(t, 14, lf.RetentionDays)
	assert.Equal(t, []string{"info", "error"}, lf.Levels)
	require.Len(t, lf.Sinks, 1)
	assert.Equal(t, sinkCfg{Type: "daily_file", Dir: "logs"}, lf.Sinks[0])
}

// =============================================================================
// New
// =============================================================================

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
	}{
		{"yaml", "xtail.yaml", testYAML, FormatYAML},
		{"yml upper", "xtail.YML", testYAML, FormatYAML},
		{"json", "xtail.json", testJSON, FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			cfg, err := New(path)
			require.NoError(t, err)

			assert.Equal(t, tt.format, cfg.Format())
			assert.Equal(t, path, cfg.Path())
			assertLogFile(t, cfg)
			assert.Equal(t, 14, cfg.Client().Int("log.retention_days"))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("xtail.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeConfig(t, "bad.yaml", "log: [unclosed"))
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = New(writeConfig(t, "bad.json", "{"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNew_EmptyFile(t *testing.T) {
	cfg, err := New(writeConfig(t, "empty.yaml", ""))
	require.NoError(t, err)

	var lf logFile
	require.NoError(t, cfg.Unmarshal("log", &lf))
	assert.Zero(t, lf.RetentionDays)
}

func TestNew_WithOptions(t *testing.T) {
	path := writeConfig(t, "opts.yaml", "log:\n  keep_days: 3\n")
	cfg, err := New(path, WithDelim("/"), WithTag("json"), nil)
	require.NoError(t, err)

	var out struct {
		KeepDays int `json:"keep_days"`
	}
	require.NoError(t, cfg.Unmarshal("log", &out))
	assert.Equal(t, 3, out.KeepDays)
	assert.Equal(t, 3, cfg.Client().Int("log/keep_days"))
}

func TestOptions_EmptyIgnored(t *testing.T) {
	o := applyOptions([]Option{WithDelim(""), WithTag("")})
	assert.Equal(t, ".", o.Delim)
	assert.Equal(t, "koanf", o.Tag)
}

// =============================================================================
// NewFromBytes
// =============================================================================

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testYAML), FormatYAML)
	require.NoError(t, err)
	assertLogFile(t, cfg)
	assert.Empty(t, cfg.Path())

	cfg, err = NewFromBytes([]byte(testJSON), FormatJSON)
	require.NoError(t, err)
	assertLogFile(t, cfg)
}

func TestNewFromBytes_Errors(t *testing.T) {
	_, err := NewFromBytes([]byte(testYAML), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewFromBytes([]byte("{"), FormatJSON)
	assert.ErrorIs(t, err, ErrParseFailed)

	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)
}

func TestUnmarshal_Error(t *testing.T) {
	cfg, err := NewFromBytes([]byte("log:\n  retention_days: forever\n"), FormatYAML)
	require.NoError(t, err)

	var lf logFile
	assert.ErrorIs(t, cfg.Unmarshal("log", &lf), ErrUnmarshalFailed)
}

// =============================================================================
// Reload
// =============================================================================

func TestReload(t *testing.T) {
	path := writeConfig(t, "xtail.yaml", "log:\n  retention_days: 7\n")
	cfg, err := New(path)
	require.NoError(t, err)
	old := cfg.Client()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  retention_days: 30\n"), 0o600))
	require.NoError(t, cfg.Reload())

	assert.Equal(t, 30, cfg.Client().Int("log.retention_days"))
	assert.Equal(t, 7, old.Int("log.retention_days"), "旧快照不受重载影响")
}

func TestReload_FailureKeepsSnapshot(t *testing.T) {
	path := writeConfig(t, "xtail.yaml", "log:\n  retention_days: 7\n")
	cfg, err := New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log: [broken"), 0o600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, cfg.Reload(), ErrLoadFailed)

	assert.Equal(t, 7, cfg.Client().Int("log.retention_days"))
}

func TestReload_ConcurrentReaders(t *testing.T) {
	path := writeConfig(t, "xtail.yaml", testYAML)
	cfg, err := New(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NoError(t, cfg.Reload())
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				var lf logFile
				assert.NoError(t, cfg.Unmarshal("log", &lf))
				assert.Equal(t, 14, lf.RetentionDays)
			}
		}()
	}
	wg.Wait()
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a.json": FormatJSON,
	}
	for path, want := range tests {
		got, err := detectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	for _, path := range []string{"a.toml", "a", "a.yaml.bak"} {
		_, err := detectFormat(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, path)
	}
}
