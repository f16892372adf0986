package startup

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	scanDir := t.TempDir()
	dbDir := t.TempDir()
	t.Setenv("SCAN_DIR", scanDir)
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("PORT", "")
	t.Setenv("SCAN_INTERVAL", "")
	t.Setenv("INCLUDE_HIDDEN", "")
	t.Setenv("EXCLUDED_DIRS", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.ScanDir != scanDir {
		t.Errorf("ScanDir = %s, want %s", config.ScanDir, scanDir)
	}
	if config.Port != "8080" {
		t.Errorf("Port = %s, want 8080", config.Port)
	}
	if config.ScanInterval != time.Hour {
		t.Errorf("ScanInterval = %v, want 1h", config.ScanInterval)
	}
	if config.IncludeHidden {
		t.Error("IncludeHidden should default to false")
	}
	if config.DatabasePath != filepath.Join(dbDir, "dupescan.db") {
		t.Errorf("DatabasePath = %s", config.DatabasePath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SCAN_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("SCAN_INTERVAL", "15m")
	t.Setenv("INCLUDE_HIDDEN", "true")
	t.Setenv("EXCLUDED_DIRS", "node_modules, .cache ,vendor")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "9999" {
		t.Errorf("Port = %s, want 9999", config.Port)
	}
	if config.ScanInterval != 15*time.Minute {
		t.Errorf("ScanInterval = %v, want 15m", config.ScanInterval)
	}
	if !config.IncludeHidden {
		t.Error("IncludeHidden should be true")
	}
	want := []string{"node_modules", ".cache", "vendor"}
	if !reflect.DeepEqual(config.ExcludedDirs, want) {
		t.Errorf("ExcludedDirs = %v, want %v", config.ExcludedDirs, want)
	}
}

func TestLoadConfigInvalidInterval(t *testing.T) {
	t.Setenv("SCAN_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("SCAN_INTERVAL", "not-a-duration")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.ScanInterval != time.Hour {
		t.Errorf("invalid interval should fall back to 1h, got %v", config.ScanInterval)
	}
}

func TestLoadConfigMissingScanDirIsWarning(t *testing.T) {
	t.Setenv("SCAN_DIR", filepath.Join(t.TempDir(), "not-mounted-yet"))
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("SCAN_INTERVAL", "")

	// A missing scan directory must not fail startup; the mount may
	// appear later.
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"empty uses default", "", true, true},
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"one", "1", false, true},
		{"invalid uses default", "banana", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "tmp", []string{"tmp"}},
		{"multiple with spaces", "a, b ,c", []string{"a", "b", "c"}},
		{"blank entries dropped", "a,,b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_LIST", tt.value)
			if got := getEnvList("TEST_LIST"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("getEnvList(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/duplicates/ignore", "api/duplicates"},
		{"/api/scan", "api/scan"},
		{"/healthz", "healthz"},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("incomplete build info: %+v", info)
	}
}
