package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGetDataDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv("DRAWING_DIR", customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetDataDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetDataDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv("DRAWING_DIR", "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetDataDir()
	want := filepath.Join(xdgDir, "drawingdb")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetDBAndConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DRAWING_DIR", tmpDir)

	if got, want := GetDBPath(), filepath.Join(tmpDir, "drawings.db"); got != want {
		t.Fatalf("GetDBPath expected %q, got %q", want, got)
	}

	if got, want := GetConfigPath(), filepath.Join(tmpDir, "config.yaml"); got != want {
		t.Fatalf("GetConfigPath expected %q, got %q", want, got)
	}
}

func TestLoadSettingsDefaultsWithoutFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DRAWING_DIR", tmpDir)

	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if s.Backend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", s.Backend)
	}
	if s.DBPath != filepath.Join(tmpDir, "drawings.db") {
		t.Fatalf("unexpected db path %q", s.DBPath)
	}
	if s.Level() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", s.Level())
	}
}

func TestLoadSettingsFromFileAndEnv(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DRAWING_DIR", tmpDir)
	t.Setenv("DRAWING_USER_ID", "42")

	content := "backend: memory\nlog_level: debug\nprogram_id: batch-import\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if s.Backend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", s.Backend)
	}
	if s.Level() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", s.Level())
	}
	if s.UserID != "42" || s.ProgramID != "batch-import" {
		t.Fatalf("unexpected actor %q/%q", s.UserID, s.ProgramID)
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := Settings{Backend: BackendSQLite, LogLevel: "info", UserID: "1", ProgramID: "p"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}

	bad := valid
	bad.Backend = "postgres"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown backend error")
	}

	bad = valid
	bad.LogLevel = "loud"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown log level error")
	}

	bad = valid
	bad.UserID = " "
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected missing actor error")
	}
}

func TestLoadSettingsAccessibleFieldIDs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DRAWING_DIR", tmpDir)

	content := "accessible_field_ids:\n  - 5\n  - 7\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if len(s.FieldIDs) != 2 || s.FieldIDs[0] != 5 || s.FieldIDs[1] != 7 {
		t.Fatalf("unexpected field ids %v", s.FieldIDs)
	}
}
