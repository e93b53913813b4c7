package envconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("AD_INT", "42")
	t.Setenv("AD_BAD_INT", "x")
	t.Setenv("AD_BOOL", "Yes")
	t.Setenv("AD_DURATION", "90s")

	if got := GetInt("AD_INT", 1); got != 42 {
		t.Fatalf("GetInt = %d", got)
	}
	if got := GetInt("AD_BAD_INT", 7); got != 7 {
		t.Fatalf("GetInt fallback = %d", got)
	}
	if !GetBool("AD_BOOL", false) {
		t.Fatalf("GetBool should accept yes")
	}
	if !GetBool("AD_UNSET_BOOL", true) {
		t.Fatalf("GetBool should fall back when unset")
	}
	if got := GetDuration("AD_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("GetDuration = %s", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "local.env")
	if err := os.WriteFile(file, []byte("AD_FROM_FILE=hello\nAD_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("AD_PRESET", "process")
	t.Cleanup(func() { _ = os.Unsetenv("AD_FROM_FILE") })

	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := Get("AD_FROM_FILE", ""); got != "hello" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := Get("AD_PRESET", ""); got != "process" {
		t.Fatalf("process env must win, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	type cfg struct {
		Port string `validate:"required"`
	}
	if err := Validate(cfg{}); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := Validate(cfg{Port: "8080"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
