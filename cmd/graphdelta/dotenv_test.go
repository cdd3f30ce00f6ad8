// ABOUTME: Tests for the .env loader that reads KEY=VALUE pairs into the process environment.
// ABOUTME: Covers quoting, comments, export prefixes, malformed lines, and no-clobber behavior.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempEnv(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// unsetForTest clears keys for the test and restores them afterwards.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDotEnvSetsVariables(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_A=hello\nTEST_DOTENV_B=world\n")
	unsetForTest(t, "TEST_DOTENV_A", "TEST_DOTENV_B")

	n, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 2 {
		t.Errorf("set %d variables, want 2", n)
	}
	if got := os.Getenv("TEST_DOTENV_A"); got != "hello" {
		t.Errorf("expected TEST_DOTENV_A=hello, got %q", got)
	}
	if got := os.Getenv("TEST_DOTENV_B"); got != "world" {
		t.Errorf("expected TEST_DOTENV_B=world, got %q", got)
	}
}

func TestLoadDotEnvValueForms(t *testing.T) {
	tests := []struct {
		name, line, key, want string
	}{
		{"double quoted", `TEST_DOTENV_Q="quoted value"`, "TEST_DOTENV_Q", "quoted value"},
		{"single quoted", `TEST_DOTENV_S='single quoted'`, "TEST_DOTENV_S", "single quoted"},
		{"export prefix", `export TEST_DOTENV_X=exported`, "TEST_DOTENV_X", "exported"},
		{"equals in value", `TEST_DOTENV_EQ=a=b`, "TEST_DOTENV_EQ", "a=b"},
		{"mismatched quotes", `TEST_DOTENV_M="half'`, "TEST_DOTENV_M", `"half'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetForTest(t, tt.key)
			if _, err := loadDotEnv(writeTempEnv(t, tt.line)); err != nil {
				t.Fatalf("loadDotEnv: %v", err)
			}
			if got := os.Getenv(tt.key); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadDotEnvSkipsCommentsAndEmptyLines(t *testing.T) {
	path := writeTempEnv(t, "# this is a comment\n\nTEST_DOTENV_C=yes\n\n# another comment\n")
	unsetForTest(t, "TEST_DOTENV_C")

	n, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 1 || os.Getenv("TEST_DOTENV_C") != "yes" {
		t.Errorf("n = %d, TEST_DOTENV_C = %q", n, os.Getenv("TEST_DOTENV_C"))
	}
}

func TestLoadDotEnvNoClobber(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_NC=from_file\n")
	t.Setenv("TEST_DOTENV_NC", "from_env")

	n, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 0 {
		t.Errorf("set %d variables, want 0", n)
	}
	if got := os.Getenv("TEST_DOTENV_NC"); got != "from_env" {
		t.Errorf("expected TEST_DOTENV_NC=from_env (no clobber), got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	n, err := loadDotEnv(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil || n != 0 {
		t.Errorf("missing file: n = %d, err = %v", n, err)
	}
}

func TestLoadDotEnvMalformedLine(t *testing.T) {
	unsetForTest(t, "TEST_DOTENV_OK")
	path := writeTempEnv(t, "TEST_DOTENV_OK=1\nnot a pair\n")

	n, err := loadDotEnv(path)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if n != 1 {
		t.Errorf("set %d variables before the error, want 1", n)
	}
}

func TestLoadDotEnvAutoReadsConfigDir(t *testing.T) {
	unsetForTest(t, "TEST_DOTENV_DIR")
	path := writeTempEnv(t, "TEST_DOTENV_DIR=found\n")

	if _, err := loadDotEnvAuto(filepath.Dir(path)); err != nil {
		t.Fatalf("loadDotEnvAuto: %v", err)
	}
	if got := os.Getenv("TEST_DOTENV_DIR"); got != "found" {
		t.Errorf("TEST_DOTENV_DIR = %q, want found", got)
	}
}
