package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	if err := loadEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file: err = %v, want nil", err)
	}

	good := filepath.Join(dir, "good.env")
	if err := os.WriteFile(good, []byte("LINKBASE_MCP_TEST_VAR=ok\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINKBASE_MCP_TEST_VAR", "")
	os.Unsetenv("LINKBASE_MCP_TEST_VAR")
	if err := loadEnv(good); err != nil {
		t.Fatalf("good file: err = %v", err)
	}
	if got := os.Getenv("LINKBASE_MCP_TEST_VAR"); got != "ok" {
		t.Errorf("LINKBASE_MCP_TEST_VAR = %q, want ok", got)
	}

	bad := filepath.Join(dir, "bad.env")
	if err := os.WriteFile(bad, []byte("KEY='unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := loadEnv(bad); err == nil {
		t.Error("malformed file: expected error")
	}
}
