package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func setupCLIEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{
		"CATALOG_CONFIG", "JAMENDO_CLIENT_ID", "REDIS_ADDR", "OTEL_ENABLED",
		"METRICS_ADDR", "METRICS_FILE", "STORAGE_EMULATOR_HOST",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "catalog.db"))
	t.Setenv("CATALOG_LOCK_FILE", filepath.Join(dir, "catalog.lock"))
	t.Setenv("OBJECT_STORAGE_MODE", "disabled")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
