package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/echobeat/catalog-seeder/internal/app"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/jobs/pipeline"
)

func TestSeedGenresThenStats(t *testing.T) {
	setupCLIEnv(t)

	out, err := runCLI(t, "seed-genres", "Rock", "Pop", "Rock")
	if err != nil {
		t.Fatalf("seed-genres: %v", err)
	}
	if !strings.Contains(out, "Rock, Pop") {
		t.Fatalf("seed-genres output missing created genres:\n%s", out)
	}

	out, err = runCLI(t, "stats", "--json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var st pipeline.Stats
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if st.Genres != 2 {
		t.Fatalf("genres: want=2 got=%d", st.Genres)
	}
}

func TestGenrePlaylistsWithoutImages(t *testing.T) {
	setupCLIEnv(t)
	if _, err := runCLI(t, "seed-genres"); err != nil {
		t.Fatalf("seed-genres: %v", err)
	}
	out, err := runCLI(t, "genre-playlists")
	if err != nil {
		t.Fatalf("genre-playlists: %v", err)
	}
	if !strings.Contains(out, "no genre has an image") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestFailuresEmpty(t *testing.T) {
	setupCLIEnv(t)
	out, err := runCLI(t, "failures")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	if !strings.Contains(out, "✓ Failures  none") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestIngestRequiresStorage(t *testing.T) {
	setupCLIEnv(t)
	t.Setenv("JAMENDO_CLIENT_ID", "abc")
	_, err := runCLI(t, "ingest", "--pages", "1")
	if err == nil {
		t.Fatalf("ingest with storage disabled should fail")
	}
	if !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIngestRequiresFeedCredentials(t *testing.T) {
	setupCLIEnv(t)
	_, err := runCLI(t, "ingest")
	if !types.IsFatal(err) {
		t.Fatalf("want configuration error got=%v", err)
	}
}

func TestBackfillCoversRejectsUnknownKind(t *testing.T) {
	setupCLIEnv(t)
	_, err := runCLI(t, "backfill-covers", "--kind", "artist", "--dir", t.TempDir())
	if !types.IsCode(err, types.CodeValidation) {
		t.Fatalf("want validation error got=%v", err)
	}
}

func TestConfigFlagIsPassedThrough(t *testing.T) {
	var seen app.Options
	cfg := "/etc/catalog.yaml"
	jsonOut := false
	ctx := newCommandContext(&cfg, &jsonOut)
	ctx.openApp = func(_ *cobra.Command, opts app.Options) (*app.App, error) {
		seen = opts
		return nil, types.ConfigurationError("test", "stop")
	}
	cmd := newStatsCommand(ctx)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); !types.IsFatal(err) {
		t.Fatalf("want stub error got=%v", err)
	}
	if seen.ConfigPath != cfg || !seen.Migrate || seen.Exclusive {
		t.Fatalf("unexpected options: %+v", seen)
	}
}
