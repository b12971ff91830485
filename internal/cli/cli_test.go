package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/continuation"
	"github.com/meltforce/liftlog/internal/models"
)

// writeConfig writes a device config pointing at backendURL and returns its
// path and state dir.
func writeConfig(t *testing.T, backendURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	cfg := "device:\n" +
		"  backend_url: " + backendURL + "\n" +
		"  api_key: device-key\n" +
		"  state_dir: " + stateDir + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path, stateDir
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		configPath, envFile = "", ""
		catalogTemplates = false
		sessionsLast = 10
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

// TestCatalogCommand verifies exercise and template listings.
func TestCatalogCommand(t *testing.T) {
	path, _ := writeConfig(t, "http://localhost:1")

	out, err := run(t, "catalog", "-c", path)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, "Bench Press") || !strings.Contains(out, "MUSCLE GROUP") {
		t.Errorf("catalog output missing exercises:\n%s", out)
	}

	out, err = run(t, "catalog", "-c", path, "--templates")
	if err != nil {
		t.Fatalf("catalog --templates: %v", err)
	}
	if !strings.Contains(out, "push-a") {
		t.Errorf("templates output missing push-a:\n%s", out)
	}
}

// TestSnapshotCommands verifies show and clear against a real store.
func TestSnapshotCommands(t *testing.T) {
	path, stateDir := writeConfig(t, "http://localhost:1")

	out, err := run(t, "snapshot", "show", "-c", path)
	if err != nil {
		t.Fatalf("snapshot show: %v", err)
	}
	if !strings.Contains(out, "No saved workout") {
		t.Errorf("empty snapshot output = %q", out)
	}

	store, err := continuation.Open(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	err = store.Save(context.Background(), models.SessionSnapshot{
		Name:           "Leg Day",
		ElapsedSeconds: 754,
		SnapshotAt:     time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	})
	store.Close()
	if err != nil {
		t.Fatal(err)
	}

	out, err = run(t, "snapshot", "show", "-c", path)
	if err != nil {
		t.Fatalf("snapshot show: %v", err)
	}
	if !strings.Contains(out, "Leg Day, 12m34s elapsed") {
		t.Errorf("snapshot output = %q", out)
	}

	if _, err := run(t, "snapshot", "clear", "-c", path); err != nil {
		t.Fatalf("snapshot clear: %v", err)
	}
	out, _ = run(t, "snapshot", "show", "-c", path)
	if !strings.Contains(out, "No saved workout") {
		t.Errorf("after clear output = %q", out)
	}
}

// TestSessionsList verifies the backend listing and the API key header.
func TestSessionsList(t *testing.T) {
	volume := 1250.0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "device-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/api/v1/sessions" || r.URL.Query().Get("limit") != "5" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]models.SessionRow{{
			ID:          uuid.MustParse("7f4df2a8-4c3e-4f53-9d52-3f1c4f3f0a11"),
			Name:        "Push A",
			StartedAt:   time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
			TotalVolume: &volume,
		}})
	}))
	defer srv.Close()
	path, _ := writeConfig(t, srv.URL)

	out, err := run(t, "sessions", "list", "-c", path, "-n", "5")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	if !strings.Contains(out, "Push A") || !strings.Contains(out, "1250.0") {
		t.Errorf("sessions output = %q", out)
	}
}

// TestMissingBackendURL verifies device config validation reaches the user.
func TestMissingBackendURL(t *testing.T) {
	t.Setenv("LIFTLOG_BACKEND_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("device:\n  state_dir: "+dir+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "catalog", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "backend_url") {
		t.Errorf("err = %v, want backend_url validation error", err)
	}
}
