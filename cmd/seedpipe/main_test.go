package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"seedpipe/internal/record"
)

type fakeStore struct {
	records []record.Record
	deletes atomic.Int32
}

func (f *fakeStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			offset := 0
			fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
			page := f.records
			if offset >= len(page) {
				page = nil
			} else {
				page = page[offset:]
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(page)
		case http.MethodDelete:
			f.deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func writeTestConfig(t *testing.T, baseDir, storeURL string) string {
	t.Helper()

	configPath := filepath.Join(baseDir, "config.toml")
	content := fmt.Sprintf(`[store]
url = %q
api_key = "test-key"
table = "influencers"

[paths]
data_dir = %q
log_dir = %q
backup_dir = %q
thumbnails_dir = %q

[logging]
format = "json"
level = "info"
`,
		storeURL,
		filepath.Join(baseDir, "data"),
		filepath.Join(baseDir, "logs"),
		filepath.Join(baseDir, "backups"),
		filepath.Join(baseDir, "thumbnails"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDedupeCommandDryRunByDefault(t *testing.T) {
	store := &fakeStore{records: []record.Record{
		{"id": 1.0, "author_name": "Jacob Chong", "account_id": "jacho", "saved": true},
		{"id": 2.0, "author_name": "jacho", "account_id": "Jacob Chong"},
		{"id": 3.0, "author_name": "solo", "account_id": "account"},
	}}
	server := httptest.NewServer(store.handler())
	defer server.Close()

	base := t.TempDir()
	configPath := writeTestConfig(t, base, server.URL)

	out, err := runCLI(t, "--config", configPath, "dedupe")
	if err != nil {
		t.Fatalf("dedupe failed: %v\n%s", err, out)
	}

	if store.deletes.Load() != 0 {
		t.Fatalf("dry run issued %d delete calls", store.deletes.Load())
	}
	if !strings.Contains(out, "Dry run: nothing was deleted") {
		t.Fatalf("missing dry-run notice in output:\n%s", out)
	}
	if !strings.Contains(out, "Would remove") {
		t.Fatalf("missing plan count in output:\n%s", out)
	}

	backups, err := os.ReadDir(filepath.Join(base, "backups"))
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected 1 backup file, got %v (%v)", backups, err)
	}
}

func TestDedupeCommandCommitsWhenAsked(t *testing.T) {
	store := &fakeStore{records: []record.Record{
		{"id": 1.0, "author_name": "a", "account_id": "b", "saved": true},
		{"id": 2.0, "author_name": "b", "account_id": "a"},
	}}
	server := httptest.NewServer(store.handler())
	defer server.Close()

	configPath := writeTestConfig(t, t.TempDir(), server.URL)

	out, err := runCLI(t, "--config", configPath, "dedupe", "--dry-run=false")
	if err != nil {
		t.Fatalf("dedupe failed: %v\n%s", err, out)
	}
	if store.deletes.Load() != 1 {
		t.Fatalf("expected 1 delete call, got %d", store.deletes.Load())
	}
	if !strings.Contains(out, "Duplicates removed") {
		t.Fatalf("missing removal summary:\n%s", out)
	}
}

func TestDedupeCommandHonorsContextCancellation(t *testing.T) {
	store := &fakeStore{records: []record.Record{
		{"id": 1.0, "author_name": "a", "account_id": "b"},
		{"id": 2.0, "author_name": "b", "account_id": "a"},
	}}
	server := httptest.NewServer(store.handler())
	defer server.Close()

	configPath := writeTestConfig(t, t.TempDir(), server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", configPath, "dedupe", "--dry-run=false"})
	if err := cmd.ExecuteContext(ctx); err == nil {
		t.Fatal("canceled context must abort the run")
	}
	if store.deletes.Load() != 0 {
		t.Fatalf("canceled run issued %d delete calls", store.deletes.Load())
	}
}

func TestDedupeCommandFailsOnEmptyTable(t *testing.T) {
	store := &fakeStore{}
	server := httptest.NewServer(store.handler())
	defer server.Close()

	configPath := writeTestConfig(t, t.TempDir(), server.URL)

	if _, err := runCLI(t, "--config", configPath, "dedupe"); err == nil {
		t.Fatal("empty table must fail the command")
	}
}

func TestRunsListAfterDedupe(t *testing.T) {
	store := &fakeStore{records: []record.Record{
		{"id": 1.0, "author_name": "a", "account_id": "b"},
		{"id": 2.0, "author_name": "b", "account_id": "a"},
	}}
	server := httptest.NewServer(store.handler())
	defer server.Close()

	configPath := writeTestConfig(t, t.TempDir(), server.URL)

	if out, err := runCLI(t, "--config", configPath, "dedupe"); err != nil {
		t.Fatalf("dedupe failed: %v\n%s", err, out)
	}

	out, err := runCLI(t, "--config", configPath, "runs", "list")
	if err != nil {
		t.Fatalf("runs list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "dedupe") || !strings.Contains(out, "completed") {
		t.Fatalf("run history missing entry:\n%s", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:0")

	out, err := runCLI(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "test-key") {
		t.Fatalf("api key printed in clear:\n%s", out)
	}
	if !strings.Contains(out, "test*") {
		t.Fatalf("redacted api key missing:\n%s", out)
	}
	if !strings.Contains(out, "[store]") {
		t.Fatalf("missing store section:\n%s", out)
	}
}

func TestClassifyCommandPartitionsRecords(t *testing.T) {
	base := t.TempDir()
	inPath := filepath.Join(base, "records.json")
	records := `[
		{"author_name":"a","account_id":"one","profile_intro":"NYC based creator"},
		{"author_name":"b","account_id":"two","profile_intro":"London stylist"},
		{"author_name":"c","account_id":"three","profile_intro":"daily vlogs"}
	]`
	if err := os.WriteFile(inPath, []byte(records), 0o644); err != nil {
		t.Fatalf("write records: %v", err)
	}

	outDir := filepath.Join(base, "classified")
	out, err := runCLI(t, "classify", "--in", inPath, "--out-dir", outDir)
	if err != nil {
		t.Fatalf("classify failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "influencers_us_confirmed.json"))
	if err != nil {
		t.Fatalf("read us_confirmed: %v", err)
	}
	if !strings.Contains(string(data), `"one"`) {
		t.Fatalf("us_confirmed bucket wrong: %s", data)
	}
	for _, name := range []string{"influencers_non_us.json", "influencers_no_signature.json", "influencers_uncertain.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing bucket file %s: %v", name, err)
		}
	}
}
