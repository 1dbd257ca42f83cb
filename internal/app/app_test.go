package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	content := "api_url = \"http://127.0.0.1:1\"\n" +
		"log_dir = \"" + filepath.Join(dir, "logs") + "\"\n" +
		"cache_dir = \"" + filepath.Join(dir, "cache") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestOpen_WiresServicesAndCache(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(context.Background(), Options{ConfigPath: writeConfig(t, dir)})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if svc.Cache == nil {
		t.Fatalf("Cache = nil, want an open cache")
	}
	if svc.Client == nil || svc.Store == nil || svc.Library == nil || svc.Edits == nil || svc.Fetcher == nil {
		t.Fatalf("services not fully wired: %#v", svc)
	}
	if st := svc.Store.GetState(); st.NavIndex != -1 {
		t.Fatalf("initial NavIndex = %d, want -1", st.NavIndex)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "vitrine.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "vitrine started") {
		t.Fatalf("log = %q, want startup line", data)
	}
	if !strings.Contains(string(data), "thumbnail cache ready") || !strings.Contains(string(data), "entries=0") {
		t.Fatalf("log = %q, want cache summary", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache", "thumbs.sqlite")); err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
}

func TestOpen_NoCacheAndURLOverride(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(context.Background(), Options{
		ConfigPath: writeConfig(t, dir),
		APIURL:     "http://example.test:9000",
		NoCache:    true,
	})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if svc.Cache != nil {
		t.Fatalf("Cache = %v, want nil with NoCache", svc.Cache)
	}
	if svc.Config.APIURL != "http://example.test:9000" {
		t.Fatalf("APIURL = %q, want override", svc.Config.APIURL)
	}
}
