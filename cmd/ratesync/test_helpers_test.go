package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeServer simulates the HTTP surface of a Plex Media Server: identity
// probe, section listing, section enumeration with optional guid search,
// metadata fetch, rating writes, and scrobbles.
type fakeServer struct {
	mu        sync.Mutex
	items     []fakeItem
	rates     []url.Values
	scrobbles []url.Values
}

type fakeItem struct {
	RatingKey  string
	Title      string
	Year       int
	Type       string
	IMDbGUID   string
	UserRating *float64
}

func (f *fakeServer) rateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rates)
}

func (f *fakeServer) itemJSON(item fakeItem) map[string]any {
	payload := map[string]any{
		"ratingKey": item.RatingKey,
		"title":     item.Title,
		"year":      item.Year,
		"type":      item.Type,
		"guid":      "plex://movie/" + item.RatingKey,
		"Guid":      []map[string]string{{"id": item.IMDbGUID}},
	}
	if item.UserRating != nil {
		payload["userRating"] = *item.UserRating
	}
	return payload
}

func (f *fakeServer) writeMetadata(w http.ResponseWriter, items []fakeItem) {
	metadata := make([]map[string]any, 0, len(items))
	for _, item := range items {
		metadata = append(metadata, f.itemJSON(item))
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"MediaContainer": map[string]any{"Metadata": metadata},
	})
}

func (f *fakeServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/identity":
			_, _ = w.Write([]byte(`{}`))
		case r.URL.Path == "/library/sections":
			_, _ = w.Write([]byte(`{"MediaContainer":{"Directory":[
				{"key":"1","title":"Movies","type":"movie"},
				{"key":"2","title":"Music","type":"artist"}
			]}}`))
		case r.URL.Path == "/library/sections/1/all":
			guid := r.URL.Query().Get("guid")
			if guid == "" {
				f.writeMetadata(w, f.items)
				return
			}
			for _, item := range f.items {
				if item.IMDbGUID == guid {
					f.writeMetadata(w, []fakeItem{item})
					return
				}
			}
			f.writeMetadata(w, nil)
		case strings.HasPrefix(r.URL.Path, "/library/metadata/"):
			key := strings.TrimPrefix(r.URL.Path, "/library/metadata/")
			for _, item := range f.items {
				if item.RatingKey == key {
					f.writeMetadata(w, []fakeItem{item})
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/:/rate":
			f.rates = append(f.rates, r.URL.Query())
			key := r.URL.Query().Get("key")
			for i := range f.items {
				if f.items[i].RatingKey == key {
					var rating float64
					_, _ = fmt.Sscanf(r.URL.Query().Get("rating"), "%f", &rating)
					f.items[i].UserRating = &rating
				}
			}
		case r.URL.Path == "/:/scrobble":
			f.scrobbles = append(f.scrobbles, r.URL.Query())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

type cliTestEnv struct {
	plex       *fakeServer
	serverURL  string
	configPath string
	baseDir    string
	dataDir    string
	reportDir  string
}

func setupCLITestEnv(t *testing.T, items ...fakeItem) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("PLEX_TOKEN", "")

	fake := &fakeServer{items: items}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	env := &cliTestEnv{
		plex:       fake,
		serverURL:  server.URL,
		configPath: filepath.Join(base, "config.toml"),
		baseDir:    base,
		dataDir:    filepath.Join(base, "data"),
		reportDir:  filepath.Join(base, "reports"),
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[plex]
url = %q
token = "test-token"

[paths]
data_dir = %q
log_dir = %q
report_dir = %q

[logging]
level = "error"
`,
		env.serverURL,
		env.dataDir,
		filepath.Join(env.baseDir, "logs"),
		env.reportDir,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeRatingsCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = []string{"--config", configPath}
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
