package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mihirpathak97/Rainbow/internal/config"
	"github.com/mihirpathak97/Rainbow/internal/fingerprint"
	"github.com/mihirpathak97/Rainbow/internal/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		Fingerprint: config.FingerprintConfig{FpcalcPath: "fpcalc-does-not-exist", MaxLength: 120},
		AcoustID:    config.AcoustIDConfig{Meta: "recordings", Timeout: time.Second},
		Catalog:     config.CatalogConfig{Timeout: time.Second},
		Batch:       config.BatchConfig{SkipFile: "skipped.txt"},
	}
}

func writeMP3(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "song.mp3")
	data := append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 417)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPropagatesError(t *testing.T) {
	a := New(testConfig(), logging.Discard(), &bytes.Buffer{})
	want := errors.New("boom")
	if err := a.Run(func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}
}

func TestScanRequiresAPIKey(t *testing.T) {
	a := New(testConfig(), logging.Discard(), &bytes.Buffer{})
	if _, err := a.Scan(context.Background(), t.TempDir(), ScanOptions{Fingerprint: true}); err == nil {
		t.Fatal("expected error without ACOUSTID_API_KEY")
	}
}

func TestScanMissingFpcalc(t *testing.T) {
	cfg := testConfig()
	cfg.AcoustID.APIKey = "key"
	a := New(cfg, logging.Discard(), &bytes.Buffer{})

	_, err := a.Scan(context.Background(), t.TempDir(), ScanOptions{Fingerprint: true})
	if !errors.Is(err, fingerprint.ErrBackendMissing) {
		t.Fatalf("Scan() error = %v, want ErrBackendMissing", err)
	}
}

func TestScanListOnly(t *testing.T) {
	dir := t.TempDir()
	writeMP3(t, dir)
	var out bytes.Buffer

	report, err := New(testConfig(), logging.Discard(), &out).Scan(context.Background(), dir, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if report.Attempted != 0 {
		t.Errorf("report = %+v", report)
	}
	if !strings.Contains(out.String(), "song.mp3") {
		t.Errorf("output = %q", out.String())
	}
}

func TestEmbedRequiresCredentials(t *testing.T) {
	a := New(testConfig(), logging.Discard(), &bytes.Buffer{})
	if _, err := a.Embed(context.Background(), "song.mp3", "id"); err == nil {
		t.Fatal("expected error without catalog credentials")
	}
}

func TestSubmitMissingFpcalc(t *testing.T) {
	cfg := testConfig()
	cfg.AcoustID.APIKey = "key"
	cfg.AcoustID.UserKey = "user"

	err := New(cfg, logging.Discard(), &bytes.Buffer{}).Submit(context.Background(), "song.mp3", "")
	if !errors.Is(err, fingerprint.ErrBackendMissing) {
		t.Fatalf("Submit() error = %v, want ErrBackendMissing", err)
	}
}

func TestEmbedAndInspect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/tracks/t1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"t1","name":"Thieves Like Us","type":"track","track_number":2,"disc_number":1,
			"duration_ms":396000,"artists":[{"id":"a1","name":"New Order"}],
			"album":{"id":"al1","name":"Substance","images":[]}}`))
	})
	mux.HandleFunc("/v1/artists/a1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"a1","genres":["new wave"]}`))
	})
	mux.HandleFunc("/v1/albums/al1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"al1","label":"Factory","release_date":"1987-08-17","tracks":{"total":24}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Catalog.ClientID = "id"
	cfg.Catalog.ClientSecret = "secret"
	cfg.Catalog.TokenURL = srv.URL + "/token"
	cfg.Catalog.APIURL = srv.URL + "/v1"

	var out bytes.Buffer
	a := New(cfg, logging.Discard(), &out)
	path := writeMP3(t, t.TempDir())

	ok, err := a.Embed(context.Background(), path, "t1")
	if err != nil || !ok {
		t.Fatalf("Embed() = %v, %v; output %q", ok, err, out.String())
	}

	tags, err := a.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if tags.Title != "Thieves Like Us" || tags.Artist != "New Order" || tags.Album != "Substance" {
		t.Errorf("tags = %+v", tags)
	}
	if tags.Genre != "New Wave" || tags.Year != 1987 || tags.Track != 2 || tags.TrackTotal != 24 {
		t.Errorf("tags = %+v", tags)
	}
}
