package main

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/runlock"
	"github.com/Ocean50ul/home-server/internal/testsupport"
)

// writeTestConfig lays out a config file whose paths all live under a
// fresh temp dir. Extra lines are appended into the [ffmpeg] section,
// which is why that section comes last.
func writeTestConfig(t *testing.T, ffmpegLines ...string) (string, string) {
	t.Helper()

	base := t.TempDir()
	for _, dir := range []string{"music", "video", "filesharing", "fixtures", "cache", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatalf("create %s dir: %v", dir, err)
		}
	}

	content := fmt.Sprintf(`[library]
music_path = %q
video_path = %q
filesharing_path = %q
fixtures_dir = %q

[database]
path = %q

[resample]
cache_dir = %q

[logging]
level = "error"
dir = %q

[ffmpeg]
dir = %q
`,
		filepath.Join(base, "music"),
		filepath.Join(base, "video"),
		filepath.Join(base, "filesharing"),
		filepath.Join(base, "fixtures"),
		filepath.Join(base, "library.db"),
		filepath.Join(base, "cache"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "ffmpeg"),
	)
	if len(ffmpegLines) > 0 {
		content += strings.Join(ffmpegLines, "\n") + "\n"
	}

	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, base
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLISyncRemovesMissingTracks(t *testing.T) {
	configPath, base := writeTestConfig(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	artist := testsupport.MustSaveArtist(t, store, "Boards of Canada")
	album := testsupport.MustSaveAlbum(t, store, "Geogaddi", artist.ID, 2002)
	testsupport.MustSaveTrack(t, store, "Music Is Math", album.ID, filepath.Join(base, "music", "ghost.flac"))
	if err := store.Close(); err != nil {
		t.Fatalf("close seed store: %v", err)
	}

	out, _, err := runCLI(t, []string{"sync"}, configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, "Scanned") || !strings.Contains(out, "0 audio files") {
		t.Fatalf("unexpected scan summary: %q", out)
	}
	if !strings.Contains(out, "Deleted") || !strings.Contains(out, "tracks") {
		t.Fatalf("expected reconciliation table, got %q", out)
	}

	verify, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen catalog: %v", err)
	}
	defer verify.Close()
	tracks, err := verify.AllTracks(context.Background())
	if err != nil {
		t.Fatalf("AllTracks: %v", err)
	}
	if len(tracks) != 0 {
		t.Fatalf("expected empty catalog after sync, got %d tracks", len(tracks))
	}

	out, _, err = runCLI(t, []string{"sync"}, configPath)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !strings.Contains(out, "Catalog already up to date") {
		t.Fatalf("expected no-op message, got %q", out)
	}
}

func TestCLIScanListsDescriptors(t *testing.T) {
	configPath, base := writeTestConfig(t)
	t.Setenv("PATH", "")

	musicDir := filepath.Join(base, "music")
	if err := os.WriteFile(filepath.Join(musicDir, "Some Song.flac"), []byte("not really flac"), 0o644); err != nil {
		t.Fatalf("write audio file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(musicDir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("write text file: %v", err)
	}

	out, _, err := runCLI(t, []string{"scan"}, configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "1 audio files") {
		t.Fatalf("expected one descriptor, got %q", out)
	}
	if !strings.Contains(out, "unknown artist") {
		t.Fatalf("expected placeholder metadata in table, got %q", out)
	}
	if strings.Contains(out, "notes.txt") {
		t.Fatalf("unsupported file should not be listed: %q", out)
	}
}

func TestCLIPrepareBootstrapsEnvironment(t *testing.T) {
	t.Setenv("PATH", "")

	payload := "#!/bin/sh\nexit 0\n"
	archive := buildFFmpegArchive(t, payload)
	digest := sha256.Sum256(archive)

	mux := http.NewServeMux()
	mux.HandleFunc("/ffmpeg.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/ffmpeg.zip.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  ffmpeg-release-essentials.zip\n", hex.EncodeToString(digest[:]))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	configPath, base := writeTestConfig(t,
		fmt.Sprintf("download_url = %q", server.URL+"/ffmpeg.zip"),
		fmt.Sprintf("checksum_url = %q", server.URL+"/ffmpeg.zip.sha256"),
	)

	out, _, err := runCLI(t, []string{"prepare"}, configPath)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for _, step := range []string{"directories", "database", "ffmpeg", "fixtures"} {
		if !strings.Contains(out, step) {
			t.Fatalf("step %q missing from output: %q", step, out)
		}
	}
	if !strings.Contains(out, "Environment ready") {
		t.Fatalf("expected completion message, got %q", out)
	}

	managed := filepath.Join(base, "ffmpeg", "ffmpeg")
	info, err := os.Stat(managed)
	if err != nil {
		t.Fatalf("managed ffmpeg missing: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("managed ffmpeg not executable: %v", info.Mode())
	}
	if _, err := os.Stat(filepath.Join(base, "library.db")); err != nil {
		t.Fatalf("catalog database missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "fixtures", "fixtures_state.json")); err != nil {
		t.Fatalf("fixture state missing: %v", err)
	}
}

func TestCLIFixturesPrepareAndCleanup(t *testing.T) {
	configPath, base := writeTestConfig(t)
	stubDir := filepath.Join(base, "bin")
	makeStubExecutables(t, stubDir, "ffmpeg")
	t.Setenv("PATH", stubDir)

	out, _, err := runCLI(t, []string{"fixtures", "prepare"}, configPath)
	if err != nil {
		t.Fatalf("fixtures prepare: %v", err)
	}
	if !strings.Contains(out, "Created 5 audio fixtures and 3 permission-stripped entries") {
		t.Fatalf("unexpected prepare output: %q", out)
	}

	out, _, err = runCLI(t, []string{"fixtures", "cleanup"}, configPath)
	if err != nil {
		t.Fatalf("fixtures cleanup: %v", err)
	}
	if !strings.Contains(out, "Removed fixtures under") {
		t.Fatalf("unexpected cleanup output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(base, "fixtures")); !os.IsNotExist(err) {
		t.Fatalf("fixture tree still present: %v", err)
	}
}

func TestCLIConfigInitAndValidate(t *testing.T) {
	configPath, base := writeTestConfig(t)

	target := filepath.Join(base, "fresh", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration to "+target) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, configPath); err == nil {
		t.Fatal("expected second init to fail without --overwrite")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected init error: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Config path: "+configPath) {
		t.Fatalf("expected resolved config path, got %q", out)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("expected validation success, got %q", out)
	}
}

func TestCLIStatusReportsMissingTools(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	t.Setenv("PATH", "")

	out, _, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "FFmpeg") || !strings.Contains(out, "[ERROR]") {
		t.Fatalf("expected ffmpeg reported missing, got %q", out)
	}
	if !strings.Contains(out, "FFprobe") || !strings.Contains(out, "[WARN]") {
		t.Fatalf("expected ffprobe reported as optional, got %q", out)
	}
	if !strings.Contains(out, "Artists") || !strings.Contains(out, "0 B") {
		t.Fatalf("expected empty catalog stats, got %q", out)
	}
}

func TestCLILogsShowsTrailingLines(t *testing.T) {
	configPath, base := writeTestConfig(t)

	logPath := filepath.Join(base, "logs", "home-server.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "2"}, configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") || !strings.Contains(out, "second") || !strings.Contains(out, "third") {
		t.Fatalf("unexpected logs output: %q", out)
	}

	if err := os.Remove(logPath); err != nil {
		t.Fatalf("remove log file: %v", err)
	}
	out, _, err = runCLI(t, []string{"logs"}, configPath)
	if err != nil {
		t.Fatalf("logs without file: %v", err)
	}
	if !strings.Contains(out, "No log entries available") {
		t.Fatalf("expected empty-log message, got %q", out)
	}
}

func TestCLISyncRefusedWhileLockHeld(t *testing.T) {
	configPath, base := writeTestConfig(t)

	lock := runlock.New(filepath.Join(base, "logs"))
	if err := lock.Acquire(); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, _, err := runCLI(t, []string{"sync"}, configPath)
	if err == nil {
		t.Fatal("expected sync to refuse while lock held")
	}
	if !strings.Contains(err.Error(), "already in progress") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func makeStubExecutables(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create stub bin dir: %v", err)
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
}

func buildFFmpegArchive(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	entries := []struct{ name, body string }{
		{"ffmpeg-7.1-essentials_build/README.txt", "release notes"},
		{"ffmpeg-7.1-essentials_build/bin/ffmpeg.exe", payload},
	}
	for _, entry := range entries {
		file, err := writer.Create(entry.name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := file.Write([]byte(entry.body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
