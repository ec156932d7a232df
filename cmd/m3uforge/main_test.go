package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/voyagen/m3uforge/internal/models"
)

const sample = "\ufeff#EXTM3U url-tvg=\"http://epg\" cache=5\r\n" +
	"#EXTINF:-1 tvg-id=\"a\" group-title=\"News\", Alpha\r\n" +
	"http://s/a\r\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func withMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := appFs
	fs := afero.NewMemMapFs()
	appFs = fs
	t.Cleanup(func() { appFs = prev })
	if err := afero.WriteFile(fs, "in.m3u", []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestFormatCommand(t *testing.T) {
	withMemFs(t)

	out, err := run(t, "format", "in.m3u")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "#EXTM3U url-tvg=\"http://epg\" cache=\"5\"\n" +
		"#EXTINF:-1 tvg-id=\"a\" group-title=\"News\", Alpha\n" +
		"http://s/a\n"
	if out != want {
		t.Errorf("format output = %q, want %q", out, want)
	}
}

func TestFormatCommandToFile(t *testing.T) {
	fs := withMemFs(t)
	t.Cleanup(func() { formatOutput = "" })

	if _, err := run(t, "format", "in.m3u", "-o", "out.m3u"); err != nil {
		t.Fatalf("format: %v", err)
	}
	data, err := afero.ReadFile(fs, "out.m3u")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "#EXTM3U url-tvg=\"http://epg\"") {
		t.Errorf("unexpected output file: %q", data)
	}
}

func TestInspectCommand(t *testing.T) {
	withMemFs(t)

	out, err := run(t, "inspect", "in.m3u")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var p models.Playlist
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if p.Cache != 5 || len(p.Entries) != 1 || p.Entries[0].Title != "Alpha" {
		t.Errorf("unexpected playlist: %+v", p)
	}
}

func TestFormatCommandRejectsNonM3U(t *testing.T) {
	fs := withMemFs(t)
	if err := afero.WriteFile(fs, "bad.txt", []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "format", "bad.txt"); err == nil {
		t.Fatal("expected error for non-M3U input")
	}
}
