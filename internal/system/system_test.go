package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestFindLatestVideo(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "old.mp4"), base)
	touch(t, filepath.Join(dir, "new.MKV"), base.Add(time.Hour))
	touch(t, filepath.Join(dir, "newest.txt"), base.Add(2*time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "later.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatestVideo(dir)
	if err != nil {
		t.Fatalf("FindLatestVideo: %v", err)
	}
	if want := filepath.Join(dir, "new.MKV"); got != want {
		t.Errorf("FindLatestVideo() = %s, want %s", got, want)
	}
}

func TestFindLatestVideoEmpty(t *testing.T) {
	if _, err := FindLatestVideo(t.TempDir()); err == nil {
		t.Error("expected an error for a directory without videos")
	}
}

func TestResolveVideo(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	touch(t, clip, time.Now())

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"file", clip, clip, false},
		{"directory", dir, clip, false},
		{"missing", filepath.Join(dir, "nope.mp4"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveVideo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveVideo(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveVideo(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
