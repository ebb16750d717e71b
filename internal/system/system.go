package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var videoExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".mpg", ".mpeg", ".wmv", ".flv"}

func IsVideo(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range videoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ResolveVideo returns path unchanged unless it names a directory, in which
// case the most recently modified video inside it is picked.
func ResolveVideo(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return path, nil
	}
	return FindLatestVideo(path)
}

func FindLatestVideo(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsVideo(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no video files in %s", dir)
	}

	return latestFile, nil
}
