package file

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindRecentAfter walks dir and returns regular files modified after
// startTime. When exts is non-empty only files with one of those extensions
// (case-insensitive, with the dot) are returned.
func FindRecentAfter(dir string, startTime time.Time, exts ...string) ([]string, error) {
	var recentFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || !info.ModTime().After(startTime) {
			return nil
		}
		if len(exts) > 0 && !HasExt(path, exts...) {
			return nil
		}
		recentFiles = append(recentFiles, path)
		return nil
	})

	return recentFiles, err
}

// HasExt reports whether path ends with one of exts, ignoring case.
func HasExt(path string, exts ...string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Newest returns the most recently modified existing path, skipping
// yt-dlp's partial downloads.
func Newest(paths []string) string {
	var (
		newest  string
		newestT time.Time
	)
	for _, path := range paths {
		if HasExt(path, ".part", ".ytdl") {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest = path
			newestT = info.ModTime()
		}
	}
	return newest
}
