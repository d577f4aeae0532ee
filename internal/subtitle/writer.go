package subtitle

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MimeLyc/videotools/internal/errs"
)

// Format serializes entries back into numbered blocks separated by blank lines.
func Format(entries []Entry) string {
	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strconv.Itoa(entry.Index))
		sb.WriteString("\n")
		sb.WriteString(entry.Timestamp)
		sb.WriteString("\n")
		sb.WriteString(entry.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteFile writes the formatted entries to path, creating parent directories.
func WriteFile(path string, entries []Entry) error {
	if len(entries) == 0 {
		return errs.New(errs.ErrValidation, "subtitle data is empty")
	}
	return WriteText(path, Format(entries))
}

// WriteText writes free text (captions, thumbnail text) to path.
func WriteText(path string, text string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, errs.ErrFileWrite, "failed to create output directory").
				WithContext("path", dir)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errs.Wrap(err, errs.ErrFileWrite, "failed to create output file").
			WithContext("path", path)
	}
	return nil
}
