package downloader

import (
	"fmt"
	"strings"
)

// Quality selects the format yt-dlp downloads.
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	QualityAudio Quality = "audio"
)

// ParseQuality accepts the quality names, case-insensitively. Empty means best.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case "":
		return QualityBest, nil
	case QualityBest, Quality1080p, Quality720p, QualityAudio:
		return q, nil
	default:
		return "", fmt.Errorf("unknown quality %q", s)
	}
}

// height returns the vertical resolution limit, or "" when there is none.
func (q Quality) height() string {
	switch q {
	case Quality1080p, Quality720p:
		return strings.TrimSuffix(string(q), "p")
	default:
		return ""
	}
}

type Options struct {
	Subtitles bool `json:"subtitles"`
	Thumbnail bool `json:"thumbnail"`
	Metadata  bool `json:"metadata"`
	Playlist  bool `json:"playlist"`
}

type Request struct {
	URL     string  `json:"url"`
	Quality Quality `json:"quality"`
	Options Options `json:"options"`
	// SaveDir is created when missing. Empty downloads into a fresh
	// directory under the system temp dir.
	SaveDir string `json:"save_path,omitempty"`
}

// VideoInfo is the subset of yt-dlp's --dump-json output shown to users.
type VideoInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	ViewCount  int64   `json:"view_count,omitempty"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	WebpageURL string  `json:"webpage_url,omitempty"`
}

// Outcome describes a finished download.
type Outcome struct {
	FilePath string `json:"file_path"`
	Dir      string `json:"dir"`
}

type EventKind int

const (
	EventProgress EventKind = iota
	EventMerging
	EventDestination
)

func (k EventKind) String() string {
	switch k {
	case EventMerging:
		return "merging"
	case EventDestination:
		return "destination"
	default:
		return "progress"
	}
}

// Event is one structured observation scraped from yt-dlp output.
type Event struct {
	Kind     EventKind
	Fraction float64 // EventProgress only, 0..1
	Size     string
	Speed    string
	ETA      string
	Path     string // EventMerging and EventDestination
}
