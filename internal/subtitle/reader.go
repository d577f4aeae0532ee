package subtitle

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/MimeLyc/videotools/internal/errs"
)

// blockPattern matches index, timestamp range and text up to a blank line or end of input.
var blockPattern = regexp.MustCompile(
	`(\d+)\n(\d{2}:\d{2}:\d{2}[,.]\d{1,3}\s*-->\s*\d{2}:\d{2}:\d{2}[,.]\d{1,3})\n([\s\S]+?)(?:\n\n|\z)`)

// ReadFile reads path and parses it with the kind implied by its extension.
func ReadFile(path string) (*Document, error) {
	content, err := ReadContent(path)
	if err != nil {
		return nil, err
	}
	return Parse(content, KindFromPath(path))
}

// ReadContent returns the raw bytes of a subtitle file.
func ReadContent(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(err, errs.ErrFileNotFound, "subtitle file does not exist").
				WithContext("path", path)
		}
		return nil, errs.Wrap(err, errs.ErrFileRead, "failed to read subtitle file").
			WithContext("path", path)
	}
	return content, nil
}

// Parse converts content into ordered entries.
func Parse(content []byte, kind Kind) (*Document, error) {
	var (
		entries []Entry
		err     error
	)
	switch kind {
	case KindTimedTextJSON:
		entries, err = parseTimedTextJSON(content)
	default:
		entries, err = parseSubtitleText(string(content))
	}
	if err != nil {
		return nil, err
	}

	return &Document{
		Entries:  entries,
		Language: DetectLanguage(entries),
		Kind:     kind,
	}, nil
}

func parseSubtitleText(content string) ([]Entry, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)

	matches := blockPattern.FindAllStringSubmatch(content, -1)
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errs.ParsingFailed("invalid subtitle index").WithContext("index", m[1])
		}
		text := foldLines(m[3])
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Index:     index,
			Timestamp: m[2],
			Text:      text,
		})
	}

	if len(entries) == 0 {
		return nil, errs.ParsingFailed("no subtitles found")
	}
	return entries, nil
}

type timedTextDocument struct {
	Materials *struct {
		Texts *[]timedTextItem `json:"texts"`
	} `json:"materials"`
}

type timedTextItem struct {
	StartTime int64   `json:"start_time"`
	EndTime   int64   `json:"end_time"`
	Content   *string `json:"content"`
}

func parseTimedTextJSON(content []byte) ([]Entry, error) {
	var doc timedTextDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errs.Wrap(err, errs.ErrParsing, "invalid timed-text JSON")
	}
	if doc.Materials == nil || doc.Materials.Texts == nil {
		return nil, errs.ParsingFailed("timed-text JSON has no materials.texts")
	}

	items := append([]timedTextItem(nil), (*doc.Materials.Texts)...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartTime < items[j].StartTime
	})

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Content == nil {
			continue
		}
		text := foldLines(*item.Content)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Index:     len(entries) + 1,
			Timestamp: FormatMicros(item.StartTime) + " --> " + FormatMicros(item.EndTime),
			Text:      text,
		})
	}

	if len(entries) == 0 {
		return nil, errs.ParsingFailed("no subtitles found in timed-text JSON")
	}
	return entries, nil
}

// FormatMicros renders a microsecond offset as HH:MM:SS,mmm using floor division.
func FormatMicros(us int64) string {
	if us < 0 {
		us = 0
	}
	seconds := us / 1_000_000
	ms := (us % 1_000_000) / 1_000
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// foldLines joins a multi-line caption body into one trimmed line.
func foldLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

// DetectLanguage returns the most common language among entry texts.
func DetectLanguage(entries []Entry) language.Tag {
	if len(entries) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, entry := range entries {
		lang := whatlanggo.DetectLang(entry.Text).Iso6391()
		if lang == "" {
			continue
		}
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	return language.All.Make(topLang)
}
