package downloader

import (
	"regexp"
	"strconv"
	"strings"
)

// ProgressParser turns one line of yt-dlp output into an Event.
type ProgressParser interface {
	Parse(line string) (Event, bool)
}

var (
	detailedProgress = regexp.MustCompile(`(\d+(?:\.\d+)?)% of\s+~?\s*([\d.]+[KMGTP]?i?B)\s+at\s+(.*?)\s+ETA\s+(\S+)`)
	simpleProgress   = regexp.MustCompile(`\s([\d.]+)%`)
	mergingInto      = regexp.MustCompile(`\[Merger\] Merging formats into "(.*)"`)
	destination      = regexp.MustCompile(`Destination: (.*)`)
	alreadyHave      = regexp.MustCompile(`\[download\] (.*) has already been downloaded`)
)

type lineParser struct{}

// NewProgressParser returns the parser for yt-dlp's default console output.
func NewProgressParser() ProgressParser {
	return lineParser{}
}

func (lineParser) Parse(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}

	if m := mergingInto.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventMerging, Path: m[1]}, true
	}
	if m := destination.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventDestination, Path: strings.TrimSpace(m[1])}, true
	}
	if m := alreadyHave.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventDestination, Path: m[1]}, true
	}

	if !strings.Contains(line, "%") {
		return Event{}, false
	}
	if m := detailedProgress.FindStringSubmatch(line); m != nil {
		return Event{
			Kind:     EventProgress,
			Fraction: percentToFraction(m[1]),
			Size:     m[2],
			Speed:    strings.TrimSpace(m[3]),
			ETA:      m[4],
		}, true
	}
	if ms := simpleProgress.FindAllStringSubmatch(line, -1); len(ms) > 0 {
		return Event{
			Kind:     EventProgress,
			Fraction: percentToFraction(ms[len(ms)-1][1]),
		}, true
	}

	return Event{}, false
}

func percentToFraction(s string) float64 {
	pct, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return min(max(pct/100, 0), 1)
}
