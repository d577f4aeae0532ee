package subtitle

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Kind selects the input encoding handed to Parse.
type Kind int

const (
	// KindSubtitleText is the numbered-block interchange format (.srt).
	KindSubtitleText Kind = iota
	// KindTimedTextJSON is the editor export {"materials":{"texts":[...]}} with microsecond times.
	KindTimedTextJSON
)

func (k Kind) String() string {
	switch k {
	case KindTimedTextJSON:
		return "json"
	default:
		return "srt"
	}
}

// KindFromPath picks the parser from a file extension.
func KindFromPath(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return KindTimedTextJSON
	}
	return KindSubtitleText
}

// ParseKind accepts "json" or "srt" (the default for anything else).
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return KindTimedTextJSON
	}
	return KindSubtitleText
}

// Entry is one timed caption unit.
type Entry struct {
	Index     int    `json:"index"`     // ordinal position, used as output key
	Timestamp string `json:"timestamp"` // "HH:MM:SS,mmm --> HH:MM:SS,mmm", kept verbatim
	Text      string `json:"text"`      // single line, never empty
}

// WithText returns a copy of the entry carrying replaced text.
func (e Entry) WithText(text string) Entry {
	return Entry{
		Index:     e.Index,
		Timestamp: e.Timestamp,
		Text:      text,
	}
}

// Document is the result of parsing one input.
type Document struct {
	Entries  []Entry
	Language language.Tag
	Kind     Kind
}

// Texts returns the text of every entry in order.
func Texts(entries []Entry) []string {
	ret := make([]string, len(entries))
	for i, e := range entries {
		ret[i] = e.Text
	}
	return ret
}
