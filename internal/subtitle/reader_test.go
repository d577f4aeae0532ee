package subtitle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/videotools/internal/errs"
)

func TestParseSubtitleText(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:02,000 --> 00:00:03,000\nWorld\n"

	doc, err := Parse([]byte(content), KindSubtitleText)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, Entry{Index: 1, Timestamp: "00:00:01,000 --> 00:00:02,000", Text: "Hello"}, doc.Entries[0])
	assert.Equal(t, Entry{Index: 2, Timestamp: "00:00:02,000 --> 00:00:03,000", Text: "World"}, doc.Entries[1])
}

func TestParseSubtitleTextNormalizesInput(t *testing.T) {
	content := "\ufeff1\r\n00:00:01.000 --> 00:00:02.500\r\nfirst line\r\nsecond line\r\n\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\n  tail  \r\n"

	doc, err := Parse([]byte(content), KindSubtitleText)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, 1, doc.Entries[0].Index)
	assert.Equal(t, "00:00:01.000 --> 00:00:02.500", doc.Entries[0].Timestamp)
	assert.Equal(t, "first line second line", doc.Entries[0].Text)
	assert.Equal(t, "tail", doc.Entries[1].Text)
}

func TestParseSubtitleTextNoBlocks(t *testing.T) {
	_, err := Parse([]byte("just some prose\nwithout timing"), KindSubtitleText)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrParsing))
}

func TestParseTimedTextJSON(t *testing.T) {
	content := `{"materials":{"texts":[
		{"start_time":3000000,"end_time":4000000,"content":"second"},
		{"start_time":1500000,"end_time":2500000,"content":"first"},
		{"start_time":2000000,"end_time":2100000,"content":"   "},
		{"start_time":3723001000,"end_time":3723999999,"content":"late"}
	]}}`

	doc, err := Parse([]byte(content), KindTimedTextJSON)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 3)

	assert.Equal(t, Entry{Index: 1, Timestamp: "00:00:01,500 --> 00:00:02,500", Text: "first"}, doc.Entries[0])
	assert.Equal(t, Entry{Index: 2, Timestamp: "00:00:03,000 --> 00:00:04,000", Text: "second"}, doc.Entries[1])
	assert.Equal(t, Entry{Index: 3, Timestamp: "01:02:03,001 --> 01:02:03,999", Text: "late"}, doc.Entries[2])
}

func TestParseTimedTextJSONStableOrder(t *testing.T) {
	content := `{"materials":{"texts":[
		{"start_time":1000000,"end_time":2000000,"content":"a"},
		{"start_time":1000000,"end_time":2000000,"content":"b"}
	]}}`

	doc, err := Parse([]byte(content), KindTimedTextJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, Texts(doc.Entries))
}

func TestParseTimedTextJSONFailures(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"materials":`,
		"missing texts":   `{"materials":{}}`,
		"missing root":    `{"other":1}`,
		"only empty text": `{"materials":{"texts":[{"start_time":0,"end_time":1,"content":""}]}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content), KindTimedTextJSON)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrParsing))
		})
	}
}

func TestFormatMicros(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatMicros(0))
	assert.Equal(t, "00:00:01,001", FormatMicros(1_001_000))
	assert.Equal(t, "10:00:00,000", FormatMicros(36_000_000_000))
	assert.Equal(t, "00:00:00,000", FormatMicros(-5))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"materials":{"texts":[{"start_time":0,"end_time":1000,"content":"hi"}]}}`), 0o644))

	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, KindTimedTextJSON, doc.Kind)
	assert.Len(t, doc.Entries, 1)

	_, err = ReadFile(filepath.Join(dir, "missing.srt"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrFileNotFound))
}

func TestDetectLanguage(t *testing.T) {
	entries := []Entry{
		{Text: "Hello, world!"},
		{Text: "こんにちは、世界!"},
		{Text: "こんにちは、世界!"},
		{Text: "Привет, мир!"},
	}
	assert.Equal(t, language.Japanese, DetectLanguage(entries))
	assert.Equal(t, language.Und, DetectLanguage(nil))
}

func TestKindSelection(t *testing.T) {
	assert.Equal(t, KindTimedTextJSON, KindFromPath("/a/draft_content.JSON"))
	assert.Equal(t, KindSubtitleText, KindFromPath("/a/movie.srt"))
	assert.Equal(t, KindTimedTextJSON, ParseKind(" json "))
	assert.Equal(t, KindSubtitleText, ParseKind("srt"))
}
