package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/gemini"
	"github.com/MimeLyc/videotools/internal/prompt"
	"github.com/MimeLyc/videotools/internal/subtitle"
	"github.com/MimeLyc/videotools/internal/translator"
)

var listLine = regexp.MustCompile(`(?m)^\[(\d+)\] (.*)$`)

// fakeModel answers every prompt kind the pipeline sends.
type fakeModel struct {
	mu        sync.Mutex
	calls     int
	failBatch int // 1-based translation call to fail with a short answer, 0 never
	batches   int
}

func (m *fakeModel) Generate(_ context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	switch {
	case strings.Contains(p, prompt.CaptionCuriousHeader):
		return prompt.CaptionCuriousHeader + "\nAi ngờ?\n#phim", nil
	case strings.Contains(p, "thumbnail"):
		return "SỐC", nil
	case strings.HasPrefix(p, "Tóm tắt"):
		return "tóm tắt", nil
	}

	m.batches++
	if m.batches == m.failBatch {
		return "[1] thiếu dòng", nil
	}
	var out []string
	for _, match := range listLine.FindAllStringSubmatch(p, -1) {
		out = append(out, fmt.Sprintf("[%s] vi %s", match[1], match[2]))
	}
	return strings.Join(out, "\n"), nil
}

func srtOf(n int) []byte {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d\n00:00:%02d,000 --> 00:00:%02d,500\nline %d\n\n", i, i%60, i%60, i)
	}
	return []byte(sb.String())
}

func newTestPipeline(gen gemini.Generator) *Pipeline {
	return NewPipeline(
		translator.New(gen, translator.Options{}),
		translator.NewCreative(gen, translator.Brand{}),
		language.Vietnamese,
	)
}

func TestPipelineRun(t *testing.T) {
	model := &fakeModel{}
	var updates []Update

	result, err := newTestPipeline(model).Run(context.Background(), srtOf(20), subtitle.KindSubtitleText,
		ObserverFunc(func(u Update) { updates = append(updates, u) }))
	require.NoError(t, err)

	require.Len(t, result.Entries, 20)
	assert.Equal(t, "vi line 1", result.Entries[0].Text)
	assert.Equal(t, "00:00:01,000 --> 00:00:01,500", result.Entries[0].Timestamp)
	assert.Equal(t, subtitle.Format(result.Entries), result.SubtitleText)
	assert.Equal(t, "tóm tắt", result.Summary)
	assert.Contains(t, result.Captions, "Ai ngờ?")
	assert.Equal(t, "SỐC", result.Thumbnail)
	assert.Equal(t, language.Vietnamese, result.TargetLanguage)
	assert.Equal(t, 5, model.calls)

	var statuses []string
	var progress []float64
	for _, u := range updates {
		statuses = append(statuses, u.Status)
		progress = append(progress, u.Progress)
	}
	assert.Equal(t, []string{
		"parsing",
		"batch 1 of 2",
		"batch 2 of 2",
		"generating_content",
		"generating summary",
		"generating captions",
		"generating thumbnail text",
		"done",
	}, statuses)
	assert.InDeltaSlice(t, []float64{0, 0.10, 0.475, 0.85, 0.85, 0.90, 0.95, 1.0}, progress, 1e-9)

	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
}

func TestPipelineParseFailure(t *testing.T) {
	var last Update
	_, err := newTestPipeline(&fakeModel{}).Run(context.Background(), []byte("nothing here"), subtitle.KindSubtitleText,
		ObserverFunc(func(u Update) { last = u }))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrParsing))
	assert.Equal(t, PhaseFailed, last.Phase)
	assert.Error(t, last.Err)
}

func TestPipelineMismatchDiscardsEverything(t *testing.T) {
	model := &fakeModel{failBatch: 2}
	result, err := newTestPipeline(model).Run(context.Background(), srtOf(40), subtitle.KindSubtitleText, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errs.IsType(err, errs.ErrAPI))
	assert.Equal(t, 2, model.calls)
}

func TestPipelineTimedTextJSON(t *testing.T) {
	content := `{"materials":{"texts":[{"start_time":1500000,"end_time":2500000,"content":"Hi"}]}}`
	result, err := newTestPipeline(&fakeModel{}).Run(context.Background(), []byte(content), subtitle.KindTimedTextJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,500 --> 00:00:02,500\nvi Hi\n", result.SubtitleText)
}
