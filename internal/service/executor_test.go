package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/videotools/internal/downloader"
	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/jobs"
)

type fakeDownloader struct {
	events  []downloader.Event
	gotReq  downloader.Request
	outcome *downloader.Outcome
}

func (f *fakeDownloader) Info(_ context.Context, url string) (*downloader.VideoInfo, error) {
	return &downloader.VideoInfo{ID: "abc", Title: "clip", WebpageURL: url}, nil
}

func (f *fakeDownloader) Download(_ context.Context, req downloader.Request, onEvent func(downloader.Event)) (*downloader.Outcome, error) {
	f.gotReq = req
	for _, ev := range f.events {
		onEvent(ev)
	}
	return f.outcome, nil
}

type progressLog struct {
	mu       sync.Mutex
	progress []float64
	statuses []string
}

func (p *progressLog) report(progress float64, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, progress)
	p.statuses = append(p.statuses, status)
}

func jobWith(t *testing.T, kind jobs.Kind, payload any) *jobs.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &jobs.Job{ID: "job-1", Kind: kind, Payload: raw}
}

func TestExecutorTranslateWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "episode.srt")
	require.NoError(t, os.WriteFile(input, srtOf(3), 0o644))

	exec := NewExecutor(newTestPipeline(&fakeModel{}), nil)
	progress := &progressLog{}

	out, err := exec.Execute(context.Background(), jobWith(t, jobs.KindTranslate, TranslatePayload{Input: input}), progress.report)
	require.NoError(t, err)

	result, ok := out.(*TranslateResult)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "episode.vi.srt"), result.Output)
	assert.Equal(t, filepath.Join(dir, "episode.captions.txt"), result.CaptionsOutput)
	assert.Equal(t, filepath.Join(dir, "episode.thumbnail.txt"), result.ThumbnailOutput)
	assert.Equal(t, 3, result.Entries)
	assert.Equal(t, "vi", result.TargetLanguage)

	srt, err := os.ReadFile(result.Output)
	require.NoError(t, err)
	assert.Contains(t, string(srt), "1\n00:00:01,000 --> 00:00:01,500\nvi line 1\n")

	thumb, err := os.ReadFile(result.ThumbnailOutput)
	require.NoError(t, err)
	assert.Equal(t, "SỐC", string(thumb))

	require.NotEmpty(t, progress.progress)
	assert.InDelta(t, 1.0, progress.progress[len(progress.progress)-1], 1e-9)
	assert.Contains(t, progress.statuses, "batch 1 of 1")
}

func TestExecutorTranslateHonorsExplicitOutputs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	require.NoError(t, os.WriteFile(input, srtOf(2), 0o644))
	payload := TranslatePayload{
		Input:           input,
		Output:          filepath.Join(dir, "out", "final.srt"),
		CaptionsOutput:  filepath.Join(dir, "out", "caps.txt"),
		ThumbnailOutput: filepath.Join(dir, "out", "thumb.txt"),
	}

	result, err := NewExecutor(newTestPipeline(&fakeModel{}), nil).Translate(context.Background(), payload, nil)
	require.NoError(t, err)
	assert.Equal(t, payload.Output, result.Output)
	assert.FileExists(t, payload.Output)
	assert.FileExists(t, payload.CaptionsOutput)
	assert.FileExists(t, payload.ThumbnailOutput)
}

func TestExecutorTranslateInlineContent(t *testing.T) {
	content := `{"materials":{"texts":[{"start_time":0,"end_time":1000000,"content":"Hello"}]}}`

	result, err := NewExecutor(newTestPipeline(&fakeModel{}), nil).
		Translate(context.Background(), TranslatePayload{Content: content, IsJSON: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,000\nvi Hello\n", result.SubtitleText)
	assert.Contains(t, result.Captions, "Ai ngờ?")
	assert.Equal(t, "SỐC", result.Thumbnail)
	assert.Empty(t, result.Output)
}

func TestExecutorTranslateMissingInput(t *testing.T) {
	exec := NewExecutor(newTestPipeline(&fakeModel{}), nil)

	_, err := exec.Translate(context.Background(), TranslatePayload{Input: filepath.Join(t.TempDir(), "gone.srt")}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrFileNotFound))

	_, err = exec.Translate(context.Background(), TranslatePayload{}, nil)
	assert.True(t, errs.IsType(err, errs.ErrValidation))
}

func TestExecutorTranslateFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.srt")
	require.NoError(t, os.WriteFile(input, srtOf(3), 0o644))

	_, err := NewExecutor(newTestPipeline(&fakeModel{failBatch: 1}), nil).
		Translate(context.Background(), TranslatePayload{Input: input}, nil)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "clip.vi.srt"))
}

func TestExecutorDownloadReportsProgress(t *testing.T) {
	fake := &fakeDownloader{
		events: []downloader.Event{
			{Kind: downloader.EventDestination, Path: "/tmp/x/clip.f137.mp4"},
			{Kind: downloader.EventProgress, Fraction: 0.5, Size: "10.00MiB", Speed: "1.00MiB/s", ETA: "00:05"},
			{Kind: downloader.EventProgress, Fraction: 0.75},
			{Kind: downloader.EventMerging, Path: "/tmp/x/clip.mp4"},
		},
		outcome: &downloader.Outcome{FilePath: "/tmp/x/clip.mp4", Dir: "/tmp/x"},
	}
	req := downloader.Request{URL: "https://example.com/watch?v=1", Quality: downloader.Quality720p}
	progress := &progressLog{}

	out, err := NewExecutor(nil, fake).Execute(context.Background(), jobWith(t, jobs.KindDownload, req), progress.report)
	require.NoError(t, err)

	assert.Equal(t, &downloader.Outcome{FilePath: "/tmp/x/clip.mp4", Dir: "/tmp/x"}, out)
	assert.Equal(t, req, fake.gotReq)
	assert.InDeltaSlice(t, []float64{0.5, 0.75, 1}, progress.progress, 1e-9)
	assert.Equal(t, []string{
		"downloading 10.00MiB at 1.00MiB/s, ETA 00:05",
		"downloading",
		"merging formats",
	}, progress.statuses)
}

func TestExecutorRejectsUnknownKindAndMissingComponents(t *testing.T) {
	exec := NewExecutor(nil, nil)

	_, err := exec.Execute(context.Background(), jobWith(t, jobs.Kind("upload"), map[string]string{}), nil)
	assert.True(t, errs.IsType(err, errs.ErrValidation))

	_, err = exec.Execute(context.Background(), jobWith(t, jobs.KindDownload, downloader.Request{URL: "https://x.y"}), nil)
	assert.True(t, errs.IsType(err, errs.ErrConfig))

	_, err = exec.Execute(context.Background(), jobWith(t, jobs.KindTranslate, TranslatePayload{Input: "a.srt"}), nil)
	assert.True(t, errs.IsType(err, errs.ErrConfig))
}

func TestOutputPaths(t *testing.T) {
	got := OutputPaths(TranslatePayload{Input: "/inbox/show.s01e01.srt"}, "vi")
	assert.Equal(t, "/inbox/show.s01e01.vi.srt", got.Output)
	assert.Equal(t, "/inbox/show.s01e01.captions.txt", got.CaptionsOutput)
	assert.Equal(t, "/inbox/show.s01e01.thumbnail.txt", got.ThumbnailOutput)
}

// overlapModel records how many Generate calls were in flight at once.
type overlapModel struct {
	fakeModel
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *overlapModel) Generate(ctx context.Context, p string) (string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.peak.Load()
		if n <= peak || m.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return m.fakeModel.Generate(ctx, p)
}

func TestExecutorSerializesTranslateJobs(t *testing.T) {
	model := &overlapModel{}
	exec := NewExecutor(newTestPipeline(model), nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := exec.Execute(context.Background(), jobWith(t, jobs.KindTranslate, TranslatePayload{Content: string(srtOf(2))}), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), model.peak.Load())
}

func TestExecutorQueuedTranslateHonorsCancellation(t *testing.T) {
	exec := NewExecutor(newTestPipeline(&fakeModel{}), nil)
	exec.translateSlot <- struct{}{}
	defer func() { <-exec.translateSlot }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Execute(ctx, jobWith(t, jobs.KindTranslate, TranslatePayload{Content: string(srtOf(1))}), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutorTranslateFormatOverride(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "episode.txt")
	content := `{"materials":{"texts":[{"start_time":0,"end_time":1000000,"content":"Hello"}]}}`
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	result, err := NewExecutor(newTestPipeline(&fakeModel{}), nil).
		Translate(context.Background(), TranslatePayload{Input: input, Format: "json"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Entries)
	assert.Equal(t, filepath.Join(dir, "episode.vi.srt"), result.Output)
}
