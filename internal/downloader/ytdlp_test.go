package downloader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/videotools/internal/errs"
)

// installFakeYTDLP puts a shell script named yt-dlp first on PATH.
func installFakeYTDLP(t *testing.T, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp script needs a POSIX shell")
	}

	mockDir := t.TempDir()
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(mockDir, "yt-dlp"), []byte(script), 0o755))
	t.Setenv("PATH", mockDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestDownloadReportsEventsAndMergedPath(t *testing.T) {
	installFakeYTDLP(t, `dir="$2"
printf '%s\n' "$@" > "$dir/args.txt"
echo "[download] Destination: $dir/video.f137.mp4"
echo "[download]  50.0% of   10.00MiB at    1.00MiB/s ETA 00:05"
echo "[download] 100% of   10.00MiB in 00:00:10"
echo "[Merger] Merging formats into \"$dir/video.mp4\""
touch "$dir/video.mp4"`)

	dir := filepath.Join(t.TempDir(), "out")
	var events []Event
	outcome, err := New("").Download(context.Background(), Request{
		URL:     "https://example.com/watch?v=1",
		Quality: Quality720p,
		Options: Options{Subtitles: true},
		SaveDir: dir,
	}, func(e Event) {
		events = append(events, e)
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "video.mp4"), outcome.FilePath)
	assert.Equal(t, dir, outcome.Dir)

	require.Len(t, events, 4)
	assert.Equal(t, EventDestination, events[0].Kind)
	assert.Equal(t, EventProgress, events[1].Kind)
	assert.InDelta(t, 0.5, events[1].Fraction, 1e-9)
	assert.Equal(t, "10.00MiB", events[1].Size)
	assert.InDelta(t, 1.0, events[2].Fraction, 1e-9)
	assert.Equal(t, EventMerging, events[3].Kind)

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(BuildArgs(Request{
		URL:     "https://example.com/watch?v=1",
		Quality: Quality720p,
		Options: Options{Subtitles: true},
	}, dir), "\n")+"\n", string(args))
}

func TestDownloadFallsBackToNewestFile(t *testing.T) {
	installFakeYTDLP(t, `touch "$2/clip.mp3"`)

	outcome, err := New("yt-dlp").Download(context.Background(), Request{
		URL:     "https://example.com/a",
		Quality: QualityAudio,
	}, nil)
	require.NoError(t, err)
	defer os.RemoveAll(outcome.Dir)

	assert.True(t, strings.HasPrefix(filepath.Base(outcome.Dir), "videotools-"))
	assert.Equal(t, filepath.Join(outcome.Dir, "clip.mp3"), outcome.FilePath)
}

func TestDownloadFailureCarriesErrorLine(t *testing.T) {
	installFakeYTDLP(t, `echo "[generic] Extracting URL"
echo "ERROR: Unsupported URL: https://example.com/x" >&2
echo "done" >&2
exit 1`)

	_, err := New("").Download(context.Background(), Request{
		URL:     "https://example.com/x",
		SaveDir: t.TempDir(),
	}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrProcess))
	assert.Contains(t, err.Error(), "ERROR: Unsupported URL")
}

func TestDownloadRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "--exec=rm", "ftp://x/y", "https://"} {
		_, err := New("").Download(context.Background(), Request{URL: raw}, nil)
		require.Error(t, err, raw)
		assert.True(t, errs.IsType(err, errs.ErrValidation), raw)
	}
}

func TestDownloadMissingExecutable(t *testing.T) {
	_, err := New("definitely-not-yt-dlp-binary").Download(context.Background(), Request{
		URL:     "https://example.com/a",
		SaveDir: t.TempDir(),
	}, nil)
	require.Error(t, err)
	assert.True(t, IsNotInstalled(err))
	assert.True(t, errs.IsType(err, errs.ErrProcess))
}

func TestInfo(t *testing.T) {
	installFakeYTDLP(t, `[ "$1" = "--dump-json" ] || exit 2
[ "$2" = "--no-playlist" ] || exit 2
echo '{"id":"abc","title":"A Movie","uploader":"Chan","duration":125.5,"view_count":42,"formats":[]}'`)

	info, err := New("").Info(context.Background(), "https://example.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, &VideoInfo{ID: "abc", Title: "A Movie", Uploader: "Chan", Duration: 125.5, ViewCount: 42}, info)
}

func TestInfoFailures(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		installFakeYTDLP(t, `echo "ERROR: Video unavailable" >&2
exit 1`)
		_, err := New("").Info(context.Background(), "https://example.com/v")
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrProcess))
		assert.Contains(t, err.Error(), "Video unavailable")
	})

	t.Run("invalid json", func(t *testing.T) {
		installFakeYTDLP(t, `echo 'not json'`)
		_, err := New("").Info(context.Background(), "https://example.com/v")
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrParsing))
	})
}
