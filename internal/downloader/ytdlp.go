package downloader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/metrics"
	"github.com/MimeLyc/videotools/pkg/file"
	"github.com/MimeLyc/videotools/pkg/log"
)

const DefaultCommand = "yt-dlp"

// YTDLP runs the yt-dlp executable.
type YTDLP struct {
	command string
	parser  ProgressParser
}

// New returns a runner for command, which may be a name on PATH or a path.
func New(command string) *YTDLP {
	if command == "" {
		command = DefaultCommand
	}
	return &YTDLP{
		command: command,
		parser:  NewProgressParser(),
	}
}

func (y *YTDLP) lookPath() (string, error) {
	cmdPath, err := exec.LookPath(y.command)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrProcess, "yt-dlp executable not found").
			WithContext("command", y.command)
	}
	return cmdPath, nil
}

// Info fetches metadata for a single video without downloading it.
func (y *YTDLP) Info(ctx context.Context, rawURL string) (*VideoInfo, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	cmdPath, err := y.lookPath()
	if err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cmdPath, infoArgs(rawURL)...)
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error("Failed to run yt-dlp: %v", err)
		return nil, errs.Wrap(err, errs.ErrProcess, failureLine(strings.Split(stderr.String(), "\n")))
	}

	var info VideoInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, errs.Wrap(err, errs.ErrParsing, "failed to parse yt-dlp output")
	}
	return &info, nil
}

// Download runs yt-dlp for req and reports every recognized output line to
// onEvent, which may be nil. Calls to onEvent are serialized.
func (y *YTDLP) Download(ctx context.Context, req Request, onEvent func(Event)) (outcome *Outcome, err error) {
	defer func() {
		if err != nil {
			metrics.RecordDownload("failed")
		} else {
			metrics.RecordDownload("finished")
		}
	}()

	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}
	cmdPath, err := y.lookPath()
	if err != nil {
		return nil, err
	}

	dir := req.SaveDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "videotools-"+uuid.NewString())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, errs.ErrFileWrite, "failed to create download directory").
			WithContext("path", dir)
	}

	cmd := exec.CommandContext(ctx, cmdPath, BuildArgs(req, dir)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrProcess, "failed to open yt-dlp stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrProcess, "failed to open yt-dlp stderr")
	}

	started := time.Now()
	log.Info("Starting download of %s into %s", req.URL, dir)
	if err := cmd.Start(); err != nil {
		return nil, errs.Wrap(err, errs.ErrProcess, "failed to start yt-dlp")
	}

	var (
		mu        sync.Mutex
		finalPath string
		lines     []string
	)
	handle := func(line string) {
		mu.Lock()
		defer mu.Unlock()

		lines = append(lines, line)
		event, ok := y.parser.Parse(line)
		if !ok {
			return
		}
		if event.Kind != EventProgress {
			finalPath = event.Path
		}
		if onEvent != nil {
			onEvent(event)
		}
	}

	var g errgroup.Group
	g.Go(func() error { return scan(stdout, handle) })
	g.Go(func() error { return scan(stderr, handle) })
	scanErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.Wrap(err, errs.ErrProcess, failureLine(lines)).
			WithContext("url", req.URL)
	}
	if scanErr != nil {
		log.Warn("Reading yt-dlp output failed: %v", scanErr)
	}

	if finalPath == "" {
		finalPath = newestFile(dir, started)
	} else if !filepath.IsAbs(finalPath) {
		finalPath = filepath.Join(dir, finalPath)
	}
	log.Info("Download finished: %s", finalPath)

	return &Outcome{FilePath: finalPath, Dir: dir}, nil
}

// scan feeds fn every line of r. Carriage returns also end a line since
// yt-dlp redraws its progress line in place.
func scan(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			fn(line)
		}
	}
	return scanner.Err()
}

func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// failureLine returns the last line mentioning an error.
func failureLine(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(lines[i]), "error") {
			return strings.TrimSpace(lines[i])
		}
	}
	return "yt-dlp process failed"
}

func newestFile(dir string, since time.Time) string {
	paths, err := file.FindRecentAfter(dir, since.Add(-time.Second))
	if err != nil {
		log.Warn("Failed to list %s: %v", dir, err)
		return ""
	}
	return file.Newest(paths)
}

// ValidateURL accepts only absolute http(s) URLs so nothing reaches yt-dlp as a flag.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.New(errs.ErrValidation, fmt.Sprintf("invalid URL %q", raw))
	}
	return nil
}

// IsNotInstalled reports whether err means the executable could not be found.
func IsNotInstalled(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
