package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/videotools/internal/jobs"
	"github.com/MimeLyc/videotools/pkg/file"
	"github.com/MimeLyc/videotools/pkg/icron"
	"github.com/MimeLyc/videotools/pkg/log"
)

// firstScanWindow bounds how far back the first scan looks.
const firstScanWindow = 7 * 24 * time.Hour

var inboxExts = []string{".srt", ".json"}

// Enqueuer accepts new jobs.
type Enqueuer interface {
	Enqueue(req jobs.EnqueueRequest) (*jobs.Job, bool, error)
}

// CronEngine is the subset of *cron.Cron the scanner registers with.
type CronEngine interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
}

// InboxScanner periodically enqueues translate jobs for new subtitle files.
type InboxScanner struct {
	dir      string
	cronExpr string
	lang     string
	queue    Enqueuer
	cron     CronEngine
	group    singleflight.Group
	now      func() time.Time

	mu          sync.Mutex
	lastTrigger time.Time
}

func NewInboxScanner(dir, cronExpr, lang string, queue Enqueuer, engine CronEngine) *InboxScanner {
	return &InboxScanner{
		dir:      dir,
		cronExpr: cronExpr,
		lang:     lang,
		queue:    queue,
		cron:     engine,
		now:      time.Now,
	}
}

// Schedule registers the scan with the cron engine. Overlapping triggers
// share one scan.
func (s *InboxScanner) Schedule(ctx context.Context) error {
	log.Info("Scheduling inbox scan of %s with %q", s.dir, s.cronExpr)
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		_, _, _ = s.group.Do("scan", func() (any, error) {
			n, err := s.Scan(ctx)
			if err != nil {
				log.Error("Failed to scan inbox %s: %v", s.dir, err)
				return nil, err
			}
			log.Info("Inbox scan of %s enqueued %d jobs", s.dir, n)
			return n, nil
		})
	})
	return err
}

// Scan enqueues every subtitle file changed since the previous scan and
// returns how many jobs were created.
func (s *InboxScanner) Scan(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return 0, fmt.Errorf("directory %s does not exist", s.dir)
	}

	triggered := s.now()
	startTime, err := s.startTime()
	if err != nil {
		return 0, fmt.Errorf("failed to get start time: %w", err)
	}
	log.Debug("Searching %s for subtitles modified after %v", s.dir, startTime)

	recent, err := file.FindRecentAfter(s.dir, startTime, inboxExts...)
	if err != nil {
		return 0, fmt.Errorf("failed to find recent files: %w", err)
	}

	created := 0
	for _, path := range recent {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if !s.isSource(path) {
			continue
		}
		_, ok, err := s.queue.Enqueue(jobs.EnqueueRequest{
			Kind:      jobs.KindTranslate,
			Source:    "cron",
			DedupeKey: TranslateDedupeKey(path),
			Payload:   TranslatePayload{Input: path},
		})
		if err != nil {
			log.Error("Failed to enqueue %s: %v", path, err)
			continue
		}
		if ok {
			created++
		}
	}

	s.mu.Lock()
	s.lastTrigger = triggered
	s.mu.Unlock()
	return created, nil
}

// isSource excludes files this tool wrote, yt-dlp metadata and inputs that
// were already translated.
func (s *InboxScanner) isSource(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".info.json") || strings.HasSuffix(name, "."+strings.ToLower(s.lang)+".srt") {
		return false
	}
	out := OutputPaths(TranslatePayload{Input: path}, s.lang).Output
	if _, err := os.Stat(out); err == nil {
		log.Debug("Skipping %s, %s already exists", path, out)
		return false
	}
	return true
}

func (s *InboxScanner) startTime() (time.Time, error) {
	s.mu.Lock()
	last := s.lastTrigger
	s.mu.Unlock()
	if !last.IsZero() {
		return last, nil
	}

	now := s.now()
	info, err := icron.GetTriggerInfo(s.cronExpr, now)
	if err != nil {
		return time.Time{}, err
	}
	if info.Last.IsZero() || now.Add(-24*time.Hour).Before(info.Last) {
		return now.Add(-firstScanWindow), nil
	}
	return info.Last, nil
}

// TranslateDedupeKey identifies translate jobs for the same input file.
func TranslateDedupeKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "translate|" + path
}
