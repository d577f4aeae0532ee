package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MimeLyc/videotools/internal/downloader"
	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/jobs"
	"github.com/MimeLyc/videotools/internal/subtitle"
	"github.com/MimeLyc/videotools/pkg/file"
	"github.com/MimeLyc/videotools/pkg/log"
)

// Downloader is the part of the yt-dlp runner the service needs.
type Downloader interface {
	Info(ctx context.Context, url string) (*downloader.VideoInfo, error)
	Download(ctx context.Context, req downloader.Request, onEvent func(downloader.Event)) (*downloader.Outcome, error)
}

// TranslatePayload is stored on translate jobs. Either Input names a file on
// disk, whose outputs default to files next to it, or Content carries the
// subtitle inline and the results are returned instead of written.
type TranslatePayload struct {
	Input           string `json:"input,omitempty"`
	Output          string `json:"output,omitempty"`
	CaptionsOutput  string `json:"captions_output,omitempty"`
	ThumbnailOutput string `json:"thumbnail_output,omitempty"`
	Content         string `json:"content,omitempty"`
	IsJSON          bool   `json:"is_json,omitempty"`
	// Format overrides the parser picked from Input's extension.
	Format string `json:"format,omitempty"`
}

func (p TranslatePayload) source() ([]byte, subtitle.Kind, error) {
	if strings.TrimSpace(p.Input) != "" {
		kind := subtitle.KindFromPath(p.Input)
		if p.Format != "" {
			kind = subtitle.ParseKind(p.Format)
		}
		content, err := subtitle.ReadContent(p.Input)
		return content, kind, err
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, subtitle.KindSubtitleText, errs.New(errs.ErrValidation, "input file or content is required")
	}
	kind := subtitle.KindSubtitleText
	if p.IsJSON {
		kind = subtitle.KindTimedTextJSON
	}
	return []byte(p.Content), kind, nil
}

type TranslateResult struct {
	Output          string  `json:"output,omitempty"`
	CaptionsOutput  string  `json:"captions_output,omitempty"`
	ThumbnailOutput string  `json:"thumbnail_output,omitempty"`
	SubtitleText    string  `json:"subtitle_text,omitempty"`
	Captions        string  `json:"captions"`
	Thumbnail       string  `json:"thumbnail_text"`
	Summary         string  `json:"summary"`
	Entries         int     `json:"entries"`
	SourceLanguage  string  `json:"source_language"`
	TargetLanguage  string  `json:"target_language"`
	Seconds         float64 `json:"seconds"`
}

// OutputPaths fills in the default output locations for input.
func OutputPaths(p TranslatePayload, lang string) TranslatePayload {
	if p.Output == "" {
		p.Output = file.ReplaceExt(p.Input, "."+lang+".srt")
	}
	if p.CaptionsOutput == "" {
		p.CaptionsOutput = file.ReplaceExt(p.Input, ".captions.txt")
	}
	if p.ThumbnailOutput == "" {
		p.ThumbnailOutput = file.ReplaceExt(p.Input, ".thumbnail.txt")
	}
	return p
}

// Executor runs queued jobs of every kind. Translate jobs run one at a time
// since they share the API key rotation; downloads run on every worker.
type Executor struct {
	pipeline   *Pipeline
	downloader Downloader

	translateSlot chan struct{}
}

func NewExecutor(pipeline *Pipeline, d Downloader) *Executor {
	return &Executor{
		pipeline:      pipeline,
		downloader:    d,
		translateSlot: make(chan struct{}, 1),
	}
}

// Execute has the jobs.Executor signature.
func (e *Executor) Execute(ctx context.Context, job *jobs.Job, report jobs.ProgressFunc) (any, error) {
	switch job.Kind {
	case jobs.KindTranslate:
		var payload TranslatePayload
		if err := job.DecodePayload(&payload); err != nil {
			return nil, errs.Wrap(err, errs.ErrValidation, "invalid translate payload")
		}
		select {
		case e.translateSlot <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		defer func() { <-e.translateSlot }()
		return e.Translate(ctx, payload, report)
	case jobs.KindDownload:
		var req downloader.Request
		if err := job.DecodePayload(&req); err != nil {
			return nil, errs.Wrap(err, errs.ErrValidation, "invalid download payload")
		}
		return e.Download(ctx, req, report)
	default:
		return nil, errs.New(errs.ErrValidation, fmt.Sprintf("unknown job kind %q", job.Kind))
	}
}

// Translate runs the pipeline over one subtitle. File inputs get their three
// outputs written to disk.
func (e *Executor) Translate(ctx context.Context, payload TranslatePayload, report jobs.ProgressFunc) (*TranslateResult, error) {
	if e.pipeline == nil {
		return nil, errs.New(errs.ErrConfig, "translation is not configured")
	}
	content, kind, err := payload.source()
	if err != nil {
		return nil, err
	}

	result, err := e.pipeline.Run(ctx, content, kind, ObserverFunc(func(u Update) {
		if report != nil {
			report(u.Progress, u.Status)
		}
	}))
	if err != nil {
		return nil, err
	}

	ret := &TranslateResult{
		Captions:       result.Captions,
		Thumbnail:      result.Thumbnail,
		Summary:        result.Summary,
		Entries:        len(result.Entries),
		SourceLanguage: result.SourceLanguage.String(),
		TargetLanguage: result.TargetLanguage.String(),
		Seconds:        result.Duration.Seconds(),
	}
	if strings.TrimSpace(payload.Input) == "" {
		ret.SubtitleText = result.SubtitleText
		return ret, nil
	}

	payload = OutputPaths(payload, e.pipeline.Target().String())
	if err := subtitle.WriteFile(payload.Output, result.Entries); err != nil {
		return nil, err
	}
	if err := subtitle.WriteText(payload.CaptionsOutput, result.Captions); err != nil {
		return nil, err
	}
	if err := subtitle.WriteText(payload.ThumbnailOutput, result.Thumbnail); err != nil {
		return nil, err
	}
	log.Info("Wrote %s, %s and %s", payload.Output, payload.CaptionsOutput, payload.ThumbnailOutput)

	ret.Output = payload.Output
	ret.CaptionsOutput = payload.CaptionsOutput
	ret.ThumbnailOutput = payload.ThumbnailOutput
	return ret, nil
}

// Download runs yt-dlp and reports its progress and merge steps.
func (e *Executor) Download(ctx context.Context, req downloader.Request, report jobs.ProgressFunc) (*downloader.Outcome, error) {
	if e.downloader == nil {
		return nil, errs.New(errs.ErrConfig, "downloads are not configured")
	}
	return e.downloader.Download(ctx, req, func(ev downloader.Event) {
		if report == nil {
			return
		}
		switch ev.Kind {
		case downloader.EventProgress:
			status := "downloading"
			if ev.Speed != "" {
				status = fmt.Sprintf("downloading %s at %s, ETA %s", ev.Size, ev.Speed, ev.ETA)
			}
			report(ev.Fraction, status)
		case downloader.EventMerging:
			report(1, "merging formats")
		}
	})
}
