package service

import (
	"context"
	"time"

	"golang.org/x/text/language"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/metrics"
	"github.com/MimeLyc/videotools/internal/subtitle"
	"github.com/MimeLyc/videotools/internal/translator"
	"github.com/MimeLyc/videotools/pkg/log"
)

// Result is everything one successful run produces.
type Result struct {
	Entries        []subtitle.Entry
	SubtitleText   string
	Summary        string
	Captions       string
	Thumbnail      string
	SourceLanguage language.Tag
	TargetLanguage language.Tag
	Duration       time.Duration
}

// Pipeline parses, translates and generates creative content for one input.
type Pipeline struct {
	translator *translator.Translator
	creative   *translator.Creative
	target     language.Tag
}

func NewPipeline(t *translator.Translator, c *translator.Creative, target language.Tag) *Pipeline {
	return &Pipeline{
		translator: t,
		creative:   c,
		target:     target,
	}
}

// Target is the language the pipeline translates into.
func (p *Pipeline) Target() language.Tag {
	return p.target
}

// run tracks the state of one Pipeline.Run call.
type run struct {
	state    State
	observer Observer
}

func (r *run) apply(e Event) error {
	next, err := r.state.Next(e)
	if err != nil {
		return errs.Wrap(err, errs.ErrUnknown, "invalid run state")
	}
	r.state = next
	r.emit(next.Progress(), next.Status())
	return nil
}

func (r *run) emit(progress float64, status string) {
	r.observer.Notify(Update{
		Phase:    r.state.Phase,
		Progress: progress,
		Status:   status,
		Err:      r.state.Err,
	})
}

// fail moves the run to Failed and returns err.
func (r *run) fail(err error) error {
	_ = r.apply(Event{Kind: EventFail, Err: err})
	return err
}

// Run processes content end to end. observer may be nil. On failure nothing
// but the error is returned.
func (p *Pipeline) Run(ctx context.Context, content []byte, kind subtitle.Kind, observer Observer) (*Result, error) {
	if observer == nil {
		observer = nopObserver{}
	}
	started := time.Now()
	r := &run{observer: observer}

	result, err := p.run(ctx, r, content, kind)
	elapsed := time.Since(started)
	if err != nil {
		metrics.RecordRun(PhaseFailed.String(), elapsed.Seconds())
		return nil, r.fail(err)
	}

	result.Duration = elapsed
	metrics.RecordRun(PhaseDone.String(), elapsed.Seconds())
	log.Info("Translated %d entries from %s to %s in %v",
		len(result.Entries), result.SourceLanguage, result.TargetLanguage, elapsed)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, r *run, content []byte, kind subtitle.Kind) (*Result, error) {
	if err := r.apply(Event{Kind: EventStart}); err != nil {
		return nil, err
	}

	doc, err := subtitle.Parse(content, kind)
	if err != nil {
		return nil, err
	}
	log.Info("Parsed %d %s entries, detected language %s", len(doc.Entries), kind, doc.Language)

	if err := r.apply(Event{Kind: EventParsed, Batches: p.translator.BatchCount(len(doc.Entries))}); err != nil {
		return nil, err
	}

	var stateErr error
	translated, err := p.translator.Translate(ctx, doc.Entries, func(bp translator.BatchProgress) {
		if bp.Index > 0 && stateErr == nil {
			stateErr = r.apply(Event{Kind: EventBatchTranslated})
		}
	})
	if err != nil {
		return nil, err
	}
	if stateErr != nil {
		return nil, stateErr
	}
	if err := r.apply(Event{Kind: EventBatchTranslated}); err != nil {
		return nil, err
	}

	creative, err := p.creative.Generate(ctx, translated, func(step translator.Step) {
		r.emit(step.Fraction(), step.String())
	})
	if err != nil {
		return nil, err
	}

	if err := r.apply(Event{Kind: EventContentGenerated}); err != nil {
		return nil, err
	}

	return &Result{
		Entries:        translated,
		SubtitleText:   subtitle.Format(translated),
		Summary:        creative.Summary,
		Captions:       creative.Captions,
		Thumbnail:      creative.Thumbnail,
		SourceLanguage: doc.Language,
		TargetLanguage: p.target,
	}, nil
}
