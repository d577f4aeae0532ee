package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/gemini"
	"github.com/MimeLyc/videotools/internal/metrics"
	"github.com/MimeLyc/videotools/internal/prompt"
	"github.com/MimeLyc/videotools/internal/subtitle"
	"github.com/MimeLyc/videotools/pkg/log"
)

// Translator drives one remote call per batch, each carrying the original
// text of the previous batch as context.
type Translator struct {
	gen  gemini.Generator
	opts Options
}

func New(gen gemini.Generator, opts Options) *Translator {
	return &Translator{
		gen:  gen,
		opts: opts.withDefaults(),
	}
}

// BatchCount is the number of remote calls Translate makes for n entries.
func (t *Translator) BatchCount(n int) int {
	return t.opts.BatchCount(n)
}

// Chunk splits entries into consecutive batches of at most size entries.
func Chunk(entries []subtitle.Entry, size int) [][]subtitle.Entry {
	if size <= 0 {
		size = BatchSize
	}
	batches := make([][]subtitle.Entry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		batches = append(batches, entries[start:end])
	}
	return batches
}

// foldState is the accumulator threaded through the batches.
type foldState struct {
	translated []subtitle.Entry
	context    string // original texts of the previous batch, "" before the first
}

// Translate returns entries with text replaced, or an error and nothing.
// onBatch may be nil.
func (t *Translator) Translate(
	ctx context.Context,
	entries []subtitle.Entry,
	onBatch func(BatchProgress),
) ([]subtitle.Entry, error) {
	if len(entries) == 0 {
		return nil, errs.New(errs.ErrValidation, "no subtitle entries to translate")
	}

	batches := Chunk(entries, t.opts.BatchSize)
	state := foldState{translated: make([]subtitle.Entry, 0, len(entries))}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress := newBatchProgress(i, len(batches))
		if onBatch != nil {
			onBatch(progress)
		}
		log.Debug("Translating %s (%d entries)", progress.Status(), len(batch))

		next, err := t.step(ctx, state, i, batch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", progress.Status(), err)
		}
		state = next
	}

	return state.translated, nil
}

func (t *Translator) step(ctx context.Context, state foldState, index int, batch []subtitle.Entry) (foldState, error) {
	originals := subtitle.Texts(batch)

	raw, err := t.gen.Generate(ctx, prompt.Translation(originals, index == 0, state.context))
	if err != nil {
		return state, err
	}

	lines, err := ParseNumbered(raw, t.opts.StrictNumbering)
	if err != nil {
		return state, err
	}
	if len(lines) != len(batch) {
		return state, errs.APIError("line count mismatch").
			WithContext("expected", len(batch)).
			WithContext("got", len(lines))
	}

	translated := state.translated
	for i, entry := range batch {
		text := lines[i]
		if t.opts.EnforceWordLimit {
			if text, err = t.fitWords(ctx, originals[i], text); err != nil {
				return state, err
			}
		}
		translated = append(translated, entry.WithText(text))
	}
	metrics.RecordBatch()

	return foldState{
		translated: translated,
		context:    strings.Join(originals, " "),
	}, nil
}

// fitWords shortens translation until it has no more words than original,
// truncating once the re-prompts are used up.
func (t *Translator) fitWords(ctx context.Context, original, translation string) (string, error) {
	limit := subtitle.CountWords(original)
	if limit == 0 {
		return translation, nil
	}

	current := translation
	for attempt := 0; attempt < t.opts.ShortenAttempts; attempt++ {
		words := subtitle.CountWords(current)
		if words <= limit {
			return current, nil
		}

		raw, err := t.gen.Generate(ctx, prompt.Shorten(original, current, limit, words))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			log.Warn("Shorten attempt %d failed: %v", attempt+1, err)
			break
		}
		current = strings.TrimSpace(raw)
	}

	if subtitle.CountWords(current) > limit {
		if fields := strings.Fields(current); len(fields) > limit {
			current = strings.Join(fields[:limit], " ")
		}
	}
	return current, nil
}
