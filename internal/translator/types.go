package translator

import "fmt"

// BatchSize is the number of entries sent per remote call.
const BatchSize = 15

// Translation occupies the progress band between parsing (first 10%) and
// creative generation (last 15%).
const (
	ProgressParsed    = 0.10
	progressBatchSpan = 0.75
)

// DefaultShortenAttempts bounds the re-prompts made for one over-long line.
const DefaultShortenAttempts = 3

// BatchProgress is reported before each batch is sent.
type BatchProgress struct {
	Index    int // 0-based
	Total    int
	Fraction float64
}

func newBatchProgress(index, total int) BatchProgress {
	return BatchProgress{
		Index:    index,
		Total:    total,
		Fraction: BatchFraction(index, total),
	}
}

// BatchFraction is the run progress when batch index of total starts.
func BatchFraction(index, total int) float64 {
	if total <= 0 {
		return ProgressParsed
	}
	return ProgressParsed + float64(index)/float64(total)*progressBatchSpan
}

// BatchCount is the number of batches n entries split into.
func (o Options) BatchCount(n int) int {
	size := o.withDefaults().BatchSize
	return (n + size - 1) / size
}

// Status is the 1-based text shown to users.
func (p BatchProgress) Status() string {
	return fmt.Sprintf("batch %d of %d", p.Index+1, p.Total)
}

// Options tunes a Translator.
type Options struct {
	BatchSize int
	// StrictNumbering rejects response lines without a numeric prefix
	// instead of using them verbatim.
	StrictNumbering bool
	// EnforceWordLimit re-prompts lines with more words than the original.
	EnforceWordLimit bool
	ShortenAttempts  int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = BatchSize
	}
	if o.ShortenAttempts <= 0 {
		o.ShortenAttempts = DefaultShortenAttempts
	}
	return o
}
