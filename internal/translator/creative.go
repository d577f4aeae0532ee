package translator

import (
	"context"
	"strings"

	"github.com/MimeLyc/videotools/internal/gemini"
	"github.com/MimeLyc/videotools/internal/prompt"
	"github.com/MimeLyc/videotools/internal/subtitle"
)

// Step names one creative call.
type Step int

const (
	StepSummary Step = iota
	StepCaptions
	StepThumbnail
)

func (s Step) String() string {
	switch s {
	case StepSummary:
		return "generating summary"
	case StepCaptions:
		return "generating captions"
	default:
		return "generating thumbnail text"
	}
}

// Fraction is the run progress reported when the step starts.
func (s Step) Fraction() float64 {
	switch s {
	case StepSummary:
		return 0.85
	case StepCaptions:
		return 0.90
	default:
		return 0.95
	}
}

// Content holds the raw creative responses.
type Content struct {
	Summary   string
	Captions  string
	Thumbnail string
}

// Brand is wrapped around the body of every caption variant.
type Brand struct {
	Prefix string
	Suffix string
}

// Creative makes the summary, caption and thumbnail calls.
type Creative struct {
	gen   gemini.Generator
	brand Brand
}

func NewCreative(gen gemini.Generator, brand Brand) *Creative {
	return &Creative{gen: gen, brand: brand}
}

// Generate runs the three calls in order. onStep may be nil.
func (c *Creative) Generate(ctx context.Context, translated []subtitle.Entry, onStep func(Step)) (*Content, error) {
	notify := func(s Step) {
		if onStep != nil {
			onStep(s)
		}
	}
	fullText := strings.Join(subtitle.Texts(translated), " ")

	notify(StepSummary)
	summary, err := c.gen.Generate(ctx, prompt.Summary(fullText))
	if err != nil {
		return nil, err
	}

	notify(StepCaptions)
	captions, err := c.gen.Generate(ctx, prompt.Captions(summary))
	if err != nil {
		return nil, err
	}
	captions = BrandCaptions(captions, c.brand.Prefix, c.brand.Suffix)

	notify(StepThumbnail)
	thumbnail, err := c.gen.Generate(ctx, prompt.Thumbnail(summary))
	if err != nil {
		return nil, err
	}

	return &Content{
		Summary:   summary,
		Captions:  captions,
		Thumbnail: thumbnail,
	}, nil
}

// BrandCaptions wraps the first body line of each "===" section with prefix
// and suffix. Text without sections, or an empty brand, is returned as is.
func BrandCaptions(raw, prefix, suffix string) string {
	if prefix == "" && suffix == "" {
		return raw
	}
	if !strings.Contains(raw, "===") {
		return raw
	}

	var (
		blocks  []string
		current []string
		branded = true
	)
	flush := func() {
		if body := strings.TrimSpace(strings.Join(current, "\n")); body != "" {
			blocks = append(blocks, body)
		}
		current = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "==="):
			flush()
			current = append(current, trimmed)
			branded = false
		case !branded && trimmed != "":
			current = append(current, prefix+trimmed+suffix)
			branded = true
		default:
			current = append(current, line)
		}
	}
	flush()

	return strings.Join(blocks, "\n\n")
}
