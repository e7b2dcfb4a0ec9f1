package mindmap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docanalyzer/internal/ai"

	"github.com/rs/zerolog"
)

// Generation parameters for the attempt loop. Temperature and token budget
// grow with each attempt: a terser, more deterministic completion is more
// likely to be well-formed JSON, so the first attempt starts near zero.
const (
	maxContentLength = 15000
	maxAttempts      = 3
	baseTemperature  = 0.05
	temperatureStep  = 0.05
	baseMaxTokens    = 4000
	maxTokensStep    = 500
)

// ErrNoContent is returned when there is nothing to analyze. It is the only
// way Generate can fail: malformed model output is absorbed by the
// repair/fallback path.
var ErrNoContent = errors.New("no document content provided")

// ProgressFunc receives human-readable generation progress for the caller to
// surface.
type ProgressFunc func(message string)

// Builder orchestrates completion calls, JSON repair and fallback extraction
// to produce a validated Outline.
type Builder struct {
	gateway  ai.Gateway
	log      zerolog.Logger
	progress ProgressFunc
}

func NewBuilder(gateway ai.Gateway, log zerolog.Logger) *Builder {
	return &Builder{gateway: gateway, log: log}
}

// OnProgress registers a progress callback. Nil disables notifications.
func (b *Builder) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

func (b *Builder) notify(format string, args ...any) {
	if b.progress != nil {
		b.progress(fmt.Sprintf(format, args...))
	}
}

// Generate builds an outline from the combined document text. Each attempt
// fully resolves before the next begins; the loop is sequential by design.
func (b *Builder) Generate(ctx context.Context, documentText string, titles []string) (*Outline, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, ErrNoContent
	}

	title := buildTitle(titles)
	b.notify("Analyzing %d characters of document content", len(documentText))

	processed := documentText
	if len(documentText) > maxContentLength {
		b.notify("Large document detected (%d characters), using intelligent sampling", len(documentText))
		processed = sampleText(documentText)
	}
	prompt := buildPrompt(processed, titles)

	var lastResponse string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		b.notify("Generation attempt %d of %d", attempt, maxAttempts)
		opts := ai.Options{
			MaxTokens:   baseMaxTokens + (attempt-1)*maxTokensStep,
			Temperature: baseTemperature + float64(attempt-1)*temperatureStep,
		}

		response, err := b.gateway.Complete(ctx, []ai.Message{{Role: "user", Content: prompt}}, opts)
		if err != nil {
			b.log.Warn().Err(err).Int("attempt", attempt).Msg("completion failed")
			continue
		}
		lastResponse = response

		raw, ok := decodeLoose(response)
		if !ok {
			b.log.Warn().Int("attempt", attempt).Msg("response not parseable as JSON after repair")
			continue
		}

		outline := NormalizeOutline(raw, title)
		if len(outline.Themes) == 0 {
			b.log.Warn().Int("attempt", attempt).Msg("parsed response contained no themes")
			continue
		}
		if err := outline.Validate(); err != nil {
			b.log.Warn().Err(err).Int("attempt", attempt).Msg("normalized outline failed validation")
			continue
		}
		b.notify("Generated %d themes", outline.Stats.ThemeCount)
		return outline, nil
	}

	b.notify("Generation failed, extracting themes heuristically")
	return b.fallbackOutline(title, lastResponse, documentText)
}

// fallbackOutline guarantees a usable tree when generation and parsing fail
// outright: heading-like lines from the response, then from the source text,
// then generic placeholders.
func (b *Builder) fallbackOutline(title, response, documentText string) (*Outline, error) {
	themes := scanThemeLines(response)
	if len(themes) == 0 {
		themes = scanThemeLines(documentText)
	}
	if len(themes) == 0 {
		themes = genericThemes()
	}

	o := &Outline{Title: title, Themes: themes}
	ensureUniqueIDs(o)
	o.computeStats()
	if err := o.Validate(); err != nil {
		// Should be unreachable; the heuristic output is built to the schema.
		return nil, fmt.Errorf("fallback outline invalid: %w", err)
	}
	b.notify("Extracted %d themes from document structure", o.Stats.ThemeCount)
	return o, nil
}

func buildTitle(titles []string) string {
	switch len(titles) {
	case 0:
		return "Document Mind Map"
	case 1:
		return "Mind Map: " + titles[0]
	default:
		return fmt.Sprintf("Mind Map: %d Documents", len(titles))
	}
}

// sampleText takes fixed-size slices from the start, two interior points and
// the end of the document so introduction, body and conclusion all stay
// represented, instead of naive truncation.
func sampleText(text string) string {
	sampleSize := maxContentLength / 4
	quarter := len(text) / 4
	half := len(text) / 2
	samples := []string{
		text[:sampleSize],
		text[quarter : quarter+sampleSize],
		text[half : half+sampleSize],
		text[len(text)-sampleSize:],
	}
	return strings.Join(samples, "\n\n[DOCUMENT SECTION]\n\n")
}

func buildPrompt(content string, titles []string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the document content and create a detailed mind map structure.\n\n")
	sb.WriteString("IMPORTANT: Return ONLY the JSON object, no explanations.\n\n")
	sb.WriteString(`{
  "title": "Document Mind Map",
  "themes": [
    {
      "id": "theme_1",
      "name": "Theme Name",
      "summary": "Brief description",
      "importance": 0.9,
      "keywords": ["keyword"],
      "subtopics": [
        {
          "id": "theme_1_sub_1",
          "name": "Subtopic Name",
          "summary": "Brief description",
          "details": [
            {
              "id": "theme_1_sub_1_detail_1",
              "name": "Specific Detail",
              "summary": "Explanation of this detail"
            }
          ]
        }
      ]
    }
  ]
}`)
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("- Create 4-6 main themes based on actual document content\n")
	fmt.Fprintf(&sb, "- Each theme should have 2-4 meaningful subtopics, each with up to %d details\n", maxDetails)
	fmt.Fprintf(&sb, "- Keep names under %d characters\n", maxNameLength)
	fmt.Fprintf(&sb, "- Keep summaries under %d characters\n", maxSummaryLength)
	sb.WriteString("- Ensure perfect JSON syntax\n\n")
	if len(titles) > 0 {
		fmt.Fprintf(&sb, "Analyzing: %s\n\n", strings.Join(titles, ", "))
	}
	sb.WriteString("Document Content:\n")
	sb.WriteString(content)
	return sb.String()
}
