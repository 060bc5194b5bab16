package hookgen

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/videos"
)

// Blank marks the part of a hook or script the creator fills in.
const Blank = "____"

type template struct {
	kind        string
	format      string
	score       float64
	description string
}

var templates = []template{
	{TypeEmotional, "Nadie me dijo lo difícil que iba a ser %s, hasta que me pasó a mí", 78, "Conecta desde una experiencia personal"},
	{TypeRational, "3 razones por las que %s funciona y cómo aplicarlo hoy", 72, "Promete un beneficio concreto y medible"},
	{TypeSurprise, "No vas a creer lo que pasó cuando probé %s", 81, "Abre con un resultado inesperado"},
	{TypeControversial, "Todo lo que te contaron sobre %s está mal", 85, "Contradice una creencia común"},
	{TypeCuriosity, "El secreto de %s que casi nadie conoce", 88, "Deja una pregunta abierta hasta el final"},
}

var platformBonus = map[string]float64{
	"tiktok":    3,
	"instagram": 2,
	"youtube":   1,
}

// TemplateEngine writes hooks from fixed templates and analyses transcripts
// with simple sentence heuristics. Output depends only on the input.
type TemplateEngine struct{}

// NewTemplateEngine returns the deterministic engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{}
}

// Generate returns one candidate per hook type.
func (e *TemplateEngine) Generate(_ context.Context, req models.HookGenerationRequest) ([]models.GeneratedHook, error) {
	idea := cleanIdea(req.Idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}

	niche := strings.TrimSpace(req.Niche)
	bonus := platformBonus[strings.ToLower(strings.TrimSpace(req.Platform))]
	if niche != "" {
		bonus += 2
	}

	hooks := make([]models.GeneratedHook, 0, len(templates))
	for _, t := range templates {
		description := t.description
		if niche != "" {
			description = fmt.Sprintf("%s para el nicho %s", description, niche)
		}
		hooks = append(hooks, models.GeneratedHook{
			Text:           fmt.Sprintf(t.format, idea),
			Type:           t.kind,
			RetentionScore: clampScore(t.score + bonus),
			Description:    description,
		})
	}
	return hooks, nil
}

// ExtractHook takes the opening sentence as the hook and builds a fill-in
// script from the remaining structure of the transcript.
func (e *TemplateEngine) ExtractHook(_ context.Context, content videos.Content) (models.Hook, string, error) {
	sentences := splitSentences(content.Transcript)
	if len(sentences) == 0 {
		return models.Hook{}, "", videos.ErrNoContent
	}

	opening := sentences[0]
	hook := models.Hook{
		General:     generalize(opening),
		UsedInVideo: opening,
		Type:        classify(opening),
	}

	var script strings.Builder
	script.WriteString(hook.General)
	steps := []string{"Lo primero es " + Blank, "Después " + Blank, "Al final " + Blank}
	n := len(sentences) - 1
	if n < 1 {
		n = 1
	}
	if n > len(steps) {
		n = len(steps)
	}
	for _, step := range steps[:n] {
		script.WriteString(". ")
		script.WriteString(step)
	}
	script.WriteString(". Si te sirvió, guarda este video para " + Blank + ".")

	return hook, script.String(), nil
}

func cleanIdea(idea string) string {
	idea = strings.TrimSpace(idea)
	idea = strings.TrimRight(idea, ".!?¡¿ ")
	idea = strings.TrimLeft(idea, "¡¿ ")
	if idea == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(idea)
	if unicode.IsUpper(r) {
		second, _ := utf8.DecodeRuneInString(idea[size:])
		if !unicode.IsUpper(second) {
			idea = string(unicode.ToLower(r)) + idea[size:]
		}
	}
	return idea
}

func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			flush()
		}
	}
	flush()
	return sentences
}

// generalize keeps the first half of the sentence and blanks the rest.
func generalize(sentence string) string {
	sentence = strings.TrimRight(sentence, ".!? ")
	words := strings.Fields(sentence)
	if len(words) <= 3 {
		return strings.Join(words, " ") + " " + Blank
	}
	keep := len(words) / 2
	if keep < 3 {
		keep = 3
	}
	return strings.Join(words[:keep], " ") + " " + Blank
}

var keywords = []struct {
	kind  string
	words []string
}{
	{TypeControversial, []string{"deja de", "nunca", "mentira", "error", "está mal", "stop"}},
	{TypeSurprise, []string{"no vas a creer", "increíble", "sorpresa", "jamás imaginé", "wow"}},
	{TypeCuriosity, []string{"secreto", "nadie sabe", "por qué", "truco"}},
	{TypeRational, []string{"razones", "pasos", "datos", "porque"}},
}

func classify(sentence string) string {
	lower := strings.ToLower(sentence)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.kind
			}
		}
	}
	if strings.ContainsAny(lower, "?¿") {
		return TypeCuriosity
	}
	if strings.IndexFunc(lower, unicode.IsDigit) >= 0 {
		return TypeRational
	}
	return TypeEmotional
}
