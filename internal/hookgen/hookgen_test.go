package hookgen

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/videos"
)

func TestTemplateEngineGenerate(t *testing.T) {
	engine := NewTemplateEngine()
	req := models.HookGenerationRequest{Idea: "  Ahorrar dinero. ", Niche: "finanzas", Platform: "TikTok"}

	hooks, err := engine.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(hooks) != len(Types) {
		t.Fatalf("expected %d hooks, got %d", len(Types), len(hooks))
	}
	for i, h := range hooks {
		if h.Type != Types[i] {
			t.Fatalf("hook %d: expected type %q, got %q", i, Types[i], h.Type)
		}
		if !strings.Contains(h.Text, "ahorrar dinero") {
			t.Fatalf("hook %d does not mention the idea: %q", i, h.Text)
		}
		if h.RetentionScore < 0 || h.RetentionScore > 100 {
			t.Fatalf("hook %d: score out of range %v", i, h.RetentionScore)
		}
		if !strings.Contains(h.Description, "finanzas") {
			t.Fatalf("hook %d: expected niche in description %q", i, h.Description)
		}
	}

	again, _ := engine.Generate(context.Background(), req)
	if !reflect.DeepEqual(hooks, again) {
		t.Fatal("expected identical output for identical input")
	}

	result := models.HookGenerationResult{Status: "success", Hooks: hooks}
	if err := result.Validate(); err != nil {
		t.Fatalf("generated hooks must pass schema checks: %v", err)
	}
}

func TestTemplateEngineGenerateRejectsEmptyIdea(t *testing.T) {
	if _, err := NewTemplateEngine().Generate(context.Background(), models.HookGenerationRequest{Idea: " ?! "}); !errors.Is(err, ErrEmptyIdea) {
		t.Fatalf("expected ErrEmptyIdea, got %v", err)
	}
}

func TestTemplateEngineExtractHook(t *testing.T) {
	content := videos.Content{Transcript: "Deja de desayunar lo mismo todos los días. Hoy preparo tostadas. Primero el pan. Luego el café."}

	hook, script, err := NewTemplateEngine().ExtractHook(context.Background(), content)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if hook.UsedInVideo != "Deja de desayunar lo mismo todos los días." {
		t.Fatalf("unexpected used_in_video %q", hook.UsedInVideo)
	}
	if hook.General != "Deja de desayunar lo ____" {
		t.Fatalf("unexpected general %q", hook.General)
	}
	if hook.Type != TypeControversial {
		t.Fatalf("expected controversial, got %q", hook.Type)
	}
	if !strings.HasPrefix(script, hook.General) || strings.Count(script, Blank) != 5 {
		t.Fatalf("unexpected script %q", script)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		sentence string
		want     string
	}{
		{"¿Sabías que el café engorda?", TypeCuriosity},
		{"No vas a creer este truco", TypeSurprise},
		{"Gané 500 euros en una semana", TypeRational},
		{"Mi abuela me enseñó esta receta", TypeEmotional},
		{"Nunca laves la sartén con jabón", TypeControversial},
		{"El secreto de los chefs", TypeCuriosity},
		{"Tres razones para dormir la siesta", TypeRational},
	}
	for _, tc := range cases {
		if got := classify(tc.sentence); got != tc.want {
			t.Errorf("classify(%q) = %q, want %q", tc.sentence, got, tc.want)
		}
	}
}

type stubModel struct {
	answer string
	err    error
	prompt string
}

func (s *stubModel) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, s.err
}

func (s *stubModel) Name() string { return "stub" }

func TestLLMEngineGenerate(t *testing.T) {
	model := &stubModel{answer: "```json\n{\"hooks\":[{\"text\":\" Hola \",\"type\":\"Emocional\",\"retention_score\":120},{\"text\":\"\",\"type\":\"racional\"},{\"text\":\"Otro\",\"type\":\"sorpresa\",\"retention_score\":-4}]}\n```"}

	hooks, err := NewLLMEngine(model).Generate(context.Background(), models.HookGenerationRequest{Idea: "recetas", Niche: "cocina"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []models.GeneratedHook{
		{Text: "Hola", Type: TypeEmotional, RetentionScore: 100},
		{Text: "Otro", Type: TypeSurprise, RetentionScore: 0},
	}
	if !reflect.DeepEqual(hooks, want) {
		t.Fatalf("unexpected hooks %+v", hooks)
	}
	if !strings.Contains(model.prompt, "recetas") || !strings.Contains(model.prompt, "Nicho: cocina") {
		t.Fatalf("prompt is missing request fields: %s", model.prompt)
	}
}

func TestLLMEngineGenerateErrors(t *testing.T) {
	boom := errors.New("throttled")
	cases := []struct {
		name  string
		model *stubModel
		idea  string
		want  error
	}{
		{"empty idea", &stubModel{}, " ", ErrEmptyIdea},
		{"model error", &stubModel{err: boom}, "x", boom},
		{"prose only", &stubModel{answer: "no puedo ayudar"}, "x", ErrMalformedOutput},
		{"bad json", &stubModel{answer: "{hooks: nope}"}, "x", ErrMalformedOutput},
		{"no hooks", &stubModel{answer: `{"hooks":[]}`}, "x", ErrMalformedOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLLMEngine(tc.model).Generate(context.Background(), models.HookGenerationRequest{Idea: tc.idea})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLLMEngineExtractHook(t *testing.T) {
	model := &stubModel{answer: `Aquí tienes: {"hook":{"general":"Deja de ____","used_in_video":"Deja de comprar pan","type":"Controversial"},"script_base":" Deja de ____. Prueba ____. "}`}

	hook, script, err := NewLLMEngine(model).ExtractHook(context.Background(), videos.Content{Title: "Pan", Transcript: "Deja de comprar pan."})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if hook.Type != TypeControversial || hook.General != "Deja de ____" {
		t.Fatalf("unexpected hook %+v", hook)
	}
	if script != "Deja de ____. Prueba ____." {
		t.Fatalf("unexpected script %q", script)
	}

	model.answer = `{"hook":{},"script_base":"x"}`
	if _, _, err := NewLLMEngine(model).ExtractHook(context.Background(), videos.Content{Transcript: "x"}); !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
	if _, _, err := NewLLMEngine(model).ExtractHook(context.Background(), videos.Content{}); !errors.Is(err, videos.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestBreakdownPromptTruncatesTranscript(t *testing.T) {
	long := strings.Repeat("á", maxTranscriptRunes+100)
	prompt := breakdownPrompt(videos.Content{Transcript: long})
	if strings.Count(prompt, "á") != maxTranscriptRunes {
		t.Fatalf("expected transcript to be truncated to %d runes", maxTranscriptRunes)
	}
}
